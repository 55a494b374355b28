package audit

import (
	"context"
	"sync"

	"github.com/viant/flowgate/internal/clock"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/dao"
)

type memoryLog struct {
	mu      sync.RWMutex
	entries map[string][]*model.Entry
}

// NewMemoryLog creates an in-memory audit log.
func NewMemoryLog() Service {
	return &memoryLog{entries: make(map[string][]*model.Entry)}
}

func (l *memoryLog) Append(_ context.Context, entry *model.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.InstanceID == "" {
		return dao.ErrInvalidID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	recorded := *entry
	if recorded.Seq == 0 {
		recorded.Seq = len(l.entries[entry.InstanceID]) + 1
	}
	if recorded.CreatedAt.IsZero() {
		recorded.CreatedAt = clock.Now()
	}
	l.entries[entry.InstanceID] = append(l.entries[entry.InstanceID], &recorded)
	entry.Seq = recorded.Seq
	entry.CreatedAt = recorded.CreatedAt
	return nil
}

func (l *memoryLog) List(_ context.Context, instanceID string) ([]*model.Entry, error) {
	if instanceID == "" {
		return nil, dao.ErrInvalidID
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.entries[instanceID]
	out := make([]*model.Entry, len(entries))
	for i, entry := range entries {
		copied := *entry
		out[i] = &copied
	}
	return out, nil
}
