package template

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/flowgate/internal/idgen"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/model/types"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/dao/store"
)

// templateMeta tracks the mutable per-id state; version rows themselves are
// immutable once stored.
type templateMeta struct {
	name        string
	lastVersion int
	status      model.TemplateStatus
}

type memoryService struct {
	mu       sync.RWMutex
	meta     map[string]*templateMeta
	versions dao.Service[string, model.Template]
}

func versionKey(t *model.Template) string { return model.VersionKey(t.ID, t.Version) }

// NewMemoryService creates an in-memory template store.
func NewMemoryService() Service {
	return &memoryService{
		meta:     make(map[string]*templateMeta),
		versions: store.NewMemoryStore[string, model.Template](versionKey),
	}
}

func (s *memoryService) Create(ctx context.Context, name string, steps []*model.Step) (*model.Template, error) {
	template := &model.Template{
		ID:      idgen.New(),
		Name:    name,
		Version: 1,
		Status:  model.TemplateActive,
		Steps:   steps,
	}
	if issues := template.Validate(); len(issues) > 0 {
		return nil, types.NewValidationError(issues...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[template.ID] = &templateMeta{name: name, lastVersion: 1, status: model.TemplateActive}
	if err := s.versions.Save(ctx, template.Clone()); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *memoryService) Update(ctx context.Context, id string, steps []*model.Step) (*model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.meta[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
	}
	template := &model.Template{
		ID:      id,
		Name:    meta.name,
		Version: meta.lastVersion + 1,
		Status:  meta.status,
		Steps:   steps,
	}
	if issues := template.Validate(); len(issues) > 0 {
		return nil, types.NewValidationError(issues...)
	}
	if err := s.versions.Save(ctx, template.Clone()); err != nil {
		return nil, err
	}
	meta.lastVersion = template.Version
	return template, nil
}

func (s *memoryService) Retire(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.meta[id]
	if !ok {
		return fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
	}
	meta.status = model.TemplateRetired
	return nil
}

func (s *memoryService) Snapshot(ctx context.Context, id string, version int) (*model.Template, error) {
	s.mu.RLock()
	meta, ok := s.meta[id]
	var status model.TemplateStatus
	if ok {
		status = meta.status
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
	}
	template, err := s.versions.Load(ctx, model.VersionKey(id, version))
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template %s version %d: %w", id, version, dao.ErrNotFound)
	}
	snapshot := template.Clone()
	snapshot.Status = status
	return snapshot, nil
}

func (s *memoryService) Latest(ctx context.Context, id string) (*model.Template, error) {
	s.mu.RLock()
	meta, ok := s.meta[id]
	var lastVersion int
	if ok {
		lastVersion = meta.lastVersion
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
	}
	return s.Snapshot(ctx, id, lastVersion)
}

func (s *memoryService) List(ctx context.Context) ([]*model.Template, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.meta))
	for id := range s.meta {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	result := make([]*model.Template, 0, len(ids))
	for _, id := range ids {
		template, err := s.Latest(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, template)
	}
	return result, nil
}

var _ Service = (*memoryService)(nil)
