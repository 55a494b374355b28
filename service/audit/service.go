package audit

import (
	"context"

	"github.com/viant/flowgate/model"
)

// Service defines the audit log contract. Entries are append-only: no
// implementation exposes mutation or deletion.
type Service interface {
	// Append records an entry; the log assigns the next sequence number for
	// the entry's instance when Seq is zero.
	Append(ctx context.Context, entry *model.Entry) error

	// List returns all entries for an instance in sequence order.
	List(ctx context.Context, instanceID string) ([]*model.Entry, error)
}
