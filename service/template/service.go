package template

import (
	"context"

	"github.com/viant/flowgate/model"
)

// Service defines the template store contract.
type Service interface {
	// Create validates the steps and stores version 1 with active status.
	Create(ctx context.Context, name string, steps []*model.Step) (*model.Template, error)

	// Update re-validates and allocates lastVersion+1; prior versions remain
	// retrievable and no existing instance is altered.
	Update(ctx context.Context, id string, steps []*model.Step) (*model.Template, error)

	// Retire blocks new instance creation for the template id.
	Retire(ctx context.Context, id string) error

	// Snapshot returns the immutable template version.
	Snapshot(ctx context.Context, id string, version int) (*model.Template, error)

	// Latest returns the highest version for the template id.
	Latest(ctx context.Context, id string) (*model.Template, error)

	// List returns the latest version of every stored template.
	List(ctx context.Context) ([]*model.Template, error)
}
