// Package identity resolves abstract role references to the concrete
// operators eligible to act on a step for a given business record. The
// directory itself is an external collaborator; this package defines its
// contract and ships a static in-memory resolver for embedding and tests.
package identity

import (
	"context"

	"github.com/viant/flowgate/model"
)

// Provider resolves approver roles against a business context.
type Provider interface {
	// ResolveApprovers maps a role to the operator ids eligible to act for
	// the given business record.
	ResolveApprovers(ctx context.Context, role model.RoleRef, businessRef string) ([]string, error)

	// IsAdmin reports whether the operator holds an administrative role.
	IsAdmin(ctx context.Context, operatorID string) (bool, error)
}

// Static is a map-backed Provider.
type Static struct {
	roles  map[model.RoleRef][]string
	admins map[string]bool
}

// NewStatic creates a static provider from a role directory and an admin
// set.
func NewStatic(roles map[model.RoleRef][]string, admins ...string) *Static {
	adminSet := make(map[string]bool, len(admins))
	for _, admin := range admins {
		adminSet[admin] = true
	}
	copied := make(map[model.RoleRef][]string, len(roles))
	for role, operators := range roles {
		copied[role] = append([]string(nil), operators...)
	}
	return &Static{roles: copied, admins: adminSet}
}

// ResolveApprovers returns the operators registered for the role; the
// business record is ignored by the static directory.
func (s *Static) ResolveApprovers(_ context.Context, role model.RoleRef, _ string) ([]string, error) {
	return append([]string(nil), s.roles[role]...), nil
}

// IsAdmin reports whether the operator was registered as an admin.
func (s *Static) IsAdmin(_ context.Context, operatorID string) (bool, error) {
	return s.admins[operatorID], nil
}

var _ Provider = (*Static)(nil)
