package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/model/types"
)

func expenseSteps() []*model.Step {
	return []*model.Step{
		{ID: "manager", Order: 1, Kind: model.KindApproval, Policy: model.PolicyAll, Approvers: []model.RoleRef{"department-manager"}},
		{ID: "amount", Order: 2, Kind: model.KindCondition, Expression: "amount > 5000", OnTrue: 3, OnFalse: model.Terminate},
		{ID: "director", Order: 3, Kind: model.KindApproval, Policy: model.PolicyAny, Approvers: []model.RoleRef{"director"}},
	}
}

func TestMemoryService_Versioning(t *testing.T) {
	ctx := context.Background()
	service := NewMemoryService()

	created, err := service.Create(ctx, "expense", expenseSteps())
	assert.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, model.TemplateActive, created.Status)

	updated, err := service.Update(ctx, created.ID, expenseSteps()[:1])
	assert.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// prior version stays retrievable for pinned instances
	v1, err := service.Snapshot(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Len(t, v1.Steps, 3)

	latest, err := service.Latest(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Len(t, latest.Steps, 1)
}

func TestMemoryService_SnapshotImmutability(t *testing.T) {
	ctx := context.Background()
	service := NewMemoryService()

	created, err := service.Create(ctx, "expense", expenseSteps())
	assert.NoError(t, err)

	snapshot, err := service.Snapshot(ctx, created.ID, 1)
	assert.NoError(t, err)
	snapshot.Steps[0].Approvers[0] = "tampered"

	again, err := service.Snapshot(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleRef("department-manager"), again.Steps[0].Approvers[0])
}

func TestMemoryService_ValidationFailure(t *testing.T) {
	ctx := context.Background()
	service := NewMemoryService()

	steps := expenseSteps()
	steps[1].Order = 5 // breaks contiguity
	_, err := service.Create(ctx, "broken", steps)
	assert.Error(t, err)
	var validationErr *types.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestMemoryService_Retire(t *testing.T) {
	ctx := context.Background()
	service := NewMemoryService()

	created, err := service.Create(ctx, "expense", expenseSteps())
	assert.NoError(t, err)
	assert.NoError(t, service.Retire(ctx, created.ID))

	latest, err := service.Latest(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.TemplateRetired, latest.Status)

	assert.Error(t, service.Retire(ctx, "missing"))
}

func TestDecodeYAML(t *testing.T) {
	encoded := []byte(`
name: expense
steps:
  - id: manager
    order: 1
    kind: approval
    policy: all
    approvers:
      - department-manager
  - id: amount
    order: 2
    kind: condition
    expression: amount > 5000
    onTrue: 3
    onFalse: terminate
  - id: director
    order: 3
    kind: approval
    policy: quorum
    quorum: 2
    approvers:
      - director
      - cfo
      - ceo
`)
	document, err := DecodeYAML(encoded)
	assert.NoError(t, err)
	assert.Equal(t, "expense", document.Name)
	assert.Len(t, document.Steps, 3)
	assert.Equal(t, model.NextRef(3), document.Steps[1].OnTrue)
	assert.Equal(t, model.Terminate, int(document.Steps[1].OnFalse))
	assert.Equal(t, 2, document.Steps[2].Quorum)

	ctx := context.Background()
	service := NewMemoryService()
	created, err := service.Create(ctx, document.Name, document.Steps)
	assert.NoError(t, err)
	assert.Equal(t, 1, created.Version)
}
