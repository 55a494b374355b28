package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/dao/criteria"
	"github.com/viant/flowgate/service/engine"
	"github.com/viant/flowgate/service/identity"
)

func openStore(t *testing.T) *Store {
	store, err := Open(filepath.Join(t.TempDir(), "flowgate.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func approvalSteps() []*model.Step {
	return []*model.Step{
		{ID: "manager-review", Order: 1, Kind: model.KindApproval, Approvers: []model.RoleRef{"manager"}, Policy: model.PolicyAny},
		{ID: "amount-check", Order: 2, Kind: model.KindCondition, Expression: "amount > 5000", OnTrue: 3, OnFalse: model.Terminate},
		{ID: "finance-review", Order: 3, Kind: model.KindApproval, Approvers: []model.RoleRef{"finance"}, Policy: model.PolicyAny},
	}
}

func TestTemplateVersioning(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	templates := store.Templates()

	created, err := templates.Create(ctx, "expense approval", approvalSteps())
	assert.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, model.TemplateActive, created.Status)

	updated, err := templates.Update(ctx, created.ID, approvalSteps())
	assert.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	snapshot, err := templates.Snapshot(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, snapshot.Version)
	assert.NotNil(t, snapshot.StepAt(2).Expr(), "condition expression reparsed after load")

	latest, err := templates.Latest(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	assert.NoError(t, templates.Retire(ctx, created.ID))
	latest, err = templates.Latest(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.TemplateRetired, latest.Status)

	_, err = templates.Snapshot(ctx, "missing", 1)
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	listed, err := templates.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(listed))
}

func TestInstanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	instances := store.Instances()

	instance := &model.Instance{
		ID:               "i1",
		TemplateID:       "t1",
		TemplateVersion:  1,
		BusinessRef:      "expense-1",
		InitiatorID:      "dave",
		CurrentStepOrder: 1,
		Status:           model.StatusPending,
		Context:          map[string]interface{}{"amount": 6000.0},
		Assignments: map[int][]*model.StepAssignment{
			1: {{Role: "manager", Operators: []string{"alice"}}},
		},
		Responses: []*model.Response{{Operator: "alice", Approved: true}},
	}
	assert.NoError(t, instances.Save(ctx, instance))

	loaded, err := instances.Load(ctx, "i1")
	assert.NoError(t, err)
	assert.Equal(t, instance.TemplateID, loaded.TemplateID)
	assert.EqualValues(t, 6000, loaded.Context["amount"])
	assert.Equal(t, instance.Assignments[1][0].Operators, loaded.Assignments[1][0].Operators)
	assert.Equal(t, instance.Responses[0].Operator, loaded.Responses[0].Operator)

	missing, err := instances.Load(ctx, "unknown")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	instance.Status = model.StatusApproved
	assert.NoError(t, instances.Save(ctx, instance))
	loaded, err = instances.Load(ctx, "i1")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusApproved, loaded.Status)

	matched, err := instances.List(ctx, dao.NewParameter(criteria.ParamStatus, string(model.StatusApproved)))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(matched))
	matched, err = instances.List(ctx, dao.NewParameter(criteria.ParamInitiatorID, "nobody"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(matched))
}

func TestHistoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	history := store.History()

	first := &model.Entry{InstanceID: "i1", Operator: "dave", Action: model.ActionAutoAdvance}
	assert.NoError(t, history.Append(ctx, first))
	assert.Equal(t, 1, first.Seq)
	assert.False(t, first.CreatedAt.IsZero())

	second := &model.Entry{InstanceID: "i1", StepID: "manager-review", StepOrder: 1, Operator: "alice", Action: model.ActionApprove}
	assert.NoError(t, history.Append(ctx, second))
	assert.Equal(t, 2, second.Seq)

	// duplicate sequence numbers are rejected by the primary key
	assert.Error(t, history.Append(ctx, &model.Entry{InstanceID: "i1", Seq: 2, Operator: "bob", Action: model.ActionApprove}))

	entries, err := history.List(ctx, "i1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, model.ActionApprove, entries[1].Action)
}

func TestEngineOnSQLiteStores(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	templates := store.Templates()

	tmpl, err := templates.Create(ctx, "expense approval", approvalSteps())
	assert.NoError(t, err)

	directory := identity.NewStatic(map[model.RoleRef][]string{
		"manager": {"alice"},
		"finance": {"carol"},
	}, "root")
	svc := engine.New(templates, directory,
		engine.WithInstanceStore(store.Instances()),
		engine.WithAuditLog(store.History()))

	instance, err := svc.CreateInstance(ctx, tmpl.ID, "expense-7001", "dave", map[string]interface{}{"amount": 9000})
	assert.NoError(t, err)

	result, err := svc.SubmitDecision(ctx, &engine.DecisionRequest{
		InstanceID: instance.ID, StepID: "manager-review", OperatorID: "alice", Action: model.ActionApprove,
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, result.CurrentStepOrder)

	result, err = svc.SubmitDecision(ctx, &engine.DecisionRequest{
		InstanceID: instance.ID, StepID: "finance-review", OperatorID: "carol", Action: model.ActionApprove,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusApproved, result.Status)

	view, err := svc.GetInstance(ctx, instance.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(view.History))
	status, order := engine.Replay(view.Template, view.Instance, view.History)
	assert.Equal(t, view.Instance.Status, status)
	assert.Equal(t, view.Instance.CurrentStepOrder, order)
}
