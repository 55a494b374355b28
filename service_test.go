package flowgate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/engine"
	"github.com/viant/flowgate/service/identity"
)

const expenseTemplateYAML = `
name: expense approval
steps:
  - id: manager-review
    name: manager review
    order: 1
    kind: approval
    approvers: [manager]
    policy: any
  - id: notify-initiator
    order: 2
    kind: notification
    notifyTargets: [initiator]
  - id: amount-check
    order: 3
    kind: condition
    expression: amount > 5000
    onTrue: 4
    onFalse: terminate
  - id: finance-review
    name: finance review
    order: 4
    kind: approval
    approvers: [finance]
    policy: any
`

func newDirectory() identity.Provider {
	return identity.NewStatic(map[model.RoleRef][]string{
		"manager":   {"alice"},
		"finance":   {"carol"},
		"initiator": {"dave"},
	}, "root")
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := New(WithIdentityProvider(newDirectory()))
	rt := srv.Runtime()

	document, err := rt.DecodeYAMLTemplate([]byte(expenseTemplateYAML))
	assert.NoError(t, err)
	tmpl, err := rt.CreateTemplate(ctx, document.Name, document.Steps)
	assert.NoError(t, err)
	assert.Equal(t, 1, tmpl.Version)

	instance, err := rt.CreateInstance(ctx, tmpl.ID, "expense-1", "dave", map[string]interface{}{"amount": 6000})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, instance.Status)
	assert.Equal(t, 1, instance.CurrentStepOrder)

	result, err := rt.SubmitDecision(ctx, &engine.DecisionRequest{
		InstanceID: instance.ID, StepID: "manager-review", OperatorID: "alice", Action: model.ActionApprove,
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, result.CurrentStepOrder, "notification and condition auto-advanced")

	message, err := srv.Notifications().Consume(ctx)
	assert.NoError(t, err)
	event := message.T()
	assert.Equal(t, "notify-initiator", event.StepID)
	assert.EqualValues(t, []string{"dave"}, event.Recipients)
	assert.NoError(t, message.Ack())

	result, err = rt.SubmitDecision(ctx, &engine.DecisionRequest{
		InstanceID: instance.ID, StepID: "finance-review", OperatorID: "carol", Action: model.ActionApprove,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusApproved, result.Status)

	view, err := rt.Instance(ctx, instance.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(view.History))
	status, order := engine.Replay(view.Template, view.Instance, view.History)
	assert.Equal(t, view.Instance.Status, status)
	assert.Equal(t, view.Instance.CurrentStepOrder, order)

	page, err := rt.Instances(ctx, &engine.ListFilter{Status: []model.Status{model.StatusApproved}})
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestImportTemplateFromFile(t *testing.T) {
	ctx := context.Background()
	srv := New(WithIdentityProvider(newDirectory()))
	rt := srv.Runtime()

	location := filepath.Join(t.TempDir(), "expense-approval.yaml")
	assert.NoError(t, os.WriteFile(location, []byte(expenseTemplateYAML), 0o644))

	tmpl, err := rt.ImportTemplate(ctx, location)
	assert.NoError(t, err)
	assert.Equal(t, "expense approval", tmpl.Name)
	assert.Equal(t, 4, len(tmpl.Steps))
	assert.Equal(t, model.NextRef(model.Terminate), tmpl.StepAt(3).OnFalse)
}

func TestNewFromConfigWithStorage(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.Storage.Path = filepath.Join(t.TempDir(), "flowgate.db")

	srv, err := NewFromConfig(config, WithIdentityProvider(newDirectory()))
	assert.NoError(t, err)
	defer func() { assert.NoError(t, srv.Close()) }()
	rt := srv.Runtime()

	tmpl, err := rt.CreateTemplate(ctx, "leave approval", []*model.Step{
		{ID: "manager-review", Order: 1, Kind: model.KindApproval, Approvers: []model.RoleRef{"manager"}, Policy: model.PolicyAny},
	})
	assert.NoError(t, err)

	instance, err := rt.CreateInstance(ctx, tmpl.ID, "leave-1", "dave", nil)
	assert.NoError(t, err)

	result, err := rt.SubmitDecision(ctx, &engine.DecisionRequest{
		InstanceID: instance.ID, StepID: "manager-review", OperatorID: "alice", Action: model.ActionApprove,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusApproved, result.Status)

	entries, err := rt.History(ctx, instance.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())

	config.Notification.MaxRetries = -1
	assert.Error(t, config.Validate())
}
