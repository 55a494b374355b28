package flowgate

import (
	"context"
	"fmt"

	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/audit"
	"github.com/viant/flowgate/service/engine"
	"github.com/viant/flowgate/service/template"
)

// Runtime represents the approval engine runtime.
type Runtime struct {
	engine    *engine.Service
	templates template.Service
	history   audit.Service
	loader    *template.Loader
}

// ---------------------------------------------------------------------------
// Template authoring
// ---------------------------------------------------------------------------

// CreateTemplate validates the steps and stores version 1 with active status.
func (r *Runtime) CreateTemplate(ctx context.Context, name string, steps []*model.Step) (*model.Template, error) {
	return r.templates.Create(ctx, name, steps)
}

// UpdateTemplate re-validates and allocates the next version; prior versions
// stay retrievable and pinned instances are unaffected.
func (r *Runtime) UpdateTemplate(ctx context.Context, id string, steps []*model.Step) (*model.Template, error) {
	return r.templates.Update(ctx, id, steps)
}

// RetireTemplate blocks new instance creation for the template id.
func (r *Runtime) RetireTemplate(ctx context.Context, id string) error {
	return r.templates.Retire(ctx, id)
}

// Template returns the immutable template version.
func (r *Runtime) Template(ctx context.Context, id string, version int) (*model.Template, error) {
	return r.templates.Snapshot(ctx, id, version)
}

// Templates returns the latest version of every stored template.
func (r *Runtime) Templates(ctx context.Context) ([]*model.Template, error) {
	return r.templates.List(ctx)
}

// ImportTemplate loads a template document from an afs URL (file, mem, s3,
// ...) and registers it as a new template.
func (r *Runtime) ImportTemplate(ctx context.Context, location string) (*model.Template, error) {
	if r == nil || r.loader == nil {
		return nil, fmt.Errorf("runtime not fully initialised – loader missing")
	}
	document, err := r.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return r.templates.Create(ctx, document.Name, document.Steps)
}

// DecodeYAMLTemplate decodes a template authoring document.
func (r *Runtime) DecodeYAMLTemplate(data []byte) (*template.Document, error) {
	return template.DecodeYAML(data)
}

// ---------------------------------------------------------------------------
// Instance operations
// ---------------------------------------------------------------------------

// CreateInstance starts an instance of the template's latest active version.
func (r *Runtime) CreateInstance(ctx context.Context, templateID, businessRef, initiatorID string, businessContext map[string]interface{}) (*model.Instance, error) {
	return r.engine.CreateInstance(ctx, templateID, businessRef, initiatorID, businessContext)
}

// SubmitDecision applies one operator response to the instance's current step.
func (r *Runtime) SubmitDecision(ctx context.Context, request *engine.DecisionRequest) (*engine.DecisionResult, error) {
	return r.engine.SubmitDecision(ctx, request)
}

// CancelInstance transitions a pending instance to canceled.
func (r *Runtime) CancelInstance(ctx context.Context, instanceID, requesterID string) error {
	return r.engine.CancelInstance(ctx, instanceID, requesterID)
}

// AdminForceResolve resolves an instance stuck in the exception state.
func (r *Runtime) AdminForceResolve(ctx context.Context, instanceID string, newStatus model.Status, adminID, reason string) error {
	return r.engine.AdminForceResolve(ctx, instanceID, newStatus, adminID, reason)
}

// Instance returns the instance projection with its pinned template and
// history.
func (r *Runtime) Instance(ctx context.Context, instanceID string) (*engine.InstanceView, error) {
	return r.engine.GetInstance(ctx, instanceID)
}

// Instances returns instances matching the filter.
func (r *Runtime) Instances(ctx context.Context, filter *engine.ListFilter) (*engine.ListPage, error) {
	return r.engine.ListInstances(ctx, filter)
}

// History returns all history entries of an instance in sequence order.
func (r *Runtime) History(ctx context.Context, instanceID string) ([]*model.Entry, error) {
	return r.history.List(ctx, instanceID)
}

// Engine returns the underlying state machine service.
func (r *Runtime) Engine() *engine.Service {
	return r.engine
}
