package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/flowgate/internal/clock"
	"github.com/viant/flowgate/internal/idgen"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/model/types"
	"github.com/viant/flowgate/policy"
	"github.com/viant/flowgate/progress"
	"github.com/viant/flowgate/service/aggregator"
	"github.com/viant/flowgate/service/audit"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/dao/criteria"
	"github.com/viant/flowgate/service/dao/store"
	"github.com/viant/flowgate/service/identity"
	"github.com/viant/flowgate/service/notify"
	"github.com/viant/flowgate/service/template"
	"github.com/viant/flowgate/tracing"
)

// systemOperator marks history entries the engine appended on its own.
const systemOperator = "system"

// Service is the instance state machine. Operations against the same
// instance id are serialized; distinct instances run fully in parallel.
type Service struct {
	templates  template.Service
	directory  identity.Provider
	instances  dao.Service[string, model.Instance]
	history    audit.Service
	dispatcher notify.Dispatcher
	business   BusinessDataProvider

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an engine bound to the template store and identity directory.
// Without options the engine keeps instances and history in memory and
// publishes notifications to an in-memory queue.
func New(templates template.Service, directory identity.Provider, options ...Option) *Service {
	result := &Service{
		templates: templates,
		directory: directory,
		locks:     map[string]*sync.Mutex{},
	}
	for _, option := range options {
		option(result)
	}
	if result.instances == nil {
		result.instances = store.NewMemoryStore[string, model.Instance](func(i *model.Instance) string { return i.ID })
	}
	if result.history == nil {
		result.history = audit.NewMemoryLog()
	}
	if result.dispatcher == nil {
		result.dispatcher = notify.NewQueueDispatcher(nil)
	}
	return result
}

// History exposes the audit log, e.g. for replay verification.
func (s *Service) History() audit.Service { return s.history }

func (s *Service) lockInstance(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// CreateInstance starts an instance of the template's latest active version,
// pinning that version for the instance lifetime. Leading notification and
// condition steps are processed synchronously so the caller always observes
// a state awaiting a decision or a terminal outcome.
func (s *Service) CreateInstance(ctx context.Context, templateID, businessRef, initiatorID string, businessContext map[string]interface{}) (instance *model.Instance, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.createInstance")
	defer func() { tracing.EndSpan(span, err) }()

	if !policy.Allowed(ctx, "instance.create", map[string]interface{}{"templateId": templateID}) {
		return nil, types.NewAuthorizationError(initiatorID, "operation instance.create blocked by policy")
	}
	tmpl, err := s.templates.Latest(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl.Status != model.TemplateActive {
		return nil, types.NewInvalidStateError("template %s is retired", templateID)
	}
	merged, err := s.resolveContext(ctx, businessRef, businessContext)
	if err != nil {
		return nil, err
	}
	assignments, err := s.resolveAssignments(ctx, tmpl, businessRef)
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	instance = &model.Instance{
		ID:               idgen.New(),
		TemplateID:       tmpl.ID,
		TemplateVersion:  tmpl.Version,
		BusinessRef:      businessRef,
		InitiatorID:      initiatorID,
		CurrentStepOrder: 1,
		Status:           model.StatusPending,
		Context:          merged,
		Assignments:      assignments,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	span.WithAttributes(map[string]string{"instance.id": instance.ID, "template.id": tmpl.ID})

	// persist the instance before writing history so a store failure cannot
	// leave orphan entries for an instance that never existed
	result := advanceFrom(tmpl, instance.Context, 1)
	commitAdvance(instance, result)
	if err = s.instances.Save(ctx, instance); err != nil {
		return nil, err
	}
	first := tmpl.StepAt(1)
	if err = s.history.Append(ctx, &model.Entry{
		InstanceID: instance.ID,
		StepID:     first.ID,
		StepOrder:  first.Order,
		Operator:   initiatorID,
		Action:     model.ActionAutoAdvance,
		Comment:    "instance created",
	}); err != nil {
		return nil, err
	}
	if err = s.logAdvance(ctx, tmpl, instance, result); err != nil {
		return nil, err
	}
	delta := statusDelta(instance.Status)
	delta.Created = 1
	progress.UpdateCtx(ctx, delta)
	return instance.Clone(), nil
}

// SubmitDecision applies one operator response to the instance's current
// step. Every accepted call appends exactly one history entry; duplicate
// responses are recorded as comments and do not change aggregate state.
func (s *Service) SubmitDecision(ctx context.Context, request *DecisionRequest) (result *DecisionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.submitDecision")
	defer func() { tracing.EndSpan(span, err) }()
	if request == nil {
		return nil, types.NewValidationError(fmt.Errorf("decision request is nil"))
	}
	span.WithAttributes(map[string]string{"instance.id": request.InstanceID, "operator": request.OperatorID})
	if !policy.Allowed(ctx, "instance.submitDecision", map[string]interface{}{"instanceId": request.InstanceID}) {
		return nil, types.NewAuthorizationError(request.OperatorID, "operation instance.submitDecision blocked by policy")
	}

	lock := s.lockInstance(request.InstanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := s.loadInstance(ctx, request.InstanceID)
	if err != nil {
		return nil, err
	}
	if instance.Status.Terminal() {
		return nil, types.NewInvalidStateError("instance %s is %s", instance.ID, instance.Status)
	}
	if instance.Status == model.StatusException {
		return nil, types.NewInvalidStateError("instance %s awaits administrative resolution", instance.ID)
	}
	tmpl, err := s.templates.Snapshot(ctx, instance.TemplateID, instance.TemplateVersion)
	if err != nil {
		return nil, err
	}
	step := tmpl.StepAt(instance.CurrentStepOrder)
	if step == nil || step.ID != request.StepID {
		return nil, types.NewInvalidStateError("step %s is not the current step of instance %s", request.StepID, instance.ID)
	}
	if !instance.AssignedOperator(step.Order, request.OperatorID) {
		return nil, types.NewAuthorizationError(request.OperatorID, "not an approver of step %s", step.ID)
	}

	switch request.Action {
	case model.ActionComment:
		err = s.appendDecision(ctx, instance, step, request.OperatorID, model.ActionComment, request.Comment)
	case model.ActionApprove, model.ActionReject:
		err = s.applyResponse(ctx, tmpl, instance, step, request)
	default:
		return nil, types.NewValidationError(fmt.Errorf("unsupported action %q", request.Action))
	}
	if err != nil {
		return nil, err
	}
	instance.UpdatedAt = clock.Now()
	if err = s.instances.Save(ctx, instance); err != nil {
		return nil, err
	}
	delta := statusDelta(instance.Status)
	delta.Decisions = 1
	progress.UpdateCtx(ctx, delta)
	return &DecisionResult{Status: instance.Status, CurrentStepOrder: instance.CurrentStepOrder}, nil
}

// CancelInstance transitions a pending instance to canceled. Only the
// initiator or an administrator may cancel; terminal and exception instances
// reject cancellation.
func (s *Service) CancelInstance(ctx context.Context, instanceID, requesterID string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.cancelInstance")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"instance.id": instanceID})
	if !policy.Allowed(ctx, "instance.cancel", map[string]interface{}{"instanceId": instanceID}) {
		return types.NewAuthorizationError(requesterID, "operation instance.cancel blocked by policy")
	}

	lock := s.lockInstance(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if instance.Status != model.StatusPending {
		return types.NewInvalidStateError("instance %s is %s", instance.ID, instance.Status)
	}
	if requesterID != instance.InitiatorID {
		admin, adminErr := s.directory.IsAdmin(ctx, requesterID)
		if adminErr != nil {
			return adminErr
		}
		if !admin {
			return types.NewAuthorizationError(requesterID, "only the initiator or an administrator may cancel")
		}
	}
	if err = s.history.Append(ctx, &model.Entry{
		InstanceID: instance.ID,
		StepOrder:  instance.CurrentStepOrder,
		Operator:   requesterID,
		Action:     model.ActionCancel,
	}); err != nil {
		return err
	}
	instance.Status = model.StatusCanceled
	instance.UpdatedAt = clock.Now()
	if err = s.instances.Save(ctx, instance); err != nil {
		return err
	}
	progress.UpdateCtx(ctx, progress.Delta{Canceled: 1})
	return nil
}

// AdminForceResolve is the only way out of the exception state. A terminal
// newStatus ends the instance; StatusPending skips past the failed step and
// resumes automatic advancement.
func (s *Service) AdminForceResolve(ctx context.Context, instanceID string, newStatus model.Status, adminID, reason string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.adminForceResolve")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"instance.id": instanceID, "status": string(newStatus)})
	if !policy.Allowed(ctx, "instance.forceResolve", map[string]interface{}{"instanceId": instanceID}) {
		return types.NewAuthorizationError(adminID, "operation instance.forceResolve blocked by policy")
	}

	lock := s.lockInstance(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if instance.Status != model.StatusException {
		return types.NewInvalidStateError("instance %s is %s, only exception instances can be force resolved", instance.ID, instance.Status)
	}
	admin, err := s.directory.IsAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin {
		return types.NewAuthorizationError(adminID, "administrative role required to force resolve")
	}

	entry := &model.Entry{
		InstanceID: instance.ID,
		StepOrder:  instance.CurrentStepOrder,
		Operator:   adminID,
		Comment:    reason,
	}
	switch newStatus {
	case model.StatusApproved:
		entry.Action = model.ActionApprove
	case model.StatusRejected:
		entry.Action = model.ActionReject
	case model.StatusCanceled:
		entry.Action = model.ActionCancel
	case model.StatusPending:
		entry.Action = model.ActionSkip
	default:
		return types.NewValidationError(fmt.Errorf("unsupported resolution status %q", newStatus))
	}
	if err = s.history.Append(ctx, entry); err != nil {
		return err
	}
	if newStatus == model.StatusPending {
		tmpl, tmplErr := s.templates.Snapshot(ctx, instance.TemplateID, instance.TemplateVersion)
		if tmplErr != nil {
			return tmplErr
		}
		if err = s.applyAdvance(ctx, tmpl, instance, advanceFrom(tmpl, instance.Context, instance.CurrentStepOrder+1)); err != nil {
			return err
		}
	} else {
		instance.Status = newStatus
	}
	instance.UpdatedAt = clock.Now()
	if err = s.instances.Save(ctx, instance); err != nil {
		return err
	}
	progress.UpdateCtx(ctx, statusDelta(instance.Status))
	return nil
}

// GetInstance returns the instance projection together with its pinned
// template version and full history.
func (s *Service) GetInstance(ctx context.Context, instanceID string) (view *InstanceView, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.getInstance")
	defer func() { tracing.EndSpan(span, err) }()

	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.Snapshot(ctx, instance.TemplateID, instance.TemplateVersion)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return &InstanceView{Instance: instance, Template: tmpl, History: entries}, nil
}

// ListInstances returns instances matching the filter ordered by creation
// time, paginated by the filter's offset and limit.
func (s *Service) ListInstances(ctx context.Context, filter *ListFilter) (page *ListPage, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.listInstances")
	defer func() { tracing.EndSpan(span, err) }()

	parameters := filter.parameters()
	candidates, err := s.instances.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	var matched []*model.Instance
	for _, candidate := range candidates {
		if criteria.MatchInstance(candidate, parameters) {
			matched = append(matched, candidate.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	page = &ListPage{Total: len(matched)}
	offset, limit := 0, 0
	if filter != nil {
		offset, limit = filter.Offset, filter.Limit
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	items := matched[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	page.Items = items
	return page, nil
}

func (s *Service) loadInstance(ctx context.Context, id string) (*model.Instance, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	instance, err := s.instances.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("instance %s: %w", id, dao.ErrNotFound)
	}
	// mutate a copy so concurrent readers observe a consistent snapshot
	return instance.Clone(), nil
}

func (s *Service) resolveContext(ctx context.Context, businessRef string, supplied map[string]interface{}) (map[string]interface{}, error) {
	merged := map[string]interface{}{}
	if s.business != nil {
		fetched, err := s.business.FetchContext(ctx, businessRef)
		if err != nil {
			return nil, err
		}
		for key, value := range fetched {
			merged[key] = value
		}
	}
	for key, value := range supplied {
		merged[key] = value
	}
	return merged, nil
}

// resolveAssignments maps every approval step's roles to concrete operators
// once, at creation; the pinned result keeps authorization and replay
// deterministic when the directory changes later.
func (s *Service) resolveAssignments(ctx context.Context, tmpl *model.Template, businessRef string) (map[int][]*model.StepAssignment, error) {
	assignments := make(map[int][]*model.StepAssignment)
	for _, step := range tmpl.Steps {
		if step.Kind != model.KindApproval {
			continue
		}
		resolved := make([]*model.StepAssignment, 0, len(step.Approvers))
		distinct := map[string]bool{}
		for _, role := range step.Approvers {
			operators, err := s.directory.ResolveApprovers(ctx, role, businessRef)
			if err != nil {
				return nil, err
			}
			for _, operator := range operators {
				distinct[operator] = true
			}
			resolved = append(resolved, &model.StepAssignment{Role: role, Operators: operators})
		}
		if step.Policy == model.PolicyQuorum && len(distinct) < step.Quorum {
			return nil, types.NewValidationError(fmt.Errorf("step %s quorum %d exceeds the %d resolvable approvers", step.ID, step.Quorum, len(distinct)))
		}
		assignments[step.Order] = resolved
	}
	return assignments, nil
}

func (s *Service) appendDecision(ctx context.Context, instance *model.Instance, step *model.Step, operator string, action model.Action, comment string) error {
	return s.history.Append(ctx, &model.Entry{
		InstanceID: instance.ID,
		StepID:     step.ID,
		StepOrder:  step.Order,
		Operator:   operator,
		Action:     action,
		Comment:    comment,
	})
}

func (s *Service) applyResponse(ctx context.Context, tmpl *model.Template, instance *model.Instance, step *model.Step, request *DecisionRequest) error {
	if aggregator.HasResponded(instance.Responses, request.OperatorID) {
		return s.appendDecision(ctx, instance, step, request.OperatorID, model.ActionComment, "duplicate response ignored")
	}
	if err := s.appendDecision(ctx, instance, step, request.OperatorID, request.Action, request.Comment); err != nil {
		return err
	}
	instance.Responses = append(instance.Responses, &model.Response{
		Operator: request.OperatorID,
		Approved: request.Action == model.ActionApprove,
	})
	switch aggregator.Resolve(step, instance.Assignments[step.Order], instance.Responses) {
	case aggregator.OutcomeRejected:
		instance.Status = model.StatusRejected
	case aggregator.OutcomeApproved:
		return s.applyAdvance(ctx, tmpl, instance, advanceFrom(tmpl, instance.Context, step.Order+1))
	}
	return nil
}

// applyAdvance commits an advancement result: notification steps passed on
// the way are dispatched and logged, a condition failure is logged before the
// instance enters exception, and the projection fields are updated.
func (s *Service) applyAdvance(ctx context.Context, tmpl *model.Template, instance *model.Instance, result *advanceResult) error {
	if err := s.logAdvance(ctx, tmpl, instance, result); err != nil {
		return err
	}
	commitAdvance(instance, result)
	return nil
}

// logAdvance dispatches and records the notification steps passed during
// advancement and records a condition failure before the instance enters
// exception.
func (s *Service) logAdvance(ctx context.Context, tmpl *model.Template, instance *model.Instance, result *advanceResult) error {
	for _, step := range result.notifications {
		s.dispatch(ctx, tmpl, instance, step)
		if err := s.history.Append(ctx, &model.Entry{
			InstanceID: instance.ID,
			StepID:     step.ID,
			StepOrder:  step.Order,
			Operator:   systemOperator,
			Action:     model.ActionAutoAdvance,
			Comment:    fmt.Sprintf("notified %s", joinRoles(step.NotifyTargets)),
		}); err != nil {
			return err
		}
	}
	if result.status == model.StatusException {
		entry := &model.Entry{
			InstanceID: instance.ID,
			Operator:   systemOperator,
			Action:     model.ActionAutoAdvance,
			Comment:    result.evalErr.Error(),
		}
		if result.failedStep != nil {
			entry.StepID = result.failedStep.ID
			entry.StepOrder = result.failedStep.Order
		}
		if err := s.history.Append(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// commitAdvance applies the landed state to the instance projection. Any
// advancement starts a fresh step activation, including a backward branch
// that re-enters the order the instance was already on.
func commitAdvance(instance *model.Instance, result *advanceResult) {
	instance.Responses = nil
	instance.CurrentStepOrder = result.order
	instance.Status = result.status
}

// dispatch publishes a notification event best effort; delivery failure never
// blocks advancement.
func (s *Service) dispatch(ctx context.Context, tmpl *model.Template, instance *model.Instance, step *model.Step) {
	event := &notify.Event{
		InstanceID:   instance.ID,
		TemplateID:   tmpl.ID,
		TemplateName: tmpl.Name,
		StepID:       step.ID,
		StepName:     step.Name,
		Targets:      append([]model.RoleRef(nil), step.NotifyTargets...),
	}
	for _, role := range step.NotifyTargets {
		operators, err := s.directory.ResolveApprovers(ctx, role, instance.BusinessRef)
		if err != nil {
			continue
		}
		event.Recipients = append(event.Recipients, operators...)
	}
	_ = s.dispatcher.Notify(ctx, event)
}

// statusDelta maps a landed status to the tracker counters it bumps.
func statusDelta(status model.Status) progress.Delta {
	switch status {
	case model.StatusApproved:
		return progress.Delta{Approved: 1}
	case model.StatusRejected:
		return progress.Delta{Rejected: 1}
	case model.StatusCanceled:
		return progress.Delta{Canceled: 1}
	case model.StatusException:
		return progress.Delta{Exception: 1}
	}
	return progress.Delta{}
}

func joinRoles(roles []model.RoleRef) string {
	parts := make([]string, len(roles))
	for i, role := range roles {
		parts[i] = string(role)
	}
	return strings.Join(parts, ", ")
}
