package engine

import (
	"context"
	"time"

	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/dao/criteria"
)

// BusinessDataProvider supplies the business-record fields condition steps
// evaluate against. The engine merges the fetched fields into the instance
// context at creation; explicitly supplied fields win over fetched ones.
type BusinessDataProvider interface {
	FetchContext(ctx context.Context, businessRef string) (map[string]interface{}, error)
}

// BusinessDataFunc adapts a function to the BusinessDataProvider interface.
type BusinessDataFunc func(ctx context.Context, businessRef string) (map[string]interface{}, error)

// FetchContext calls the adapted function.
func (f BusinessDataFunc) FetchContext(ctx context.Context, businessRef string) (map[string]interface{}, error) {
	return f(ctx, businessRef)
}

// DecisionRequest submits one operator response against the current step.
type DecisionRequest struct {
	InstanceID string
	StepID     string
	OperatorID string
	Action     model.Action
	Comment    string
}

// DecisionResult is the confirmed state after a decision was applied.
type DecisionResult struct {
	Status           model.Status
	CurrentStepOrder int
}

// InstanceView combines an instance projection with its pinned template
// version and full history.
type InstanceView struct {
	Instance *model.Instance
	Template *model.Template
	History  []*model.Entry
}

// ListFilter narrows ListInstances; zero-valued fields do not filter.
type ListFilter struct {
	Status      []model.Status
	TemplateID  string
	InitiatorID string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Offset      int
	Limit       int
}

// ListPage is one page of matching instances; Total counts all matches
// before pagination.
type ListPage struct {
	Items []*model.Instance
	Total int
}

func (f *ListFilter) parameters() []*dao.Parameter {
	if f == nil {
		return nil
	}
	var result []*dao.Parameter
	if len(f.Status) > 0 {
		values := make([]string, len(f.Status))
		for i, status := range f.Status {
			values[i] = string(status)
		}
		result = append(result, dao.NewParameter(criteria.ParamStatus, values...))
	}
	if f.TemplateID != "" {
		result = append(result, dao.NewParameter(criteria.ParamTemplateID, f.TemplateID))
	}
	if f.InitiatorID != "" {
		result = append(result, dao.NewParameter(criteria.ParamInitiatorID, f.InitiatorID))
	}
	if !f.CreatedFrom.IsZero() {
		result = append(result, &dao.Parameter{Name: criteria.ParamCreatedFrom, Value: f.CreatedFrom})
	}
	if !f.CreatedTo.IsZero() {
		result = append(result, &dao.Parameter{Name: criteria.ParamCreatedTo, Value: f.CreatedTo})
	}
	return result
}
