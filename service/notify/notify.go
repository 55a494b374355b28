// Package notify defines the fire-and-forget notification boundary. The
// engine publishes an event when a notification step is reached and never
// waits for delivery; retries and transport belong to the consumer.
package notify

import (
	"context"

	"github.com/viant/flowgate/model"
)

// Event describes one notification step dispatch.
type Event struct {
	InstanceID   string          `json:"instanceId"`
	TemplateID   string          `json:"templateId"`
	TemplateName string          `json:"templateName,omitempty"`
	StepID       string          `json:"stepId"`
	StepName     string          `json:"stepName,omitempty"`
	Targets      []model.RoleRef `json:"targets"`
	Recipients   []string        `json:"recipients,omitempty"`
}

// Dispatcher delivers notification events best-effort. Errors are owned by
// the dispatcher; the engine ignores them and always advances.
type Dispatcher interface {
	Notify(ctx context.Context, event *Event) error
}
