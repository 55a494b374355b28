package model

import "time"

// Status represents an instance lifecycle state.
type Status string

const (
	// StatusPending awaits decisions on the current step.
	StatusPending Status = "pending"
	// StatusApproved is terminal: all steps resolved approved.
	StatusApproved Status = "approved"
	// StatusRejected is terminal: an approver rejected.
	StatusRejected Status = "rejected"
	// StatusCanceled is terminal: initiator or admin canceled.
	StatusCanceled Status = "canceled"
	// StatusException requires administrative resolution after a condition
	// evaluation failure; no decisions are accepted while in this state.
	StatusException Status = "exception"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// StepAssignment pins the operators a role resolved to for one step. The
// resolution happens once, at instance creation, so that authorization checks
// and history replay stay deterministic even when the directory changes.
type StepAssignment struct {
	Role      RoleRef  `json:"role"`
	Operators []string `json:"operators"`
}

// Assigned reports whether the operator belongs to the assignment.
func (a *StepAssignment) Assigned(operator string) bool {
	for _, candidate := range a.Operators {
		if candidate == operator {
			return true
		}
	}
	return false
}

// Response is one operator's answer for the current step activation.
type Response struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// Instance is one execution of a template version against a business record.
// CurrentStepOrder, Status and Responses are projections of the instance
// history; the history is authoritative.
type Instance struct {
	ID               string                 `json:"id"`
	TemplateID       string                 `json:"templateId"`
	TemplateVersion  int                    `json:"templateVersion"`
	BusinessRef      string                 `json:"businessRef"`
	InitiatorID      string                 `json:"initiatorId"`
	CurrentStepOrder int                    `json:"currentStepOrder"`
	Status           Status                 `json:"status"`
	Context          map[string]interface{} `json:"context,omitempty"`
	// Assignments maps a step order to the operators resolved for each of
	// the step's approver roles, pinned at creation.
	Assignments map[int][]*StepAssignment `json:"assignments,omitempty"`
	// Responses holds the approver responses of the current step
	// activation; it is reset whenever the current step changes.
	Responses []*Response `json:"responses,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// AssignedOperator reports whether the operator may act on the step with the
// given order.
func (i *Instance) AssignedOperator(stepOrder int, operator string) bool {
	for _, assignment := range i.Assignments[stepOrder] {
		if assignment.Assigned(operator) {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	clone := *i
	if i.Context != nil {
		clone.Context = make(map[string]interface{}, len(i.Context))
		for k, v := range i.Context {
			clone.Context[k] = v
		}
	}
	if i.Responses != nil {
		clone.Responses = make([]*Response, len(i.Responses))
		for j, response := range i.Responses {
			responseCopy := *response
			clone.Responses[j] = &responseCopy
		}
	}
	if i.Assignments != nil {
		clone.Assignments = make(map[int][]*StepAssignment, len(i.Assignments))
		for order, assignments := range i.Assignments {
			copied := make([]*StepAssignment, len(assignments))
			for j, assignment := range assignments {
				assignmentCopy := *assignment
				assignmentCopy.Operators = append([]string(nil), assignment.Operators...)
				copied[j] = &assignmentCopy
			}
			clone.Assignments[order] = copied
		}
	}
	return &clone
}
