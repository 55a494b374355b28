package model

import "time"

// Action classifies a history entry.
type Action string

const (
	// ActionApprove records an approver's positive response.
	ActionApprove Action = "approve"
	// ActionReject records an approver's negative response.
	ActionReject Action = "reject"
	// ActionComment records a remark that does not affect aggregation,
	// including idempotent duplicate responses.
	ActionComment Action = "comment"
	// ActionSkip records an administrative skip past the current step.
	ActionSkip Action = "skip"
	// ActionAutoAdvance records engine-driven progress: instance creation,
	// notification dispatch and condition branching.
	ActionAutoAdvance Action = "autoAdvance"
	// ActionCancel records instance cancellation.
	ActionCancel Action = "cancel"
)

// Entry is one append-only history record. Entries are never mutated or
// deleted; replaying them in Seq order reproduces the instance state.
type Entry struct {
	InstanceID string    `json:"instanceId"`
	Seq        int       `json:"seq"`
	StepID     string    `json:"stepId,omitempty"`
	StepOrder  int       `json:"stepOrder,omitempty"`
	Operator   string    `json:"operator"`
	Action     Action    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
