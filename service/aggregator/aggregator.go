package aggregator

import (
	"github.com/viant/flowgate/model"
)

// Outcome is the aggregate result of the responses recorded for a step.
type Outcome string

const (
	// OutcomePending awaits further responses.
	OutcomePending Outcome = "pending"
	// OutcomeApproved resolves the step approved.
	OutcomeApproved Outcome = "approved"
	// OutcomeRejected resolves the step rejected.
	OutcomeRejected Outcome = "rejected"
)

// HasResponded reports whether the operator already responded; a duplicate
// response must not change aggregate state.
func HasResponded(responses []*model.Response, operator string) bool {
	for _, response := range responses {
		if response.Operator == operator {
			return true
		}
	}
	return false
}

// Resolve computes the step outcome from responses in arrival order.
//
// A single reject resolves the step rejected regardless of policy. Otherwise
// PolicyAny resolves approved on the first approval, PolicyQuorum once
// step.Quorum distinct operators approved, and PolicyAll once every assigned
// role has at least one approving operator.
func Resolve(step *model.Step, assignments []*model.StepAssignment, responses []*model.Response) Outcome {
	approved := map[string]bool{}
	for _, response := range responses {
		if !response.Approved {
			return OutcomeRejected
		}
		approved[response.Operator] = true
	}
	if len(approved) == 0 {
		return OutcomePending
	}

	switch step.Policy {
	case model.PolicyAny:
		return OutcomeApproved
	case model.PolicyQuorum:
		if len(approved) >= step.Quorum {
			return OutcomeApproved
		}
	case model.PolicyAll:
		if allRolesApproved(assignments, approved) {
			return OutcomeApproved
		}
	}
	return OutcomePending
}

// allRolesApproved reports whether every assigned role has an approving
// operator. An assignment that resolved to no operators can never approve,
// which keeps a misconfigured directory from silently passing a step.
func allRolesApproved(assignments []*model.StepAssignment, approved map[string]bool) bool {
	if len(assignments) == 0 {
		return false
	}
	for _, assignment := range assignments {
		satisfied := false
		for _, operator := range assignment.Operators {
			if approved[operator] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}
