package engine

import (
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/aggregator"
)

// Replay recomputes an instance's status and current step order from its
// ordered history. History is authoritative: the cached fields on the
// instance are a projection that Replay must reproduce exactly.
//
// AutoAdvance entries carry no information replay needs; automatic
// advancement is recomputed from the pinned template, the immutable context
// and the pinned assignments, which is what makes the projection
// deterministic. Decision entries recorded while the instance was in the
// exception state are administrative resolutions and are applied as such.
func Replay(tmpl *model.Template, instance *model.Instance, entries []*model.Entry) (model.Status, int) {
	state := advanceFrom(tmpl, instance.Context, 1)
	status, order := state.status, state.order
	var responses []*model.Response

	advance := func(from int) {
		next := advanceFrom(tmpl, instance.Context, from)
		status, order = next.status, next.order
		responses = nil
	}

	for _, entry := range entries {
		if entry.Action == model.ActionAutoAdvance || status.Terminal() {
			continue
		}
		if status == model.StatusException {
			switch entry.Action {
			case model.ActionApprove:
				status = model.StatusApproved
			case model.ActionReject:
				status = model.StatusRejected
			case model.ActionCancel:
				status = model.StatusCanceled
			case model.ActionSkip:
				advance(order + 1)
			}
			continue
		}
		switch entry.Action {
		case model.ActionCancel:
			status = model.StatusCanceled
		case model.ActionApprove, model.ActionReject:
			step := tmpl.StepAt(order)
			if step == nil {
				continue
			}
			responses = append(responses, &model.Response{
				Operator: entry.Operator,
				Approved: entry.Action == model.ActionApprove,
			})
			switch aggregator.Resolve(step, instance.Assignments[order], responses) {
			case aggregator.OutcomeRejected:
				status = model.StatusRejected
			case aggregator.OutcomeApproved:
				advance(step.Order + 1)
			}
		case model.ActionSkip:
			advance(order + 1)
		}
	}
	return status, order
}
