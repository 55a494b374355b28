package engine

import (
	"fmt"

	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/model/condition"
)

// advanceResult is the outcome of automatic advancement: the order and status
// the instance lands on, plus the notification steps passed on the way.
type advanceResult struct {
	status        model.Status
	order         int
	notifications []*model.Step
	failedStep    *model.Step
	evalErr       error
}

// advanceFrom processes steps starting at order until the instance lands on
// an approval step, terminates, or a condition evaluation fails. The function
// is pure; live advancement and history replay share it so both always agree
// on the landing state.
func advanceFrom(tmpl *model.Template, context map[string]interface{}, order int) *advanceResult {
	result := &advanceResult{status: model.StatusPending, order: order}
	for hops := 0; ; hops++ {
		if result.order == model.Terminate || result.order > tmpl.LastOrder() {
			result.status = model.StatusApproved
			return result
		}
		step := tmpl.StepAt(result.order)
		if step == nil {
			result.status = model.StatusException
			result.evalErr = fmt.Errorf("no step at order %d", result.order)
			return result
		}
		// validation permits backward branches, so a misconfigured pair of
		// condition steps can loop; cap the hops at the step count
		if hops > len(tmpl.Steps) {
			result.status = model.StatusException
			result.failedStep = step
			result.evalErr = fmt.Errorf("branching at step %s produced a cycle", step.ID)
			return result
		}
		switch step.Kind {
		case model.KindApproval:
			return result
		case model.KindNotification:
			result.notifications = append(result.notifications, step)
			result.order++
		case model.KindCondition:
			expr := step.Expr()
			if expr == nil {
				parsed, err := condition.Parse(step.Expression)
				if err != nil {
					result.status = model.StatusException
					result.failedStep = step
					result.evalErr = err
					return result
				}
				expr = parsed
			}
			outcome, err := expr.Eval(context)
			if err != nil {
				result.status = model.StatusException
				result.failedStep = step
				result.evalErr = err
				return result
			}
			if outcome {
				result.order = int(step.OnTrue)
			} else {
				result.order = int(step.OnFalse)
			}
		default:
			result.status = model.StatusException
			result.failedStep = step
			result.evalErr = fmt.Errorf("step %s has unsupported kind %q", step.ID, step.Kind)
			return result
		}
	}
}
