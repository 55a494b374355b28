package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/flowgate/model"
)

func assignments(roles map[string][]string) []*model.StepAssignment {
	var result []*model.StepAssignment
	for role, operators := range roles {
		result = append(result, &model.StepAssignment{Role: model.RoleRef(role), Operators: operators})
	}
	return result
}

func responses(answers ...*model.Response) []*model.Response { return answers }

func approve(operator string) *model.Response {
	return &model.Response{Operator: operator, Approved: true}
}

func reject(operator string) *model.Response {
	return &model.Response{Operator: operator, Approved: false}
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		description string
		step        *model.Step
		assignments []*model.StepAssignment
		responses   []*model.Response
		expected    Outcome
	}{
		{
			description: "no responses pending",
			step:        &model.Step{Policy: model.PolicyAll},
			assignments: assignments(map[string][]string{"manager": {"alice"}}),
			expected:    OutcomePending,
		},
		{
			description: "all policy partial",
			step:        &model.Step{Policy: model.PolicyAll},
			assignments: assignments(map[string][]string{"manager": {"alice"}, "hr": {"bob"}}),
			responses:   responses(approve("alice")),
			expected:    OutcomePending,
		},
		{
			description: "all policy complete",
			step:        &model.Step{Policy: model.PolicyAll},
			assignments: assignments(map[string][]string{"manager": {"alice"}, "hr": {"bob"}}),
			responses:   responses(approve("alice"), approve("bob")),
			expected:    OutcomeApproved,
		},
		{
			description: "reject overrides outstanding approvals",
			step:        &model.Step{Policy: model.PolicyAll},
			assignments: assignments(map[string][]string{"manager": {"alice"}, "hr": {"bob"}}),
			responses:   responses(reject("alice")),
			expected:    OutcomeRejected,
		},
		{
			description: "reject overrides under any policy",
			step:        &model.Step{Policy: model.PolicyAny},
			assignments: assignments(map[string][]string{"manager": {"alice", "bob"}}),
			responses:   responses(reject("bob")),
			expected:    OutcomeRejected,
		},
		{
			description: "any policy first approval wins",
			step:        &model.Step{Policy: model.PolicyAny},
			assignments: assignments(map[string][]string{"manager": {"alice", "bob"}}),
			responses:   responses(approve("bob")),
			expected:    OutcomeApproved,
		},
		{
			description: "quorum below threshold",
			step:        &model.Step{Policy: model.PolicyQuorum, Quorum: 2},
			assignments: assignments(map[string][]string{"board": {"alice", "bob", "carol"}}),
			responses:   responses(approve("alice")),
			expected:    OutcomePending,
		},
		{
			description: "quorum reached",
			step:        &model.Step{Policy: model.PolicyQuorum, Quorum: 2},
			assignments: assignments(map[string][]string{"board": {"alice", "bob", "carol"}}),
			responses:   responses(approve("alice"), approve("carol")),
			expected:    OutcomeApproved,
		},
		{
			description: "all policy with unresolvable role never approves",
			step:        &model.Step{Policy: model.PolicyAll},
			assignments: assignments(map[string][]string{"manager": {"alice"}, "hr": {}}),
			responses:   responses(approve("alice")),
			expected:    OutcomePending,
		},
	}

	for _, testCase := range testCases {
		actual := Resolve(testCase.step, testCase.assignments, testCase.responses)
		assert.Equal(t, testCase.expected, actual, testCase.description)
	}
}

// Under PolicyAll a step resolves approved iff every assigned role approved;
// a single reject resolves it rejected no matter how many approvals are
// outstanding.
func TestResolveAllPolicyLaw(t *testing.T) {
	step := &model.Step{Policy: model.PolicyAll}
	roles := assignments(map[string][]string{
		"manager": {"alice"},
		"hr":      {"bob"},
		"finance": {"carol"},
	})

	var recorded []*model.Response
	for _, operator := range []string{"alice", "bob"} {
		recorded = append(recorded, approve(operator))
		assert.Equal(t, OutcomePending, Resolve(step, roles, recorded))
	}
	recorded = append(recorded, approve("carol"))
	assert.Equal(t, OutcomeApproved, Resolve(step, roles, recorded))

	// a reject at any prefix resolves rejected
	for i := 0; i <= len(recorded); i++ {
		withReject := append(append([]*model.Response{}, recorded[:i]...), reject("dave"))
		assert.Equal(t, OutcomeRejected, Resolve(step, roles, withReject))
	}
}

func TestHasResponded(t *testing.T) {
	recorded := responses(approve("alice"))
	assert.True(t, HasResponded(recorded, "alice"))
	assert.False(t, HasResponded(recorded, "bob"))
}
