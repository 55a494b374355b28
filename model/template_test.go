package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func approvalStep(id string, order int, policy Policy, approvers ...RoleRef) *Step {
	return &Step{ID: id, Order: order, Kind: KindApproval, Policy: policy, Approvers: approvers}
}

func TestTemplate_Validate(t *testing.T) {
	testCases := []struct {
		description string
		template    *Template
		valid       bool
	}{
		{
			description: "valid mixed template",
			template: &Template{
				ID: "t1", Name: "expense",
				Steps: []*Step{
					approvalStep("s1", 1, PolicyAll, "manager"),
					{ID: "s2", Order: 2, Kind: KindCondition, Expression: "amount > 5000", OnTrue: 3, OnFalse: Terminate},
					approvalStep("s3", 3, PolicyAny, "director"),
				},
			},
			valid: true,
		},
		{
			description: "valid quorum policy",
			template: &Template{
				ID: "t2", Name: "leave",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindApproval, Policy: PolicyQuorum, Quorum: 2, Approvers: []RoleRef{"a", "b", "c"}},
					{ID: "s2", Order: 2, Kind: KindNotification, NotifyTargets: []RoleRef{"initiator"}},
				},
			},
			valid: true,
		},
		{
			description: "empty template",
			template:    &Template{ID: "t3", Name: "empty"},
			valid:       false,
		},
		{
			description: "duplicate order",
			template: &Template{
				ID: "t4", Name: "dup",
				Steps: []*Step{
					approvalStep("s1", 1, PolicyAll, "manager"),
					approvalStep("s2", 1, PolicyAll, "director"),
				},
			},
			valid: false,
		},
		{
			description: "non contiguous orders",
			template: &Template{
				ID: "t5", Name: "gap",
				Steps: []*Step{
					approvalStep("s1", 1, PolicyAll, "manager"),
					approvalStep("s2", 3, PolicyAll, "director"),
				},
			},
			valid: false,
		},
		{
			description: "approval step without approvers",
			template: &Template{
				ID: "t6", Name: "noapprovers",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindApproval, Policy: PolicyAll},
				},
			},
			valid: false,
		},
		{
			description: "quorum above role count is an authoring-time unknown",
			template: &Template{
				ID: "t7", Name: "widequorum",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindApproval, Policy: PolicyQuorum, Quorum: 3, Approvers: []RoleRef{"board"}},
				},
			},
			valid: true,
		},
		{
			description: "non-positive quorum",
			template: &Template{
				ID: "t12", Name: "badquorum",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindApproval, Policy: PolicyQuorum, Quorum: 0, Approvers: []RoleRef{"a", "b"}},
				},
			},
			valid: false,
		},
		{
			description: "invalid policy",
			template: &Template{
				ID: "t8", Name: "badpolicy",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindApproval, Policy: "most", Approvers: []RoleRef{"a"}},
				},
			},
			valid: false,
		},
		{
			description: "condition with malformed expression",
			template: &Template{
				ID: "t9", Name: "badexpr",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindCondition, Expression: "amount >", OnTrue: Terminate, OnFalse: Terminate},
				},
			},
			valid: false,
		},
		{
			description: "condition branching to unknown order",
			template: &Template{
				ID: "t10", Name: "badbranch",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindCondition, Expression: "amount > 1", OnTrue: 9, OnFalse: Terminate},
				},
			},
			valid: false,
		},
		{
			description: "notification without targets",
			template: &Template{
				ID: "t11", Name: "notargets",
				Steps: []*Step{
					{ID: "s1", Order: 1, Kind: KindNotification},
				},
			},
			valid: false,
		},
	}

	for _, testCase := range testCases {
		issues := testCase.template.Validate()
		if testCase.valid {
			assert.Empty(t, issues, testCase.description)
			continue
		}
		assert.NotEmpty(t, issues, testCase.description)
	}
}

// Any permutation of contiguous 1..N orders validates; dropping or
// duplicating an order never does.
func TestTemplate_ValidateOrderContiguity(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for size := 1; size <= 8; size++ {
		orders := random.Perm(size)
		template := &Template{ID: "gen", Name: "generated"}
		for i, order := range orders {
			template.Steps = append(template.Steps,
				approvalStep(string(rune('a'+i)), order+1, PolicyAny, "manager"))
		}
		assert.Empty(t, template.Validate(), "contiguous orders of size %d", size)

		if size > 1 {
			mutated := template.Clone()
			mutated.Steps[0].Order = size + 1 // leaves a hole at the old order
			assert.NotEmpty(t, mutated.Validate(), "hole in orders of size %d", size)

			duplicated := template.Clone()
			duplicated.Steps[0].Order = duplicated.Steps[1].Order
			assert.NotEmpty(t, duplicated.Validate(), "duplicate order of size %d", size)
		}
	}
}

func TestTemplate_StepAt(t *testing.T) {
	template := &Template{
		ID: "t1", Name: "expense",
		Steps: []*Step{
			approvalStep("s1", 1, PolicyAll, "manager"),
			approvalStep("s2", 2, PolicyAny, "director"),
		},
	}
	assert.Equal(t, "s2", template.StepAt(2).ID)
	assert.Nil(t, template.StepAt(3))
	assert.Equal(t, 2, template.LastOrder())
}
