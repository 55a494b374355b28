package model

import (
	"fmt"
	"strings"

	"github.com/viant/flowgate/model/condition"
	"gopkg.in/yaml.v3"
)

// StepKind discriminates the behaviour of a workflow step.
type StepKind string

const (
	// KindApproval requires one or more operators to approve or reject.
	KindApproval StepKind = "approval"
	// KindNotification notifies targets and always advances.
	KindNotification StepKind = "notification"
	// KindCondition branches on a context expression.
	KindCondition StepKind = "condition"
)

// Policy determines how multiple approver responses resolve an approval step.
type Policy string

const (
	// PolicyAll resolves approved only once every named approver approved.
	PolicyAll Policy = "all"
	// PolicyAny resolves approved on the first approval.
	PolicyAny Policy = "any"
	// PolicyQuorum resolves approved once Step.Quorum distinct approvals
	// have been recorded.
	PolicyQuorum Policy = "quorum"
)

// RoleRef is an abstract role label (e.g. "department-manager") resolved to
// concrete operator ids through an identity provider at instance creation.
type RoleRef string

// Terminate is the branch target that ends the instance as approved.
const Terminate = 0

// NextRef addresses the step a condition branch continues at; Terminate (0)
// ends the instance.
type NextRef int

// UnmarshalYAML accepts either a step order or the keyword "terminate".
func (n *NextRef) UnmarshalYAML(node *yaml.Node) error {
	if strings.EqualFold(strings.TrimSpace(node.Value), "terminate") {
		*n = Terminate
		return nil
	}
	var order int
	if err := node.Decode(&order); err != nil {
		return fmt.Errorf("invalid branch target %q", node.Value)
	}
	*n = NextRef(order)
	return nil
}

// Step defines a single template step.
type Step struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name,omitempty" yaml:"name,omitempty"`
	Order int      `json:"order" yaml:"order"`
	Kind  StepKind `json:"kind" yaml:"kind"`

	// Approval step fields
	Approvers []RoleRef `json:"approvers,omitempty" yaml:"approvers,omitempty"`
	Policy    Policy    `json:"policy,omitempty" yaml:"policy,omitempty"`
	Quorum    int       `json:"quorum,omitempty" yaml:"quorum,omitempty"`

	// Notification step fields
	NotifyTargets []RoleRef `json:"notifyTargets,omitempty" yaml:"notifyTargets,omitempty"`

	// Condition step fields
	Expression string  `json:"expression,omitempty" yaml:"expression,omitempty"`
	OnTrue     NextRef `json:"onTrue,omitempty" yaml:"onTrue,omitempty"`
	OnFalse    NextRef `json:"onFalse,omitempty" yaml:"onFalse,omitempty"`

	expr *condition.Expr
}

// Expr returns the parsed condition expression; nil unless the step is a
// validated condition step.
func (s *Step) Expr() *condition.Expr { return s.expr }

// TemplateStatus represents a template lifecycle state.
type TemplateStatus string

const (
	// TemplateActive accepts new instances.
	TemplateActive TemplateStatus = "active"
	// TemplateRetired blocks new instances; in-flight ones are unaffected.
	TemplateRetired TemplateStatus = "retired"
)

// Template is one immutable version of a workflow definition. Updating an
// active template allocates a new version; prior versions stay retrievable
// so that pinned instances can always be replayed.
type Template struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Version int            `json:"version" yaml:"version"`
	Status  TemplateStatus `json:"status" yaml:"status"`
	Steps   []*Step        `json:"steps" yaml:"steps"`
}

// StepAt returns the step with the given order or nil.
func (t *Template) StepAt(order int) *Step {
	for _, step := range t.Steps {
		if step.Order == order {
			return step
		}
	}
	return nil
}

// LastOrder returns the highest step order, 0 for an empty template.
func (t *Template) LastOrder() int {
	last := 0
	for _, step := range t.Steps {
		if step.Order > last {
			last = step.Order
		}
	}
	return last
}

// Validate performs structural validation of the template. The returned
// slice is empty when the template is sound; otherwise it contains
// human-readable error descriptions. Condition expressions are parsed here
// so that a valid template never fails expression parsing at runtime.
func (t *Template) Validate() []error {
	var issues []error
	if strings.TrimSpace(t.Name) == "" {
		issues = append(issues, fmt.Errorf("template name is empty"))
	}
	if len(t.Steps) == 0 {
		issues = append(issues, fmt.Errorf("template has no steps"))
		return issues
	}

	seen := map[int]bool{}
	for _, step := range t.Steps {
		if step.Order < 1 {
			issues = append(issues, fmt.Errorf("step %s has non-positive order %d", step.ID, step.Order))
			continue
		}
		if seen[step.Order] {
			issues = append(issues, fmt.Errorf("duplicate step order %d", step.Order))
		}
		seen[step.Order] = true
	}
	for order := 1; order <= len(t.Steps); order++ {
		if !seen[order] {
			issues = append(issues, fmt.Errorf("step orders are not contiguous: missing order %d", order))
		}
	}

	for _, step := range t.Steps {
		issues = append(issues, t.validateStep(step)...)
	}
	return issues
}

func (t *Template) validateStep(step *Step) []error {
	var issues []error
	switch step.Kind {
	case KindApproval:
		if len(step.Approvers) == 0 {
			issues = append(issues, fmt.Errorf("approval step %s has no approvers", step.ID))
		}
		switch step.Policy {
		case PolicyAll, PolicyAny:
		case PolicyQuorum:
			// the upper bound depends on how many operators the roles resolve
			// to, which is only known at instance creation
			if step.Quorum < 1 {
				issues = append(issues, fmt.Errorf("approval step %s quorum %d must be positive", step.ID, step.Quorum))
			}
		default:
			issues = append(issues, fmt.Errorf("approval step %s has invalid policy %q", step.ID, step.Policy))
		}
	case KindNotification:
		if len(step.NotifyTargets) == 0 {
			issues = append(issues, fmt.Errorf("notification step %s has no targets", step.ID))
		}
	case KindCondition:
		expr, err := condition.Parse(step.Expression)
		if err != nil {
			issues = append(issues, fmt.Errorf("condition step %s: %w", step.ID, err))
		} else {
			step.expr = expr
		}
		for _, next := range []NextRef{step.OnTrue, step.OnFalse} {
			if next == Terminate {
				continue
			}
			if t.StepAt(int(next)) == nil {
				issues = append(issues, fmt.Errorf("condition step %s branches to unknown order %d", step.ID, next))
			}
		}
	default:
		issues = append(issues, fmt.Errorf("step %s has unknown kind %q", step.ID, step.Kind))
	}
	return issues
}

// Clone creates a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Steps = make([]*Step, len(t.Steps))
	for i, step := range t.Steps {
		stepCopy := *step
		stepCopy.Approvers = append([]RoleRef(nil), step.Approvers...)
		stepCopy.NotifyTargets = append([]RoleRef(nil), step.NotifyTargets...)
		clone.Steps[i] = &stepCopy
	}
	return &clone
}

// VersionKey identifies one template version in storage.
func VersionKey(id string, version int) string {
	return fmt.Sprintf("%s/%d", id, version)
}
