package entity

import "time"

// ApproverSlot is one template position in a rule's workflow. The Type
// tag selects which variant field is meaningful: SlotRole reads Role,
// SlotUser reads UserID, SlotManager carries no extra data. Slots
// sharing an Order execute in parallel as one step.
type ApproverSlot struct {
	Type   SlotType `json:"type"`
	Role   Role     `json:"role,omitempty"`
	UserID int64    `json:"user_id,omitempty"`
	Order  int      `json:"order"`
}

// Conditional is a rule's step-completion policy. Only the percentage
// and hybrid types short-circuit a step early; specific currently
// behaves like none in the decision processor.
type Conditional struct {
	Type               ConditionalType `json:"type"`
	PercentageRequired int             `json:"percentage_required,omitempty"`
	SpecificApproverID int64           `json:"specific_approver_id,omitempty"`
}

// AppliesTo is a rule's matching predicate. Empty Categories or Roles
// act as wildcards; MaxAmount of zero means unbounded.
type AppliesTo struct {
	Categories []string `json:"categories,omitempty"`
	MinAmount  float64  `json:"min_amount,omitempty"`
	MaxAmount  float64  `json:"max_amount,omitempty"`
	Roles      []Role   `json:"roles,omitempty"`
	Default    bool     `json:"default,omitempty"`
}

// Matches reports whether the predicate accepts the given category,
// converted amount and claimant role.
func (a AppliesTo) Matches(category string, amount float64, role Role) bool {
	if len(a.Categories) > 0 && !containsString(a.Categories, category) {
		return false
	}
	if amount < a.MinAmount {
		return false
	}
	if a.MaxAmount > 0 && amount > a.MaxAmount {
		return false
	}
	if len(a.Roles) > 0 && !containsRole(a.Roles, role) {
		return false
	}
	return true
}

// SpecificityScore is the heuristic used to rank multiple matching
// rules: one point for a category constraint, one for a positive
// minimum amount. Intentionally coarse; ties keep repository order.
func (a AppliesTo) SpecificityScore() int {
	score := 0
	if len(a.Categories) > 0 {
		score++
	}
	if a.MinAmount > 0 {
		score++
	}
	return score
}

// ApprovalRule is a named workflow template owned by a company.
type ApprovalRule struct {
	ID          int64          `json:"id"`
	CompanyID   int64          `json:"company_id"`
	Name        string         `json:"name"`
	Approvers   []ApproverSlot `json:"approvers"`
	Conditional Conditional    `json:"conditional"`
	AppliesTo   AppliesTo      `json:"applies_to"`
	CreatedAt   time.Time      `json:"created_at"`
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsRole(list []Role, r Role) bool {
	for _, v := range list {
		if v == r {
			return true
		}
	}
	return false
}
