package entity

import "time"

// Approval is one approver's task for one expense at one step. Several
// approvals may share the same Order; that set is the step's cohort and
// is decided collectively. Uniqueness is enforced on (approver, order)
// within one expense.
type Approval struct {
	ID         int64      `json:"id"`
	ExpenseID  int64      `json:"expense_id"`
	ApproverID int64      `json:"approver_id"`
	Order      int        `json:"order"`
	Decision   Decision   `json:"decision"`
	Comments   string     `json:"comments,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}
