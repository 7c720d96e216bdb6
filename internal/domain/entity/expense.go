package entity

import "time"

// Expense is one reimbursement claim. AmountInCompanyCurrency is the
// authoritative figure for rule matching; the conversion itself is done
// by an external rate lookup before the engine runs.
type Expense struct {
	ID                      int64         `json:"id"`
	CompanyID               int64         `json:"company_id"`
	ClaimantID              int64         `json:"claimant_id"`
	OriginalAmount          float64       `json:"original_amount"`
	OriginalCurrency        string        `json:"original_currency"`
	AmountInCompanyCurrency float64       `json:"amount_in_company_currency"`
	CompanyCurrency         string        `json:"company_currency"`
	Category                string        `json:"category,omitempty"`
	Description             string        `json:"description,omitempty"`
	DateSpent               time.Time     `json:"date_spent"`
	Receipts                []string      `json:"receipts,omitempty"`
	Status                  ExpenseStatus `json:"status"`
	ApprovalRuleID          *int64        `json:"approval_rule_id,omitempty"`
	CurrentStep             *int          `json:"current_step,omitempty"`
	CreatedAt               time.Time     `json:"created_at"`
	SubmittedAt             *time.Time    `json:"submitted_at,omitempty"`
}

// IsTerminal reports whether the expense workflow has finished.
func (e *Expense) IsTerminal() bool {
	return e.Status == ExpenseApproved || e.Status == ExpenseRejected
}
