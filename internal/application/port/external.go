package port

import "context"

// CurrencyConverter converts an amount between two currencies using an
// external rate source. The engine treats the converted amount as
// authoritative and never calls this itself.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// ParsedReceipt is the structured result of scanning a receipt file
type ParsedReceipt struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Merchant    string  `json:"merchant,omitempty"`
	Category    string  `json:"category,omitempty"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ReceiptParser extracts expense fields from a receipt file
type ReceiptParser interface {
	Parse(ctx context.Context, path string) (*ParsedReceipt, error)
}

// EmailSender delivers a plain-text message to one recipient
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ExpenseReportRow is one line of the exported expense report, already
// joined with the claimant's name.
type ExpenseReportRow struct {
	ExpenseID    int64
	ClaimantName string
	Category     string
	Description  string
	Amount       float64
	Currency     string
	Status       string
	DateSpent    string
	SubmittedAt  string
}

// ReportExporter renders expense rows into a downloadable spreadsheet
type ReportExporter interface {
	ExpenseReport(rows []ExpenseReportRow) ([]byte, error)
}
