// Package port defines the interfaces the application layer depends on.
// Implementations live in the infrastructure layer.
package port

import (
	"context"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// CompanyRepository provides access to company records
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}

// UserRepository provides access to user records. Lookups return
// (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error)
	ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error)

	// FirstAdmin returns the company's Admin user with the lowest id,
	// or nil when the company has no admin. The ordering keeps the
	// resolver's admin fallback deterministic.
	FirstAdmin(ctx context.Context, companyID int64) (*entity.User, error)

	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// RuleRepository provides access to a company's approval rules
type RuleRepository interface {
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error)

	// ListByCompany returns rules in insertion order (ascending id).
	// The matcher's tie-break and fallback both depend on this order
	// being stable.
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
}

// ExpenseRepository provides access to expense records
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	ListByClaimant(ctx context.Context, claimantID int64) ([]*entity.Expense, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error)
	Update(ctx context.Context, expense *entity.Expense) error
}

// ApprovalRepository provides access to approval tasks
type ApprovalRepository interface {
	CreateBatch(ctx context.Context, approvals []*entity.Approval) error
	GetByID(ctx context.Context, id int64) (*entity.Approval, error)

	// ListByExpense returns all approvals of an expense sorted by
	// step order, then id.
	ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error)

	ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error)

	// DecideIfPending atomically sets decision, comments and decidedAt
	// if and only if the approval is still Pending. Returns false when
	// the approval was already decided (or does not exist). This
	// compare-and-set is the engine's sole guard against two racing
	// decisions on the same approval.
	DecideIfPending(ctx context.Context, id int64, decision entity.Decision, comments string, decidedAt time.Time) (bool, error)

	// SkipPendingInStep transitions every still-Pending approval of the
	// given step to Skipped with the supplied timestamp.
	SkipPendingInStep(ctx context.Context, expenseID int64, order int, decidedAt time.Time) error

	// SkipAllPending transitions every still-Pending approval of the
	// expense to Skipped. Used only by the administrative override.
	SkipAllPending(ctx context.Context, expenseID int64, decidedAt time.Time) error
}

// TransactionManager executes a function within a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
