package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

const expenseColumns = `id, company_id, claimant_id, original_amount, original_currency,
	amount_company_currency, company_currency, category, description, date_spent,
	receipts, status, approval_rule_id, current_step, created_at, submitted_at`

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	receipts, err := json.Marshal(expense.Receipts)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}

	query := `
		INSERT INTO expenses (
			company_id, claimant_id, original_amount, original_currency,
			amount_company_currency, company_currency, category, description,
			date_spent, receipts, status, approval_rule_id, current_step,
			created_at, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		expense.CompanyID,
		expense.ClaimantID,
		expense.OriginalAmount,
		expense.OriginalCurrency,
		expense.AmountInCompanyCurrency,
		expense.CompanyCurrency,
		expense.Category,
		expense.Description,
		expense.DateSpent,
		string(receipts),
		expense.Status,
		expense.ApprovalRuleID,
		expense.CurrentStep,
		expense.CreatedAt,
		expense.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return r.scanExpense(rows)
}

// ListByClaimant retrieves a claimant's expenses, newest first
func (r *ExpenseRepository) ListByClaimant(ctx context.Context, claimantID int64) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE claimant_id = ? ORDER BY id DESC`
	return r.queryMany(ctx, query, claimantID)
}

// ListByCompany retrieves all of a company's expenses, newest first
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE company_id = ? ORDER BY id DESC`
	return r.queryMany(ctx, query, companyID)
}

// Update persists the expense's mutable fields
func (r *ExpenseRepository) Update(ctx context.Context, expense *entity.Expense) error {
	receipts, err := json.Marshal(expense.Receipts)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}

	query := `
		UPDATE expenses
		SET category = ?, description = ?, date_spent = ?, receipts = ?,
			status = ?, approval_rule_id = ?, current_step = ?, submitted_at = ?
		WHERE id = ?
	`

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		expense.Category,
		expense.Description,
		expense.DateSpent,
		string(receipts),
		expense.Status,
		expense.ApprovalRuleID,
		expense.CurrentStep,
		expense.SubmittedAt,
		expense.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int64("id", expense.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := r.scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) scanExpense(rows *sql.Rows) (*entity.Expense, error) {
	var expense entity.Expense
	var receipts string
	var ruleID, currentStep sql.NullInt64
	var submittedAt sql.NullTime

	if err := rows.Scan(
		&expense.ID,
		&expense.CompanyID,
		&expense.ClaimantID,
		&expense.OriginalAmount,
		&expense.OriginalCurrency,
		&expense.AmountInCompanyCurrency,
		&expense.CompanyCurrency,
		&expense.Category,
		&expense.Description,
		&expense.DateSpent,
		&receipts,
		&expense.Status,
		&ruleID,
		&currentStep,
		&expense.CreatedAt,
		&submittedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	if receipts != "" {
		if err := json.Unmarshal([]byte(receipts), &expense.Receipts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal receipts: %w", err)
		}
	}
	if ruleID.Valid {
		expense.ApprovalRuleID = &ruleID.Int64
	}
	if currentStep.Valid {
		step := int(currentStep.Int64)
		expense.CurrentStep = &step
	}
	if submittedAt.Valid {
		expense.SubmittedAt = &submittedAt.Time
	}

	return &expense, nil
}
