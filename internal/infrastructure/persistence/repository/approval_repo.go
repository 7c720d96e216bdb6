package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{db: db, logger: logger}
}

const approvalColumns = `id, expense_id, approver_id, step_order, decision, comments, created_at, decided_at`

// CreateBatch inserts the full approval set of an expense
func (r *ApprovalRepository) CreateBatch(ctx context.Context, approvals []*entity.Approval) error {
	query := `
		INSERT INTO approvals (expense_id, approver_id, step_order, decision, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	exec := getExecutor(ctx, r.db)
	for _, a := range approvals {
		result, err := exec.ExecContext(ctx, query,
			a.ExpenseID,
			a.ApproverID,
			a.Order,
			a.Decision,
			a.Comments,
			a.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create approval", zap.Int64("expense_id", a.ExpenseID), zap.Error(err))
			return fmt.Errorf("failed to create approval: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		a.ID = id
	}
	return nil
}

// GetByID retrieves an approval by ID
func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanApproval(rows)
}

// ListByExpense retrieves an expense's approvals ordered by step, then id
func (r *ApprovalRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE expense_id = ? ORDER BY step_order, id`
	return r.queryMany(ctx, query, expenseID)
}

// ListPendingByApprover retrieves an approver's undecided tasks
func (r *ApprovalRepository) ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE approver_id = ? AND decision = ? ORDER BY id`
	return r.queryMany(ctx, query, approverID, entity.DecisionPending)
}

// DecideIfPending atomically records a decision. The WHERE clause on
// decision = 'Pending' is the compare-and-set: a second writer matches
// zero rows and is told so via the boolean.
func (r *ApprovalRepository) DecideIfPending(ctx context.Context, id int64, decision entity.Decision, comments string, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE approvals
		SET decision = ?, comments = ?, decided_at = ?
		WHERE id = ? AND decision = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		decision, comments, decidedAt, id, entity.DecisionPending,
	)
	if err != nil {
		r.logger.Error("Failed to record decision", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to record decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// SkipPendingInStep marks a step's undecided approvals as Skipped
func (r *ApprovalRepository) SkipPendingInStep(ctx context.Context, expenseID int64, order int, decidedAt time.Time) error {
	query := `
		UPDATE approvals
		SET decision = ?, decided_at = ?
		WHERE expense_id = ? AND step_order = ? AND decision = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.DecisionSkipped, decidedAt, expenseID, order, entity.DecisionPending,
	)
	if err != nil {
		r.logger.Error("Failed to skip step approvals", zap.Int64("expense_id", expenseID), zap.Error(err))
		return fmt.Errorf("failed to skip step approvals: %w", err)
	}
	return nil
}

// SkipAllPending marks every undecided approval of the expense as Skipped
func (r *ApprovalRepository) SkipAllPending(ctx context.Context, expenseID int64, decidedAt time.Time) error {
	query := `
		UPDATE approvals
		SET decision = ?, decided_at = ?
		WHERE expense_id = ? AND decision = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.DecisionSkipped, decidedAt, expenseID, entity.DecisionPending,
	)
	if err != nil {
		r.logger.Error("Failed to skip approvals", zap.Int64("expense_id", expenseID), zap.Error(err))
		return fmt.Errorf("failed to skip approvals: %w", err)
	}
	return nil
}

func (r *ApprovalRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Approval, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query approvals", zap.Error(err))
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

func scanApproval(rows *sql.Rows) (*entity.Approval, error) {
	var approval entity.Approval
	var decidedAt sql.NullTime

	if err := rows.Scan(
		&approval.ID,
		&approval.ExpenseID,
		&approval.ApproverID,
		&approval.Order,
		&approval.Decision,
		&approval.Comments,
		&approval.CreatedAt,
		&decidedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan approval: %w", err)
	}

	if decidedAt.Valid {
		approval.DecidedAt = &decidedAt.Time
	}
	return &approval, nil
}
