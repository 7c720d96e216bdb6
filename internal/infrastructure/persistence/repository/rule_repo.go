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

// RuleRepository implements port.RuleRepository. The structured parts
// of a rule (approver slots, conditional, matching predicate) are
// stored as JSON columns; only company_id is queried relationally.
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) port.RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

// Create inserts a new approval rule
func (r *RuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	approvers, err := json.Marshal(rule.Approvers)
	if err != nil {
		return fmt.Errorf("failed to marshal approvers: %w", err)
	}
	conditional, err := json.Marshal(rule.Conditional)
	if err != nil {
		return fmt.Errorf("failed to marshal conditional: %w", err)
	}
	appliesTo, err := json.Marshal(rule.AppliesTo)
	if err != nil {
		return fmt.Errorf("failed to marshal applies_to: %w", err)
	}

	query := `
		INSERT INTO approval_rules (company_id, name, approvers, conditional, applies_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		rule.CompanyID,
		rule.Name,
		string(approvers),
		string(conditional),
		string(appliesTo),
		rule.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create rule", zap.Error(err))
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rule.ID = id
	return nil
}

// GetByID retrieves a rule by ID
func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	query := `
		SELECT id, company_id, name, approvers, conditional, applies_to, created_at
		FROM approval_rules
		WHERE id = ?
	`

	rule, err := r.scanRule(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to get rule by ID", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return rule, nil
}

// ListByCompany retrieves a company's rules in insertion order
func (r *RuleRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT id, company_id, name, approvers, conditional, applies_to, created_at
		FROM approval_rules
		WHERE company_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list rules", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.ApprovalRule
	for rows.Next() {
		rule, err := r.scanRuleRows(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RuleRepository) scanRule(row *sql.Row) (*entity.ApprovalRule, error) {
	rule, err := decodeRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rule, err
}

func (r *RuleRepository) scanRuleRows(rows *sql.Rows) (*entity.ApprovalRule, error) {
	return decodeRule(rows)
}

func decodeRule(s rowScanner) (*entity.ApprovalRule, error) {
	var rule entity.ApprovalRule
	var approvers, conditional, appliesTo string

	if err := s.Scan(
		&rule.ID,
		&rule.CompanyID,
		&rule.Name,
		&approvers,
		&conditional,
		&appliesTo,
		&rule.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	if err := json.Unmarshal([]byte(approvers), &rule.Approvers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal approvers: %w", err)
	}
	if err := json.Unmarshal([]byte(conditional), &rule.Conditional); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditional: %w", err)
	}
	if err := json.Unmarshal([]byte(appliesTo), &rule.AppliesTo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applies_to: %w", err)
	}

	return &rule, nil
}
