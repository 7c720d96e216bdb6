package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// CompanyRepository implements port.CompanyRepository
type CompanyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sql.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{db: db, logger: logger}
}

// Create inserts a new company
func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (name, country, currency, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		company.Name,
		company.Country,
		company.Currency,
		company.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create company", zap.Error(err))
		return fmt.Errorf("failed to create company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	company.ID = id
	return nil
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	query := `
		SELECT id, name, country, currency, created_at
		FROM companies
		WHERE id = ?
	`

	var company entity.Company
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.Country,
		&company.Currency,
		&company.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}
