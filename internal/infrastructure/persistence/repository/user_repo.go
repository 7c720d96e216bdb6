package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = `id, name, email, password_hash, role, company_id, manager_id, is_manager_approver, status, created_at`

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (
			name, email, password_hash, role, company_id,
			manager_id, is_manager_approver, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CompanyID,
		user.ManagerID,
		user.IsManagerApprover,
		user.Status,
		user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, email))
}

// ListByCompany retrieves all users of a company
func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = ? ORDER BY id`
	return r.queryMany(ctx, query, companyID)
}

// ListByCompanyAndRole retrieves a company's users holding the role
func (r *UserRepository) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = ? AND role = ? ORDER BY id`
	return r.queryMany(ctx, query, companyID, role)
}

// FirstAdmin retrieves the company's Admin with the lowest id
func (r *UserRepository) FirstAdmin(ctx context.Context, companyID int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = ? AND role = ? ORDER BY id LIMIT 1`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, companyID, entity.RoleAdmin))
}

// Update persists the user's mutable fields
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET name = ?, email = ?, role = ?, manager_id = ?, is_manager_approver = ?, status = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.ManagerID,
		user.IsManagerApprover,
		user.Status,
		user.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update user", zap.Int64("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		r.logger.Error("Failed to update password", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*entity.User, error) {
	var user entity.User
	var managerID sql.NullInt64

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CompanyID,
		&managerID,
		&user.IsManagerApprover,
		&user.Status,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if managerID.Valid {
		user.ManagerID = &managerID.Int64
	}
	return &user, nil
}

func (r *UserRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		var user entity.User
		var managerID sql.NullInt64

		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.CompanyID,
			&managerID,
			&user.IsManagerApprover,
			&user.Status,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if managerID.Valid {
			user.ManagerID = &managerID.Int64
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
