package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

// CreateUserInput carries the fields an admin supplies when adding a
// member. The initial password is generated and emailed, never chosen.
type CreateUserInput struct {
	CompanyID         int64       `json:"company_id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Role              entity.Role `json:"role"`
	ManagerID         *int64      `json:"manager_id,omitempty"`
	IsManagerApprover bool        `json:"is_manager_approver"`
}

// UpdateUserInput carries the mutable fields of a member. Nil pointers
// leave the current value unchanged.
type UpdateUserInput struct {
	Name              *string      `json:"name,omitempty"`
	Role              *entity.Role `json:"role,omitempty"`
	ManagerID         *int64       `json:"manager_id,omitempty"`
	ClearManager      bool         `json:"clear_manager,omitempty"`
	IsManagerApprover *bool        `json:"is_manager_approver,omitempty"`
}

// UserService manages company members
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*entity.User, error)
	ListUsers(ctx context.Context, companyID int64) ([]*entity.User, error)
	UpdateUser(ctx context.Context, companyID, userID int64, input UpdateUserInput) (*entity.User, error)
	ResendPassword(ctx context.Context, companyID, userID int64) error
}

type userServiceImpl struct {
	userRepo    port.UserRepository
	emailSender port.EmailSender
	logger      Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, emailSender port.EmailSender, logger Logger) UserService {
	return &userServiceImpl{userRepo: userRepo, emailSender: emailSender, logger: logger}
}

// CreateUser adds a member with a generated password and emails the
// credentials to the new account.
func (s *userServiceImpl) CreateUser(ctx context.Context, input CreateUserInput) (*entity.User, error) {
	input.Name = utils.SanitizeString(input.Name)
	if input.Name == "" || input.Email == "" {
		return nil, errors.New("name and email are required")
	}
	if err := utils.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if !validRole(input.Role) {
		return nil, errors.New("unknown role")
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if input.ManagerID != nil {
		manager, err := s.userRepo.GetByID(ctx, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager == nil || manager.CompanyID != input.CompanyID {
			return nil, errors.New("manager not found in company")
		}
	}

	password, err := auth.GeneratePassword(12)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:              input.Name,
		Email:             input.Email,
		PasswordHash:      hash,
		Role:              input.Role,
		CompanyID:         input.CompanyID,
		ManagerID:         input.ManagerID,
		IsManagerApprover: input.IsManagerApprover,
		Status:            entity.UserApproved,
		CreatedAt:         time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", "error", err, "email", input.Email)
		return nil, err
	}

	s.sendCredentials(ctx, user, password)

	s.logger.Info("User created", "user_id", user.ID, "company_id", user.CompanyID, "role", string(user.Role))
	return user, nil
}

// ListUsers returns the company's members
func (s *userServiceImpl) ListUsers(ctx context.Context, companyID int64) ([]*entity.User, error) {
	return s.userRepo.ListByCompany(ctx, companyID)
}

// UpdateUser applies the supplied field changes to a member
func (s *userServiceImpl) UpdateUser(ctx context.Context, companyID, userID int64, input UpdateUserInput) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CompanyID != companyID {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Role != nil {
		if !validRole(*input.Role) {
			return nil, errors.New("unknown role")
		}
		user.Role = *input.Role
	}
	if input.ClearManager {
		user.ManagerID = nil
	} else if input.ManagerID != nil {
		manager, err := s.userRepo.GetByID(ctx, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager == nil || manager.CompanyID != companyID {
			return nil, errors.New("manager not found in company")
		}
		user.ManagerID = input.ManagerID
	}
	if input.IsManagerApprover != nil {
		user.IsManagerApprover = *input.IsManagerApprover
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", "error", err, "user_id", userID)
		return nil, err
	}
	return user, nil
}

// ResendPassword generates a fresh password for a member and emails it
func (s *userServiceImpl) ResendPassword(ctx context.Context, companyID, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.CompanyID != companyID {
		return ErrNotFound
	}

	password, err := auth.GeneratePassword(12)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("Failed to reset password", "error", err, "user_id", userID)
		return err
	}

	s.sendCredentials(ctx, user, password)
	s.logger.Info("Password reset", "user_id", userID)
	return nil
}

func validRole(r entity.Role) bool {
	switch r {
	case entity.RoleAdmin, entity.RoleManager, entity.RoleEmployee,
		entity.RoleFinance, entity.RoleDirector, entity.RoleCFO:
		return true
	}
	return false
}

func (s *userServiceImpl) sendCredentials(ctx context.Context, user *entity.User, password string) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour account is ready.\n\nEmail: %s\nPassword: %s\n\nPlease change the password after your first sign-in.\n",
		user.Name, user.Email, password,
	)
	if err := s.emailSender.Send(ctx, user.Email, "Your account credentials", body); err != nil {
		s.logger.Error("Failed to send credentials email", "error", err, "user_id", user.ID)
	}
}
