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

// SignupInput carries the fields needed to bootstrap a company with
// its first Admin account.
type SignupInput struct {
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`
	Currency    string `json:"currency"`
	AdminName   string `json:"admin_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// AuthResult is a successful sign-in: the account plus its access token
type AuthResult struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService handles signup, login and password recovery
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
}

type authServiceImpl struct {
	companyRepo port.CompanyRepository
	userRepo    port.UserRepository
	txManager   port.TransactionManager
	tokens      *auth.TokenService
	emailSender port.EmailSender
	logger      Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	companyRepo port.CompanyRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	tokens *auth.TokenService,
	emailSender port.EmailSender,
	logger Logger,
) AuthService {
	return &authServiceImpl{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		tokens:      tokens,
		emailSender: emailSender,
		logger:      logger,
	}
}

// Signup creates a company and its first Admin in one transaction and
// signs the new admin in.
func (s *authServiceImpl) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.CompanyName = utils.SanitizeString(input.CompanyName)
	input.AdminName = utils.SanitizeString(input.AdminName)
	if input.CompanyName == "" || input.AdminName == "" || input.Email == "" {
		return nil, errors.New("company name, admin name and email are required")
	}
	if err := utils.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if len(input.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if err := utils.ValidateCurrencyCode(input.Currency); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	company := &entity.Company{
		Name:      input.CompanyName,
		Country:   input.Country,
		Currency:  input.Currency,
		CreatedAt: time.Now(),
	}
	admin := &entity.User{
		Name:         input.AdminName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		Status:       entity.UserApproved,
		CreatedAt:    time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.companyRepo.Create(txCtx, company); err != nil {
			return err
		}
		admin.CompanyID = company.ID
		return s.userRepo.Create(txCtx, admin)
	})
	if err != nil {
		s.logger.Error("Signup failed", "error", err, "email", input.Email)
		return nil, err
	}

	token, err := s.tokens.Issue(admin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Company registered", "company_id", company.ID, "admin_id", admin.ID)
	return &AuthResult{User: admin, Token: token}, nil
}

// Login verifies credentials and issues an access token
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// ForgotPassword resets the account password to a generated one and
// emails it. Unknown emails return nil so the endpoint does not leak
// which addresses exist.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	password, err := auth.GeneratePassword(12)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour password was reset.\n\nNew password: %s\n\nPlease change it after signing in.\n",
		user.Name, password,
	)
	if err := s.emailSender.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.logger.Error("Failed to send password reset email", "error", err, "user_id", user.ID)
	}

	s.logger.Info("Password reset requested", "user_id", user.ID)
	return nil
}
