package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

// CreateExpenseInput carries the claimant's expense submission
type CreateExpenseInput struct {
	ClaimantID       int64
	OriginalAmount   float64
	OriginalCurrency string
	Category         string
	Description      string
	DateSpent        time.Time
	Receipts         []string
	Submit           bool
}

// ExpenseService manages the expense lifecycle from draft to routed
// workflow.
type ExpenseService interface {
	CreateExpense(ctx context.Context, input CreateExpenseInput) (*entity.Expense, error)
	SubmitExpense(ctx context.Context, expenseID, claimantID int64) (*entity.Expense, error)
	GetExpense(ctx context.Context, id int64) (*entity.Expense, error)
	MyExpenses(ctx context.Context, claimantID int64) ([]*entity.Expense, error)
}

type expenseServiceImpl struct {
	expenseRepo port.ExpenseRepository
	userRepo    port.UserRepository
	companyRepo port.CompanyRepository
	converter   port.CurrencyConverter
	engine      ApprovalEngine
	logger      Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	converter port.CurrencyConverter,
	eng ApprovalEngine,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		converter:   converter,
		engine:      eng,
		logger:      logger,
	}
}

// CreateExpense creates a draft expense with the amount converted into
// the company currency, and optionally submits it immediately.
func (s *expenseServiceImpl) CreateExpense(ctx context.Context, input CreateExpenseInput) (*entity.Expense, error) {
	if err := utils.ValidateAmount(input.OriginalAmount); err != nil {
		return nil, err
	}
	if err := utils.ValidateCurrencyCode(input.OriginalCurrency); err != nil {
		return nil, err
	}
	input.Description = utils.SanitizeString(input.Description)

	claimant, err := s.userRepo.GetByID(ctx, input.ClaimantID)
	if err != nil {
		return nil, err
	}
	if claimant == nil {
		return nil, fmt.Errorf("claimant: %w", ErrNotFound)
	}

	company, err := s.companyRepo.GetByID(ctx, claimant.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company: %w", ErrNotFound)
	}

	converted, err := s.converter.Convert(ctx, input.OriginalAmount, input.OriginalCurrency, company.Currency)
	if err != nil {
		s.logger.Error("Currency conversion failed", "error", err, "from", input.OriginalCurrency, "to", company.Currency)
		return nil, fmt.Errorf("convert amount: %w", err)
	}

	dateSpent := input.DateSpent
	if dateSpent.IsZero() {
		dateSpent = time.Now()
	}

	expense := &entity.Expense{
		CompanyID:               claimant.CompanyID,
		ClaimantID:              claimant.ID,
		OriginalAmount:          input.OriginalAmount,
		OriginalCurrency:        input.OriginalCurrency,
		AmountInCompanyCurrency: converted,
		CompanyCurrency:         company.Currency,
		Category:                input.Category,
		Description:             input.Description,
		DateSpent:               dateSpent,
		Receipts:                input.Receipts,
		Status:                  entity.ExpenseDraft,
		CreatedAt:               time.Now(),
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		s.logger.Error("Failed to create expense", "error", err, "claimant_id", claimant.ID)
		return nil, err
	}

	s.logger.Info("Expense created", "id", expense.ID, "claimant_id", claimant.ID, "amount", converted)

	if !input.Submit {
		return expense, nil
	}

	if err := s.submit(ctx, expense, claimant); err != nil {
		return nil, err
	}
	return expense, nil
}

// SubmitExpense submits a previously saved draft, routing it through
// the approval engine.
func (s *expenseServiceImpl) SubmitExpense(ctx context.Context, expenseID, claimantID int64) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("expense: %w", ErrNotFound)
	}
	if expense.ClaimantID != claimantID {
		return nil, ErrNotAllowed
	}
	if expense.Status != entity.ExpenseDraft {
		return nil, ErrNotDraft
	}

	claimant, err := s.userRepo.GetByID(ctx, claimantID)
	if err != nil {
		return nil, err
	}
	if claimant == nil {
		return nil, fmt.Errorf("claimant: %w", ErrNotFound)
	}

	if err := s.submit(ctx, expense, claimant); err != nil {
		return nil, err
	}
	return expense, nil
}

// submit routes an expense into its approval workflow. Three paths
// converge here: a matched company rule, the default manager rule when
// the company has no rules, and direct auto-approval when the claimant
// has neither rule nor manager.
func (s *expenseServiceImpl) submit(ctx context.Context, expense *entity.Expense, claimant *entity.User) error {
	now := time.Now()
	expense.SubmittedAt = &now
	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return err
	}

	rule, err := s.engine.SelectRule(ctx, expense, claimant.Role)
	if err != nil {
		return err
	}

	if rule == nil && claimant.ManagerID != nil {
		rule = defaultManagerRule(*claimant.ManagerID)
		s.logger.Info("No company rules, using default manager rule", "expense_id", expense.ID, "manager_id", *claimant.ManagerID)
	}

	if rule == nil {
		// No rule, no manager: nothing left to route through
		expense.Status = entity.ExpenseApproved
		if err := s.expenseRepo.Update(ctx, expense); err != nil {
			return err
		}
		s.logger.Info("Expense auto-approved, no rule and no manager", "expense_id", expense.ID)
		return nil
	}

	approvals, err := s.engine.BuildApprovals(ctx, expense, rule)
	if err != nil {
		s.logger.Error("Failed to build approvals", "error", err, "expense_id", expense.ID)
		return err
	}

	s.logger.Info("Expense submitted", "expense_id", expense.ID, "status", string(expense.Status), "approvals", len(approvals))
	return nil
}

// GetExpense retrieves one expense by id
func (s *expenseServiceImpl) GetExpense(ctx context.Context, id int64) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("expense: %w", ErrNotFound)
	}
	return expense, nil
}

// MyExpenses lists the claimant's expenses
func (s *expenseServiceImpl) MyExpenses(ctx context.Context, claimantID int64) ([]*entity.Expense, error) {
	return s.expenseRepo.ListByClaimant(ctx, claimantID)
}

// defaultManagerRule is the synthetic single-slot rule used when a
// company has no configured rules but the claimant has a manager. It is
// never persisted; the builder recognizes the zero id and leaves the
// expense's rule reference unset.
func defaultManagerRule(managerID int64) *entity.ApprovalRule {
	return &entity.ApprovalRule{
		Name:        "Default Manager Rule",
		Conditional: entity.Conditional{Type: entity.ConditionalNone},
		Approvers: []entity.ApproverSlot{
			{Type: entity.SlotUser, UserID: managerID, Order: 1},
		},
	}
}
