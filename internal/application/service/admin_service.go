package service

import (
	"context"
	"errors"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
)

// CreateRuleInput carries the fields needed to define an approval rule
type CreateRuleInput struct {
	CompanyID   int64                 `json:"company_id"`
	Name        string                `json:"name"`
	Approvers   []entity.ApproverSlot `json:"approvers"`
	Conditional entity.Conditional    `json:"conditional"`
	AppliesTo   entity.AppliesTo      `json:"applies_to"`
}

// AdminService is the company-administration surface: rule management,
// full expense visibility, status overrides and report export.
type AdminService interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*entity.ApprovalRule, error)
	ListRules(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
	AllExpenses(ctx context.Context, companyID int64) ([]*entity.Expense, error)
	OverrideStatus(ctx context.Context, companyID, expenseID int64, status entity.ExpenseStatus) (*entity.Expense, error)
	ExportExpenseReport(ctx context.Context, companyID int64) ([]byte, error)
}

type adminServiceImpl struct {
	ruleRepo     port.RuleRepository
	expenseRepo  port.ExpenseRepository
	approvalRepo port.ApprovalRepository
	userRepo     port.UserRepository
	txManager    port.TransactionManager
	exporter     port.ReportExporter
	logger       Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(
	ruleRepo port.RuleRepository,
	expenseRepo port.ExpenseRepository,
	approvalRepo port.ApprovalRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	exporter port.ReportExporter,
	logger Logger,
) AdminService {
	return &adminServiceImpl{
		ruleRepo:     ruleRepo,
		expenseRepo:  expenseRepo,
		approvalRepo: approvalRepo,
		userRepo:     userRepo,
		txManager:    txManager,
		exporter:     exporter,
		logger:       logger,
	}
}

// CreateRule validates and stores a new approval rule
func (s *adminServiceImpl) CreateRule(ctx context.Context, input CreateRuleInput) (*entity.ApprovalRule, error) {
	if input.Name == "" {
		return nil, errors.New("rule name is required")
	}
	if len(input.Approvers) == 0 {
		return nil, errors.New("rule needs at least one approver slot")
	}
	for _, slot := range input.Approvers {
		switch slot.Type {
		case entity.SlotRole:
			if slot.Role == "" {
				return nil, errors.New("role slot needs a role")
			}
		case entity.SlotUser:
			if slot.UserID == 0 {
				return nil, errors.New("user slot needs a user id")
			}
		case entity.SlotManager:
		default:
			return nil, errors.New("unknown approver slot type")
		}
	}
	if input.Conditional.Type == entity.ConditionalPercentage || input.Conditional.Type == entity.ConditionalHybrid {
		if input.Conditional.PercentageRequired <= 0 || input.Conditional.PercentageRequired > 100 {
			return nil, errors.New("percentage conditional needs a threshold between 1 and 100")
		}
	}

	rule := &entity.ApprovalRule{
		CompanyID:   input.CompanyID,
		Name:        input.Name,
		Approvers:   input.Approvers,
		Conditional: input.Conditional,
		AppliesTo:   input.AppliesTo,
		CreatedAt:   time.Now(),
	}
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		s.logger.Error("Failed to create rule", "error", err, "company_id", input.CompanyID)
		return nil, err
	}

	s.logger.Info("Approval rule created", "rule_id", rule.ID, "company_id", rule.CompanyID, "name", rule.Name)
	return rule, nil
}

// ListRules returns the company's rules in insertion order
func (s *adminServiceImpl) ListRules(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	return s.ruleRepo.ListByCompany(ctx, companyID)
}

// AllExpenses returns every expense of the company
func (s *adminServiceImpl) AllExpenses(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	return s.expenseRepo.ListByCompany(ctx, companyID)
}

// OverrideStatus forces an expense to Approved or Rejected, skipping
// every approval still pending so no stale task survives the override.
func (s *adminServiceImpl) OverrideStatus(ctx context.Context, companyID, expenseID int64, status entity.ExpenseStatus) (*entity.Expense, error) {
	if status != entity.ExpenseApproved && status != entity.ExpenseRejected {
		return nil, ErrInvalidStatus
	}

	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil || expense.CompanyID != companyID {
		return nil, ErrNotFound
	}

	trigger := workflow.TriggerOverrideApprove
	if status == entity.ExpenseRejected {
		trigger = workflow.TriggerOverrideReject
	}
	machine := workflow.NewExpenseLifecycle(workflow.State(expense.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		// Draft expenses have nothing to override
		return nil, ErrInvalidStatus
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.SkipAllPending(txCtx, expenseID, time.Now()); err != nil {
			return err
		}
		expense.Status = entity.ExpenseStatus(machine.State())
		return s.expenseRepo.Update(txCtx, expense)
	})
	if err != nil {
		s.logger.Error("Failed to override expense status", "error", err, "expense_id", expenseID)
		return nil, err
	}

	s.logger.Info("Expense status overridden", "expense_id", expenseID, "status", string(status))
	return expense, nil
}

// ExportExpenseReport renders the company's expenses as a spreadsheet
func (s *adminServiceImpl) ExportExpenseReport(ctx context.Context, companyID int64) ([]byte, error) {
	expenses, err := s.expenseRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	rows := make([]port.ExpenseReportRow, 0, len(expenses))
	for _, e := range expenses {
		row := port.ExpenseReportRow{
			ExpenseID:    e.ID,
			ClaimantName: names[e.ClaimantID],
			Category:     e.Category,
			Description:  e.Description,
			Amount:       e.AmountInCompanyCurrency,
			Currency:     e.CompanyCurrency,
			Status:       string(e.Status),
			DateSpent:    e.DateSpent.Format("2006-01-02"),
		}
		if e.SubmittedAt != nil {
			row.SubmittedAt = e.SubmittedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}

	return s.exporter.ExpenseReport(rows)
}
