package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/engine"
	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// PendingApproval is an approval task joined with its expense for the
// approver's work list.
type PendingApproval struct {
	Approval *entity.Approval `json:"approval"`
	Expense  *entity.Expense  `json:"expense"`
}

// ApprovalService is the approver-facing surface of the engine
type ApprovalService interface {
	ListPendingForApprover(ctx context.Context, approverID int64) ([]*PendingApproval, error)
	Decide(ctx context.Context, approvalID, approverID int64, decision entity.Decision, comments string) (engine.DecisionResult, error)
}

type approvalServiceImpl struct {
	approvalRepo port.ApprovalRepository
	expenseRepo  port.ExpenseRepository
	userRepo     port.UserRepository
	engine       ApprovalEngine
	emailSender  port.EmailSender
	logger       Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	approvalRepo port.ApprovalRepository,
	expenseRepo port.ExpenseRepository,
	userRepo port.UserRepository,
	eng ApprovalEngine,
	emailSender port.EmailSender,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		approvalRepo: approvalRepo,
		expenseRepo:  expenseRepo,
		userRepo:     userRepo,
		engine:       eng,
		emailSender:  emailSender,
		logger:       logger,
	}
}

// ListPendingForApprover returns the approver's open tasks with their
// expenses attached.
func (s *approvalServiceImpl) ListPendingForApprover(ctx context.Context, approverID int64) ([]*PendingApproval, error) {
	approvals, err := s.approvalRepo.ListPendingByApprover(ctx, approverID)
	if err != nil {
		s.logger.Error("Failed to list pending approvals", "error", err, "approver_id", approverID)
		return nil, err
	}

	out := make([]*PendingApproval, 0, len(approvals))
	for _, a := range approvals {
		expense, err := s.expenseRepo.GetByID(ctx, a.ExpenseID)
		if err != nil {
			return nil, err
		}
		out = append(out, &PendingApproval{Approval: a, Expense: expense})
	}
	return out, nil
}

// Decide records one approver's decision, verifying the caller owns the
// task, and notifies the claimant of the outcome.
func (s *approvalServiceImpl) Decide(ctx context.Context, approvalID, approverID int64, decision entity.Decision, comments string) (engine.DecisionResult, error) {
	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		return engine.DecisionResult{}, err
	}
	if approval == nil {
		return engine.DecisionResult{}, engine.ErrApprovalNotFound
	}
	if approval.ApproverID != approverID {
		return engine.DecisionResult{}, ErrNotAllowed
	}

	result, err := s.engine.ApplyDecision(ctx, approvalID, decision, comments)
	if err != nil {
		return engine.DecisionResult{}, err
	}

	s.notifyClaimant(ctx, approval.ExpenseID, decision, result)

	s.logger.Info("Decision recorded",
		"approval_id", approvalID,
		"approver_id", approverID,
		"decision", string(decision),
		"expense_status", string(result.Status))

	return result, nil
}

// notifyClaimant emails the claimant about the decision. Delivery is
// best-effort; a failed notification never fails the decision.
func (s *approvalServiceImpl) notifyClaimant(ctx context.Context, expenseID int64, decision entity.Decision, result engine.DecisionResult) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil || expense == nil {
		return
	}
	claimant, err := s.userRepo.GetByID(ctx, expense.ClaimantID)
	if err != nil || claimant == nil {
		return
	}

	subject := fmt.Sprintf("Expense update: %s", result.Status)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour expense %q (%.2f %s) received a decision: %s.\nCurrent status: %s.\n",
		claimant.Name, expense.Description, expense.AmountInCompanyCurrency, expense.CompanyCurrency,
		decision, result.Status,
	)
	if err := s.emailSender.Send(ctx, claimant.Email, subject, body); err != nil {
		s.logger.Error("Failed to send decision notification", "error", err, "expense_id", expenseID)
	}
}
