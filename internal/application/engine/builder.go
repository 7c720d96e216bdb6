package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// BuildApprovals creates the pending approval set for an expense from
// the given rule and sets the expense's initial workflow state.
//
// Slots are resolved in ascending step order and the resulting
// (approver, order) pairs deduplicated so no user receives two tasks in
// the same step. A rule whose slots resolve to zero approvers
// auto-approves the expense; this is a deliberate policy, not a silent
// drop. Otherwise every pair becomes a Pending approval, currentStep is
// the minimum order among them, status becomes Waiting and the rule is
// linked on the expense.
//
// The rule may be a persisted one or a synthetic value (the submission
// flow's default manager rule); only persisted rules (non-zero id) are
// linked on the expense.
func (e *Engine) BuildApprovals(ctx context.Context, expense *entity.Expense, rule *entity.ApprovalRule) ([]*entity.Approval, error) {
	slots := make([]entity.ApproverSlot, len(rule.Approvers))
	copy(slots, rule.Approvers)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Order < slots[j].Order })

	type pairKey struct {
		userID int64
		order  int
	}
	seen := make(map[pairKey]bool)
	refs := make([]approverRef, 0, len(slots))

	for _, slot := range slots {
		resolved, err := e.resolveSlot(ctx, slot, expense)
		if err != nil {
			return nil, fmt.Errorf("resolve slot (order %d): %w", slot.Order, err)
		}
		for _, ref := range resolved {
			key := pairKey{userID: ref.userID, order: ref.order}
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, ref)
		}
	}

	machine := workflow.NewExpenseLifecycle(workflow.State(expense.Status))

	if len(refs) == 0 {
		if err := machine.Fire(ctx, workflow.TriggerAutoApprove); err != nil {
			return nil, fmt.Errorf("auto-approve transition: %w", err)
		}
		expense.Status = entity.ExpenseStatus(machine.State())
		if err := e.expenses.Update(ctx, expense); err != nil {
			return nil, fmt.Errorf("update expense: %w", err)
		}
		e.logger.Info("Rule resolved to zero approvers, expense auto-approved",
			zap.Int64("expense_id", expense.ID),
			zap.String("rule_name", rule.Name))
		return []*entity.Approval{}, nil
	}

	if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("submit transition: %w", err)
	}

	now := time.Now()
	approvals := make([]*entity.Approval, 0, len(refs))
	minOrder := refs[0].order
	for _, ref := range refs {
		if ref.order < minOrder {
			minOrder = ref.order
		}
		approvals = append(approvals, &entity.Approval{
			ExpenseID:  expense.ID,
			ApproverID: ref.userID,
			Order:      ref.order,
			Decision:   entity.DecisionPending,
			CreatedAt:  now,
		})
	}

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.approvals.CreateBatch(txCtx, approvals); err != nil {
			return fmt.Errorf("create approvals: %w", err)
		}

		expense.Status = entity.ExpenseStatus(machine.State())
		expense.CurrentStep = &minOrder
		if rule.ID != 0 {
			ruleID := rule.ID
			expense.ApprovalRuleID = &ruleID
		}
		if err := e.expenses.Update(txCtx, expense); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Approvals generated",
		zap.Int64("expense_id", expense.ID),
		zap.String("rule_name", rule.Name),
		zap.Int("approvals", len(approvals)),
		zap.Int("first_step", minOrder))

	return approvals, nil
}
