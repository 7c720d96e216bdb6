package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// DecisionResult reports the expense status after a decision is applied
type DecisionResult struct {
	Status entity.ExpenseStatus `json:"status"`
}

// ApplyDecision consumes one approver's decision and advances or
// terminates the expense's workflow. It runs atomically: the decision
// write and the cohort evaluation happen inside one transaction, and
// the decision write itself is a compare-and-set on the Pending state
// so two racing calls on the same approval cannot both succeed.
//
// Step completion is evaluated with this exact precedence: first the
// percentage/hybrid short-circuit (enough approvers said yes; remaining
// Pending cohort members are force-Skipped), then any rejection (a
// single reject fails the whole expense), then unanimous completion.
// The short-circuit deliberately wins over a reject that is already
// present in the cohort; callers relying on this engine depend on that
// ordering and the tests pin it.
func (e *Engine) ApplyDecision(ctx context.Context, approvalID int64, decision entity.Decision, comments string) (DecisionResult, error) {
	if decision != entity.DecisionApproved && decision != entity.DecisionRejected {
		return DecisionResult{}, fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}

	var result DecisionResult
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = e.applyDecision(txCtx, approvalID, decision, comments)
		return err
	})
	if err != nil {
		return DecisionResult{}, err
	}

	e.logger.Info("Decision applied",
		zap.Int64("approval_id", approvalID),
		zap.String("decision", string(decision)),
		zap.String("expense_status", string(result.Status)))

	return result, nil
}

func (e *Engine) applyDecision(ctx context.Context, approvalID int64, decision entity.Decision, comments string) (DecisionResult, error) {
	approval, err := e.approvals.GetByID(ctx, approvalID)
	if err != nil {
		return DecisionResult{}, err
	}
	if approval == nil {
		return DecisionResult{}, ErrApprovalNotFound
	}
	if approval.Decision != entity.DecisionPending {
		return DecisionResult{}, ErrAlreadyDecided
	}

	now := time.Now()
	updated, err := e.approvals.DecideIfPending(ctx, approvalID, decision, comments, now)
	if err != nil {
		return DecisionResult{}, err
	}
	if !updated {
		// Lost the race to a concurrent decision
		return DecisionResult{}, ErrAlreadyDecided
	}

	expense, err := e.expenses.GetByID(ctx, approval.ExpenseID)
	if err != nil {
		return DecisionResult{}, err
	}
	if expense == nil {
		return DecisionResult{}, ErrExpenseNotFound
	}

	// A cohort member may still decide after the expense terminated
	// (e.g. a straggler after a rejection). The decision is recorded
	// above but a terminal status never reverses.
	if expense.IsTerminal() {
		return DecisionResult{Status: expense.Status}, nil
	}

	var rule *entity.ApprovalRule
	if expense.ApprovalRuleID != nil {
		rule, err = e.rules.GetByID(ctx, *expense.ApprovalRuleID)
		if err != nil {
			return DecisionResult{}, err
		}
	}

	// Consistent read of the full approval set, after the write above;
	// a concurrent short-circuit's Skips are observed here, never stale
	// Pending states.
	all, err := e.approvals.ListByExpense(ctx, expense.ID)
	if err != nil {
		return DecisionResult{}, err
	}

	machine := workflow.NewExpenseLifecycle(workflow.State(expense.Status))

	if len(all) == 0 {
		if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
			return DecisionResult{}, fmt.Errorf("approve transition: %w", err)
		}
		return e.finish(ctx, expense, machine)
	}

	orderValues := distinctOrders(all)
	stepOrder := approval.Order

	var total, approvedCount, rejectedCount, pendingCount int
	for _, a := range all {
		if a.Order != stepOrder {
			continue
		}
		total++
		switch a.Decision {
		case entity.DecisionApproved:
			approvedCount++
		case entity.DecisionRejected:
			rejectedCount++
		case entity.DecisionPending:
			pendingCount++
		}
	}

	stepApproved := false

	// Conditional short-circuit is checked before rejections; a step
	// whose threshold is already met passes even if a cohort member
	// rejected.
	cond := conditionalOf(rule)
	if (cond.Type == entity.ConditionalPercentage || cond.Type == entity.ConditionalHybrid) && cond.PercentageRequired > 0 {
		pct := float64(approvedCount) / float64(total) * 100
		if pct >= float64(cond.PercentageRequired) {
			stepApproved = true
			if pendingCount > 0 {
				if err := e.approvals.SkipPendingInStep(ctx, expense.ID, stepOrder, now); err != nil {
					return DecisionResult{}, fmt.Errorf("skip pending in step: %w", err)
				}
				e.logger.Info("Step threshold met, remaining approvals skipped",
					zap.Int64("expense_id", expense.ID),
					zap.Int("step", stepOrder),
					zap.Int("skipped", pendingCount))
			}
		}
	}

	if !stepApproved {
		if rejectedCount > 0 {
			if err := machine.Fire(ctx, workflow.TriggerReject); err != nil {
				return DecisionResult{}, fmt.Errorf("reject transition: %w", err)
			}
			return e.finish(ctx, expense, machine)
		}
		stepApproved = pendingCount == 0
	}

	if stepApproved {
		next, last := nextOrder(orderValues, stepOrder)
		if last {
			if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
				return DecisionResult{}, fmt.Errorf("approve transition: %w", err)
			}
			return e.finish(ctx, expense, machine)
		}

		if err := machine.Fire(ctx, workflow.TriggerAdvance); err != nil {
			return DecisionResult{}, fmt.Errorf("advance transition: %w", err)
		}
		expense.CurrentStep = &next
		return e.finish(ctx, expense, machine)
	}

	// Step stays open; other cohort members are still pending
	return e.finish(ctx, expense, machine)
}

// finish persists the expense with the machine's current state and
// reports it.
func (e *Engine) finish(ctx context.Context, expense *entity.Expense, machine workflow.StateMachine) (DecisionResult, error) {
	expense.Status = entity.ExpenseStatus(machine.State())
	if err := e.expenses.Update(ctx, expense); err != nil {
		return DecisionResult{}, fmt.Errorf("update expense: %w", err)
	}
	return DecisionResult{Status: expense.Status}, nil
}

// distinctOrders returns the ascending distinct order values of an
// approval list already sorted by order.
func distinctOrders(approvals []*entity.Approval) []int {
	orders := make([]int, 0, len(approvals))
	for _, a := range approvals {
		if len(orders) == 0 || orders[len(orders)-1] != a.Order {
			orders = append(orders, a.Order)
		}
	}
	return orders
}

// nextOrder returns the order value following stepOrder, or last=true
// when stepOrder is the final step.
func nextOrder(orderValues []int, stepOrder int) (int, bool) {
	for i, v := range orderValues {
		if v == stepOrder {
			if i+1 >= len(orderValues) {
				return 0, true
			}
			return orderValues[i+1], false
		}
	}
	return 0, true
}

// conditionalOf returns the rule's conditional, or the none conditional
// when the expense has no linked rule (deleted or synthetic).
func conditionalOf(rule *entity.ApprovalRule) entity.Conditional {
	if rule == nil {
		return entity.Conditional{Type: entity.ConditionalNone}
	}
	return rule.Conditional
}
