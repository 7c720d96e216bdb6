package engine

import (
	"context"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"go.uber.org/zap"
)

// approverRef is a resolved (approver, step) pair before persistence
type approverRef struct {
	userID int64
	order  int
}

// resolveSlot expands one approver slot into zero or more concrete
// approvers at the slot's order.
//
// A ManagerSlot resolves to the claimant's manager, falling back to the
// company's first admin. A Role slot fans out to every company user
// holding the role (a parallel cohort), falling back to the first admin
// when nobody holds it. A User slot is the embedded id verbatim.
// Absence of a resolvable approver is not an error; the slot simply
// contributes nothing and the builder absorbs the empty case.
func (e *Engine) resolveSlot(ctx context.Context, slot entity.ApproverSlot, expense *entity.Expense) ([]approverRef, error) {
	switch slot.Type {
	case entity.SlotUser:
		if slot.UserID == 0 {
			return nil, nil
		}
		return []approverRef{{userID: slot.UserID, order: slot.Order}}, nil

	case entity.SlotManager:
		claimant, err := e.users.GetByID(ctx, expense.ClaimantID)
		if err != nil {
			return nil, err
		}
		if claimant != nil && claimant.ManagerID != nil {
			return []approverRef{{userID: *claimant.ManagerID, order: slot.Order}}, nil
		}
		return e.adminFallback(ctx, expense, slot.Order)

	case entity.SlotRole:
		if slot.Role == "" {
			return nil, nil
		}
		users, err := e.users.ListByCompanyAndRole(ctx, expense.CompanyID, slot.Role)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			refs := make([]approverRef, 0, len(users))
			for _, u := range users {
				refs = append(refs, approverRef{userID: u.ID, order: slot.Order})
			}
			return refs, nil
		}
		return e.adminFallback(ctx, expense, slot.Order)

	default:
		e.logger.Warn("Unknown approver slot type, slot ignored",
			zap.String("type", string(slot.Type)),
			zap.Int64("expense_id", expense.ID))
		return nil, nil
	}
}

// adminFallback resolves to the company's first admin, or to nothing
// when the company has no admin at all.
func (e *Engine) adminFallback(ctx context.Context, expense *entity.Expense, order int) ([]approverRef, error) {
	admin, err := e.users.FirstAdmin(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, nil
	}
	return []approverRef{{userID: admin.ID, order: order}}, nil
}
