package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func managerID(id int64) *int64 { return &id }

func TestResolveSlot_ManagerSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("claimant has manager", func(t *testing.T) {
		store := newMemStore()
		store.addUser(&entity.User{ID: 5, CompanyID: 1, Role: entity.RoleManager})
		store.addUser(&entity.User{ID: 10, CompanyID: 1, Role: entity.RoleEmployee, ManagerID: managerID(5)})
		expense := store.addExpense(mealsExpense(120))
		eng := newTestEngine(store)

		refs, err := eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotManager, Order: 1}, expense)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, int64(5), refs[0].userID)
		assert.Equal(t, 1, refs[0].order)
	})

	t.Run("no manager falls back to first admin", func(t *testing.T) {
		store := newMemStore()
		store.addUser(&entity.User{ID: 3, CompanyID: 1, Role: entity.RoleAdmin})
		store.addUser(&entity.User{ID: 7, CompanyID: 1, Role: entity.RoleAdmin})
		store.addUser(&entity.User{ID: 10, CompanyID: 1, Role: entity.RoleEmployee})
		expense := store.addExpense(mealsExpense(120))
		eng := newTestEngine(store)

		refs, err := eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotManager, Order: 1}, expense)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, int64(3), refs[0].userID, "lowest-id admin is the deterministic fallback")
	})

	t.Run("no manager and no admin resolves to nothing", func(t *testing.T) {
		store := newMemStore()
		store.addUser(&entity.User{ID: 10, CompanyID: 1, Role: entity.RoleEmployee})
		expense := store.addExpense(mealsExpense(120))
		eng := newTestEngine(store)

		refs, err := eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotManager, Order: 1}, expense)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

func TestResolveSlot_RoleSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to every user with the role", func(t *testing.T) {
		store := newMemStore()
		store.addUser(&entity.User{ID: 20, CompanyID: 1, Role: entity.RoleFinance})
		store.addUser(&entity.User{ID: 21, CompanyID: 1, Role: entity.RoleFinance})
		store.addUser(&entity.User{ID: 22, CompanyID: 1, Role: entity.RoleFinance})
		store.addUser(&entity.User{ID: 30, CompanyID: 2, Role: entity.RoleFinance})
		expense := store.addExpense(mealsExpense(120))
		eng := newTestEngine(store)

		refs, err := eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotRole, Role: entity.RoleFinance, Order: 2}, expense)
		require.NoError(t, err)
		require.Len(t, refs, 3, "role resolution is a parallel fan-out, not a single approver")
		for _, ref := range refs {
			assert.Equal(t, 2, ref.order)
		}
	})

	t.Run("empty role falls back to admin", func(t *testing.T) {
		store := newMemStore()
		store.addUser(&entity.User{ID: 3, CompanyID: 1, Role: entity.RoleAdmin})
		expense := store.addExpense(mealsExpense(120))
		eng := newTestEngine(store)

		refs, err := eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotRole, Role: entity.RoleCFO, Order: 1}, expense)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, int64(3), refs[0].userID)
	})
}

func TestResolveSlot_UserSlot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	expense := store.addExpense(mealsExpense(120))
	eng := newTestEngine(store)

	refs, err := eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotUser, UserID: 42, Order: 3}, expense)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(42), refs[0].userID)

	refs, err = eng.resolveSlot(ctx, entity.ApproverSlot{Type: entity.SlotUser, Order: 3}, expense)
	require.NoError(t, err)
	assert.Empty(t, refs, "unset user id contributes no approver")
}

func TestBuildApprovals_ZeroApproversAutoApproves(t *testing.T) {
	store := newMemStore()
	// no admin in the company and nobody with the role
	store.addUser(&entity.User{ID: 10, CompanyID: 1, Role: entity.RoleEmployee})
	expense := store.addExpense(mealsExpense(120))
	rule := &entity.ApprovalRule{
		ID: 1, CompanyID: 1, Name: "Ghost Rule",
		Approvers: []entity.ApproverSlot{{Type: entity.SlotRole, Role: "NonexistentRole", Order: 1}},
	}
	eng := newTestEngine(store)

	approvals, err := eng.BuildApprovals(context.Background(), expense, rule)
	require.NoError(t, err)
	assert.Empty(t, approvals)
	assert.Equal(t, entity.ExpenseApproved, expense.Status, "zero resolvable approvers auto-approve the expense")
	assert.Nil(t, expense.CurrentStep)
}

func TestBuildApprovals_ParallelStepFanOutDeduplicates(t *testing.T) {
	store := newMemStore()
	finance1 := store.addUser(&entity.User{ID: 20, CompanyID: 1, Role: entity.RoleFinance})
	store.addUser(&entity.User{ID: 21, CompanyID: 1, Role: entity.RoleFinance})
	store.addUser(&entity.User{ID: 22, CompanyID: 1, Role: entity.RoleFinance})
	expense := store.addExpense(mealsExpense(120))
	// finance1 also appears as an explicit User slot in the same step;
	// the (approver, order) pair must not duplicate
	rule := &entity.ApprovalRule{
		ID: 1, CompanyID: 1, Name: "Finance Review",
		Approvers: []entity.ApproverSlot{
			{Type: entity.SlotRole, Role: entity.RoleFinance, Order: 1},
			{Type: entity.SlotUser, UserID: finance1.ID, Order: 1},
		},
	}
	eng := newTestEngine(store)

	approvals, err := eng.BuildApprovals(context.Background(), expense, rule)
	require.NoError(t, err)
	require.Len(t, approvals, 3)
	for _, a := range approvals {
		assert.Equal(t, 1, a.Order)
		assert.Equal(t, entity.DecisionPending, a.Decision)
	}
}

func TestBuildApprovals_SetsWorkflowState(t *testing.T) {
	store := newMemStore()
	store.addUser(&entity.User{ID: 5, CompanyID: 1, Role: entity.RoleManager})
	store.addUser(&entity.User{ID: 10, CompanyID: 1, Role: entity.RoleEmployee, ManagerID: managerID(5)})
	store.addUser(&entity.User{ID: 20, CompanyID: 1, Role: entity.RoleFinance})
	expense := store.addExpense(mealsExpense(120))
	rule := &entity.ApprovalRule{
		ID: 7, CompanyID: 1, Name: "Two Step",
		Approvers: []entity.ApproverSlot{
			// deliberately unsorted input
			{Type: entity.SlotRole, Role: entity.RoleFinance, Order: 2},
			{Type: entity.SlotManager, Order: 1},
		},
	}
	eng := newTestEngine(store)

	approvals, err := eng.BuildApprovals(context.Background(), expense, rule)
	require.NoError(t, err)
	require.Len(t, approvals, 2)

	assert.Equal(t, entity.ExpenseWaiting, expense.Status)
	require.NotNil(t, expense.CurrentStep)
	assert.Equal(t, 1, *expense.CurrentStep, "currentStep starts at the minimum order")
	require.NotNil(t, expense.ApprovalRuleID)
	assert.Equal(t, int64(7), *expense.ApprovalRuleID)

	assert.Equal(t, 1, approvals[0].Order, "slots are processed in ascending order")
	assert.Equal(t, int64(5), approvals[0].ApproverID)
	assert.Equal(t, 2, approvals[1].Order)
}

func TestBuildApprovals_SyntheticRuleIsNotLinked(t *testing.T) {
	store := newMemStore()
	store.addUser(&entity.User{ID: 5, CompanyID: 1, Role: entity.RoleManager})
	expense := store.addExpense(mealsExpense(120))
	// the submission flow's default manager rule has no persisted id
	rule := &entity.ApprovalRule{
		Name:        "Default Manager Rule",
		Conditional: entity.Conditional{Type: entity.ConditionalNone},
		Approvers:   []entity.ApproverSlot{{Type: entity.SlotUser, UserID: 5, Order: 1}},
	}
	eng := newTestEngine(store)

	approvals, err := eng.BuildApprovals(context.Background(), expense, rule)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, entity.ExpenseWaiting, expense.Status)
	assert.Nil(t, expense.ApprovalRuleID)
}
