package engine

import (
	"context"
	"sort"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"go.uber.org/zap"
)

// memStore is an in-memory backing store shared by the fake
// repositories. It keeps the ordering guarantees the real sqlite
// repositories provide (insertion order for rules, ascending id for
// users, order-then-id for approvals).
type memStore struct {
	rules     []*entity.ApprovalRule
	users     map[int64]*entity.User
	expenses  map[int64]*entity.Expense
	approvals map[int64]*entity.Approval
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*entity.User),
		expenses:  make(map[int64]*entity.Expense),
		approvals: make(map[int64]*entity.Approval),
		nextID:    1,
	}
}

func (s *memStore) addUser(u *entity.User) *entity.User {
	s.users[u.ID] = u
	return u
}

func (s *memStore) addExpense(e *entity.Expense) *entity.Expense {
	s.expenses[e.ID] = e
	return e
}

func (s *memStore) addRule(r *entity.ApprovalRule) *entity.ApprovalRule {
	s.rules = append(s.rules, r)
	return r
}

func (s *memStore) addApproval(a *entity.Approval) *entity.Approval {
	if a.ID == 0 {
		a.ID = s.nextID
		s.nextID++
	}
	s.approvals[a.ID] = a
	return a
}

// fakeRuleRepo implements port.RuleRepository

type fakeRuleRepo struct{ store *memStore }

func (r *fakeRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	r.store.addRule(rule)
	return nil
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	for _, rule := range r.store.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return nil, nil
}

func (r *fakeRuleRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	var out []*entity.ApprovalRule
	for _, rule := range r.store.rules {
		if rule.CompanyID == companyID {
			out = append(out, rule)
		}
	}
	return out, nil
}

// fakeUserRepo implements port.UserRepository

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.addUser(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.store.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.sortedUsers() {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.sortedUsers() {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.sortedUsers() {
		if u.CompanyID == companyID && u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FirstAdmin(ctx context.Context, companyID int64) (*entity.User, error) {
	for _, u := range r.sortedUsers() {
		if u.CompanyID == companyID && u.Role == entity.RoleAdmin {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.store.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if u, ok := r.store.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (r *fakeUserRepo) sortedUsers() []*entity.User {
	out := make([]*entity.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeExpenseRepo implements port.ExpenseRepository

type fakeExpenseRepo struct{ store *memStore }

func (r *fakeExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	r.store.addExpense(expense)
	return nil
}

func (r *fakeExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	return r.store.expenses[id], nil
}

func (r *fakeExpenseRepo) ListByClaimant(ctx context.Context, claimantID int64) ([]*entity.Expense, error) {
	var out []*entity.Expense
	for _, e := range r.store.expenses {
		if e.ClaimantID == claimantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	var out []*entity.Expense
	for _, e := range r.store.expenses {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) Update(ctx context.Context, expense *entity.Expense) error {
	r.store.expenses[expense.ID] = expense
	return nil
}

// fakeApprovalRepo implements port.ApprovalRepository

type fakeApprovalRepo struct{ store *memStore }

func (r *fakeApprovalRepo) CreateBatch(ctx context.Context, approvals []*entity.Approval) error {
	for _, a := range approvals {
		r.store.addApproval(a)
	}
	return nil
}

func (r *fakeApprovalRepo) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	return r.store.approvals[id], nil
}

func (r *fakeApprovalRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error) {
	var out []*entity.Approval
	for _, a := range r.store.approvals {
		if a.ExpenseID == expenseID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeApprovalRepo) ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error) {
	var out []*entity.Approval
	for _, a := range r.store.approvals {
		if a.ApproverID == approverID && a.Decision == entity.DecisionPending {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeApprovalRepo) DecideIfPending(ctx context.Context, id int64, decision entity.Decision, comments string, decidedAt time.Time) (bool, error) {
	a, ok := r.store.approvals[id]
	if !ok || a.Decision != entity.DecisionPending {
		return false, nil
	}
	a.Decision = decision
	a.Comments = comments
	a.DecidedAt = &decidedAt
	return true, nil
}

func (r *fakeApprovalRepo) SkipPendingInStep(ctx context.Context, expenseID int64, order int, decidedAt time.Time) error {
	for _, a := range r.store.approvals {
		if a.ExpenseID == expenseID && a.Order == order && a.Decision == entity.DecisionPending {
			a.Decision = entity.DecisionSkipped
			a.DecidedAt = &decidedAt
		}
	}
	return nil
}

func (r *fakeApprovalRepo) SkipAllPending(ctx context.Context, expenseID int64, decidedAt time.Time) error {
	for _, a := range r.store.approvals {
		if a.ExpenseID == expenseID && a.Decision == entity.DecisionPending {
			a.Decision = entity.DecisionSkipped
			a.DecidedAt = &decidedAt
		}
	}
	return nil
}

// fakeTxManager runs the function without any real transaction

type fakeTxManager struct{}

func (m *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestEngine(store *memStore) *Engine {
	return New(
		&fakeRuleRepo{store: store},
		&fakeUserRepo{store: store},
		&fakeExpenseRepo{store: store},
		&fakeApprovalRepo{store: store},
		&fakeTxManager{},
		zap.NewNop(),
	)
}
