package service

import (
	"context"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/engine"
	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// Mock repositories and collaborators. Each field overrides one method;
// nil fields fall back to a benign default.

type mockCompanyRepo struct {
	createFunc  func(ctx context.Context, company *entity.Company) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Company, error)
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, company)
	}
	company.ID = 1
	return nil
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Company{ID: id, Name: "Acme", Currency: "USD"}, nil
}

type mockUserRepo struct {
	createFunc               func(ctx context.Context, user *entity.User) error
	getByIDFunc              func(ctx context.Context, id int64) (*entity.User, error)
	getByEmailFunc           func(ctx context.Context, email string) (*entity.User, error)
	listByCompanyFunc        func(ctx context.Context, companyID int64) ([]*entity.User, error)
	listByCompanyAndRoleFunc func(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error)
	firstAdminFunc           func(ctx context.Context, companyID int64) (*entity.User, error)
	updateFunc               func(ctx context.Context, user *entity.User) error
	updatePasswordFunc       func(ctx context.Context, id int64, passwordHash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, CompanyID: 1, Role: entity.RoleEmployee}, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error) {
	if m.listByCompanyAndRoleFunc != nil {
		return m.listByCompanyAndRoleFunc(ctx, companyID, role)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) FirstAdmin(ctx context.Context, companyID int64) (*entity.User, error) {
	if m.firstAdminFunc != nil {
		return m.firstAdminFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.updatePasswordFunc != nil {
		return m.updatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

type mockRuleRepo struct {
	createFunc        func(ctx context.Context, rule *entity.ApprovalRule) error
	getByIDFunc       func(ctx context.Context, id int64) (*entity.ApprovalRule, error)
	listByCompanyFunc func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rule)
	}
	rule.ID = 1
	return nil
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRuleRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return []*entity.ApprovalRule{}, nil
}

type mockExpenseRepo struct {
	createFunc         func(ctx context.Context, expense *entity.Expense) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.Expense, error)
	listByClaimantFunc func(ctx context.Context, claimantID int64) ([]*entity.Expense, error)
	listByCompanyFunc  func(ctx context.Context, companyID int64) ([]*entity.Expense, error)
	updateFunc         func(ctx context.Context, expense *entity.Expense) error
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	expense.ID = 1
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Expense{ID: id, CompanyID: 1, ClaimantID: 1, Status: entity.ExpenseDraft}, nil
}

func (m *mockExpenseRepo) ListByClaimant(ctx context.Context, claimantID int64) ([]*entity.Expense, error) {
	if m.listByClaimantFunc != nil {
		return m.listByClaimantFunc(ctx, claimantID)
	}
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) Update(ctx context.Context, expense *entity.Expense) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, expense)
	}
	return nil
}

type mockApprovalRepo struct {
	createBatchFunc           func(ctx context.Context, approvals []*entity.Approval) error
	getByIDFunc               func(ctx context.Context, id int64) (*entity.Approval, error)
	listByExpenseFunc         func(ctx context.Context, expenseID int64) ([]*entity.Approval, error)
	listPendingByApproverFunc func(ctx context.Context, approverID int64) ([]*entity.Approval, error)
	decideIfPendingFunc       func(ctx context.Context, id int64, decision entity.Decision, comments string, decidedAt time.Time) (bool, error)
	skipPendingInStepFunc     func(ctx context.Context, expenseID int64, order int, decidedAt time.Time) error
	skipAllPendingFunc        func(ctx context.Context, expenseID int64, decidedAt time.Time) error
}

func (m *mockApprovalRepo) CreateBatch(ctx context.Context, approvals []*entity.Approval) error {
	if m.createBatchFunc != nil {
		return m.createBatchFunc(ctx, approvals)
	}
	return nil
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Approval{ID: id, ExpenseID: 1, ApproverID: 2, Order: 1, Decision: entity.DecisionPending}, nil
}

func (m *mockApprovalRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error) {
	if m.listByExpenseFunc != nil {
		return m.listByExpenseFunc(ctx, expenseID)
	}
	return []*entity.Approval{}, nil
}

func (m *mockApprovalRepo) ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error) {
	if m.listPendingByApproverFunc != nil {
		return m.listPendingByApproverFunc(ctx, approverID)
	}
	return []*entity.Approval{}, nil
}

func (m *mockApprovalRepo) DecideIfPending(ctx context.Context, id int64, decision entity.Decision, comments string, decidedAt time.Time) (bool, error) {
	if m.decideIfPendingFunc != nil {
		return m.decideIfPendingFunc(ctx, id, decision, comments, decidedAt)
	}
	return true, nil
}

func (m *mockApprovalRepo) SkipPendingInStep(ctx context.Context, expenseID int64, order int, decidedAt time.Time) error {
	if m.skipPendingInStepFunc != nil {
		return m.skipPendingInStepFunc(ctx, expenseID, order, decidedAt)
	}
	return nil
}

func (m *mockApprovalRepo) SkipAllPending(ctx context.Context, expenseID int64, decidedAt time.Time) error {
	if m.skipAllPendingFunc != nil {
		return m.skipAllPendingFunc(ctx, expenseID, decidedAt)
	}
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockEngine struct {
	selectRuleFunc     func(ctx context.Context, expense *entity.Expense, claimantRole entity.Role) (*entity.ApprovalRule, error)
	buildApprovalsFunc func(ctx context.Context, expense *entity.Expense, rule *entity.ApprovalRule) ([]*entity.Approval, error)
	applyDecisionFunc  func(ctx context.Context, approvalID int64, decision entity.Decision, comments string) (engine.DecisionResult, error)
}

func (m *mockEngine) SelectRule(ctx context.Context, expense *entity.Expense, claimantRole entity.Role) (*entity.ApprovalRule, error) {
	if m.selectRuleFunc != nil {
		return m.selectRuleFunc(ctx, expense, claimantRole)
	}
	return nil, nil
}

func (m *mockEngine) BuildApprovals(ctx context.Context, expense *entity.Expense, rule *entity.ApprovalRule) ([]*entity.Approval, error) {
	if m.buildApprovalsFunc != nil {
		return m.buildApprovalsFunc(ctx, expense, rule)
	}
	expense.Status = entity.ExpenseWaiting
	return []*entity.Approval{}, nil
}

func (m *mockEngine) ApplyDecision(ctx context.Context, approvalID int64, decision entity.Decision, comments string) (engine.DecisionResult, error) {
	if m.applyDecisionFunc != nil {
		return m.applyDecisionFunc(ctx, approvalID, decision, comments)
	}
	return engine.DecisionResult{Status: entity.ExpenseWaiting}, nil
}

type mockConverter struct {
	convertFunc func(ctx context.Context, amount float64, from, to string) (float64, error)
}

func (m *mockConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if m.convertFunc != nil {
		return m.convertFunc(ctx, amount, from, to)
	}
	return amount, nil
}

type mockEmailSender struct {
	sendFunc func(ctx context.Context, to, subject, body string) error
	sent     []string
}

func (m *mockEmailSender) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, to)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, subject, body)
	}
	return nil
}

type mockExporter struct {
	exportFunc func(rows []port.ExpenseReportRow) ([]byte, error)
}

func (m *mockExporter) ExpenseReport(rows []port.ExpenseReportRow) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(rows)
	}
	return []byte("report"), nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
