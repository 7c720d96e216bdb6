package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func newAdminService(rules *mockRuleRepo, expenses *mockExpenseRepo, approvals *mockApprovalRepo, users *mockUserRepo, exporter *mockExporter) AdminService {
	return NewAdminService(rules, expenses, approvals, users, &mockTxManager{}, exporter, &mockLogger{})
}

func TestAdminService_CreateRule_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateRuleInput
		wantErr bool
	}{
		{
			name: "valid manager slot rule",
			input: CreateRuleInput{
				CompanyID:   1,
				Name:        "Default",
				Approvers:   []entity.ApproverSlot{{Type: entity.SlotManager, Order: 1}},
				Conditional: entity.Conditional{Type: entity.ConditionalNone},
			},
		},
		{
			name: "missing name",
			input: CreateRuleInput{
				CompanyID: 1,
				Approvers: []entity.ApproverSlot{{Type: entity.SlotManager, Order: 1}},
			},
			wantErr: true,
		},
		{
			name:    "no approver slots",
			input:   CreateRuleInput{CompanyID: 1, Name: "Empty"},
			wantErr: true,
		},
		{
			name: "role slot without role",
			input: CreateRuleInput{
				CompanyID: 1,
				Name:      "Bad",
				Approvers: []entity.ApproverSlot{{Type: entity.SlotRole, Order: 1}},
			},
			wantErr: true,
		},
		{
			name: "percentage without threshold",
			input: CreateRuleInput{
				CompanyID:   1,
				Name:        "Bad",
				Approvers:   []entity.ApproverSlot{{Type: entity.SlotManager, Order: 1}},
				Conditional: entity.Conditional{Type: entity.ConditionalPercentage},
			},
			wantErr: true,
		},
		{
			name: "hybrid with threshold",
			input: CreateRuleInput{
				CompanyID:   1,
				Name:        "Hybrid",
				Approvers:   []entity.ApproverSlot{{Type: entity.SlotRole, Role: entity.RoleFinance, Order: 1}},
				Conditional: entity.Conditional{Type: entity.ConditionalHybrid, PercentageRequired: 60, SpecificApproverID: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAdminService(&mockRuleRepo{}, &mockExpenseRepo{}, &mockApprovalRepo{}, &mockUserRepo{}, &mockExporter{})

			rule, err := svc.CreateRule(context.Background(), tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateRule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && rule.ID == 0 {
				t.Error("created rule should have an id")
			}
		})
	}
}

func TestAdminService_OverrideStatus(t *testing.T) {
	expense := &entity.Expense{ID: 1, CompanyID: 1, Status: entity.ExpenseWaiting}
	expenses := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return expense, nil
		},
	}
	var skipped bool
	approvals := &mockApprovalRepo{
		skipAllPendingFunc: func(ctx context.Context, expenseID int64, decidedAt time.Time) error {
			skipped = true
			return nil
		},
	}
	svc := newAdminService(&mockRuleRepo{}, expenses, approvals, &mockUserRepo{}, &mockExporter{})

	out, err := svc.OverrideStatus(context.Background(), 1, 1, entity.ExpenseRejected)
	if err != nil {
		t.Fatalf("OverrideStatus() error = %v", err)
	}
	if out.Status != entity.ExpenseRejected {
		t.Errorf("status = %v, want Rejected", out.Status)
	}
	if !skipped {
		t.Error("pending approvals were not skipped")
	}
}

func TestAdminService_OverrideStatus_Guards(t *testing.T) {
	svc := newAdminService(&mockRuleRepo{}, &mockExpenseRepo{}, &mockApprovalRepo{}, &mockUserRepo{}, &mockExporter{})

	if _, err := svc.OverrideStatus(context.Background(), 1, 1, entity.ExpenseWaiting); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("non-terminal override: error = %v, want ErrInvalidStatus", err)
	}

	draft := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return &entity.Expense{ID: id, CompanyID: 1, Status: entity.ExpenseDraft}, nil
		},
	}
	svc = newAdminService(&mockRuleRepo{}, draft, &mockApprovalRepo{}, &mockUserRepo{}, &mockExporter{})
	if _, err := svc.OverrideStatus(context.Background(), 1, 1, entity.ExpenseApproved); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("draft override: error = %v, want ErrInvalidStatus", err)
	}

	otherCompany := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return &entity.Expense{ID: id, CompanyID: 2}, nil
		},
	}
	svc = newAdminService(&mockRuleRepo{}, otherCompany, &mockApprovalRepo{}, &mockUserRepo{}, &mockExporter{})
	if _, err := svc.OverrideStatus(context.Background(), 1, 1, entity.ExpenseApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-company override: error = %v, want ErrNotFound", err)
	}
}

func TestAdminService_ExportExpenseReport(t *testing.T) {
	submitted := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	expenses := &mockExpenseRepo{
		listByCompanyFunc: func(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
			return []*entity.Expense{
				{
					ID: 1, CompanyID: companyID, ClaimantID: 2,
					AmountInCompanyCurrency: 120.5, CompanyCurrency: "USD",
					Category: "Travel", Status: entity.ExpenseApproved,
					DateSpent: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), SubmittedAt: &submitted,
				},
			}, nil
		},
	}
	users := &mockUserRepo{
		listByCompanyFunc: func(ctx context.Context, companyID int64) ([]*entity.User, error) {
			return []*entity.User{{ID: 2, Name: "Ana"}}, nil
		},
	}
	var gotRows []port.ExpenseReportRow
	exporter := &mockExporter{
		exportFunc: func(rows []port.ExpenseReportRow) ([]byte, error) {
			gotRows = rows
			return []byte("xlsx"), nil
		},
	}
	svc := newAdminService(&mockRuleRepo{}, expenses, &mockApprovalRepo{}, users, exporter)

	data, err := svc.ExportExpenseReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("ExportExpenseReport() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("expected report bytes")
	}
	if len(gotRows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(gotRows))
	}
	row := gotRows[0]
	if row.ClaimantName != "Ana" {
		t.Errorf("claimant name = %q, want Ana", row.ClaimantName)
	}
	if row.DateSpent != "2024-02-28" || row.SubmittedAt != "2024-03-01 09:30" {
		t.Errorf("unexpected date formatting: %q / %q", row.DateSpent, row.SubmittedAt)
	}
}
