package entity

// Role is a user's role within a company
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
	RoleFinance  Role = "Finance"
	RoleDirector Role = "Director"
	RoleCFO      Role = "CFO"
)

// ExpenseStatus represents the workflow state of an expense
type ExpenseStatus string

const (
	ExpenseDraft             ExpenseStatus = "Draft"
	ExpenseWaiting           ExpenseStatus = "Waiting"
	ExpensePending           ExpenseStatus = "Pending"
	ExpenseApproved          ExpenseStatus = "Approved"
	ExpenseRejected          ExpenseStatus = "Rejected"
	ExpensePartiallyApproved ExpenseStatus = "PartiallyApproved"
)

// Decision is the state of one approver's task
type Decision string

const (
	DecisionPending  Decision = "Pending"
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
	DecisionSkipped  Decision = "Skipped"
)

// IsTerminal returns true once a decision can no longer change.
// Decisions only ever move Pending -> {Approved, Rejected, Skipped}.
func (d Decision) IsTerminal() bool {
	return d == DecisionApproved || d == DecisionRejected || d == DecisionSkipped
}

// SlotType tags the variant of an ApproverSlot
type SlotType string

const (
	SlotRole    SlotType = "Role"
	SlotUser    SlotType = "User"
	SlotManager SlotType = "ManagerSlot"
)

// ConditionalType tags the step-completion policy of a rule
type ConditionalType string

const (
	ConditionalNone       ConditionalType = "none"
	ConditionalPercentage ConditionalType = "percentage"
	ConditionalSpecific   ConditionalType = "specific"
	ConditionalHybrid     ConditionalType = "hybrid"
)

// UserStatus is the account state of a user
type UserStatus string

const (
	UserPending  UserStatus = "Pending"
	UserApproved UserStatus = "Approved"
	UserRejected UserStatus = "Rejected"
)
