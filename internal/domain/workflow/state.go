package workflow

import "github.com/expenseflow/expenseflow/internal/domain/entity"

// State represents an expense workflow state
type State string

const (
	StateDraft             State = State(entity.ExpenseDraft)
	StateWaiting           State = State(entity.ExpenseWaiting)
	StatePending           State = State(entity.ExpensePending)
	StateApproved          State = State(entity.ExpenseApproved)
	StateRejected          State = State(entity.ExpenseRejected)
	StatePartiallyApproved State = State(entity.ExpensePartiallyApproved)
)

var validStates = map[State]bool{
	StateDraft:             true,
	StateWaiting:           true,
	StatePending:           true,
	StateApproved:          true,
	StateRejected:          true,
	StatePartiallyApproved: true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state. Only an
// administrative override may move an expense out of a terminal state,
// and that path bypasses the machine entirely.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
