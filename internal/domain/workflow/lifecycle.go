package workflow

// NewExpenseLifecycle builds a state machine configured with the expense
// approval lifecycle, starting from the given state.
//
// Draft leaves via SUBMIT (approvals generated) or AUTO_APPROVE (rule
// resolved to zero approvers, or claimant has neither rule nor manager).
// Waiting loops on ADVANCE while steps remain and terminates via APPROVE
// or REJECT. Pending is a legacy alias of Waiting kept for data
// compatibility. The OVERRIDE_* triggers model the admin override: they
// are permitted from every non-draft state, including the terminal ones,
// and are the only way out of a terminal state.
func NewExpenseLifecycle(initial State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateWaiting).
		Permit(TriggerAutoApprove, StateApproved)

	builder.Configure(StateWaiting).
		Permit(TriggerAdvance, StateWaiting).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StatePending).
		Permit(TriggerAdvance, StateWaiting).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	overridable := []State{
		StateWaiting, StatePending, StateApproved, StateRejected, StatePartiallyApproved,
	}
	for _, state := range overridable {
		builder.Configure(state).
			Permit(TriggerOverrideApprove, StateApproved).
			Permit(TriggerOverrideReject, StateRejected)
	}

	return builder.Build(initial)
}
