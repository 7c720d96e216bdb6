package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerSubmit fires when approvals are generated for a draft
	TriggerSubmit Trigger = "SUBMIT"

	// TriggerAutoApprove fires when a draft resolves to zero approvers
	TriggerAutoApprove Trigger = "AUTO_APPROVE"

	// TriggerAdvance fires when a step completes with more steps remaining
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerApprove fires when the final step completes satisfied
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject fires when any approver in the active step rejects
	TriggerReject Trigger = "REJECT"

	// TriggerOverrideApprove fires when an admin forces the expense to
	// Approved, bypassing the remaining approvals
	TriggerOverrideApprove Trigger = "OVERRIDE_APPROVE"

	// TriggerOverrideReject fires when an admin forces the expense to
	// Rejected
	TriggerOverrideReject Trigger = "OVERRIDE_REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
