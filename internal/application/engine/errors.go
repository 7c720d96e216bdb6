package engine

import "errors"

var (
	// ErrApprovalNotFound is returned when the referenced approval does not exist
	ErrApprovalNotFound = errors.New("approval not found")

	// ErrExpenseNotFound is returned when the referenced expense does not exist
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrAlreadyDecided is returned when the approval is no longer Pending
	ErrAlreadyDecided = errors.New("approval already decided")

	// ErrInvalidDecision is returned when the decision is not Approved or Rejected
	ErrInvalidDecision = errors.New("invalid decision value")
)
