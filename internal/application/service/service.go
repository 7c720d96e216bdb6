// Package service contains the application services that orchestrate
// the approval engine, repositories and external collaborators.
package service

import (
	"context"
	"errors"

	"github.com/expenseflow/expenseflow/internal/application/engine"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ApprovalEngine is the slice of the engine the services consume.
// Satisfied by *engine.Engine.
type ApprovalEngine interface {
	SelectRule(ctx context.Context, expense *entity.Expense, claimantRole entity.Role) (*entity.ApprovalRule, error)
	BuildApprovals(ctx context.Context, expense *entity.Expense, rule *entity.ApprovalRule) ([]*entity.Approval, error)
	ApplyDecision(ctx context.Context, approvalID int64, decision entity.Decision, comments string) (engine.DecisionResult, error)
}

var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotAllowed is returned when the caller may not act on the record
	ErrNotAllowed = errors.New("not allowed")

	// ErrNotDraft is returned when submitting an expense that already left Draft
	ErrNotDraft = errors.New("only draft expenses can be submitted")

	// ErrUserExists is returned when an email is already registered
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidStatus is returned when an override status is not terminal
	ErrInvalidStatus = errors.New("invalid status value")
)
