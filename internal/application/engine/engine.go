// Package engine implements the approval engine: rule matching,
// approver resolution, approval set building and the decision state
// machine that advances an expense through its workflow steps.
package engine

import (
	"github.com/expenseflow/expenseflow/internal/application/port"
	"go.uber.org/zap"
)

// Engine is the approval engine. It is pure business logic over the
// repository ports; all I/O suspension happens at those boundaries.
type Engine struct {
	rules     port.RuleRepository
	users     port.UserRepository
	expenses  port.ExpenseRepository
	approvals port.ApprovalRepository
	txManager port.TransactionManager
	logger    *zap.Logger
}

// New creates a new approval engine
func New(
	rules port.RuleRepository,
	users port.UserRepository,
	expenses port.ExpenseRepository,
	approvals port.ApprovalRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		rules:     rules,
		users:     users,
		expenses:  expenses,
		approvals: approvals,
		txManager: txManager,
		logger:    logger,
	}
}
