package engine

import (
	"context"
	"sort"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"go.uber.org/zap"
)

// SelectRule picks the single applicable approval rule for an expense.
//
// Rules are filtered by category, converted amount and claimant role.
// When several survive, the highest specificity score wins; equal
// scores keep repository order (the sort is stable on purpose, see
// AppliesTo.SpecificityScore). When none survive, the rule flagged as
// default is chosen, else the first rule the repository returned: an
// expense with any configured rules is never left unrouted.
//
// Returns (nil, nil) when the company has no rules at all; the caller
// falls back to the default-manager flow.
func (e *Engine) SelectRule(ctx context.Context, expense *entity.Expense, claimantRole entity.Role) (*entity.ApprovalRule, error) {
	rules, err := e.rules.ListByCompany(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	matched := make([]*entity.ApprovalRule, 0, len(rules))
	for _, r := range rules {
		if r.AppliesTo.Matches(expense.Category, expense.AmountInCompanyCurrency, claimantRole) {
			matched = append(matched, r)
		}
	}

	if len(matched) > 1 {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].AppliesTo.SpecificityScore() > matched[j].AppliesTo.SpecificityScore()
		})
	}

	var chosen *entity.ApprovalRule
	switch {
	case len(matched) > 0:
		chosen = matched[0]
	default:
		for _, r := range rules {
			if r.AppliesTo.Default {
				chosen = r
				break
			}
		}
		if chosen == nil {
			chosen = rules[0]
		}
	}

	e.logger.Info("Applied approval rule",
		zap.Int64("expense_id", expense.ID),
		zap.Int64("rule_id", chosen.ID),
		zap.String("rule_name", chosen.Name),
		zap.Int("matched", len(matched)))

	return chosen, nil
}
