package sale

import (
	"fmt"

	"presalecontrol/pkg/utils"
)

// PlanPurchase computes the allocation a quote budget buys against the
// current ledger snapshot, consuming phases in ascending index (ascending
// price) order. It never mutates the ledger: running it twice on the same
// snapshot yields the same plan, which makes pre-commit retries safe.
//
// The global TotalForSale cap clamps every phase take and wins over phase
// capacity. Costs use floor rounding in the seller's favor; whatever sliver
// of the budget cannot buy a full unit at the current price stays unspent.
func PlanPurchase(l *Ledger, cfg *Config, budget uint64) (*Plan, error) {
	if budget == 0 {
		return nil, fmt.Errorf("%w: zero budget", ErrInvalidConfig)
	}

	soldBefore, err := l.TotalSold()
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	remaining := budget

	for i := l.FirstOpenPhase(); i < NumPhases; i++ {
		if remaining == 0 {
			break
		}
		p := &l.Phases[i]
		if p.Sold >= p.Allocation {
			continue
		}

		// Global cap clamp: soldBefore + plan total never passes TotalForSale.
		committed, err := utils.CheckedAdd(soldBefore, plan.TotalTokens)
		if err != nil {
			return nil, err
		}
		if committed >= cfg.TotalForSale {
			break
		}
		capacity := p.Remaining()
		if headroom := cfg.TotalForSale - committed; capacity > headroom {
			capacity = headroom
		}

		// The affordability quotient saturates at the takeable capacity, so
		// a sub-scale price with a large budget fills the phase instead of
		// overflowing the narrowing to uint64.
		take, err := utils.TokensForBudgetCapped(remaining, p.Price, capacity)
		if err != nil {
			return nil, err
		}
		if take == 0 {
			// Phases only get more expensive from here.
			break
		}

		cost, err := utils.CostForTokens(take, p.Price)
		if err != nil {
			return nil, err
		}

		plan.Amounts[i] = take
		if plan.TotalTokens, err = utils.CheckedAdd(plan.TotalTokens, take); err != nil {
			return nil, err
		}
		if plan.TotalCost, err = utils.CheckedAdd(plan.TotalCost, cost); err != nil {
			return nil, err
		}
		// cost was derived from a take bounded by what remaining affords, so
		// this subtraction cannot underflow; a fault here means broken math.
		if remaining, err = utils.CheckedSub(remaining, cost); err != nil {
			return nil, err
		}

		if soldBefore+plan.TotalTokens >= cfg.TotalForSale {
			break
		}
	}

	if plan.TotalTokens == 0 {
		return nil, ErrInsufficientBudget
	}
	return plan, nil
}
