package sale

import (
	"fmt"

	"presalecontrol/pkg/utils"
)

// NumPhases is the fixed number of pricing tiers per sale. The ledger is a
// fixed-length array so every scan is bounded and auditable.
const NumPhases = 10

// Phase is one pricing tier. Price is quote units per whole token at the
// utils.PriceScale fixed-point scale and is immutable after initialization;
// Sold only ever grows, and never past Allocation.
type Phase struct {
	Price      uint64
	Allocation uint64
	Sold       uint64
}

// Remaining returns the unsold capacity of the phase.
func (p Phase) Remaining() uint64 {
	if p.Sold >= p.Allocation {
		return 0
	}
	return p.Allocation - p.Sold
}

// Ledger is the ordered phase sequence of one sale record. All mutation goes
// through Commit; everything else is a read-only query.
type Ledger struct {
	Phases [NumPhases]Phase
}

// Plan is the per-phase allocation computed for a single purchase attempt.
// It is never persisted; a failed settlement simply discards it.
type Plan struct {
	Amounts     [NumPhases]uint64
	TotalTokens uint64
	TotalCost   uint64
}

// FirstOpenPhase returns the lowest index with unsold capacity. When every
// phase is exhausted it returns the last index; callers must check capacity
// separately and not assume the returned phase has room.
func (l *Ledger) FirstOpenPhase() int {
	for i := range l.Phases {
		if l.Phases[i].Sold < l.Phases[i].Allocation {
			return i
		}
	}
	return NumPhases - 1
}

// TotalSold sums the sold counters across all phases with checked addition.
func (l *Ledger) TotalSold() (uint64, error) {
	var total uint64
	var err error
	for i := range l.Phases {
		total, err = utils.CheckedAdd(total, l.Phases[i].Sold)
		if err != nil {
			return 0, fmt.Errorf("total sold: %w", err)
		}
	}
	return total, nil
}

// Remaining returns the unsold capacity of phase i.
func (l *Ledger) Remaining(i int) uint64 {
	return l.Phases[i].Remaining()
}

// Commit adds the planned amounts into the sold counters. It is the sole
// mutation path and trusts the caller: the plan must already have been
// validated against this ledger snapshot, and no re-validation happens here.
func (l *Ledger) Commit(plan *Plan) error {
	for i := range plan.Amounts {
		if plan.Amounts[i] == 0 {
			continue
		}
		sold, err := utils.CheckedAdd(l.Phases[i].Sold, plan.Amounts[i])
		if err != nil {
			return fmt.Errorf("commit phase %d: %w", i, err)
		}
		l.Phases[i].Sold = sold
	}
	return nil
}
