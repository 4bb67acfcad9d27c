package sale

import (
	"math"
	"testing"

	"presalecontrol/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitPrice is one quote unit per token at the fixed-point scale.
const unitPrice uint64 = utils.PriceScale

// twoPhaseLedger builds a ledger with open capacity in the first two phases
// and nothing offered in the rest.
func twoPhaseLedger(alloc0, alloc1 uint64) *Ledger {
	l := &Ledger{}
	l.Phases[0] = Phase{Price: unitPrice, Allocation: alloc0}
	l.Phases[1] = Phase{Price: 2 * unitPrice, Allocation: alloc1}
	return l
}

func TestFirstOpenPhase(t *testing.T) {
	t.Run("fresh ledger starts at zero", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		assert.Equal(t, 0, l.FirstOpenPhase())
	})

	t.Run("skips exhausted phases", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		l.Phases[0].Sold = 100
		assert.Equal(t, 1, l.FirstOpenPhase())
	})

	t.Run("fully sold ledger returns last index", func(t *testing.T) {
		l := &Ledger{}
		for i := range l.Phases {
			l.Phases[i] = Phase{Price: unitPrice, Allocation: 10, Sold: 10}
		}
		// the returned index signals "no capacity", not "room here"
		assert.Equal(t, NumPhases-1, l.FirstOpenPhase())
		assert.Zero(t, l.Remaining(NumPhases-1))
	})
}

func TestTotalSold(t *testing.T) {
	l := twoPhaseLedger(100, 100)
	l.Phases[0].Sold = 40
	l.Phases[1].Sold = 25

	total, err := l.TotalSold()
	require.NoError(t, err)
	assert.Equal(t, uint64(65), total)

	t.Run("overflow faults", func(t *testing.T) {
		l.Phases[2].Sold = math.MaxUint64
		_, err := l.TotalSold()
		assert.Error(t, err)
	})
}

func TestCommit(t *testing.T) {
	l := twoPhaseLedger(100, 100)

	plan := &Plan{TotalTokens: 130, TotalCost: 160}
	plan.Amounts[0] = 100
	plan.Amounts[1] = 30

	require.NoError(t, l.Commit(plan))
	assert.Equal(t, uint64(100), l.Phases[0].Sold)
	assert.Equal(t, uint64(30), l.Phases[1].Sold)

	// committing again advances again; validation belongs to the caller
	plan2 := &Plan{}
	plan2.Amounts[1] = 70
	require.NoError(t, l.Commit(plan2))
	assert.Equal(t, uint64(100), l.Phases[1].Sold)

	t.Run("sold never decreases across commits", func(t *testing.T) {
		total, err := l.TotalSold()
		require.NoError(t, err)
		assert.Equal(t, uint64(200), total)
	})

	t.Run("overflowing commit faults", func(t *testing.T) {
		bad := &Plan{}
		bad.Amounts[0] = math.MaxUint64
		assert.Error(t, l.Commit(bad))
	})
}
