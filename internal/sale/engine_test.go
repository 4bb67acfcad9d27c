package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPurchaseGlobalCapExample(t *testing.T) {
	// Two open phases of 100 at prices 1 and 2, global cap 150. A budget of
	// 250 fills phase 0 (cost 100), then the cap clamps phase 1 to 50 tokens
	// (cost 100). The unspent 50 stays with the buyer.
	l := twoPhaseLedger(100, 100)
	cfg := &Config{TotalForSale: 150}

	plan, err := PlanPurchase(l, cfg, 250)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), plan.Amounts[0])
	assert.Equal(t, uint64(50), plan.Amounts[1])
	assert.Equal(t, uint64(150), plan.TotalTokens)
	assert.Equal(t, uint64(200), plan.TotalCost)
}

func TestPlanPurchaseMicroPrice(t *testing.T) {
	// At a sub-scale price the raw affordability quotient blows past uint64
	// (18e18 * 1e18 / 1e12). The takeable capacity bounds it first, so the
	// purchase fills the phase instead of failing on the narrowing.
	const microPrice uint64 = 1_000_000_000_000 // 0.000001 quote per token
	l := &Ledger{}
	l.Phases[0] = Phase{Price: microPrice, Allocation: 1_000_000_000}
	cfg := &Config{TotalForSale: 1_000_000_000}

	plan, err := PlanPurchase(l, cfg, 18_000_000_000_000_000_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000_000), plan.Amounts[0])
	assert.Equal(t, uint64(1_000_000_000), plan.TotalTokens)
	// cost = 1e9 * 1e12 / 1e18
	assert.Equal(t, uint64(1000), plan.TotalCost)
}

func TestPlanPurchase(t *testing.T) {
	t.Run("single phase partial fill", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		cfg := &Config{TotalForSale: 200}

		plan, err := PlanPurchase(l, cfg, 40)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), plan.Amounts[0])
		assert.Zero(t, plan.Amounts[1])
		assert.Equal(t, uint64(40), plan.TotalCost)
	})

	t.Run("spills into the next phase in price order", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		cfg := &Config{TotalForSale: 200}

		plan, err := PlanPurchase(l, cfg, 120)
		require.NoError(t, err)
		// cheaper phase consumed fully before the pricier one
		assert.Equal(t, uint64(100), plan.Amounts[0])
		assert.Equal(t, uint64(10), plan.Amounts[1])
		assert.Equal(t, uint64(120), plan.TotalCost)
	})

	t.Run("starts at the first open phase", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		l.Phases[0].Sold = 100
		cfg := &Config{TotalForSale: 200}

		plan, err := PlanPurchase(l, cfg, 60)
		require.NoError(t, err)
		assert.Zero(t, plan.Amounts[0])
		assert.Equal(t, uint64(30), plan.Amounts[1])
	})

	t.Run("budget below one unit fails", func(t *testing.T) {
		l := &Ledger{}
		l.Phases[0] = Phase{Price: 10 * unitPrice, Allocation: 100}
		cfg := &Config{TotalForSale: 100}

		_, err := PlanPurchase(l, cfg, 9)
		assert.ErrorIs(t, err, ErrInsufficientBudget)
	})

	t.Run("zero budget is invalid", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		_, err := PlanPurchase(l, &Config{TotalForSale: 200}, 0)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("sold-out sale fails", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		l.Phases[0].Sold = 100
		l.Phases[1].Sold = 50
		cfg := &Config{TotalForSale: 150}

		_, err := PlanPurchase(l, cfg, 1000)
		assert.ErrorIs(t, err, ErrInsufficientBudget)
	})

	t.Run("stops at global cap even with budget left", func(t *testing.T) {
		l := twoPhaseLedger(100, 100)
		cfg := &Config{TotalForSale: 100}

		plan, err := PlanPurchase(l, cfg, 10_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), plan.TotalTokens)
		assert.Zero(t, plan.Amounts[1])
	})

	t.Run("zero phase price faults", func(t *testing.T) {
		l := &Ledger{}
		l.Phases[0] = Phase{Price: 0, Allocation: 100}
		_, err := PlanPurchase(l, &Config{TotalForSale: 100}, 50)
		require.Error(t, err)
	})
}

func TestPlanPurchaseIdempotent(t *testing.T) {
	l := twoPhaseLedger(100, 100)
	cfg := &Config{TotalForSale: 150}

	first, err := PlanPurchase(l, cfg, 250)
	require.NoError(t, err)
	second, err := PlanPurchase(l, cfg, 250)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// and the snapshot itself is untouched
	sold, err := l.TotalSold()
	require.NoError(t, err)
	assert.Zero(t, sold)
}

func TestPlanBudgetConservation(t *testing.T) {
	l := &Ledger{}
	for i := range l.Phases {
		l.Phases[i] = Phase{Price: unitPrice + uint64(i)*unitPrice/2, Allocation: 37}
	}
	cfg := &Config{TotalForSale: 370}

	for _, budget := range []uint64{1, 13, 55, 199, 1234, 99999} {
		plan, err := PlanPurchase(l, cfg, budget)
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientBudget, "budget=%d", budget)
			continue
		}
		assert.LessOrEqual(t, plan.TotalCost, budget, "budget=%d", budget)

		var tokens uint64
		for _, a := range plan.Amounts {
			tokens += a
		}
		assert.Equal(t, plan.TotalTokens, tokens, "budget=%d", budget)
	}
}

func TestPlanThenCommitInvariants(t *testing.T) {
	// Repeated settle cycles keep sold within phase and global caps.
	l := twoPhaseLedger(100, 100)
	cfg := &Config{TotalForSale: 150}

	for {
		plan, err := PlanPurchase(l, cfg, 37)
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientBudget)
			break
		}
		before, err := l.TotalSold()
		require.NoError(t, err)
		require.NoError(t, l.Commit(plan))
		after, err := l.TotalSold()
		require.NoError(t, err)

		assert.Equal(t, before+plan.TotalTokens, after)
		assert.LessOrEqual(t, after, cfg.TotalForSale)
		for i := range l.Phases {
			assert.LessOrEqual(t, l.Phases[i].Sold, l.Phases[i].Allocation)
		}
	}

	sold, err := l.TotalSold()
	require.NoError(t, err)
	assert.Equal(t, cfg.TotalForSale, sold)
}
