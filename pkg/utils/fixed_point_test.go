package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensForBudget(t *testing.T) {
	t.Run("whole tokens at unit price", func(t *testing.T) {
		// price 1e18 = 1 quote unit per token
		tokens, err := TokensForBudget(10*PriceScale, PriceScale)
		require.NoError(t, err)
		assert.Equal(t, uint64(10*PriceScale), tokens)
	})

	t.Run("floor rounding favors the seller", func(t *testing.T) {
		// budget 5 at price 2: floor(5*1e18/2e18) = 2 base units affordable
		tokens, err := TokensForBudget(5, 2*PriceScale)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), tokens)
	})

	t.Run("zero price faults", func(t *testing.T) {
		_, err := TokensForBudget(100, 0)
		require.Error(t, err)
		var arithErr *ArithmeticError
		require.ErrorAs(t, err, &arithErr)
		assert.Equal(t, "division by zero", arithErr.Reason)
	})

	t.Run("overflowing quotient faults", func(t *testing.T) {
		// max budget at the smallest price: quotient exceeds uint64
		_, err := TokensForBudget(math.MaxUint64, 1)
		require.Error(t, err)
		var arithErr *ArithmeticError
		require.ErrorAs(t, err, &arithErr)
		assert.Equal(t, "result overflows uint64", arithErr.Reason)
	})

	t.Run("zero budget affords nothing", func(t *testing.T) {
		tokens, err := TokensForBudget(0, PriceScale)
		require.NoError(t, err)
		assert.Zero(t, tokens)
	})
}

func TestTokensForBudgetCapped(t *testing.T) {
	t.Run("quotient below the cap passes through", func(t *testing.T) {
		tokens, err := TokensForBudgetCapped(5*PriceScale, PriceScale, math.MaxUint64)
		require.NoError(t, err)
		assert.Equal(t, uint64(5*PriceScale), tokens)
	})

	t.Run("quotient above the cap saturates", func(t *testing.T) {
		tokens, err := TokensForBudgetCapped(5*PriceScale, PriceScale, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), tokens)
	})

	t.Run("overflowing quotient saturates at the cap", func(t *testing.T) {
		// max budget at the smallest price: raw quotient exceeds uint64
		tokens, err := TokensForBudgetCapped(math.MaxUint64, 1, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), tokens)
	})

	t.Run("zero price faults", func(t *testing.T) {
		_, err := TokensForBudgetCapped(100, 0, 10)
		require.Error(t, err)
		var arithErr *ArithmeticError
		require.ErrorAs(t, err, &arithErr)
		assert.Equal(t, "division by zero", arithErr.Reason)
	})
}

func TestCostForTokens(t *testing.T) {
	t.Run("exact cost", func(t *testing.T) {
		cost, err := CostForTokens(75, 2*PriceScale)
		require.NoError(t, err)
		assert.Equal(t, uint64(150), cost)
	})

	t.Run("sub-unit cost floors to zero", func(t *testing.T) {
		cost, err := CostForTokens(1, PriceScale-1)
		require.NoError(t, err)
		assert.Zero(t, cost)
	})

	t.Run("large inputs above uint64 fault", func(t *testing.T) {
		_, err := CostForTokens(math.MaxUint64, math.MaxUint64)
		require.Error(t, err)
	})

	t.Run("max-value product inside 256 bits", func(t *testing.T) {
		// the 256-bit intermediate never overflows for uint64 inputs
		cost, err := CostForTokens(math.MaxUint64, PriceScale)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), cost)
	})
}

func TestCostRoundTrip(t *testing.T) {
	// CostForTokens(TokensForBudget(b, p), p) <= b for assorted price points
	prices := []uint64{1, 3, PriceScale / 2, PriceScale, 2 * PriceScale, 7 * PriceScale / 3}
	budgets := []uint64{1, 99, PriceScale, 15 * PriceScale, 1<<40 + 12345}

	for _, p := range prices {
		for _, b := range budgets {
			tokens, err := TokensForBudget(b, p)
			if err != nil {
				continue
			}
			cost, err := CostForTokens(tokens, p)
			require.NoError(t, err)
			assert.LessOrEqual(t, cost, b, "price=%d budget=%d", p, b)
		}
	}
}

func TestCheckedAddSub(t *testing.T) {
	sum, err := CheckedAdd(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sum)

	_, err = CheckedAdd(math.MaxUint64, 1)
	assert.Error(t, err)

	diff, err := CheckedSub(5, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), diff)

	_, err = CheckedSub(3, 5)
	assert.Error(t, err)
}
