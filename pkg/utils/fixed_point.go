package utils

import (
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"
)

// PriceScale is the fixed-point scale for phase prices: a price is the
// quote-asset cost of one whole token, multiplied by 1e18.
const PriceScale = 1_000_000_000_000_000_000

var priceScale = uint256.NewInt(PriceScale)

// ArithmeticError reports a fixed-point operation that could not produce a
// representable result. It is always fatal to the purchase attempt.
type ArithmeticError struct {
	Op     string
	A, B   uint64
	Reason string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("fixed-point %s(%d, %d): %s", e.Op, e.A, e.B, e.Reason)
}

// TokensForBudget returns floor(budget * PriceScale / price), the largest
// token amount the budget can afford at the given phase price. The
// intermediate product is computed in 256 bits, so the only failure modes are
// a zero price and a quotient that does not fit in uint64.
func TokensForBudget(budget, price uint64) (uint64, error) {
	if price == 0 {
		return 0, &ArithmeticError{Op: "TokensForBudget", A: budget, B: price, Reason: "division by zero"}
	}
	n := new(uint256.Int).Mul(uint256.NewInt(budget), priceScale)
	n.Div(n, uint256.NewInt(price))
	if !n.IsUint64() {
		return 0, &ArithmeticError{Op: "TokensForBudget", A: budget, B: price, Reason: "result overflows uint64"}
	}
	return n.Uint64(), nil
}

// TokensForBudgetCapped returns min(floor(budget * PriceScale / price), cap).
// The quotient is clamped before narrowing to uint64, so a huge affordability
// at a sub-scale price saturates at the cap instead of failing; the cap is
// what a caller can actually take (phase remaining, global headroom).
func TokensForBudgetCapped(budget, price, cap uint64) (uint64, error) {
	if price == 0 {
		return 0, &ArithmeticError{Op: "TokensForBudgetCapped", A: budget, B: price, Reason: "division by zero"}
	}
	n := new(uint256.Int).Mul(uint256.NewInt(budget), priceScale)
	n.Div(n, uint256.NewInt(price))
	if !n.IsUint64() || n.Uint64() > cap {
		return cap, nil
	}
	return n.Uint64(), nil
}

// CostForTokens returns floor(tokens * price / PriceScale), the exact
// quote-asset cost of the token amount. Rounding is floor in both directions,
// so a buyer never receives a fraction they did not pay for and any
// indivisible remainder of the budget is simply left unspent.
func CostForTokens(tokens, price uint64) (uint64, error) {
	n := new(uint256.Int).Mul(uint256.NewInt(tokens), uint256.NewInt(price))
	n.Div(n, priceScale)
	if !n.IsUint64() {
		return 0, &ArithmeticError{Op: "CostForTokens", A: tokens, B: price, Reason: "result overflows uint64"}
	}
	return n.Uint64(), nil
}

// CheckedAdd returns a+b or an ArithmeticError on uint64 overflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	if a+b < a {
		return 0, &ArithmeticError{Op: "CheckedAdd", A: a, B: b, Reason: "uint64 overflow"}
	}
	return a + b, nil
}

// CheckedMul returns a*b or an ArithmeticError on uint64 overflow.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, &ArithmeticError{Op: "CheckedMul", A: a, B: b, Reason: "uint64 overflow"}
	}
	return lo, nil
}

// CheckedSub returns a-b or an ArithmeticError on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, &ArithmeticError{Op: "CheckedSub", A: a, B: b, Reason: "uint64 underflow"}
	}
	return a - b, nil
}
