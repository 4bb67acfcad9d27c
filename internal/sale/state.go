package sale

import (
	"fmt"
	"time"

	"presalecontrol/pkg/utils"
)

const (
	// DefaultSaleDuration is how long a sale runs from initialization.
	DefaultSaleDuration = 90 * 24 * time.Hour
	// ExtensionInterval is the fixed, one-shot sale-end extension.
	ExtensionInterval = 30 * 24 * time.Hour
)

// Config holds the immutable sale parameters plus the one mutable timestamp.
// SaleEnd may move forward exactly once, via ExtendOnce.
type Config struct {
	TotalForSale   uint64
	SaleStart      int64 // unix seconds
	SaleEndInitial int64
	SaleEnd        int64
	Extended       bool
}

// State is the sale lifecycle position. It is never stored: it is recomputed
// from the clock and the ledger on every query.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateSoldOut
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateActive:
		return "active"
	case StateSoldOut:
		return "sold_out"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// StateAt computes the lifecycle state at the given instant. SoldOut wins
// over the time window; only Active permits purchases.
func StateAt(cfg *Config, l *Ledger, now int64) (State, error) {
	sold, err := l.TotalSold()
	if err != nil {
		return StateEnded, err
	}
	switch {
	case sold >= cfg.TotalForSale:
		return StateSoldOut, nil
	case now < cfg.SaleStart:
		return StateNotStarted, nil
	case now > cfg.SaleEnd:
		return StateEnded, nil
	default:
		return StateActive, nil
	}
}

// ExtendOnce pushes SaleEnd forward by ExtensionInterval. Allowed from any
// state but guarded by the one-shot flag.
func (cfg *Config) ExtendOnce() error {
	if cfg.Extended {
		return ErrAlreadyExtended
	}
	cfg.Extended = true
	cfg.SaleEnd += int64(ExtensionInterval / time.Second)
	return nil
}

// DerivePhases builds the fixed phase array for a new sale: linearly
// increasing prices base + i*increment, and either an explicit per-phase
// allocation or the total divided evenly (perPhase == 0).
func DerivePhases(totalForSale, basePrice, increment, perPhase uint64) ([NumPhases]Phase, error) {
	var phases [NumPhases]Phase
	if basePrice == 0 {
		return phases, fmt.Errorf("%w: zero base price", ErrInvalidConfig)
	}
	if perPhase == 0 {
		perPhase = totalForSale / NumPhases
	}
	for i := range phases {
		step, err := utils.CheckedMul(increment, uint64(i))
		if err != nil {
			return phases, fmt.Errorf("phase %d price: %w", i, err)
		}
		price, err := utils.CheckedAdd(basePrice, step)
		if err != nil {
			return phases, fmt.Errorf("phase %d price: %w", i, err)
		}
		phases[i] = Phase{Price: price, Allocation: perPhase}
	}
	return phases, nil
}
