//go:build ignore

package main

import (
	"flag"
	"fmt"
	"os"

	"presalecontrol/internal/sale"
	"presalecontrol/pkg/utils"

	log "github.com/sirupsen/logrus"
)

// Dry-runs the allocation engine: derives the phase schedule from the given
// parameters and walks a series of equal-budget purchases through it,
// printing how each one lands across phases. No database or chain involved.
//
// Usage example:
//   go run scripts/simulate_sale.go -total 1000000 -base-price 1000000000000000000 -buyers 20 -budget 100000000000000000000
func main() {
	total := flag.Uint64("total", 1_000_000, "Total tokens for sale (raw units)")
	basePrice := flag.Uint64("base-price", utils.PriceScale, "Phase 0 price in quote units per token, scaled by 1e18")
	increment := flag.Uint64("increment", utils.PriceScale/10, "Per-phase price increment, scaled by 1e18")
	perPhase := flag.Uint64("per-phase", 0, "Per-phase allocation (0 = equal split)")
	buyers := flag.Int("buyers", 10, "Number of simulated buyers")
	budget := flag.Uint64("budget", 0, "Quote budget per buyer")
	flag.Parse()

	if *budget == 0 {
		log.Error("A non-zero per-buyer budget is required")
		os.Exit(1)
	}

	phases, err := sale.DerivePhases(*total, *basePrice, *increment, *perPhase)
	if err != nil {
		log.Fatalf("Failed to derive phases: %v", err)
	}
	ledger := &sale.Ledger{Phases: phases}
	cfg := &sale.Config{TotalForSale: *total}

	fmt.Println("Phase schedule:")
	for i, p := range ledger.Phases {
		fmt.Printf("  phase %2d  price=%d  allocation=%d\n", i, p.Price, p.Allocation)
	}

	for b := 0; b < *buyers; b++ {
		plan, err := sale.PlanPurchase(ledger, cfg, *budget)
		if err != nil {
			fmt.Printf("buyer %2d: %v\n", b, err)
			break
		}
		if err := ledger.Commit(plan); err != nil {
			log.Fatalf("Commit failed for buyer %d: %v", b, err)
		}

		fmt.Printf("buyer %2d: tokens=%d cost=%d breakdown=", b, plan.TotalTokens, plan.TotalCost)
		for i, amount := range plan.Amounts {
			if amount > 0 {
				fmt.Printf("[%d:%d]", i, amount)
			}
		}
		fmt.Println()
	}

	sold, err := ledger.TotalSold()
	if err != nil {
		log.Fatalf("Failed to total sales: %v", err)
	}
	fmt.Printf("total sold: %d / %d\n", sold, *total)
}
