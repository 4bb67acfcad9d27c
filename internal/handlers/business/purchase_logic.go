package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"presalecontrol/internal/models"
	"presalecontrol/internal/sale"
	dbconfig "presalecontrol/pkg/config"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// coordinator executes settlements against the external transfer primitive.
// Main wires the real Solana transferrer in; tests install fakes.
var coordinator = sale.NewCoordinator(nil)

// custodyBalance reports the raw balance of a custody token account; wired
// by main to the RPC query, replaceable in tests.
var custodyBalance func(ctx context.Context, address string) (uint64, error)

// InitSettlement installs the transfer primitive and custody balance query.
func InitSettlement(t sale.AssetTransferrer, balance func(ctx context.Context, address string) (uint64, error)) {
	coordinator = sale.NewCoordinator(t)
	custodyBalance = balance
}

// SettlementEvent is the message published to the settlement queue after a
// committed purchase.
type SettlementEvent struct {
	SaleID       uint   `json:"sale_id"`
	BuyerAddress string `json:"buyer_address"`
	TotalTokens  uint64 `json:"total_tokens"`
	TotalCost    uint64 `json:"total_cost"`
	TotalSold    uint64 `json:"total_sold"`
	State        string `json:"state"`
	Signature    string `json:"signature"`
}

// PurchaseParams carries one purchase request into the business layer.
type PurchaseParams struct {
	SaleID       uint
	BuyerAddress string
	BuyerQuote   string
	BuyerToken   string
	Budget       uint64
}

// loadLockedSale reads the sale record and its phases under a FOR UPDATE row
// lock, so no two requests interleave their read-modify-write of the sold
// counters or the sale-end timestamp.
func loadLockedSale(tx *gorm.DB, saleID uint) (*models.SaleConfig, []models.SalePhase, error) {
	var record models.SaleConfig
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, saleID).Error; err != nil {
		return nil, nil, err
	}

	var phases []models.SalePhase
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sale_id = ?", saleID).Find(&phases).Error; err != nil {
		return nil, nil, err
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].PhaseIndex < phases[j].PhaseIndex })
	if len(phases) != sale.NumPhases {
		return nil, nil, fmt.Errorf("sale %d has %d phases, want %d", saleID, len(phases), sale.NumPhases)
	}
	return &record, phases, nil
}

// toCore maps the persisted rows into the in-memory ledger types.
func toCore(record *models.SaleConfig, phases []models.SalePhase) (*sale.Config, *sale.Ledger) {
	cfg := &sale.Config{
		TotalForSale:   record.TotalForSale,
		SaleStart:      record.SaleStart,
		SaleEndInitial: record.SaleEndInitial,
		SaleEnd:        record.SaleEnd,
		Extended:       record.Extended,
	}
	l := &sale.Ledger{}
	for i, p := range phases {
		l.Phases[i] = sale.Phase{Price: p.Price, Allocation: p.Allocation, Sold: p.Sold}
	}
	return cfg, l
}

// ExecutePurchase runs one purchase attempt as a single unit of work, all
// inside one locked DB transaction: plan, external transfer, then commit. A
// failure before the transfer leaves every sold counter untouched; a failure
// after it rolls the counters back and logs the settled signature for
// reconciliation.
func ExecutePurchase(ctx context.Context, params PurchaseParams) (*models.PurchaseRecord, error) {
	var result *models.PurchaseRecord

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		record, phases, err := loadLockedSale(tx, params.SaleID)
		if err != nil {
			return err
		}
		cfg, ledger := toCore(record, phases)

		settlement, err := coordinator.Settle(ctx, cfg, ledger, sale.PurchaseRequest{
			Buyer:            params.BuyerAddress,
			BuyerQuote:       params.BuyerQuote,
			RecipientQuote:   record.FundsRecipient,
			Custody:          record.CustodyAddress,
			CustodyAuthority: record.CustodyAuthority,
			BuyerToken:       params.BuyerToken,
			Budget:           params.Budget,
		})
		if err != nil {
			return err
		}

		// from here the transfer has settled on chain; a failure rolls the
		// DB back but cannot undo the transfer, so record the signature
		settledRollback := func(err error) error {
			return logSettledRollback(params.SaleID, params.BuyerAddress, settlement.Signature, err)
		}

		// persist the advanced sold counters
		for i := range phases {
			if settlement.Plan.Amounts[i] == 0 {
				continue
			}
			phases[i].Sold = ledger.Phases[i].Sold
			if err := tx.Model(&models.SalePhase{}).
				Where("id = ?", phases[i].ID).
				Update("sold", phases[i].Sold).Error; err != nil {
				return settledRollback(err)
			}
		}

		breakdown, err := json.Marshal(settlement.Plan.Amounts)
		if err != nil {
			return settledRollback(err)
		}
		result = &models.PurchaseRecord{
			SaleID:         params.SaleID,
			BuyerAddress:   params.BuyerAddress,
			Budget:         params.Budget,
			TotalTokens:    settlement.Plan.TotalTokens,
			TotalCost:      settlement.Plan.TotalCost,
			PhaseBreakdown: breakdown,
			Signature:      settlement.Signature,
		}
		if err := tx.Create(result).Error; err != nil {
			return settledRollback(err)
		}

		totalSold, err := ledger.TotalSold()
		if err != nil {
			return settledRollback(err)
		}
		state, err := sale.StateAt(cfg, ledger, coordinator.Now().Unix())
		if err != nil {
			return settledRollback(err)
		}
		publishSettlement(SettlementEvent{
			SaleID:       params.SaleID,
			BuyerAddress: params.BuyerAddress,
			TotalTokens:  settlement.Plan.TotalTokens,
			TotalCost:    settlement.Plan.TotalCost,
			TotalSold:    totalSold,
			State:        state.String(),
			Signature:    settlement.Signature,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sale_id":      params.SaleID,
		"buyer":        params.BuyerAddress,
		"total_tokens": result.TotalTokens,
		"total_cost":   result.TotalCost,
	}).Info("Purchase settled")
	return result, nil
}

// ExtendSale moves the sale end forward once. Owner authorization is a
// precondition verified by the handler.
func ExtendSale(saleID uint) (*models.SaleConfig, error) {
	var record models.SaleConfig
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, saleID).Error; err != nil {
			return err
		}
		cfg := &sale.Config{
			SaleEndInitial: record.SaleEndInitial,
			SaleEnd:        record.SaleEnd,
			Extended:       record.Extended,
		}
		if err := cfg.ExtendOnce(); err != nil {
			return err
		}
		record.SaleEnd = cfg.SaleEnd
		record.Extended = cfg.Extended
		return tx.Model(&record).Updates(map[string]interface{}{
			"sale_end": record.SaleEnd,
			"extended": record.Extended,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DepositTokens moves inventory from the owner's token account into custody
// and records the movement.
func DepositTokens(ctx context.Context, saleID uint, fromAccount string, amount uint64) (*models.SaleFundTransferRecord, error) {
	var result *models.SaleFundTransferRecord
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		record, _, err := loadLockedSale(tx, saleID)
		if err != nil {
			return err
		}
		sig, err := coordinator.Deposit(ctx, fromAccount, record.CustodyAddress, record.OwnerAddress, amount)
		if err != nil {
			return err
		}
		result = &models.SaleFundTransferRecord{
			SaleID:    saleID,
			Mint:      record.TokenMint,
			Direction: "in",
			Amount:    amount,
			Signature: sig,
		}
		return tx.Create(result).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WithdrawUnsold returns the remaining custody balance to the owner after
// the sale window has closed.
func WithdrawUnsold(ctx context.Context, saleID uint, toAccount string) (*models.SaleFundTransferRecord, error) {
	if custodyBalance == nil {
		return nil, errors.New("custody balance query not initialized")
	}
	var result *models.SaleFundTransferRecord
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		record, phases, err := loadLockedSale(tx, saleID)
		if err != nil {
			return err
		}
		cfg, _ := toCore(record, phases)

		balance, err := custodyBalance(ctx, record.CustodyAddress)
		if err != nil {
			return err
		}
		sig, err := coordinator.WithdrawUnsold(ctx, cfg, record.CustodyAddress, toAccount, record.CustodyAuthority, balance)
		if err != nil {
			return err
		}
		result = &models.SaleFundTransferRecord{
			SaleID:    saleID,
			Mint:      record.TokenMint,
			Direction: "out",
			Amount:    balance,
			Signature: sig,
		}
		return tx.Create(result).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// logSettledRollback records a purchase whose DB writes failed after the
// transfer settled on chain. The signature lets an operator, or the worker
// checking settlement signatures, reconcile the ledger against the chain.
func logSettledRollback(saleID uint, buyer, signature string, cause error) error {
	logrus.WithFields(logrus.Fields{
		"sale_id":   saleID,
		"buyer":     buyer,
		"signature": signature,
	}).Errorf("Purchase rolled back after on-chain settlement, reconcile against the chain: %v", cause)
	return cause
}

// publishSettlement sends the event to RabbitMQ when it is configured; a
// publish failure is logged, never fails the purchase.
func publishSettlement(event SettlementEvent) {
	if dbconfig.RabbitMQ == nil {
		return
	}
	publisher, err := dbconfig.NewPublisher()
	if err != nil {
		logrus.Warnf("Settlement event publisher unavailable: %v", err)
		return
	}
	defer publisher.Close()
	if err := publisher.Publish(dbconfig.SettlementQueue, event); err != nil {
		logrus.Warnf("Failed to publish settlement event: %v", err)
	}
}
