package main

import (
	"context"
	"encoding/json"
	"os"

	"presalecontrol/internal/handlers/business"
	"presalecontrol/internal/models"
	"presalecontrol/pkg/config"
	solanapkg "presalecontrol/pkg/solana"

	"github.com/gagliardetto/solana-go/rpc"
	logrus "github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	// RPC client for verifying settlement signatures on-chain
	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if rpcURL == "" {
		rpcURL = rpc.DevNet_RPC
	}
	client := rpc.New(rpcURL)

	// Create consumer for the settlement queue
	msgConsumer, err := config.NewConsumer(config.SettlementQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Sale settlement worker started, waiting for messages...")

	err = msgConsumer.Consume(func(msg []byte) error {
		var event business.SettlementEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			logrus.Errorf("Failed to unmarshal settlement event: %v", err)
			return err
		}

		logrus.WithFields(logrus.Fields{
			"sale_id":       event.SaleID,
			"buyer_address": event.BuyerAddress,
			"total_tokens":  event.TotalTokens,
			"total_cost":    event.TotalCost,
			"state":         event.State,
			"signature":     event.Signature,
		}).Info("Settlement committed")

		if event.Signature != "" {
			status, err := solanapkg.CheckTransactionStatus(context.Background(), client, event.Signature)
			if err != nil {
				logrus.Warnf("Settlement signature %s check failed: %v", event.Signature, err)
			} else if status == "pending" {
				logrus.Warnf("Settlement signature %s still pending", event.Signature)
			}
		}

		return recordSnapshot(event.SaleID)
	})
	if err != nil {
		logrus.Fatal("Consumer stopped: ", err)
	}
}

// recordSnapshot recomputes the sale's progress view and appends it to the
// snapshot history, so the time series reflects every committed settlement.
func recordSnapshot(saleID uint) error {
	status, err := business.GetSaleStatus(saleID)
	if err != nil {
		logrus.Errorf("Failed to compute status for sale %d: %v", saleID, err)
		return err
	}

	var purchaseCount int64
	if err := config.DB.Model(&models.PurchaseRecord{}).
		Where("sale_id = ?", saleID).Count(&purchaseCount).Error; err != nil {
		logrus.Errorf("Failed to count purchases for sale %d: %v", saleID, err)
		return err
	}

	snapshot := models.SaleStatSnapshot{
		SaleID:            status.SaleID,
		State:             status.State,
		CurrentPhaseIndex: status.CurrentPhaseIndex,
		TotalSold:         status.TotalSold,
		TotalForSale:      status.TotalForSale,
		PurchaseCount:     purchaseCount,
	}
	if err := config.DB.Create(&snapshot).Error; err != nil {
		logrus.Errorf("Failed to save snapshot for sale %d: %v", saleID, err)
		return err
	}

	logrus.WithFields(logrus.Fields{
		"sale_id":        saleID,
		"state":          status.State,
		"total_sold":     status.TotalSold,
		"purchase_count": purchaseCount,
	}).Info("Snapshot recorded")
	return nil
}
