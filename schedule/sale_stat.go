package main

import (
	"time"

	"presalecontrol/internal/handlers/business"
	"presalecontrol/internal/models"
	dbconfig "presalecontrol/pkg/config"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
)

// RecordSaleSnapshots recomputes the progress view of every sale record and
// appends one snapshot row per sale. Sales past their end window keep getting
// snapshotted until they no longer change, which closes the series cleanly.
func RecordSaleSnapshots() error {
	start := time.Now()

	var records []models.SaleConfig
	if err := dbconfig.DB.Find(&records).Error; err != nil {
		logger.Errorf("> failed to list sale records: %v", err)
		return err
	}

	logger.Infof("> snapshotting %d sale records", len(records))

	for _, record := range records {
		status, err := business.GetSaleStatus(record.ID)
		if err != nil {
			logger.Errorf("> failed to compute status for sale %d: %v", record.ID, err)
			continue
		}

		var purchaseCount int64
		if err := dbconfig.DB.Model(&models.PurchaseRecord{}).
			Where("sale_id = ?", record.ID).Count(&purchaseCount).Error; err != nil {
			logger.Errorf("> failed to count purchases for sale %d: %v", record.ID, err)
			continue
		}

		// Skip if nothing moved since the last snapshot
		var last models.SaleStatSnapshot
		err = dbconfig.DB.Where("sale_id = ?", record.ID).
			Order("id DESC").First(&last).Error
		if err == nil &&
			last.State == status.State &&
			last.TotalSold == status.TotalSold &&
			last.PurchaseCount == purchaseCount {
			continue
		}

		snapshot := models.SaleStatSnapshot{
			SaleID:            status.SaleID,
			State:             status.State,
			CurrentPhaseIndex: status.CurrentPhaseIndex,
			TotalSold:         status.TotalSold,
			TotalForSale:      status.TotalForSale,
			PurchaseCount:     purchaseCount,
		}
		if err := dbconfig.DB.Create(&snapshot).Error; err != nil {
			logger.Errorf("> failed to save snapshot for sale %d: %v", record.ID, err)
			continue
		}
	}

	logger.Infof("> snapshot pass finished in %s", time.Since(start))
	return nil
}

func main() {
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)
	logger.Info("> starting sale snapshot scheduler...")

	dbconfig.InitDB()
	logger.Info("> database connection initialized")

	c := cron.New(cron.WithSeconds())

	// Run every 5 minutes
	_, err := c.AddFunc("0 */5 * * * *", func() {
		if err := RecordSaleSnapshots(); err != nil {
			logger.Errorf("> snapshot pass failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("> failed to add cron job: %v", err)
	}

	logger.Info("> scheduler started, running every 5 minutes")
	c.Start()

	select {}
}
