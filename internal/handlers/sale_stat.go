package handlers

import (
	"net/http"
	"strconv"

	"presalecontrol/internal/models"
	dbconfig "presalecontrol/pkg/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListSaleStatSnapshots returns snapshots for a sale, newest first.
// Query parameters: limit (default 100, max 1000)
func ListSaleStatSnapshots(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	var snapshots []models.SaleStatSnapshot
	if err := dbconfig.DB.Where("sale_id = ?", id).
		Order("created_at desc").Limit(limit).
		Find(&snapshots).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// GetLatestSaleStatSnapshot returns the most recent snapshot of a sale.
func GetLatestSaleStatSnapshot(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}

	var snapshot models.SaleStatSnapshot
	err := dbconfig.DB.Where("sale_id = ?", id).
		Order("created_at desc").First(&snapshot).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshots recorded for sale"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
