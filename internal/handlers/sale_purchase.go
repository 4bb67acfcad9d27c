package handlers

import (
	"net/http"
	"strconv"

	"presalecontrol/internal/handlers/business"
	"presalecontrol/internal/models"
	dbconfig "presalecontrol/pkg/config"

	"github.com/gin-gonic/gin"
)

// PurchaseRequest represents the request body for a purchase attempt
type PurchaseRequest struct {
	SaleID       uint   `json:"sale_id" binding:"required"`
	BuyerAddress string `json:"buyer_address" binding:"required"`
	BuyerQuote   string `json:"buyer_quote_account" binding:"required"`
	BuyerToken   string `json:"buyer_token_account" binding:"required"`
	Budget       uint64 `json:"budget" binding:"required"`
}

// ExecutePurchase runs one purchase attempt: gate, plan, transfer, commit.
func ExecutePurchase(c *gin.Context) {
	var request PurchaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := business.ExecutePurchase(c.Request.Context(), business.PurchaseParams{
		SaleID:       request.SaleID,
		BuyerAddress: request.BuyerAddress,
		BuyerQuote:   request.BuyerQuote,
		BuyerToken:   request.BuyerToken,
		Budget:       request.Budget,
	})
	if err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	BroadcastSaleStatus(request.SaleID)
	c.JSON(http.StatusOK, record)
}

// ListPurchaseRecords returns purchase records for a sale, newest first.
// Query parameters: page (default: 1), page_size (default: 10, max: 100)
func ListPurchaseRecords(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := 10
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	var total int64
	if err := dbconfig.DB.Model(&models.PurchaseRecord{}).
		Where("sale_id = ?", id).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var records []models.PurchaseRecord
	if err := dbconfig.DB.Where("sale_id = ?", id).
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetBuyerPurchases returns a buyer's purchase history within a sale.
func GetBuyerPurchases(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	buyer := c.Param("buyer")

	var records []models.PurchaseRecord
	if err := dbconfig.DB.Where("sale_id = ? AND buyer_address = ?", id, buyer).
		Order("created_at desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
