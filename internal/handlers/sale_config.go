package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"presalecontrol/internal/handlers/business"
	"presalecontrol/internal/models"
	"presalecontrol/internal/sale"
	dbconfig "presalecontrol/pkg/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SaleConfigRequest represents the request body for sale initialization
type SaleConfigRequest struct {
	Name                   string `json:"name" binding:"required"`
	OwnerAddress           string `json:"owner_address" binding:"required"`
	TokenMint              string `json:"token_mint" binding:"required"`
	QuoteMint              string `json:"quote_mint" binding:"required"`
	FundsRecipient         string `json:"funds_recipient" binding:"required"`
	CustodyAddress         string `json:"custody_address" binding:"required"`
	CustodyAuthority       string `json:"custody_authority" binding:"required"`
	TotalForSale           uint64 `json:"total_for_sale" binding:"required"`
	BasePrice              uint64 `json:"base_price" binding:"required"`
	PriceIncrementPerPhase uint64 `json:"price_increment_per_phase"`
	PerPhaseAllocation     uint64 `json:"per_phase_allocation"` // 0 = divide total evenly
	OtherAssetEnabled      bool   `json:"other_asset_enabled"`
}

// saleErrorStatus maps domain faults onto HTTP statuses.
func saleErrorStatus(err error) int {
	var transferErr *sale.TransferError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, sale.ErrInvalidConfig), errors.Is(err, sale.ErrInsufficientBudget):
		return http.StatusBadRequest
	case errors.Is(err, sale.ErrSaleNotActive), errors.Is(err, sale.ErrAlreadyExtended),
		errors.Is(err, sale.ErrNothingToWithdraw):
		return http.StatusConflict
	case errors.As(err, &transferErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requireOwner verifies the capability header against the sale record's
// owner. Signature verification happens upstream; the header carries the
// already-authenticated caller address.
func requireOwner(c *gin.Context, record *models.SaleConfig) bool {
	caller := c.GetHeader("X-Owner-Address")
	if caller == "" || caller != record.OwnerAddress {
		c.JSON(http.StatusForbidden, gin.H{"error": "caller is not the sale owner"})
		return false
	}
	return true
}

func saleIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale id"})
		return 0, false
	}
	return uint(id), true
}

// CreateSaleConfig initializes a sale: the record plus its fixed phase rows
// with linearly increasing prices.
func CreateSaleConfig(c *gin.Context) {
	var request SaleConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	phases, err := sale.DerivePhases(request.TotalForSale, request.BasePrice,
		request.PriceIncrementPerPhase, request.PerPhaseAllocation)
	if err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	now := time.Now().Unix()
	record := models.SaleConfig{
		Name:              request.Name,
		OwnerAddress:      request.OwnerAddress,
		TokenMint:         request.TokenMint,
		QuoteMint:         request.QuoteMint,
		FundsRecipient:    request.FundsRecipient,
		CustodyAddress:    request.CustodyAddress,
		CustodyAuthority:  request.CustodyAuthority,
		SaleStart:         now,
		SaleEndInitial:    now + int64(sale.DefaultSaleDuration/time.Second),
		SaleEnd:           now + int64(sale.DefaultSaleDuration/time.Second),
		TotalForSale:      request.TotalForSale,
		OtherAssetEnabled: request.OtherAssetEnabled,
	}

	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for i, p := range phases {
			row := models.SalePhase{
				SaleID:     record.ID,
				PhaseIndex: i,
				Price:      p.Price,
				Allocation: p.Allocation,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			record.Phases = append(record.Phases, row)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListSaleConfigs returns all sale records with their phases
func ListSaleConfigs(c *gin.Context) {
	var records []models.SaleConfig
	if err := dbconfig.DB.Preload("Phases").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetSaleConfig returns a single sale record
func GetSaleConfig(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	var record models.SaleConfig
	if err := dbconfig.DB.Preload("Phases").First(&record, id).Error; err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetSaleStatus returns the computed lifecycle view: state, current phase,
// total sold and per-phase remaining capacity.
func GetSaleStatus(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	status, err := business.GetSaleStatus(id)
	if err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ExtendSale pushes the sale end forward by the fixed interval, once.
func ExtendSale(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	var record models.SaleConfig
	if err := dbconfig.DB.First(&record, id).Error; err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !requireOwner(c, &record) {
		return
	}

	updated, err := business.ExtendSale(id)
	if err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DepositRequest represents the request body for custody deposits
type DepositRequest struct {
	FromAccount string `json:"from_account" binding:"required"`
	Amount      uint64 `json:"amount" binding:"required"`
}

// DepositTokens moves sale-asset inventory from the owner into custody.
func DepositTokens(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	var request DepositRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var record models.SaleConfig
	if err := dbconfig.DB.First(&record, id).Error; err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !requireOwner(c, &record) {
		return
	}

	transfer, err := business.DepositTokens(c.Request.Context(), id, request.FromAccount, request.Amount)
	if err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// WithdrawRequest represents the request body for reclaiming unsold tokens
type WithdrawRequest struct {
	ToAccount string `json:"to_account" binding:"required"`
}

// WithdrawUnsold reclaims the remaining custody balance after sale end.
func WithdrawUnsold(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	var request WithdrawRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var record models.SaleConfig
	if err := dbconfig.DB.First(&record, id).Error; err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !requireOwner(c, &record) {
		return
	}

	transfer, err := business.WithdrawUnsold(c.Request.Context(), id, request.ToAccount)
	if err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// ListSaleFundTransfers returns the deposit/withdrawal history of a sale.
func ListSaleFundTransfers(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	var records []models.SaleFundTransferRecord
	if err := dbconfig.DB.Where("sale_id = ?", id).Order("created_at desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
