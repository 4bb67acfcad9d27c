package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"presalecontrol/internal/handlers/business"
	"presalecontrol/internal/models"
	dbconfig "presalecontrol/pkg/config"
	"presalecontrol/pkg/helius"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TokenSupplyInitRequest represents the request body for supply
// initialization. Name and symbol are optional; when omitted they are read
// from the mint's chain metadata.
type TokenSupplyInitRequest struct {
	Mint          string `json:"mint" binding:"required"`
	Authority     string `json:"authority" binding:"required"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initial_supply" binding:"required"`
}

// SupplyMutationRequest covers mint and burn operations
type SupplyMutationRequest struct {
	Authority string `json:"authority" binding:"required"`
	Account   string `json:"account" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required"`
}

// AuthorityTransferRequest hands supply authority to a new address
type AuthorityTransferRequest struct {
	Authority    string `json:"authority" binding:"required"`
	NewAuthority string `json:"new_authority" binding:"required"`
}

func supplyErrorStatus(err error) int {
	switch {
	case errors.Is(err, business.ErrSupplyNotInitialized), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, business.ErrUnauthorizedAuthority):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// InitializeTokenSupply creates the supply state for a mint.
func InitializeTokenSupply(c *gin.Context) {
	var request TokenSupplyInitRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := business.InitializeSupply(c.Request.Context(), request.Mint,
		request.Authority, request.Name, request.Symbol, request.Decimals, request.InitialSupply)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, state)
}

// GetTokenSupply returns the supply state of a mint.
func GetTokenSupply(c *gin.Context) {
	mint := c.Param("mint")
	var state models.TokenSupplyState
	if err := dbconfig.DB.Where("mint = ?", mint).First(&state).Error; err != nil {
		c.JSON(supplyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// MintTokenSupply increases supply, authority-gated.
func MintTokenSupply(c *gin.Context) {
	var request SupplyMutationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := business.MintSupply(c.Param("mint"), request.Authority, request.Account, request.Amount)
	if err != nil {
		c.JSON(supplyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// BurnTokenSupply reduces circulating supply, authority-gated.
func BurnTokenSupply(c *gin.Context) {
	var request SupplyMutationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := business.BurnSupply(c.Param("mint"), request.Authority, request.Account, request.Amount)
	if err != nil {
		c.JSON(supplyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// TransferTokenAuthority hands the supply authority to a new address.
func TransferTokenAuthority(c *gin.Context) {
	var request AuthorityTransferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := business.TransferSupplyAuthority(c.Param("mint"), request.Authority, request.NewAuthority)
	if err != nil {
		c.JSON(supplyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// supplyVerifier checks the ledger against chain-reported supply; nil when
// no Helius API key is configured.
var supplyVerifier *helius.Client

// InitSupplyVerifier wires the Helius client used for supply reconciliation.
func InitSupplyVerifier(client *helius.Client) {
	supplyVerifier = client
}

// VerifyTokenSupply compares the recorded total supply of a mint with what
// the chain reports.
func VerifyTokenSupply(c *gin.Context) {
	if supplyVerifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "supply verification is not configured"})
		return
	}

	mint := c.Param("mint")
	var state models.TokenSupplyState
	if err := dbconfig.DB.Where("mint = ?", mint).First(&state).Error; err != nil {
		c.JSON(supplyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	onChain, err := supplyVerifier.GetTokenSupply(mint)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	recorded := strconv.FormatUint(state.TotalSupply, 10)
	c.JSON(http.StatusOK, gin.H{
		"mint":            mint,
		"recorded_supply": state.TotalSupply,
		"onchain_supply":  onChain.Amount,
		"decimals":        onChain.Decimals,
		"consistent":      recorded == onChain.Amount,
	})
}

// ListTokenSupplyEvents returns the supply mutation log for a mint.
func ListTokenSupplyEvents(c *gin.Context) {
	var events []models.TokenSupplyEvent
	if err := dbconfig.DB.Where("mint = ?", c.Param("mint")).
		Order("created_at desc").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}
