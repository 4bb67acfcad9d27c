package routes

import (
	"presalecontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupTokenSupplyRoutes sets up the token supply state machine routes
func SetupTokenSupplyRoutes(r *gin.Engine) {
	supply := r.Group("/token-supply")
	{
		supply.POST("", handlers.InitializeTokenSupply)
		supply.GET("/:mint", handlers.GetTokenSupply)
		supply.POST("/:mint/mint", handlers.MintTokenSupply)
		supply.POST("/:mint/burn", handlers.BurnTokenSupply)
		supply.POST("/:mint/transfer-authority", handlers.TransferTokenAuthority)
		supply.GET("/:mint/verify", handlers.VerifyTokenSupply)
		supply.GET("/:mint/events", handlers.ListTokenSupplyEvents)
	}
}
