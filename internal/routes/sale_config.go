package routes

import (
	"presalecontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupSaleConfigRoutes sets up all routes related to sale record management
func SetupSaleConfigRoutes(r *gin.Engine) {
	sale := r.Group("/sale-config")
	{
		sale.GET("", handlers.ListSaleConfigs)
		sale.GET("/:id", handlers.GetSaleConfig)
		sale.GET("/:id/status", handlers.GetSaleStatus)
		sale.POST("", handlers.CreateSaleConfig)
		sale.POST("/:id/extend", handlers.ExtendSale)
		sale.POST("/:id/deposit", handlers.DepositTokens)
		sale.POST("/:id/withdraw", handlers.WithdrawUnsold)
		sale.GET("/:id/transfers", handlers.ListSaleFundTransfers)
	}
}
