package routes

import (
	"presalecontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupSalePurchaseRoutes sets up the purchase settlement and history routes
func SetupSalePurchaseRoutes(r *gin.Engine, limiter gin.HandlerFunc) {
	purchase := r.Group("/sale-purchase")
	{
		purchase.POST("", limiter, handlers.ExecutePurchase)
		purchase.GET("/sale/:id", handlers.ListPurchaseRecords)
		purchase.GET("/sale/:id/buyer/:buyer", handlers.GetBuyerPurchases)
	}
}
