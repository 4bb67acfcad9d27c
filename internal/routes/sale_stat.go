package routes

import (
	"presalecontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupSaleStatRoutes sets up snapshot queries and the live progress feed
func SetupSaleStatRoutes(r *gin.Engine) {
	stat := r.Group("/sale-stat")
	{
		stat.GET("/sale/:id", handlers.ListSaleStatSnapshots)
		stat.GET("/sale/:id/latest", handlers.GetLatestSaleStatSnapshot)
		stat.GET("/ws/:id", handlers.SaleFeed)
	}
}
