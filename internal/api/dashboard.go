package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/middleware"  // Caller lookup
	"store_rating/internal/service"     // Use cases
)

// StatsHandler returns platform wide counts
func StatsHandler(dashboard *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := dashboard.Stats(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// StoreDashboardHandler returns the aggregates of the store owner's store
func StoreDashboardHandler(dashboard *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dash, err := dashboard.Store(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	}
}
