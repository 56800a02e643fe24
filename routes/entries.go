package routes

import (
	"github.com/gin-gonic/gin"

	"ecotrack/controllers"
	"ecotrack/middlewares"
)

// SetupEntryRoutes registers activity record CRUD. Only creation is rate limited.
func SetupEntryRoutes(router *gin.RouterGroup, ec *controllers.EntryController, limiter middlewares.Limiter) {
	entries := router.Group("/entries")
	{
		entries.GET("", ec.List)
		entries.POST("", middlewares.SubmissionRateLimit(limiter), ec.Create)
		entries.GET("/stats/summary", ec.Stats)
		entries.GET("/streak/current", ec.Streak)
		entries.GET("/:id", ec.Get)
		entries.PUT("/:id", ec.Update)
		entries.DELETE("/:id", ec.Delete)
	}
}
