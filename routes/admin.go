package routes

import (
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"ecotrack/controllers"
	"ecotrack/middlewares"
)

// SetupAdminRoutes registers maintenance routes. Each one is gated by a Casbin policy.
func SetupAdminRoutes(router *gin.RouterGroup, ac *controllers.AdminController, enforcer *casbin.Enforcer) {
	admin := router.Group("/admin")
	{
		admin.POST("/periods/reset", middlewares.RBACMiddleware(enforcer, "points", "reset"), ac.ResetPeriods)
		admin.GET("/leaderboard/:period", middlewares.RBACMiddleware(enforcer, "leaderboard", "read"), ac.FullLeaderboard)
	}
}
