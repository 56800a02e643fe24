package routes

import (
	"github.com/gin-gonic/gin"

	"ecotrack/controllers"
)

func SetupEngagementRoutes(router *gin.RouterGroup, ec *controllers.EngagementController) {
	engagement := router.Group("/engagement")
	{
		engagement.GET("/summary", ec.Summary)
		engagement.GET("/badges", ec.Badges)
		engagement.POST("/badges/evaluate", ec.EvaluateBadges)
		engagement.PUT("/goal", ec.SetGoal)
	}

	analytics := router.Group("/analytics")
	{
		analytics.GET("/monthly", ec.MonthlyComparison)
		analytics.GET("/category-breakdown", ec.CategoryBreakdown)
		analytics.GET("/intensity", ec.Intensity)
		analytics.GET("/suggestions", ec.Suggestions)
	}
}
