package routes

import (
	"github.com/gin-gonic/gin"

	"ecotrack/controllers"
)

func SetupLeaderboardRoutes(router *gin.RouterGroup, lc *controllers.LeaderboardController) {
	router.GET("/leaderboard/:period", lc.GetLeaderboard)
	router.GET("/leaderboard/:period/me", lc.GetMyRank)
}
