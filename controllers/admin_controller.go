package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecotrack/services"
)

// AdminController exposes maintenance operations behind RBAC.
type AdminController struct {
	resetter *services.PeriodResetter
	boards   *services.LeaderboardService
}

func NewAdminController(resetter *services.PeriodResetter, boards *services.LeaderboardService) *AdminController {
	return &AdminController{resetter: resetter, boards: boards}
}

// ResetPeriods zeroes weekly and monthly points whose period has rolled over.
func (ac *AdminController) ResetPeriods(c *gin.Context) {
	report, err := ac.resetter.Reset(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to reset periods")
		return
	}
	c.JSON(http.StatusOK, report)
}

// FullLeaderboard returns the untruncated ranking for a period.
func (ac *AdminController) FullLeaderboard(c *gin.Context) {
	period, err := services.ParsePeriod(c.Param("period"))
	if err != nil {
		writeError(c, err, "Invalid period")
		return
	}
	board, err := ac.boards.Ranking(c.Request.Context(), period)
	if err != nil {
		writeError(c, err, "Failed to fetch leaderboard")
		return
	}
	c.JSON(http.StatusOK, board)
}
