package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecotrack/middlewares"
	"ecotrack/services"
)

// LeaderboardController serves the public rankings.
type LeaderboardController struct {
	boards *services.LeaderboardService
}

func NewLeaderboardController(boards *services.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{boards: boards}
}

// parseLimit reads ?limit. Absent means the configured default.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": err.Error()})
		return 0, false
	}
	return limit, true
}

// GetLeaderboard returns the top entries for a period plus the caller's own
// entry when they are ranked outside the list.
func (lc *LeaderboardController) GetLeaderboard(c *gin.Context) {
	period, err := services.ParsePeriod(c.Param("period"))
	if err != nil {
		writeError(c, err, "Invalid period")
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	board, err := lc.boards.Rank(c.Request.Context(), period, limit, c.GetString(middlewares.UserIDKey))
	if err != nil {
		writeError(c, err, "Failed to fetch leaderboard")
		return
	}
	c.JSON(http.StatusOK, board)
}

// GetMyRank returns the caller's rank and percentile. A caller with no
// activity in the window gets ranked=false.
func (lc *LeaderboardController) GetMyRank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := services.ParsePeriod(c.Param("period"))
	if err != nil {
		writeError(c, err, "Invalid period")
		return
	}

	rank, err := lc.boards.RankOf(c.Request.Context(), period, userID)
	if services.IsNotFound(err) {
		c.JSON(http.StatusOK, gin.H{"period": period, "ranked": false})
		return
	}
	if err != nil {
		writeError(c, err, "Failed to fetch rank")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranked": true, "rank": rank})
}
