package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecotrack/models"
	"ecotrack/services"
)

// EngagementController serves the dashboard's streak, points, goal and badge views.
type EngagementController struct {
	engagement *services.EngagementService
}

func NewEngagementController(engagement *services.EngagementService) *EngagementController {
	return &EngagementController{engagement: engagement}
}

// Summary returns stats, streak, points, goal and the badge catalog with earned flags.
func (ec *EngagementController) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := ec.engagement.Summary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to build summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (ec *EngagementController) Badges(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	badges, err := ec.engagement.Badges(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to fetch badges")
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// EvaluateBadges re-runs the catalog for the caller and returns newly earned badges.
func (ec *EngagementController) EvaluateBadges(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	awarded, err := ec.engagement.RefreshBadges(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to evaluate badges")
		return
	}
	c.JSON(http.StatusOK, gin.H{"newBadges": awarded})
}

// GoalRequest sets the emission ceiling. goalType defaults to weekly.
type GoalRequest struct {
	Goal     *float64        `json:"goal" binding:"required"`
	GoalType models.GoalType `json:"goalType"`
}

func (ec *EngagementController) SetGoal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	goal := models.GoalInfo{Goal: *req.Goal, GoalType: req.GoalType}
	if err := ec.engagement.SetGoal(c.Request.Context(), userID, goal); err != nil {
		writeError(c, err, "Failed to update goal")
		return
	}
	if goal.GoalType == "" {
		goal.GoalType = models.GoalWeekly
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}
