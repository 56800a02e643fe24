package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MonthlyComparison returns this month's footprint against last month's.
func (ec *EngagementController) MonthlyComparison(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	comparison, err := ec.engagement.MonthlyComparison(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to compare months")
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (ec *EngagementController) CategoryBreakdown(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	breakdown, err := ec.engagement.CategoryBreakdown(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to compute category breakdown")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": breakdown})
}

func (ec *EngagementController) Intensity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	intensity, err := ec.engagement.Intensity(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to compute intensity")
		return
	}
	c.JSON(http.StatusOK, intensity)
}

// Suggestions compares each category's last week with the weeks before it.
func (ec *EngagementController) Suggestions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	report, err := ec.engagement.Suggestions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to generate suggestions")
		return
	}
	c.JSON(http.StatusOK, report)
}
