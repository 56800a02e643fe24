package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecotrack/middlewares"
	"ecotrack/services"
	"ecotrack/utils"
)

// writeError maps engine errors onto HTTP statuses. Details are only
// returned for client errors.
func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": message, "details": err.Error()})
	case errors.Is(err, services.ErrStoreUnavailable):
		utils.LogError("%s: %v", message, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": message, "details": "Storage is temporarily unavailable"})
	default:
		utils.LogError("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

// currentUser returns the authenticated caller's id or writes a 401.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middlewares.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return userID, true
}
