package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ecotrack/models"
	"ecotrack/services"
	"ecotrack/utils"
)

// EntryController serves the caller's activity records. Creating a record
// runs the engagement hook exactly once.
type EntryController struct {
	activities services.ActivityStore
	engagement *services.EngagementService
	now        services.Clock
	loc        *time.Location
}

func NewEntryController(activities services.ActivityStore, engagement *services.EngagementService, now services.Clock, loc *time.Location) *EntryController {
	if now == nil {
		now = services.SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &EntryController{activities: activities, engagement: engagement, now: now, loc: loc}
}

// EntryRequest is the body of create and update calls
type EntryRequest struct {
	Category         models.Category `json:"category" binding:"required"`
	Kind             string          `json:"kind"`
	Label            string          `json:"label"`
	Note             string          `json:"note"`
	Quantity         *float64        `json:"quantity" binding:"required"`
	Unit             string          `json:"unit"`
	OriginalQuantity *float64        `json:"originalQuantity"`
	OccurredOn       string          `json:"occurredOn"`
}

// parseDate accepts a calendar day or an RFC 3339 timestamp. Empty means now.
func (ec *EntryController) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ec.now(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, ec.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: %w", s, services.ErrInvalidInput)
	}
	return t, nil
}

func (ec *EntryController) apply(req *EntryRequest, a *models.Activity) error {
	occurredOn, err := ec.parseDate(req.OccurredOn)
	if err != nil {
		return err
	}
	a.Category = models.Category(strings.ToLower(string(req.Category)))
	a.Kind = req.Kind
	a.Label = req.Label
	a.Note = req.Note
	a.Quantity = *req.Quantity
	a.Unit = req.Unit
	a.OriginalQuantity = req.OriginalQuantity
	a.OccurredOn = occurredOn
	return nil
}

// List returns the caller's records, optionally bounded by from/to.
func (ec *EntryController) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var start, end time.Time
	var err error
	if from := c.Query("from"); from != "" {
		if start, err = ec.parseDate(from); err != nil {
			writeError(c, err, "Invalid from date")
			return
		}
	}
	if to := c.Query("to"); to != "" {
		if end, err = ec.parseDate(to); err != nil {
			writeError(c, err, "Invalid to date")
			return
		}
	}

	entries, err := ec.activities.ListByOwner(c.Request.Context(), userID, start, end)
	if err != nil {
		writeError(c, err, "Failed to fetch entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Create stores a record, then updates streak, points and badges. An
// engagement failure does not fail the request.
func (ec *EntryController) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	activity := models.Activity{OwnerID: userID}
	if err := ec.apply(&req, &activity); err != nil {
		writeError(c, err, "Invalid entry")
		return
	}

	ctx := c.Request.Context()
	if err := ec.activities.Create(ctx, &activity); err != nil {
		writeError(c, err, "Failed to create entry")
		return
	}

	response := gin.H{"entry": activity}
	outcome, err := ec.engagement.RecordActivity(ctx, &activity)
	if err != nil {
		utils.LogWarn("entry %s saved without engagement update: %v", activity.ID.Hex(), err)
		response["engagementError"] = "Streak and points could not be updated"
	} else {
		response["engagement"] = outcome
	}
	c.JSON(http.StatusCreated, response)
}

func (ec *EntryController) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entry, err := ec.activities.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err, "Entry not available")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Update edits a record. Streak and points already granted for it stay as they are.
func (ec *EntryController) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	entry, err := ec.activities.Get(ctx, c.Param("id"), userID)
	if err != nil {
		writeError(c, err, "Entry not available")
		return
	}
	if err := ec.apply(&req, entry); err != nil {
		writeError(c, err, "Invalid entry")
		return
	}
	if err := ec.activities.Update(ctx, entry); err != nil {
		writeError(c, err, "Failed to update entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (ec *EntryController) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ec.activities.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, err, "Failed to delete entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}

// Stats returns the caller's aggregate statistics for their goal period.
func (ec *EntryController) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	stats, goal, err := ec.engagement.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "goal": goal})
}

func (ec *EntryController) Streak(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	streak, err := ec.engagement.Streak(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to fetch streak")
		return
	}
	c.JSON(http.StatusOK, streak)
}
