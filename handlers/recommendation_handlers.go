// api/handlers/recommendation_handlers.go
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"bazario/api/middleware"
	"bazario/api/models"
	"bazario/api/suggest"

	"github.com/gin-gonic/gin"
)

// activityLogger is the slice of the activity store these handlers need.
type activityLogger interface {
	InsertActivity(ctx context.Context, rec models.ActivityRecord) error
	SearchTrends(ctx context.Context, since time.Time, limit int) ([]models.SearchTrend, error)
}

// suggester produces suggestion lists; satisfied by *suggest.Engine.
type suggester interface {
	Suggestions(ctx context.Context, userID *int64) (suggest.Result, error)
}

type RecommendationHandlers struct {
	Activity activityLogger
	Engine   suggester
}

func NewRecommendationHandlers(activity activityLogger, engine suggester) *RecommendationHandlers {
	return &RecommendationHandlers{
		Activity: activity,
		Engine:   engine,
	}
}

// TrackSearch records one search/view/click event. Anonymous visitors are
// tracked with a nil user ID; the optional-auth middleware fills it in when
// a valid token is present.
func (h *RecommendationHandlers) TrackSearch(c *gin.Context) {
	var req models.TrackSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Error binding track-search JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	if err := req.Validate(); err != nil {
		if !errors.Is(err, models.ErrMissingSubject) {
			log.Printf("Rejected track-search request: %v", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	rec := models.ActivityRecord{
		UserID:      middleware.UserIDFromContext(c),
		SearchQuery: req.SearchQuery,
		Category:    req.Category,
		ProductID:   req.ProductID,
		ActionType:  req.ActionType,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.Activity.InsertActivity(ctx, rec); err != nil {
		log.Printf("Error inserting activity record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to track search activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Search activity tracked"})
}

// GetSuggestions returns up to eight suggested products for the caller,
// personalized when their recent history supports it.
func (h *RecommendationHandlers) GetSuggestions(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.Suggestions(ctx, userID)
	if err != nil {
		log.Printf("Error getting suggestions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to get suggestions"})
		return
	}

	suggestions := res.Suggestions
	if suggestions == nil {
		suggestions = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"suggestions":  suggestions,
		"personalized": res.Personalized,
	})
}

// GetSearchTrends returns the most frequent search terms of the trailing
// seven days, for the admin dashboard.
func (h *RecommendationHandlers) GetSearchTrends(c *gin.Context) {
	limit := 20
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	since := time.Now().UTC().Add(-7 * 24 * time.Hour)
	trends, err := h.Activity.SearchTrends(ctx, since, limit)
	if err != nil {
		log.Printf("Error getting search trends: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to get search trends"})
		return
	}

	if trends == nil {
		trends = []models.SearchTrend{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "trends": trends})
}
