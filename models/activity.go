package models

import (
	"errors"
	"fmt"
	"time"
)

// Action kinds accepted by the activity log.
const (
	ActionSearch = "search"
	ActionView   = "view"
	ActionClick  = "click"
)

// ErrMissingSubject is returned when a tracking request carries neither a
// search query nor a product reference, so there is nothing to attribute
// the activity to.
var ErrMissingSubject = errors.New("search query or product ID is required")

// ActivityRecord is one immutable entry in the search activity log.
// All attribution fields are optional; anonymous visitors produce records
// with a nil UserID.
type ActivityRecord struct {
	ID          string    `json:"id"`
	UserID      *int64    `json:"userId,omitempty"`
	SearchQuery *string   `json:"searchQuery,omitempty"`
	Category    *string   `json:"category,omitempty"`
	ProductID   *int64    `json:"productId,omitempty"`
	ActionType  string    `json:"actionType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TrackSearchRequest is the body of POST /track-search.
type TrackSearchRequest struct {
	SearchQuery *string `json:"searchQuery"`
	Category    *string `json:"category"`
	ProductID   *int64  `json:"productId"`
	ActionType  string  `json:"actionType"`
}

// Validate normalizes the request and enforces the record invariant:
// at least one of searchQuery / productId must be present. Empty strings
// collapse to nil so records lacking a query are persisted with a null
// query rather than an empty one.
func (r *TrackSearchRequest) Validate() error {
	if r.ActionType == "" {
		r.ActionType = ActionSearch
	}
	switch r.ActionType {
	case ActionSearch, ActionView, ActionClick:
	default:
		return fmt.Errorf("unknown action type %q", r.ActionType)
	}
	if r.SearchQuery != nil && *r.SearchQuery == "" {
		r.SearchQuery = nil
	}
	if r.Category != nil && *r.Category == "" {
		r.Category = nil
	}
	if r.SearchQuery == nil && r.ProductID == nil {
		return ErrMissingSubject
	}
	return nil
}

// SearchPattern is one aggregated (category, query) pair from a user's
// recent activity, used to seed personalized suggestions.
type SearchPattern struct {
	Category    *string
	SearchQuery *string
	Frequency   uint64
	LastSeen    time.Time
}

// ProductEventCount pairs a product with its recent activity volume.
type ProductEventCount struct {
	ProductID int64
	Count     uint64
}

// SearchTrend is one row of the aggregate search-trends report.
type SearchTrend struct {
	SearchQuery string  `json:"searchQuery"`
	Category    *string `json:"category,omitempty"`
	Frequency   uint64  `json:"frequency"`
}
