// api/store/activity_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"bazario/api/database"
	"bazario/api/models"
)

// ActivityStore persists and aggregates search activity records in
// ClickHouse. Records are append-only; nothing here mutates or deletes.
type ActivityStore struct {
	DB *database.ClickHouseClient
}

func NewActivityStore(chClient *database.ClickHouseClient) *ActivityStore {
	return &ActivityStore{
		DB: chClient,
	}
}

// InsertActivity appends one record with a server-assigned timestamp and ID.
// Duplicate identical events are all retained; there is no uniqueness
// constraint on the log.
func (s *ActivityStore) InsertActivity(ctx context.Context, rec models.ActivityRecord) error {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	err := s.DB.Conn.Exec(ctx, `
		INSERT INTO search_activity (id, user_id, search_query, category, product_id, action_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.UserID,
		rec.SearchQuery,
		rec.Category,
		rec.ProductID,
		rec.ActionType,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity record: %w", err)
	}

	return nil
}

// TopSearchPatterns returns the user's distinct (category, query) pairs
// since the given time, most frequent first, ties broken by recency.
func (s *ActivityStore) TopSearchPatterns(ctx context.Context, userID int64, since time.Time, limit int) ([]models.SearchPattern, error) {
	query := `
		SELECT category, search_query, count() AS frequency, max(created_at) AS last_seen
		FROM search_activity
		WHERE user_id = ? AND created_at >= ?
		GROUP BY category, search_query
		ORDER BY frequency DESC, last_seen DESC
		LIMIT ?
	`

	rows, err := s.DB.Conn.Query(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.SearchPattern
	for rows.Next() {
		var p models.SearchPattern
		if err := rows.Scan(&p.Category, &p.SearchQuery, &p.Frequency, &p.LastSeen); err != nil {
			log.Printf("Error scanning row for search patterns: %v", err)
			continue
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during search patterns query: %w", err)
	}

	return patterns, nil
}

// ProductEventCounts returns per-product activity volume since the given
// time, highest first. Only product-linked records count; products with no
// recent activity simply do not appear.
func (s *ActivityStore) ProductEventCounts(ctx context.Context, since time.Time) ([]models.ProductEventCount, error) {
	query := `
		SELECT product_id, count() AS event_count
		FROM search_activity
		WHERE product_id IS NOT NULL AND created_at >= ?
		GROUP BY product_id
		ORDER BY event_count DESC, product_id ASC
	`

	rows, err := s.DB.Conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query product event counts: %w", err)
	}
	defer rows.Close()

	var counts []models.ProductEventCount
	for rows.Next() {
		var productID *int64
		var count uint64
		if err := rows.Scan(&productID, &count); err != nil {
			log.Printf("Error scanning row for product event counts: %v", err)
			continue
		}
		if productID == nil {
			continue
		}
		counts = append(counts, models.ProductEventCount{ProductID: *productID, Count: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during product event counts query: %w", err)
	}

	return counts, nil
}

// SearchTrends returns the most frequent (query, category) pairs across all
// users since the given time. Rows without a search query are excluded.
func (s *ActivityStore) SearchTrends(ctx context.Context, since time.Time, limit int) ([]models.SearchTrend, error) {
	if limit == 0 {
		limit = 20
	}

	query := `
		SELECT search_query, category, count() AS frequency
		FROM search_activity
		WHERE created_at >= ? AND search_query IS NOT NULL
		GROUP BY search_query, category
		ORDER BY frequency DESC
		LIMIT ?
	`

	rows, err := s.DB.Conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search trends: %w", err)
	}
	defer rows.Close()

	var trends []models.SearchTrend
	for rows.Next() {
		var searchQuery *string
		var t models.SearchTrend
		if err := rows.Scan(&searchQuery, &t.Category, &t.Frequency); err != nil {
			log.Printf("Error scanning row for search trends: %v", err)
			continue
		}
		if searchQuery == nil {
			continue
		}
		t.SearchQuery = *searchQuery
		trends = append(trends, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for search trends: %w", err)
	}

	return trends, nil
}
