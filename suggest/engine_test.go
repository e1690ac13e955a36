package suggest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/api/models"
)

type fakeActivity struct {
	patterns    []models.SearchPattern
	patternsErr error
	counts      []models.ProductEventCount
	countsErr   error
}

func (f *fakeActivity) TopSearchPatterns(_ context.Context, _ int64, _ time.Time, limit int) ([]models.SearchPattern, error) {
	if f.patternsErr != nil {
		return nil, f.patternsErr
	}
	if len(f.patterns) > limit {
		return f.patterns[:limit], nil
	}
	return f.patterns, nil
}

func (f *fakeActivity) ProductEventCounts(_ context.Context, _ time.Time) ([]models.ProductEventCount, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.counts, nil
}

// fakeProducts mimics the store's query semantics over an in-memory
// approved catalog.
type fakeProducts struct {
	catalog []models.Product

	interestsErr error
	byIDsErr     error
	recentErr    error
	randomErr    error
}

func (f *fakeProducts) FindApprovedByInterests(_ context.Context, categories, terms []string, limit uint) ([]models.Product, error) {
	if f.interestsErr != nil {
		return nil, f.interestsErr
	}
	var out []models.Product
	for _, p := range f.catalog {
		matched := false
		for _, c := range categories {
			if p.Category == c {
				matched = true
			}
		}
		for _, t := range terms {
			lt := strings.ToLower(t)
			if strings.Contains(strings.ToLower(p.Title), lt) || strings.Contains(strings.ToLower(p.Description), lt) {
				matched = true
			}
		}
		if matched {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	if uint(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProducts) FindApprovedByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	if f.byIDsErr != nil {
		return nil, f.byIDsErr
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Product
	for _, p := range f.catalog {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) ListApprovedRecent(_ context.Context, limit uint, exclude []int64) ([]models.Product, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := f.without(exclude)
	sortNewestFirst(out)
	if uint(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProducts) RandomApproved(_ context.Context, limit uint, exclude []int64) ([]models.Product, error) {
	if f.randomErr != nil {
		return nil, f.randomErr
	}
	out := f.without(exclude)
	if uint(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProducts) without(exclude []int64) []models.Product {
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []models.Product
	for _, p := range f.catalog {
		if !skip[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func sortNewestFirst(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
}

func product(id int64, category string, createdDaysAgo int) models.Product {
	return models.Product{
		ID:        id,
		Title:     "Product",
		Category:  category,
		Status:    models.ProductStatusApproved,
		CreatedAt: time.Now().Add(-time.Duration(createdDaysAgo) * 24 * time.Hour),
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func newTestEngine(activity *fakeActivity, products *fakeProducts) *Engine {
	return NewEngine(activity, products)
}

func TestSuggestionsAnonymousNeverPersonalized(t *testing.T) {
	products := &fakeProducts{catalog: []models.Product{
		product(1, "Books", 1),
		product(2, "Books", 2),
	}}
	engine := newTestEngine(&fakeActivity{}, products)

	res, err := engine.Suggestions(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Personalized)
	assert.Len(t, res.Suggestions, 2)
}

func TestSuggestionsCapAndNoDuplicates(t *testing.T) {
	var catalog []models.Product
	for i := int64(1); i <= 12; i++ {
		catalog = append(catalog, product(i, "Electronics", int(i)))
	}
	activity := &fakeActivity{
		patterns: []models.SearchPattern{{Category: strPtr("Electronics"), Frequency: 3}},
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), int64Ptr(7))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Suggestions), MaxSuggestions)

	seen := make(map[int64]bool)
	for _, p := range res.Suggestions {
		assert.False(t, seen[p.ID], "duplicate product ID %d", p.ID)
		seen[p.ID] = true
	}
}

func TestSuggestionsPersonalizedByCategoryHistory(t *testing.T) {
	// 10 approved Electronics products, 5 approved non-Electronics.
	var catalog []models.Product
	for i := int64(1); i <= 10; i++ {
		catalog = append(catalog, product(i, "Electronics", int(i)))
	}
	for i := int64(11); i <= 15; i++ {
		catalog = append(catalog, product(i, "Garden", int(i)))
	}

	activity := &fakeActivity{
		patterns: []models.SearchPattern{{Category: strPtr("Electronics"), Frequency: 3}},
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), int64Ptr(42))
	require.NoError(t, err)
	assert.True(t, res.Personalized)
	require.Len(t, res.Suggestions, MaxSuggestions)

	for i, p := range res.Suggestions {
		assert.Equal(t, "Electronics", p.Category)
		if i > 0 {
			prev := res.Suggestions[i-1]
			assert.False(t, p.CreatedAt.After(prev.CreatedAt), "expected creation-time descending order")
		}
	}
}

func TestSuggestionsTrendingOrder(t *testing.T) {
	// 2 products with recent view events, 6 with none.
	var catalog []models.Product
	for i := int64(1); i <= 8; i++ {
		catalog = append(catalog, product(i, "Books", int(i)))
	}
	activity := &fakeActivity{
		counts: []models.ProductEventCount{
			{ProductID: 7, Count: 5},
			{ProductID: 8, Count: 5},
		},
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Personalized)
	require.Len(t, res.Suggestions, 8)

	// Active products first; equal counts break on newer creation time.
	assert.Equal(t, int64(7), res.Suggestions[0].ID)
	assert.Equal(t, int64(8), res.Suggestions[1].ID)

	// Then the zero-activity products, newest first.
	rest := res.Suggestions[2:]
	for i := 1; i < len(rest); i++ {
		assert.True(t, rest[i].CreatedAt.Before(rest[i-1].CreatedAt))
	}
}

func TestSuggestionsTrendingTieBreakOnID(t *testing.T) {
	created := time.Now().Add(-24 * time.Hour)
	catalog := []models.Product{
		{ID: 2, Category: "Books", Status: models.ProductStatusApproved, CreatedAt: created},
		{ID: 1, Category: "Books", Status: models.ProductStatusApproved, CreatedAt: created},
	}
	activity := &fakeActivity{
		counts: []models.ProductEventCount{
			{ProductID: 1, Count: 3},
			{ProductID: 2, Count: 3},
		},
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, int64(1), res.Suggestions[0].ID)
	assert.Equal(t, int64(2), res.Suggestions[1].ID)
}

func TestSuggestionsSparseHistoryFallsThrough(t *testing.T) {
	// Only 2 products match the user's history: below the personalization
	// threshold, so trending fills the rest and the flag stays false.
	catalog := []models.Product{
		product(1, "Electronics", 1),
		product(2, "Electronics", 2),
		product(3, "Books", 3),
		product(4, "Books", 4),
		product(5, "Books", 5),
	}
	activity := &fakeActivity{
		patterns: []models.SearchPattern{{Category: strPtr("Electronics"), Frequency: 2}},
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), int64Ptr(9))
	require.NoError(t, err)
	assert.False(t, res.Personalized)
	require.Len(t, res.Suggestions, 5)
	assert.Equal(t, int64(1), res.Suggestions[0].ID)
	assert.Equal(t, int64(2), res.Suggestions[1].ID)
}

func TestSuggestionsEmptyCatalog(t *testing.T) {
	engine := newTestEngine(&fakeActivity{}, &fakeProducts{})

	res, err := engine.Suggestions(context.Background(), int64Ptr(1))
	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
	assert.False(t, res.Personalized)
}

func TestSuggestionsFirstTierFailureFailsRequest(t *testing.T) {
	activity := &fakeActivity{patternsErr: errors.New("clickhouse down")}
	engine := newTestEngine(activity, &fakeProducts{})

	_, err := engine.Suggestions(context.Background(), int64Ptr(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "personalized")
}

func TestSuggestionsLateTierFailureDegrades(t *testing.T) {
	// Personalized contributes 2 items, then trending fails: the engine
	// returns what it gathered instead of failing the request.
	catalog := []models.Product{
		product(1, "Electronics", 1),
		product(2, "Electronics", 2),
	}
	activity := &fakeActivity{
		patterns:  []models.SearchPattern{{Category: strPtr("Electronics"), Frequency: 2}},
		countsErr: errors.New("clickhouse down"),
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), int64Ptr(1))
	require.NoError(t, err)
	assert.Len(t, res.Suggestions, 2)
	assert.False(t, res.Personalized)
}

func TestSuggestionsSearchTermMatching(t *testing.T) {
	now := time.Now()
	catalog := []models.Product{
		{ID: 1, Title: "Wireless Headphones", Description: "Bluetooth", Category: "Audio", Status: models.ProductStatusApproved, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Title: "Desk Lamp", Description: "warm light", Category: "Home", Status: models.ProductStatusApproved, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 3, Title: "Gaming Mouse", Description: "wireless, 16000 DPI", Category: "Peripherals", Status: models.ProductStatusApproved, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 4, Title: "Notebook", Description: "ruled paper", Category: "Stationery", Status: models.ProductStatusApproved, CreatedAt: now.Add(-4 * time.Hour)},
		{ID: 5, Title: "USB Cable", Description: "2m braided", Category: "Accessories", Status: models.ProductStatusApproved, CreatedAt: now.Add(-5 * time.Hour)},
	}
	activity := &fakeActivity{
		patterns: []models.SearchPattern{
			{SearchQuery: strPtr("wireless"), Frequency: 4},
			{SearchQuery: strPtr("lamp"), Frequency: 1},
			{SearchQuery: strPtr("cable"), Frequency: 1},
			{SearchQuery: strPtr("paper"), Frequency: 1},
		},
	}
	engine := newTestEngine(activity, &fakeProducts{catalog: catalog})

	res, err := engine.Suggestions(context.Background(), int64Ptr(5))
	require.NoError(t, err)
	assert.True(t, res.Personalized)
	require.Len(t, res.Suggestions, 5)
	// Newest matching product first.
	assert.Equal(t, int64(1), res.Suggestions[0].ID)
}
