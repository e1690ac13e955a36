package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/api/models"
)

func collect(ix *Index, query string) []models.Product {
	var out []models.Product
	for p := range ix.Search(query) {
		out = append(out, p)
	}
	return out
}

func testCatalog() []models.Product {
	return []models.Product{
		{ID: 1, Title: "Smart TV 55 inch", Category: "TV", Description: "4K panel"},
		{ID: 2, Title: "Soundbar", Category: "TV", Description: "Dolby Atmos"},
		{ID: 3, Title: "Espresso Machine", Category: "Kitchen", Description: "15 bar pump"},
		{ID: 4, Title: "Blender", Category: "Kitchen", Description: "smoothies and soups"},
		{ID: 5, Title: "Running Shoes", Category: "Sports", Description: "lightweight trainers"},
		{ID: 6, Title: "Yoga Mat", Category: "Sports", Description: "non-slip"},
		{ID: 7, Title: "Television Stand", Category: "Furniture", Description: "fits most TVs"},
	}
}

func TestSearchShortQueryReturnsNothing(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	assert.Empty(t, collect(ix, ""))
	assert.Empty(t, collect(ix, "t"))
	assert.Empty(t, collect(ix, " t "))
}

func TestSearchExactCategoryRanksFirst(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	results := collect(ix, "tv")
	require.NotEmpty(t, results)

	// Products in the "TV" category outrank anything matching only via
	// title or description text.
	assert.Equal(t, "TV", results[0].Category)
	assert.Equal(t, "TV", results[1].Category)
}

func TestSearchCaseInsensitive(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	results := collect(ix, "ESPRESSO")
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].ID)
}

func TestSearchMatchesDescription(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	results := collect(ix, "smoothies")
	require.Len(t, results, 1)
	assert.Equal(t, int64(4), results[0].ID)
}

func TestSearchFuzzyToleratesTypo(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	// A dropped letter still finds the product.
	results := collect(ix, "televsion")
	require.NotEmpty(t, results)
	assert.Equal(t, int64(7), results[0].ID)
}

func TestSearchCapsResults(t *testing.T) {
	var catalog []models.Product
	for i := int64(1); i <= 10; i++ {
		catalog = append(catalog, models.Product{ID: i, Title: "Coffee Grinder", Category: "Kitchen"})
	}
	ix := NewIndex(catalog, 0)

	results := collect(ix, "coffee")
	assert.Len(t, results, MaxResults)
}

func TestSearchSequenceIsRestartable(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	seq := ix.Search("kitchen")
	first := []int64{}
	for p := range seq {
		first = append(first, p.ID)
	}
	second := []int64{}
	for p := range seq {
		second = append(second, p.ID)
	}
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestSearchSequenceStopsEarly(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)

	count := 0
	for range ix.Search("kitchen") {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestReloadReplacesSnapshot(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)
	require.NotEmpty(t, collect(ix, "espresso"))

	ix.Reload([]models.Product{{ID: 99, Title: "Garden Hose", Category: "Garden"}})

	assert.Empty(t, collect(ix, "espresso"))
	results := collect(ix, "garden")
	require.Len(t, results, 1)
	assert.Equal(t, int64(99), results[0].ID)
}

func TestSearchNoMatch(t *testing.T) {
	ix := NewIndex(testCatalog(), 0)
	assert.Empty(t, collect(ix, "zzzzqqqq"))
}
