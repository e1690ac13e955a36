// Package search provides an in-memory fuzzy index over a point-in-time
// catalog snapshot, for search-as-you-type suggestions. It never touches a
// datastore: Reload fully replaces the snapshot and queries only read it.
package search

import (
	"iter"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"bazario/api/models"
)

const (
	// MaxResults caps how many matches a query returns.
	MaxResults = 5
	// MinQueryLen is the shortest query that triggers a search.
	MinQueryLen = 2

	// DefaultThreshold is the loosest accepted edit distance for a fuzzy
	// token match, as a fraction of the token length.
	DefaultThreshold = 0.4

	// Substring hits always rank ahead of fuzzy-only hits.
	fuzzyScoreBase = 1000
)

// Index holds the catalog snapshot and answers fuzzy queries over product
// title, category, and description.
type Index struct {
	mu        sync.RWMutex
	products  []models.Product
	threshold float64
}

// NewIndex builds an index over the given snapshot. A threshold <= 0 uses
// DefaultThreshold.
func NewIndex(products []models.Product, threshold float64) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	ix := &Index{threshold: threshold}
	ix.Reload(products)
	return ix
}

// Reload replaces the entire snapshot. There is no incremental update.
func (ix *Index) Reload(products []models.Product) {
	snapshot := make([]models.Product, len(products))
	copy(snapshot, products)

	ix.mu.Lock()
	ix.products = snapshot
	ix.mu.Unlock()
}

// Len reports how many products the current snapshot holds.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.products)
}

type match struct {
	product models.Product
	score   int
}

// Search returns up to MaxResults products matching the query, best match
// first. Queries shorter than MinQueryLen yield an empty sequence. The
// returned sequence is restartable: ranging over it again replays the same
// results.
func (ix *Index) Search(query string) iter.Seq[models.Product] {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < MinQueryLen {
		return func(yield func(models.Product) bool) {}
	}

	ix.mu.RLock()
	var matches []match
	for _, p := range ix.products {
		if score, ok := ix.score(q, p); ok {
			matches = append(matches, match{product: p, score: score})
		}
	}
	ix.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score < matches[j].score
		}
		return matches[i].product.ID < matches[j].product.ID
	})
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}

	return func(yield func(models.Product) bool) {
		for _, m := range matches {
			if !yield(m.product) {
				return
			}
		}
	}
}

// score returns the best field score for the product, lower is better.
func (ix *Index) score(q string, p models.Product) (int, bool) {
	best := -1
	for _, field := range []string{p.Title, p.Category, p.Description} {
		if s := ix.fieldScore(q, field); s >= 0 && (best < 0 || s < best) {
			best = s
		}
	}
	return best, best >= 0
}

// fieldScore scores one field: a substring hit scores by position, a fuzzy
// token hit scores by edit distance offset past fuzzyScoreBase, and -1
// means no match. Fuzzy matches are admitted only when the rank stays
// within the threshold fraction of the token length.
func (ix *Index) fieldScore(q, field string) int {
	f := strings.ToLower(field)
	if i := strings.Index(f, q); i >= 0 {
		return i
	}

	best := -1
	for _, tok := range strings.Fields(f) {
		rank := fuzzy.RankMatch(q, tok)
		if rank < 0 {
			continue
		}
		if float64(rank) > ix.threshold*float64(utf8.RuneCountInString(tok)) {
			continue
		}
		s := fuzzyScoreBase + rank
		if best < 0 || s < best {
			best = s
		}
	}
	return best
}
