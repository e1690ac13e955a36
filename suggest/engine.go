// Package suggest assembles product suggestions from recent search
// activity, falling back through three tiers of decreasing specificity:
// personalized history, trending activity, then random approved products.
package suggest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"bazario/api/models"
)

const (
	// MaxSuggestions is the hard cap on any suggestion response.
	MaxSuggestions = 8
	// personalizedMin is how many tier results must accumulate before the
	// engine stops falling through to the next tier.
	personalizedMin = 4

	historyWindow  = 30 * 24 * time.Hour
	trendingWindow = 7 * 24 * time.Hour
	patternLimit   = 10
)

// ActivityReader is the slice of the activity store the engine needs.
type ActivityReader interface {
	TopSearchPatterns(ctx context.Context, userID int64, since time.Time, limit int) ([]models.SearchPattern, error)
	ProductEventCounts(ctx context.Context, since time.Time) ([]models.ProductEventCount, error)
}

// ProductReader is the slice of the product store the engine needs.
type ProductReader interface {
	FindApprovedByInterests(ctx context.Context, categories, terms []string, limit uint) ([]models.Product, error)
	FindApprovedByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	ListApprovedRecent(ctx context.Context, limit uint, exclude []int64) ([]models.Product, error)
	RandomApproved(ctx context.Context, limit uint, exclude []int64) ([]models.Product, error)
}

// Result is one assembled suggestion list. Personalized is true only when
// the history tier contributed at least personalizedMin items for a known
// user.
type Result struct {
	Suggestions  []models.Product
	Personalized bool
}

type Engine struct {
	activity ActivityReader
	products ProductReader
	now      func() time.Time
}

func NewEngine(activity ActivityReader, products ProductReader) *Engine {
	return &Engine{
		activity: activity,
		products: products,
		now:      time.Now,
	}
}

type tier int

const (
	tierPersonalized tier = iota
	tierTrending
	tierRandom
	tierDone
)

func (t tier) String() string {
	switch t {
	case tierPersonalized:
		return "personalized"
	case tierTrending:
		return "trending"
	case tierRandom:
		return "random"
	default:
		return "done"
	}
}

// next advances the tier state machine. A tier that leaves the accumulated
// count below personalizedMin hands off to the next one; otherwise the
// machine terminates.
func next(cur tier, count int) tier {
	switch cur {
	case tierPersonalized:
		if count < personalizedMin {
			return tierTrending
		}
	case tierTrending:
		if count < personalizedMin {
			return tierRandom
		}
	}
	return tierDone
}

// Suggestions returns up to MaxSuggestions approved products for the given
// user (nil for anonymous visitors), with no duplicate product IDs.
//
// A tier failure after earlier tiers already contributed degrades to
// returning what was gathered, logged but not fatal. A failure before
// anything was gathered fails the whole request.
func (e *Engine) Suggestions(ctx context.Context, userID *int64) (Result, error) {
	var res Result
	seen := make(map[int64]bool)
	personalizedCount := 0

	cur := tierTrending
	if userID != nil {
		cur = tierPersonalized
	}

	for cur != tierDone {
		var batch []models.Product
		var err error

		switch cur {
		case tierPersonalized:
			batch, err = e.personalized(ctx, *userID)
		case tierTrending:
			batch, err = e.trending(ctx, MaxSuggestions-len(res.Suggestions), seen)
		case tierRandom:
			batch, err = e.random(ctx, seen)
		}

		if err != nil {
			if len(res.Suggestions) > 0 {
				log.Printf("Suggestion tier %s failed after %d items gathered, degrading: %v", cur, len(res.Suggestions), err)
				break
			}
			return Result{}, fmt.Errorf("suggestion tier %s failed: %w", cur, err)
		}

		for _, p := range batch {
			if seen[p.ID] || len(res.Suggestions) >= MaxSuggestions {
				continue
			}
			seen[p.ID] = true
			res.Suggestions = append(res.Suggestions, p)
		}

		if cur == tierPersonalized {
			personalizedCount = len(res.Suggestions)
		}
		cur = next(cur, len(res.Suggestions))
	}

	res.Personalized = userID != nil && personalizedCount >= personalizedMin
	return res, nil
}

// personalized derives the user's interests from their trailing-30-day
// search patterns and finds approved products matching any of them.
func (e *Engine) personalized(ctx context.Context, userID int64) ([]models.Product, error) {
	patterns, err := e.activity.TopSearchPatterns(ctx, userID, e.now().Add(-historyWindow), patternLimit)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	var categories, terms []string
	seenCat := make(map[string]bool)
	seenTerm := make(map[string]bool)
	for _, p := range patterns {
		if p.Category != nil && *p.Category != "" && !seenCat[*p.Category] {
			seenCat[*p.Category] = true
			categories = append(categories, *p.Category)
		}
		if p.SearchQuery != nil && *p.SearchQuery != "" && !seenTerm[*p.SearchQuery] {
			seenTerm[*p.SearchQuery] = true
			terms = append(terms, *p.SearchQuery)
		}
	}

	return e.products.FindApprovedByInterests(ctx, categories, terms, MaxSuggestions)
}

// trending ranks approved products by trailing-7-day activity volume,
// zero-activity products eligible after the active ones, newest first.
// Ties break on count desc, then creation time desc, then product ID asc.
func (e *Engine) trending(ctx context.Context, need int, seen map[int64]bool) ([]models.Product, error) {
	if need <= 0 {
		return nil, nil
	}

	counts, err := e.activity.ProductEventCounts(ctx, e.now().Add(-trendingWindow))
	if err != nil {
		return nil, err
	}

	countByID := make(map[int64]uint64, len(counts))
	var ids []int64
	for _, c := range counts {
		if seen[c.ProductID] {
			continue
		}
		countByID[c.ProductID] = c.Count
		ids = append(ids, c.ProductID)
	}

	var active []models.Product
	if len(ids) > 0 {
		active, err = e.products.FindApprovedByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(active, func(i, j int) bool {
			ci, cj := countByID[active[i].ID], countByID[active[j].ID]
			if ci != cj {
				return ci > cj
			}
			if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
				return active[i].CreatedAt.After(active[j].CreatedAt)
			}
			return active[i].ID < active[j].ID
		})
	}

	if len(active) >= need {
		return active[:need], nil
	}

	exclude := make([]int64, 0, len(seen)+len(active))
	for id := range seen {
		exclude = append(exclude, id)
	}
	for _, p := range active {
		exclude = append(exclude, p.ID)
	}

	quiet, err := e.products.ListApprovedRecent(ctx, uint(need-len(active)), exclude)
	if err != nil {
		return nil, err
	}

	return append(active, quiet...), nil
}

func (e *Engine) random(ctx context.Context, seen map[int64]bool) ([]models.Product, error) {
	exclude := make([]int64, 0, len(seen))
	for id := range seen {
		exclude = append(exclude, id)
	}
	return e.products.RandomApproved(ctx, MaxSuggestions, exclude)
}
