// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mraprguild/cinescout/internal/catalog"
	"github.com/mraprguild/cinescout/internal/config"
	"github.com/mraprguild/cinescout/internal/logging"
	"github.com/mraprguild/cinescout/internal/metrics"
	"github.com/mraprguild/cinescout/internal/profile"
)

// Generator fan-in sizes.
const (
	topGenresForDiscovery  = 3
	topGenresForPopular    = 2
	topGenresForTrending   = 5
	interactionsForSimilar = 10
	similarPerInteraction  = 3
	candidatesPerGenerator = 5

	fallbackTrendingCount = 5
	fallbackMoviesCount   = 3
	fallbackTVCount       = 2

	defaultSimilarLimit = 5
)

// Engine builds ranked recommendations from profiles and the catalog.
//
// Catalog failures never fail a recommendation request: each generator
// degrades to an empty candidate list, and an empty result is a valid
// (if unhelpful) response. The zero-profile case falls back to
// non-personalized trending and popular content.
type Engine struct {
	catalog catalog.Catalog
	store   *profile.Store
	cfg     *config.RecommendConfig

	// now is replaceable in tests.
	now func() time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(cat catalog.Catalog, store *profile.Store, cfg *config.RecommendConfig) *Engine {
	return &Engine{
		catalog: cat,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
	}
}

// clampLimit normalizes a requested result count to (0, max].
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 || limit > e.cfg.MaxRecommendations {
		return e.cfg.MaxRecommendations
	}
	return limit
}

// minVoteCount returns the discovery vote floor for a content kind.
func (e *Engine) minVoteCount(kind catalog.Kind) int {
	if kind == catalog.KindTV {
		return e.cfg.MinVoteCountTV
	}
	return e.cfg.MinVoteCountMovies
}

// fetch runs one catalog call with the generator timeout, degrading
// errors to an empty result.
func (e *Engine) fetch(ctx context.Context, what string, fn func(ctx context.Context) ([]catalog.Content, error)) []catalog.Content {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GeneratorTimeout)
	defer cancel()

	items, err := fn(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("generator", what).Msg("Catalog call failed, generator degraded")
		return nil
	}
	return items
}

// Recommend returns up to limit ranked recommendations for a user.
// Users without a usable profile get the non-personalized fallback
// mix.
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) []Recommendation {
	start := time.Now()
	limit = e.clampLimit(limit)

	// Only a missing profile triggers the fallback mix. A sparse
	// existing profile still runs the generators; trending carries it
	// even with zero recorded preferences.
	p, ok := e.store.GetProfile(userID)
	if !ok {
		results := e.fallback(ctx, limit)
		metrics.RecommendationDuration.WithLabelValues("fallback").Observe(time.Since(start).Seconds())
		return results
	}

	// The four generators are independent catalog fan-outs; run them
	// concurrently, each writing its own slot so merge order stays
	// fixed by source priority.
	var slots [4][]Recommendation
	var wg sync.WaitGroup
	generators := []func(context.Context, *profile.UserProfile) []Recommendation{
		e.genreBased,
		e.similarContent,
		e.popularInGenres,
		e.trending,
	}
	wg.Add(len(generators))
	for i, gen := range generators {
		go func(i int, gen func(context.Context, *profile.UserProfile) []Recommendation) {
			defer wg.Done()
			slots[i] = gen(ctx, p)
		}(i, gen)
	}
	wg.Wait()

	var candidates []Recommendation
	for _, slot := range slots {
		candidates = append(candidates, slot...)
	}
	observeCandidates(candidates)

	results := rank(candidates, p.InteractedKeys(), limit, e.now())
	metrics.RecommendationDuration.WithLabelValues("personalized").Observe(time.Since(start).Seconds())
	return results
}

// genreBased discovers well-voted content in the user's top genres.
func (e *Engine) genreBased(ctx context.Context, p *profile.UserProfile) []Recommendation {
	genreIDs := catalog.ResolveGenreIDs(p.TopGenres(topGenresForDiscovery))
	if len(genreIDs) == 0 {
		return nil
	}
	kind := p.PreferredKind()
	items := e.fetch(ctx, sourceGenreBased, func(ctx context.Context) ([]catalog.Content, error) {
		return e.catalog.Discover(ctx, kind, genreIDs, e.minVoteCount(kind))
	})
	return asCandidates(items, sourceGenreBased, scoreGenreBased, candidatesPerGenerator)
}

// similarContent expands the user's recent interactions through the
// catalog's similar and recommended edges.
func (e *Engine) similarContent(ctx context.Context, p *profile.UserProfile) []Recommendation {
	var out []Recommendation
	for _, entry := range p.RecentInteractions(interactionsForSimilar) {
		kind, id := entry.Kind, entry.ContentID

		// Similar and recommended edges pool into one list per
		// interaction; only the first similarPerInteraction of the
		// combined pool survive, so similar results crowd out
		// recommended ones.
		items := e.fetch(ctx, sourceSimilarContent, func(ctx context.Context) ([]catalog.Content, error) {
			return e.catalog.GetSimilar(ctx, kind, id)
		})
		recommended := e.fetch(ctx, sourceSimilarContent, func(ctx context.Context) ([]catalog.Content, error) {
			return e.catalog.GetRecommendedFor(ctx, kind, id)
		})
		items = append(items, recommended...)
		out = append(out, asCandidates(items, sourceSimilarContent, scoreSimilarContent, similarPerInteraction)...)
	}
	return out
}

// popularInGenres picks currently popular content that overlaps the
// user's two strongest genres.
func (e *Engine) popularInGenres(ctx context.Context, p *profile.UserProfile) []Recommendation {
	genreIDs := catalog.ResolveGenreIDs(p.TopGenres(topGenresForPopular))
	if len(genreIDs) == 0 {
		return nil
	}
	wanted := make(map[int]struct{}, len(genreIDs))
	for _, id := range genreIDs {
		wanted[id] = struct{}{}
	}

	// Both kinds contribute; the cap applies to the combined list, so
	// genre-matching movies crowd out TV matches.
	matched := make([]catalog.Content, 0, candidatesPerGenerator)
	for _, kind := range []catalog.Kind{catalog.KindMovie, catalog.KindTV} {
		items := e.fetch(ctx, sourcePopularGenre, func(ctx context.Context) ([]catalog.Content, error) {
			return e.catalog.GetPopular(ctx, kind)
		})
		for _, item := range items {
			if !overlaps(item.GenreIDs, wanted) {
				continue
			}
			matched = append(matched, item)
			if len(matched) == candidatesPerGenerator {
				return asCandidates(matched, sourcePopularGenre, scorePopularGenre, candidatesPerGenerator)
			}
		}
	}
	return asCandidates(matched, sourcePopularGenre, scorePopularGenre, candidatesPerGenerator)
}

// trending contributes this week's trending content. Items touching
// the user's top genres score higher than the rest.
func (e *Engine) trending(ctx context.Context, p *profile.UserProfile) []Recommendation {
	items := e.fetch(ctx, sourceTrending, func(ctx context.Context) ([]catalog.Content, error) {
		return e.catalog.GetTrending(ctx)
	})

	wanted := make(map[int]struct{})
	for _, id := range catalog.ResolveGenreIDs(p.TopGenres(topGenresForTrending)) {
		wanted[id] = struct{}{}
	}

	out := make([]Recommendation, 0, candidatesPerGenerator)
	for _, item := range items {
		score := scoreTrendingOther
		if overlaps(item.GenreIDs, wanted) {
			score = scoreTrendingMatch
		}
		out = append(out, Recommendation{Content: item, Source: sourceTrending, Score: score})
		if len(out) == candidatesPerGenerator {
			break
		}
	}
	return out
}

func overlaps(genreIDs []int, wanted map[int]struct{}) bool {
	for _, id := range genreIDs {
		if _, ok := wanted[id]; ok {
			return true
		}
	}
	return false
}

// fallback is the zero-profile mix: trending plus popular movies and
// TV. Items keep their base score unboosted and appear in fetch order.
func (e *Engine) fallback(ctx context.Context, limit int) []Recommendation {
	var out []Recommendation

	trending := e.fetch(ctx, sourceTrendingFallback, func(ctx context.Context) ([]catalog.Content, error) {
		return e.catalog.GetTrending(ctx)
	})
	out = append(out, asCandidates(trending, sourceTrendingFallback, scoreFallback, fallbackTrendingCount)...)

	movies := e.fetch(ctx, sourcePopularFallback, func(ctx context.Context) ([]catalog.Content, error) {
		return e.catalog.GetPopular(ctx, catalog.KindMovie)
	})
	out = append(out, asCandidates(movies, sourcePopularFallback, scoreFallback, fallbackMoviesCount)...)

	shows := e.fetch(ctx, sourcePopularTVFallback, func(ctx context.Context) ([]catalog.Content, error) {
		return e.catalog.GetPopular(ctx, catalog.KindTV)
	})
	out = append(out, asCandidates(shows, sourcePopularTVFallback, scoreFallback, fallbackTVCount)...)

	for i := range out {
		out[i].FinalScore = out[i].Score
	}
	observeCandidates(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// observeCandidates records per-source candidate volume.
func observeCandidates(candidates []Recommendation) {
	counts := make(map[string]int)
	for _, c := range candidates {
		counts[c.Source]++
	}
	for source, n := range counts {
		metrics.RecommendationCandidates.WithLabelValues(source).Observe(float64(n))
	}
}

// RecommendSimilarTo returns content related to one item, combining
// the catalog's metadata-similar and behavior-recommended edges.
func (e *Engine) RecommendSimilarTo(ctx context.Context, kind catalog.Kind, id int, limit int) ([]Recommendation, error) {
	if !kind.Valid() {
		return nil, errors.New("unknown content kind")
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("similar").Observe(time.Since(start).Seconds())
	}()

	similar, errSimilar := e.catalog.GetSimilar(ctx, kind, id)
	recommended, errRecommended := e.catalog.GetRecommendedFor(ctx, kind, id)
	if errSimilar != nil && errRecommended != nil {
		return nil, errSimilar
	}

	// Results keep fetch order with their base scores; the per-item
	// quality boosts apply only to profile-driven recommendations.
	candidates := asCandidates(similar, "similar", 0.8, similarPerInteraction)
	candidates = append(candidates, asCandidates(recommended, "algorithm", 0.7, similarPerInteraction)...)

	return dedupeFirst(candidates, limit), nil
}

// RecommendByGenre returns well-voted content in one named genre. An
// unknown genre name yields an empty result, not an error.
func (e *Engine) RecommendByGenre(ctx context.Context, genre string, kind catalog.Kind, limit int) ([]Recommendation, error) {
	genreID, ok := catalog.GenreID(genre)
	if !ok {
		logging.Warn().Str("genre", genre).Msg("Unknown genre requested, returning empty result")
		return []Recommendation{}, nil
	}
	if !kind.Valid() {
		kind = catalog.KindMovie
	}
	limit = e.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("genre").Observe(time.Since(start).Seconds())
	}()

	items, err := e.catalog.Discover(ctx, kind, []int{genreID}, e.minVoteCount(kind))
	if err != nil {
		return nil, err
	}

	// Catalog order carries through untouched; vote-average sorting
	// already happened upstream in the discover call.
	source := "genre_" + strings.ToLower(genre)
	candidates := asCandidates(items, source, scorePopularGenre, len(items))
	return dedupeFirst(candidates, limit), nil
}
