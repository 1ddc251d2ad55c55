// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mraprguild/cinescout/internal/logging"
	"github.com/mraprguild/cinescout/internal/metrics"
)

// BreakerCatalog wraps a Catalog with a circuit breaker so a degraded
// catalog API cannot pile up requests. When the circuit is open, calls
// fail fast with gobreaker.ErrOpenState; callers that can degrade
// gracefully (the recommendation generators) treat that like any other
// catalog error.
//
// The breaker uses real time for its interval and timeout windows, so
// unit tests should exercise the wrapped catalog directly.
type BreakerCatalog struct {
	next Catalog
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// NewBreakerCatalog wraps next with circuit breaker protection.
// The circuit opens after a 60% failure rate with at least 10 requests
// in a 1-minute window, and probes recovery after 2 minutes.
func NewBreakerCatalog(next Catalog) *BreakerCatalog {
	cbName := "catalog-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		// A 404 reflects the caller's ID, not catalog health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	return &BreakerCatalog{next: next, cb: cb, name: cbName}
}

func (b *BreakerCatalog) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Str("breaker", b.name).Msg("[CIRCUIT BREAKER] Request rejected")
		}
		return nil, err
	}
	return result, nil
}

// castResult type-checks a breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func (b *BreakerCatalog) executeList(fn func() ([]Content, error)) ([]Content, error) {
	return castResult[[]Content](b.execute(func() (interface{}, error) {
		return fn()
	}))
}

func (b *BreakerCatalog) SearchByTitle(ctx context.Context, kind Kind, query string) ([]Content, error) {
	return b.executeList(func() ([]Content, error) {
		return b.next.SearchByTitle(ctx, kind, query)
	})
}

func (b *BreakerCatalog) GetDetails(ctx context.Context, kind Kind, id int) (*Details, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.next.GetDetails(ctx, kind, id)
	})
	return castResult[*Details](result, err)
}

func (b *BreakerCatalog) GetPopular(ctx context.Context, kind Kind) ([]Content, error) {
	return b.executeList(func() ([]Content, error) {
		return b.next.GetPopular(ctx, kind)
	})
}

func (b *BreakerCatalog) GetTrending(ctx context.Context) ([]Content, error) {
	return b.executeList(func() ([]Content, error) {
		return b.next.GetTrending(ctx)
	})
}

func (b *BreakerCatalog) GetSimilar(ctx context.Context, kind Kind, id int) ([]Content, error) {
	return b.executeList(func() ([]Content, error) {
		return b.next.GetSimilar(ctx, kind, id)
	})
}

func (b *BreakerCatalog) GetRecommendedFor(ctx context.Context, kind Kind, id int) ([]Content, error) {
	return b.executeList(func() ([]Content, error) {
		return b.next.GetRecommendedFor(ctx, kind, id)
	})
}

func (b *BreakerCatalog) Discover(ctx context.Context, kind Kind, genreIDs []int, minVoteCount int) ([]Content, error) {
	return b.executeList(func() ([]Content, error) {
		return b.next.Discover(ctx, kind, genreIDs, minVoteCount)
	})
}
