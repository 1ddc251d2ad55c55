// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

// fakeCatalog is a scriptable Catalog for breaker tests.
type fakeCatalog struct {
	items []Content
	det   *Details
	err   error
}

func (f *fakeCatalog) SearchByTitle(context.Context, Kind, string) ([]Content, error) {
	return f.items, f.err
}
func (f *fakeCatalog) GetDetails(context.Context, Kind, int) (*Details, error) {
	return f.det, f.err
}
func (f *fakeCatalog) GetPopular(context.Context, Kind) ([]Content, error) { return f.items, f.err }
func (f *fakeCatalog) GetTrending(context.Context) ([]Content, error)     { return f.items, f.err }
func (f *fakeCatalog) GetSimilar(context.Context, Kind, int) ([]Content, error) {
	return f.items, f.err
}
func (f *fakeCatalog) GetRecommendedFor(context.Context, Kind, int) ([]Content, error) {
	return f.items, f.err
}
func (f *fakeCatalog) Discover(context.Context, Kind, []int, int) ([]Content, error) {
	return f.items, f.err
}

func TestBreakerPassesThroughResults(t *testing.T) {
	fake := &fakeCatalog{
		items: []Content{{ID: 1, Kind: KindMovie, Title: "One"}},
		det:   &Details{Content: Content{ID: 1, Kind: KindMovie, Title: "One"}},
	}
	b := NewBreakerCatalog(fake)

	items, err := b.GetPopular(context.Background(), KindMovie)
	if err != nil {
		t.Fatalf("GetPopular failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "One" {
		t.Errorf("unexpected items %+v", items)
	}

	d, err := b.GetDetails(context.Background(), KindMovie, 1)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if d.Title != "One" {
		t.Errorf("unexpected details %+v", d)
	}
}

func TestBreakerPropagatesNotFoundWithoutTripping(t *testing.T) {
	fake := &fakeCatalog{err: ErrNotFound}
	b := NewBreakerCatalog(fake)

	// Well past the trip threshold; not-found responses must not open
	// the circuit.
	for i := 0; i < 20; i++ {
		if _, err := b.GetDetails(context.Background(), KindMovie, i); !errors.Is(err, ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	fake := &fakeCatalog{err: errors.New("catalog down")}
	b := NewBreakerCatalog(fake)

	for i := 0; i < 10; i++ {
		if _, err := b.GetTrending(context.Background()); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := b.GetTrending(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open circuit, got %v", err)
	}
}
