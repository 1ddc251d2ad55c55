// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

// Package profile stores per-user taste profiles: search history,
// content interactions, favorites, and the aggregated preference
// counters the recommendation engine reads.
//
// Histories are bounded FIFO (oldest entries evicted); the cumulative
// stats counters are append-only and survive both eviction and
// retention purges.
package profile

import (
	"sort"
	"time"

	"github.com/mraprguild/cinescout/internal/catalog"
)

// History bounds. When a bound is reached the oldest entries are
// evicted; the Stats counters keep the lifetime totals.
const (
	maxSearchHistory = 50
	maxInteractions  = 100
)

// SearchEntry records one search a user performed.
type SearchEntry struct {
	Query     string       `json:"query"`
	Kind      catalog.Kind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
}

// InteractionEntry records one content item a user engaged with
// (selected, viewed details of, asked for similar titles).
type InteractionEntry struct {
	ContentID int          `json:"content_id"`
	Kind      catalog.Kind `json:"kind"`
	Title     string       `json:"title"`
	Timestamp time.Time    `json:"timestamp"`
}

// Favorite is a content item a user saved.
type Favorite struct {
	ContentID  int          `json:"content_id"`
	Kind       catalog.Kind `json:"kind"`
	Title      string       `json:"title"`
	PosterPath string       `json:"poster_path,omitempty"`
	AddedAt    time.Time    `json:"added_at"`
}

// Preferences holds aggregated engagement counters keyed by genre
// name, person name, and content kind. Counters only grow; retention
// purges trim histories but never decrement these.
type Preferences struct {
	Genres    map[string]int `json:"genres"`
	Actors    map[string]int `json:"actors"`
	Directors map[string]int `json:"directors"`
	Kinds     map[string]int `json:"kinds"`
}

// Stats holds lifetime activity totals.
type Stats struct {
	TotalSearches     int `json:"total_searches"`
	TotalInteractions int `json:"total_interactions"`
	MoviesViewed      int `json:"movies_viewed"`
	TVShowsViewed     int `json:"tv_shows_viewed"`
}

// UserProfile is the full stored profile for one user.
type UserProfile struct {
	UserID        string             `json:"user_id"`
	DisplayName   string             `json:"display_name,omitempty"`
	FirstName     string             `json:"first_name,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	LastActive    time.Time          `json:"last_active"`
	SearchHistory []SearchEntry      `json:"search_history"`
	Interactions  []InteractionEntry `json:"interactions"`
	Favorites     []Favorite         `json:"favorites"`
	Preferences   Preferences        `json:"preferences"`
	Stats         Stats              `json:"stats"`
}

// ContentKey identifies a content item across kinds. Movie and TV IDs
// overlap numerically, so the kind is part of the identity.
type ContentKey struct {
	Kind catalog.Kind
	ID   int
}

func newProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		CreatedAt:  now,
		LastActive: now,
		Preferences: Preferences{
			Genres:    make(map[string]int),
			Actors:    make(map[string]int),
			Directors: make(map[string]int),
			Kinds:     make(map[string]int),
		},
	}
}

// ensureMaps guards against profiles persisted before a counter map
// existed.
func (p *UserProfile) ensureMaps() {
	if p.Preferences.Genres == nil {
		p.Preferences.Genres = make(map[string]int)
	}
	if p.Preferences.Actors == nil {
		p.Preferences.Actors = make(map[string]int)
	}
	if p.Preferences.Directors == nil {
		p.Preferences.Directors = make(map[string]int)
	}
	if p.Preferences.Kinds == nil {
		p.Preferences.Kinds = make(map[string]int)
	}
}

// TopGenres returns up to n genre names ordered by engagement count
// descending. Ties order alphabetically so the result is stable across
// calls.
func (p *UserProfile) TopGenres(n int) []string {
	names := make([]string, 0, len(p.Preferences.Genres))
	for name := range p.Preferences.Genres {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := p.Preferences.Genres[names[i]], p.Preferences.Genres[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// PreferredKind returns the content kind the user engages with most.
// A tie (including a fresh profile with no engagement) resolves to
// movies.
func (p *UserProfile) PreferredKind() catalog.Kind {
	if p.Preferences.Kinds[string(catalog.KindTV)] > p.Preferences.Kinds[string(catalog.KindMovie)] {
		return catalog.KindTV
	}
	return catalog.KindMovie
}

// RecentInteractions returns up to the last n interactions in stored
// (chronological) order. Downstream candidate merging depends on this
// order staying stable.
func (p *UserProfile) RecentInteractions(n int) []InteractionEntry {
	entries := p.Interactions
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]InteractionEntry, len(entries))
	copy(out, entries)
	return out
}

// InteractedKeys returns the set of content the user has already
// engaged with, for exclusion from recommendations.
func (p *UserProfile) InteractedKeys() map[ContentKey]struct{} {
	keys := make(map[ContentKey]struct{}, len(p.Interactions))
	for _, e := range p.Interactions {
		keys[ContentKey{Kind: e.Kind, ID: e.ContentID}] = struct{}{}
	}
	return keys
}

// HasFavorite reports whether the item is already in the favorites
// list.
func (p *UserProfile) HasFavorite(kind catalog.Kind, id int) bool {
	for _, f := range p.Favorites {
		if f.Kind == kind && f.ContentID == id {
			return true
		}
	}
	return false
}
