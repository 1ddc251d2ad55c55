// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package profile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mraprguild/cinescout/internal/catalog"
	"github.com/mraprguild/cinescout/internal/logging"
	"github.com/mraprguild/cinescout/internal/metrics"
)

// profileKeyPrefix namespaces profile records in BadgerDB.
const profileKeyPrefix = "profile:"

// Store persists user profiles in BadgerDB.
//
// Storage faults never reach callers: reads degrade to "no profile"
// and writes are logged and dropped. Recommendations built from a
// missing or stale profile are worse than recommendations built from
// a fresh one, but both are valid responses; a failed recommendation
// request is not.
//
// All mutations are read-modify-write over the whole profile record,
// serialized by a store-level mutex so concurrent updates to the same
// user cannot lose counters.
type Store struct {
	db *badger.DB
	mu sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

// Open opens (creating if needed) a profile store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening profile store at %s: %w", path, err)
	}
	return NewStore(db), nil
}

// OpenInMemory opens an ephemeral profile store backed by memory only.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening in-memory profile store: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an already-open BadgerDB.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func profileKey(userID string) []byte {
	return []byte(profileKeyPrefix + userID)
}

// getTxn loads a profile inside a transaction. Returns (nil, nil) when
// the user has no profile yet.
func getTxn(txn *badger.Txn, userID string) (*UserProfile, error) {
	item, err := txn.Get(profileKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p UserProfile
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// GetProfile returns a snapshot of the user's profile, or false when
// none exists. Read failures degrade to absent.
func (s *Store) GetProfile(userID string) (*UserProfile, bool) {
	var p *UserProfile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getTxn(txn, userID)
		return err
	})
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("Profile read failed, treating as absent")
		metrics.ProfileStoreOps.WithLabelValues("get", "error").Inc()
		return nil, false
	}
	metrics.ProfileStoreOps.WithLabelValues("get", "success").Inc()
	if p == nil {
		return nil, false
	}
	p.ensureMaps()
	return p, true
}

// update runs a read-modify-write cycle on one profile, creating it on
// first touch. Write failures are logged and dropped.
func (s *Store) update(userID, operation string, fn func(p *UserProfile)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := getTxn(txn, userID)
		if err != nil {
			return err
		}
		if p == nil {
			p = newProfile(userID, now)
		}
		p.ensureMaps()
		p.LastActive = now

		fn(p)

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		return txn.Set(profileKey(userID), data)
	})
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Str("operation", operation).Msg("Profile write failed, update dropped")
		metrics.ProfileStoreOps.WithLabelValues(operation, "error").Inc()
		return
	}
	metrics.ProfileStoreOps.WithLabelValues(operation, "success").Inc()
}

// TouchActivity refreshes the user's last-active time and identity
// fields, creating an empty profile on first contact. Empty name
// arguments leave the stored names alone.
func (s *Store) TouchActivity(userID, displayName, firstName string) {
	s.update(userID, "touch", func(p *UserProfile) {
		if displayName != "" {
			p.DisplayName = displayName
		}
		if firstName != "" {
			p.FirstName = firstName
		}
	})
}

// InteractionHistory returns up to limit of the user's most recent
// interactions in stored order, optionally restricted to one content
// kind. An unknown user or a read failure yields an empty history.
func (s *Store) InteractionHistory(userID string, kind catalog.Kind, limit int) []InteractionEntry {
	p, ok := s.GetProfile(userID)
	if !ok {
		return nil
	}

	entries := p.Interactions
	if kind.Valid() {
		filtered := make([]InteractionEntry, 0, len(entries))
		for _, e := range entries {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

// RecordSearch appends a search to the user's history, bumps the
// lifetime search counter, and counts the searched kind toward the
// user's kind preference. The history keeps the most recent
// maxSearchHistory entries.
func (s *Store) RecordSearch(userID, query string, kind catalog.Kind) {
	s.update(userID, "search", func(p *UserProfile) {
		p.SearchHistory = append(p.SearchHistory, SearchEntry{
			Query:     query,
			Kind:      kind,
			Timestamp: p.LastActive,
		})
		if len(p.SearchHistory) > maxSearchHistory {
			p.SearchHistory = p.SearchHistory[len(p.SearchHistory)-maxSearchHistory:]
		}
		p.Preferences.Kinds[string(kind)]++
		p.Stats.TotalSearches++
	})
}

// RecordInteraction appends a content interaction and folds the item's
// genres, top-billed cast, and directors into the preference counters.
// The interaction history keeps the most recent maxInteractions
// entries; the counters and the per-kind viewed stats are cumulative.
func (s *Store) RecordInteraction(userID string, d *catalog.Details) {
	s.update(userID, "interaction", func(p *UserProfile) {
		p.Interactions = append(p.Interactions, InteractionEntry{
			ContentID: d.ID,
			Kind:      d.Kind,
			Title:     d.Title,
			Timestamp: p.LastActive,
		})
		if len(p.Interactions) > maxInteractions {
			p.Interactions = p.Interactions[len(p.Interactions)-maxInteractions:]
		}

		for _, genre := range d.GenreNames {
			p.Preferences.Genres[genre]++
		}
		for _, actor := range d.Cast {
			p.Preferences.Actors[actor]++
		}
		for _, director := range d.Directors {
			p.Preferences.Directors[director]++
		}
		if d.Kind == catalog.KindTV {
			p.Stats.TVShowsViewed++
		} else {
			p.Stats.MoviesViewed++
		}
		p.Stats.TotalInteractions++
	})
}

// AddFavorite saves a content item to the user's favorites. Returns
// false when the item was already saved; the operation is idempotent.
func (s *Store) AddFavorite(userID string, c catalog.Content) bool {
	added := false
	s.update(userID, "add_favorite", func(p *UserProfile) {
		if p.HasFavorite(c.Kind, c.ID) {
			return
		}
		p.Favorites = append(p.Favorites, Favorite{
			ContentID:  c.ID,
			Kind:       c.Kind,
			Title:      c.Title,
			PosterPath: c.PosterPath,
			AddedAt:    p.LastActive,
		})
		added = true
	})
	return added
}

// RemoveFavorite deletes a favorite. Returns false when the item was
// not in the list.
func (s *Store) RemoveFavorite(userID string, kind catalog.Kind, id int) bool {
	removed := false
	s.update(userID, "remove_favorite", func(p *UserProfile) {
		for i, f := range p.Favorites {
			if f.Kind == kind && f.ContentID == id {
				p.Favorites = append(p.Favorites[:i], p.Favorites[i+1:]...)
				removed = true
				return
			}
		}
	})
	return removed
}

// PurgeOlderThan removes search and interaction entries recorded
// before the cutoff. Favorites, preference counters, and lifetime
// stats are untouched. Returns the number of users modified and the
// total entries removed.
func (s *Store) PurgeOlderThan(cutoff time.Time) (users, entries int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(profileKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var p UserProfile
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				logging.Error().Err(err).Str("key", string(item.Key())).Msg("Skipping undecodable profile during purge")
				continue
			}

			removed := 0
			p.SearchHistory, removed = trimSearches(p.SearchHistory, cutoff, removed)
			p.Interactions, removed = trimInteractions(p.Interactions, cutoff, removed)
			if removed == 0 {
				continue
			}

			data, err := json.Marshal(&p)
			if err != nil {
				return fmt.Errorf("marshal purged profile %s: %w", p.UserID, err)
			}
			if err := txn.Set(item.KeyCopy(nil), data); err != nil {
				return fmt.Errorf("write purged profile %s: %w", p.UserID, err)
			}
			users++
			entries += removed
		}
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Msg("Retention purge failed")
		metrics.ProfileStoreOps.WithLabelValues("purge", "error").Inc()
		return 0, 0
	}
	metrics.ProfileStoreOps.WithLabelValues("purge", "success").Inc()
	metrics.ProfilesPurgedEntries.Add(float64(entries))
	return users, entries
}

func trimSearches(in []SearchEntry, cutoff time.Time, removed int) ([]SearchEntry, int) {
	out := in[:0]
	for _, e := range in {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		out = append(out, e)
	}
	return out, removed
}

func trimInteractions(in []InteractionEntry, cutoff time.Time, removed int) ([]InteractionEntry, int) {
	out := in[:0]
	for _, e := range in {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		out = append(out, e)
	}
	return out, removed
}

// UserCount returns the number of stored profiles. Returns 0 on read
// failure.
func (s *Store) UserCount() int {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(profileKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Msg("Profile count failed")
		return 0
	}
	return count
}
