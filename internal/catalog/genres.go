// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import (
	"github.com/mraprguild/cinescout/internal/logging"
	"github.com/mraprguild/cinescout/internal/metrics"
)

// genreIDs maps canonical genre names to catalog genre IDs. The table
// covers both movie and TV genre vocabularies; names shared by both
// (Action, Drama, ...) map to the movie ID.
var genreIDs = map[string]int{
	"Action":             28,
	"Adventure":          12,
	"Animation":          16,
	"Comedy":             35,
	"Crime":              80,
	"Documentary":        99,
	"Drama":              18,
	"Family":             10751,
	"Fantasy":            14,
	"History":            36,
	"Horror":             27,
	"Music":              10402,
	"Mystery":            9648,
	"Romance":            10749,
	"Science Fiction":    878,
	"TV Movie":           10770,
	"Thriller":           53,
	"War":                10752,
	"Western":            37,
	"Action & Adventure": 10759,
	"Kids":               10762,
	"News":               10763,
	"Reality":            10764,
	"Sci-Fi & Fantasy":   10765,
	"Soap":               10766,
	"Talk":               10767,
	"War & Politics":     10768,
}

// genreNames is the inverse of genreIDs, built once at startup.
var genreNames = func() map[int]string {
	m := make(map[int]string, len(genreIDs))
	for name, id := range genreIDs {
		m[id] = name
	}
	return m
}()

// GenreID resolves a canonical genre name to its catalog ID.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[name]
	return id, ok
}

// GenreName resolves a catalog genre ID back to its canonical name.
func GenreName(id int) (string, bool) {
	name, ok := genreNames[id]
	return name, ok
}

// ResolveGenreIDs maps genre names to catalog IDs, skipping names with
// no mapping. Each skipped name is logged and counted so vocabulary
// drift between profile data and the catalog is visible.
func ResolveGenreIDs(names []string) []int {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, ok := genreIDs[name]
		if !ok {
			logging.Warn().Str("genre", name).Msg("Skipping genre with no catalog mapping")
			metrics.UnmappedGenresTotal.WithLabelValues(name).Inc()
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
