// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

// Package catalog provides access to the external content catalog
// (a TMDB-compatible API). All raw catalog responses are resolved into
// tagged Content values at this boundary: every item carries an explicit
// Kind, so downstream code never has to infer movie-vs-TV from which
// fields happen to be populated.
package catalog

import "fmt"

// Kind identifies the content type of a catalog item.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// ParseKind validates a content kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMovie, KindTV:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// Valid reports whether k is a known content kind.
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindTV
}

// Content is a catalog item normalized across movies and TV shows.
// Title holds the movie title or the TV show name; ReleaseDate holds
// the release date or the first air date, always as "YYYY-MM-DD" (may
// be empty for unreleased or sparse entries).
type Content struct {
	ID          int     `json:"id"`
	Kind        Kind    `json:"kind"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	GenreIDs    []int   `json:"genre_ids"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	PosterPath  string  `json:"poster_path"`
}

// Details extends Content with fields only present on the detail
// endpoint: resolved genre names, top-billed cast, and directors
// extracted from the crew list.
type Details struct {
	Content

	GenreNames []string `json:"genres"`
	Cast       []string `json:"cast"`
	Directors  []string `json:"directors"`
	Runtime    int      `json:"runtime,omitempty"`
	Seasons    int      `json:"seasons,omitempty"`
	Tagline    string   `json:"tagline,omitempty"`
}
