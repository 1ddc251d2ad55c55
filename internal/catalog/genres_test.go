// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import "testing"

func TestGenreIDLookup(t *testing.T) {
	tests := []struct {
		name   string
		wantID int
	}{
		{"Action", 28},
		{"Science Fiction", 878},
		{"Sci-Fi & Fantasy", 10765},
		{"War & Politics", 10768},
		{"Western", 37},
	}
	for _, tt := range tests {
		id, ok := GenreID(tt.name)
		if !ok {
			t.Errorf("GenreID(%q) not found", tt.name)
			continue
		}
		if id != tt.wantID {
			t.Errorf("GenreID(%q) = %d, want %d", tt.name, id, tt.wantID)
		}
	}
}

func TestGenreLookupIsBidirectional(t *testing.T) {
	for name, id := range genreIDs {
		got, ok := GenreName(id)
		if !ok {
			t.Errorf("GenreName(%d) not found for %q", id, name)
			continue
		}
		if got != name {
			t.Errorf("GenreName(%d) = %q, want %q", id, got, name)
		}
	}
	if len(genreNames) != len(genreIDs) {
		t.Errorf("inverse map has %d entries, want %d", len(genreNames), len(genreIDs))
	}
}

func TestGenreIDUnknownName(t *testing.T) {
	if _, ok := GenreID("Telenovela"); ok {
		t.Error("expected unknown genre name to miss")
	}
	if _, ok := GenreName(99999); ok {
		t.Error("expected unknown genre ID to miss")
	}
}

func TestResolveGenreIDsSkipsUnmapped(t *testing.T) {
	ids := ResolveGenreIDs([]string{"Action", "Telenovela", "Drama"})
	want := []int{28, 18}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestResolveGenreIDsEmpty(t *testing.T) {
	if ids := ResolveGenreIDs(nil); len(ids) != 0 {
		t.Errorf("expected empty result, got %v", ids)
	}
}
