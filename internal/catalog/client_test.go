// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/mraprguild/cinescout/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(&config.TMDBConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
	client.retryBaseDelay = time.Millisecond
	return client, srv
}

func TestSearchByTitleResolvesMovies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("expected api_key param, got %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "inception" {
			t.Errorf("expected query param, got %q", got)
		}
		fmt.Fprint(w, `{"page":1,"results":[
			{"id":27205,"title":"Inception","release_date":"2010-07-15","vote_average":8.4,"vote_count":34000,"genre_ids":[28,878]},
			{"id":12345,"title":"Inception: The Cobol Job","release_date":"2010-12-07","vote_average":7.0,"vote_count":500}
		]}`)
	}))

	items, err := client.SearchByTitle(context.Background(), KindMovie, "inception")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 results, got %d", len(items))
	}
	if items[0].Kind != KindMovie {
		t.Errorf("expected tagged movie kind, got %q", items[0].Kind)
	}
	if items[0].Title != "Inception" || items[0].ID != 27205 {
		t.Errorf("unexpected first result: %+v", items[0])
	}
	if items[0].ReleaseDate != "2010-07-15" {
		t.Errorf("unexpected release date %q", items[0].ReleaseDate)
	}
}

func TestSearchByTitleResolvesTVNameFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","vote_average":8.9}]}`)
	}))

	items, err := client.SearchByTitle(context.Background(), KindTV, "breaking bad")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 result, got %d", len(items))
	}
	if items[0].Kind != KindTV {
		t.Errorf("expected tv kind, got %q", items[0].Kind)
	}
	if items[0].Title != "Breaking Bad" {
		t.Errorf("TV name should map to Title, got %q", items[0].Title)
	}
	if items[0].ReleaseDate != "2008-01-20" {
		t.Errorf("first_air_date should map to ReleaseDate, got %q", items[0].ReleaseDate)
	}
}

func TestSearchTruncatesToTopTen(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[`)
		for i := 0; i < 15; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"title":"Movie %d"}`, i+1, i+1)
		}
		fmt.Fprint(w, `]}`)
	}))

	items, err := client.SearchByTitle(context.Background(), KindMovie, "movie")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}
	if len(items) != searchResultLimit {
		t.Errorf("expected %d results, got %d", searchResultLimit, len(items))
	}
}

func TestSearchRejectsUnknownKind(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made for an invalid kind")
	}))
	if _, err := client.SearchByTitle(context.Background(), Kind("podcast"), "x"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestGetTrendingFiltersNonContent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/all/week" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"results":[
			{"id":1,"title":"A Movie","media_type":"movie"},
			{"id":2,"name":"A Person","media_type":"person"},
			{"id":3,"name":"A Show","media_type":"tv","first_air_date":"2024-05-01"}
		]}`)
	}))

	items, err := client.GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected person entry filtered out, got %d items", len(items))
	}
	if items[0].Kind != KindMovie || items[1].Kind != KindTV {
		t.Errorf("unexpected kinds: %q, %q", items[0].Kind, items[1].Kind)
	}
	if items[1].Title != "A Show" || items[1].ReleaseDate != "2024-05-01" {
		t.Errorf("TV fields not resolved: %+v", items[1])
	}
}

func TestDiscoverBuildsQuery(t *testing.T) {
	var query url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		fmt.Fprint(w, `{"results":[]}`)
	}))

	if _, err := client.Discover(context.Background(), KindMovie, []int{28, 878}, 100); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if got := query.Get("with_genres"); got != "28|878" {
		t.Errorf("with_genres = %q, want any-of 28|878", got)
	}
	if got := query.Get("vote_count.gte"); got != "100" {
		t.Errorf("vote_count.gte = %q, want 100", got)
	}
	if got := query.Get("sort_by"); got != "vote_average.desc" {
		t.Errorf("sort_by = %q, want vote_average.desc", got)
	}
}

func TestGetDetailsExtractsCredits(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/27205" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("append_to_response"); got != "credits" {
			t.Errorf("expected credits appended, got %q", got)
		}
		fmt.Fprint(w, `{
			"id":27205,"title":"Inception","release_date":"2010-07-15","vote_average":8.4,"runtime":148,
			"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}],
			"credits":{
				"cast":[
					{"name":"Leonardo DiCaprio","character":"Cobb"},
					{"name":"Joseph Gordon-Levitt","character":"Arthur"},
					{"name":"Elliot Page","character":"Ariadne"},
					{"name":"Tom Hardy","character":"Eames"},
					{"name":"Ken Watanabe","character":"Saito"},
					{"name":"Dileep Rao","character":"Yusuf"}
				],
				"crew":[
					{"name":"Christopher Nolan","job":"Director"},
					{"name":"Hans Zimmer","job":"Original Music Composer"}
				]
			}
		}`)
	}))

	d, err := client.GetDetails(context.Background(), KindMovie, 27205)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if d.Title != "Inception" || d.Kind != KindMovie {
		t.Errorf("unexpected details: %+v", d.Content)
	}
	if len(d.Cast) != topCastSize {
		t.Errorf("expected cast truncated to %d, got %d", topCastSize, len(d.Cast))
	}
	if len(d.Directors) != 1 || d.Directors[0] != "Christopher Nolan" {
		t.Errorf("expected only Director crew entries, got %v", d.Directors)
	}
	if len(d.GenreNames) != 2 || d.GenreNames[1] != "Science Fiction" {
		t.Errorf("unexpected genre names %v", d.GenreNames)
	}
	if len(d.GenreIDs) != 2 || d.GenreIDs[0] != 28 {
		t.Errorf("unexpected genre IDs %v", d.GenreIDs)
	}
	if d.Runtime != 148 {
		t.Errorf("unexpected runtime %d", d.Runtime)
	}
}

func TestGetDetailsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetDetails(context.Background(), KindMovie, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRateLimitRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":1,"title":"Recovered"}]}`)
	}))

	items, err := client.GetPopular(context.Background(), KindMovie)
	if err != nil {
		t.Fatalf("GetPopular failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(items) != 1 || items[0].Title != "Recovered" {
		t.Errorf("unexpected items %v", items)
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	if _, err := client.GetPopular(context.Background(), KindMovie); err == nil {
		t.Error("expected error after retry exhaustion")
	}
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	client.retryBaseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetPopular(ctx, KindMovie)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
