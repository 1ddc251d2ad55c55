// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mraprguild/cinescout/internal/config"
	"github.com/mraprguild/cinescout/internal/metrics"
)

// Result set truncation. Search-like endpoints keep the first page's
// top 10 results; browse endpoints (popular, trending, discover) keep
// up to 20.
const (
	searchResultLimit = 10
	browseResultLimit = 20
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// topCastSize is how many top-billed cast members GetDetails keeps.
const topCastSize = 5

// Catalog is the read-side interface to the external content catalog.
//
// Implemented by Client for production use and by mock implementations
// in tests. All methods resolve raw results into tagged Content values,
// accept a context for cancellation, and are safe for concurrent use.
type Catalog interface {
	SearchByTitle(ctx context.Context, kind Kind, query string) ([]Content, error)
	GetDetails(ctx context.Context, kind Kind, id int) (*Details, error)
	GetPopular(ctx context.Context, kind Kind) ([]Content, error)
	GetTrending(ctx context.Context) ([]Content, error)
	GetSimilar(ctx context.Context, kind Kind, id int) ([]Content, error)
	GetRecommendedFor(ctx context.Context, kind Kind, id int) ([]Content, error)
	Discover(ctx context.Context, kind Kind, genreIDs []int, minVoteCount int) ([]Content, error)
}

// Client talks to a TMDB-compatible catalog API.
//
// Rate limiting (HTTP 429) is handled with exponential backoff
// (1s, 2s, 4s, 8s, 16s), honoring the Retry-After header when present.
// Requests are retried at most 5 times before giving up.
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a catalog API client from configuration.
func NewClient(cfg *config.TMDBConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// readBodyForError reads a bounded portion of the response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// doRequestWithRateLimit performs a GET with automatic 429 handling.
// The context is used for cancellation during backoff waits.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		// 1s, 2s, 4s, 8s, 16s
		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// makeRequest performs a catalog GET request and decodes the JSON
// response into result. The API key is added to every request.
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	start := time.Now()
	err := c.doMakeRequest(ctx, endpoint, params, result)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordCatalogRequest(endpoint, outcome, time.Since(start))
	return err
}

func (c *Client) doMakeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// listItem is the wire shape of a single entry in a catalog list
// response. Movie and TV entries differ in field names (title vs name,
// release_date vs first_air_date); both shapes decode into this one
// struct and are resolved into a tagged Content immediately.
type listItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	GenreIDs     []int   `json:"genre_ids"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	PosterPath   string  `json:"poster_path"`
	MediaType    string  `json:"media_type"`
}

// listResponse is the wire shape of paginated catalog list endpoints.
type listResponse struct {
	Page         int        `json:"page"`
	Results      []listItem `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

// toContent resolves a wire list item into a tagged Content of the
// given kind.
func (it *listItem) toContent(kind Kind) Content {
	title := it.Title
	release := it.ReleaseDate
	if kind == KindTV {
		title = it.Name
		release = it.FirstAirDate
	}
	return Content{
		ID:          it.ID,
		Kind:        kind,
		Title:       title,
		Overview:    it.Overview,
		GenreIDs:    it.GenreIDs,
		ReleaseDate: release,
		VoteAverage: it.VoteAverage,
		VoteCount:   it.VoteCount,
		Popularity:  it.Popularity,
		PosterPath:  it.PosterPath,
	}
}

// resolveList converts wire items of a known kind to Content, keeping
// at most limit entries in API order.
func resolveList(items []listItem, kind Kind, limit int) []Content {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]Content, 0, len(items))
	for i := range items {
		out = append(out, items[i].toContent(kind))
	}
	return out
}

// SearchByTitle searches the catalog by title within one content kind,
// returning the top results in catalog relevance order.
func (c *Client) SearchByTitle(ctx context.Context, kind Kind, query string) ([]Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("search: unknown content kind %q", kind)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	var resp listResponse
	if err := c.makeRequest(ctx, "/search/"+string(kind), params, &resp); err != nil {
		return nil, err
	}
	return resolveList(resp.Results, kind, searchResultLimit), nil
}

// GetPopular returns the current most popular content of one kind.
func (c *Client) GetPopular(ctx context.Context, kind Kind) ([]Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("popular: unknown content kind %q", kind)
	}
	var resp listResponse
	if err := c.makeRequest(ctx, fmt.Sprintf("/%s/popular", kind), nil, &resp); err != nil {
		return nil, err
	}
	return resolveList(resp.Results, kind, browseResultLimit), nil
}

// GetTrending returns this week's trending movies and TV shows, mixed.
// Entries whose media_type is neither movie nor tv (people, for one)
// are dropped.
func (c *Client) GetTrending(ctx context.Context) ([]Content, error) {
	var resp listResponse
	if err := c.makeRequest(ctx, "/trending/all/week", nil, &resp); err != nil {
		return nil, err
	}

	out := make([]Content, 0, browseResultLimit)
	for i := range resp.Results {
		kind, err := ParseKind(resp.Results[i].MediaType)
		if err != nil {
			continue
		}
		out = append(out, resp.Results[i].toContent(kind))
		if len(out) == browseResultLimit {
			break
		}
	}
	return out, nil
}

// GetSimilar returns content similar to the given item.
func (c *Client) GetSimilar(ctx context.Context, kind Kind, id int) ([]Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("similar: unknown content kind %q", kind)
	}
	var resp listResponse
	if err := c.makeRequest(ctx, fmt.Sprintf("/%s/%d/similar", kind, id), nil, &resp); err != nil {
		return nil, err
	}
	return resolveList(resp.Results, kind, searchResultLimit), nil
}

// GetRecommendedFor returns the catalog's own recommendations for the
// given item. These are behavior-derived and complement GetSimilar's
// metadata-derived results.
func (c *Client) GetRecommendedFor(ctx context.Context, kind Kind, id int) ([]Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("recommendations: unknown content kind %q", kind)
	}
	var resp listResponse
	if err := c.makeRequest(ctx, fmt.Sprintf("/%s/%d/recommendations", kind, id), nil, &resp); err != nil {
		return nil, err
	}
	return resolveList(resp.Results, kind, searchResultLimit), nil
}

// Discover returns popular content matching any of the given genre IDs
// with at least minVoteCount votes. The vote floor keeps low-sample
// ratings out of discovery results.
func (c *Client) Discover(ctx context.Context, kind Kind, genreIDs []int, minVoteCount int) ([]Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("discover: unknown content kind %q", kind)
	}
	ids := make([]string, len(genreIDs))
	for i, id := range genreIDs {
		ids[i] = strconv.Itoa(id)
	}

	// "|" asks for any-of genre matching; "," would demand all of them.
	params := url.Values{}
	params.Set("with_genres", strings.Join(ids, "|"))
	params.Set("sort_by", "vote_average.desc")
	params.Set("vote_count.gte", strconv.Itoa(minVoteCount))

	var resp listResponse
	if err := c.makeRequest(ctx, "/discover/"+string(kind), params, &resp); err != nil {
		return nil, err
	}
	return resolveList(resp.Results, kind, browseResultLimit), nil
}

// detailsResponse is the wire shape of the detail endpoint with
// appended credits.
type detailsResponse struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	PosterPath   string  `json:"poster_path"`
	Runtime      int     `json:"runtime"`
	Seasons      int     `json:"number_of_seasons"`
	Tagline      string  `json:"tagline"`

	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`

	Credits struct {
		Cast []struct {
			Name      string `json:"name"`
			Character string `json:"character"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// GetDetails returns full details for one item, including resolved
// genre names, the top-billed cast, and directors.
func (c *Client) GetDetails(ctx context.Context, kind Kind, id int) (*Details, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("details: unknown content kind %q", kind)
	}
	params := url.Values{}
	params.Set("append_to_response", "credits")

	var resp detailsResponse
	if err := c.makeRequest(ctx, fmt.Sprintf("/%s/%d", kind, id), params, &resp); err != nil {
		return nil, err
	}

	title := resp.Title
	release := resp.ReleaseDate
	if kind == KindTV {
		title = resp.Name
		release = resp.FirstAirDate
	}

	d := &Details{
		Content: Content{
			ID:          resp.ID,
			Kind:        kind,
			Title:       title,
			Overview:    resp.Overview,
			ReleaseDate: release,
			VoteAverage: resp.VoteAverage,
			VoteCount:   resp.VoteCount,
			Popularity:  resp.Popularity,
			PosterPath:  resp.PosterPath,
		},
		Runtime: resp.Runtime,
		Seasons: resp.Seasons,
		Tagline: resp.Tagline,
	}
	for _, g := range resp.Genres {
		d.GenreIDs = append(d.GenreIDs, g.ID)
		d.GenreNames = append(d.GenreNames, g.Name)
	}
	for i, member := range resp.Credits.Cast {
		if i == topCastSize {
			break
		}
		d.Cast = append(d.Cast, member.Name)
	}
	for _, member := range resp.Credits.Crew {
		if member.Job == "Director" {
			d.Directors = append(d.Directors, member.Name)
		}
	}
	return d, nil
}
