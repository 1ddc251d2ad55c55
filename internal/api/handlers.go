// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mraprguild/cinescout/internal/catalog"
	"github.com/mraprguild/cinescout/internal/profile"
	"github.com/mraprguild/cinescout/internal/recommend"
)

// Handler serves the recommendation API.
type Handler struct {
	engine    *recommend.Engine
	store     *profile.Store
	catalog   catalog.Catalog
	startTime time.Time
}

// NewHandler creates the API handler set.
func NewHandler(engine *recommend.Engine, store *profile.Store, cat catalog.Catalog) *Handler {
	return &Handler{
		engine:    engine,
		store:     store,
		catalog:   cat,
		startTime: time.Now(),
	}
}

// kindParam resolves the {kind} URL parameter.
func kindParam(r *http.Request) (catalog.Kind, error) {
	return catalog.ParseKind(chi.URLParam(r, "kind"))
}

// kindQuery resolves the optional ?kind= query parameter, defaulting
// to movies.
func kindQuery(r *http.Request) (catalog.Kind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return catalog.KindMovie, nil
	}
	return catalog.ParseKind(raw)
}

func idParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// respondCatalogError maps catalog failures onto API errors.
func respondCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
		return
	}
	respondError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "Content catalog is unavailable", err)
}

// Recommendations returns personalized recommendations for a user.
// GET /api/v1/recommendations/user/{userID}?limit=N
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "MISSING_USER", "User ID is required", nil)
		return
	}
	limit := getIntParam(r, "limit", 0)

	results := h.engine.Recommend(r.Context(), userID, limit)
	respondData(w, http.StatusOK, results, len(results))
}

// Similar returns content related to one item.
// GET /api/v1/recommendations/similar/{kind}/{id}?limit=N
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Content ID must be an integer", nil)
		return
	}

	results, err := h.engine.RecommendSimilarTo(r.Context(), kind, id, getIntParam(r, "limit", 0))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondData(w, http.StatusOK, results, len(results))
}

// ByGenre returns well-voted content in a named genre.
// GET /api/v1/recommendations/genre/{genre}?kind=movie&limit=N
func (h *Handler) ByGenre(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	kind, err := kindQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}

	// An unknown genre name comes back as an empty (not failed) result.
	results, err := h.engine.RecommendByGenre(r.Context(), genre, kind, getIntParam(r, "limit", 0))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondData(w, http.StatusOK, results, len(results))
}

// Search searches the catalog by title. When a user_id is supplied the
// search lands in that user's history.
// GET /api/v1/search?query=...&kind=movie&user_id=alice
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, http.StatusBadRequest, "MISSING_QUERY", "Search query is required", nil)
		return
	}
	kind, err := kindQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}

	results, err := h.catalog.SearchByTitle(r.Context(), kind, query)
	if err != nil {
		respondCatalogError(w, err)
		return
	}

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		displayName := r.URL.Query().Get("display_name")
		firstName := r.URL.Query().Get("first_name")
		if displayName != "" || firstName != "" {
			h.store.TouchActivity(userID, displayName, firstName)
		}
		h.store.RecordSearch(userID, query, kind)
	}
	respondData(w, http.StatusOK, results, len(results))
}

// ContentDetails returns full details for one item. When a user_id is
// supplied the view counts as an interaction and feeds that user's
// preference counters.
// GET /api/v1/content/{kind}/{id}?user_id=alice
func (h *Handler) ContentDetails(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Content ID must be an integer", nil)
		return
	}

	details, err := h.catalog.GetDetails(r.Context(), kind, id)
	if err != nil {
		respondCatalogError(w, err)
		return
	}

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		h.store.RecordInteraction(userID, details)
	}
	respondData(w, http.StatusOK, details, 1)
}

// favoriteRequest is the AddFavorite request body.
type favoriteRequest struct {
	Kind string `json:"kind"`
	ID   int    `json:"id"`
}

// AddFavorite saves a content item to the user's favorites.
// POST /api/v1/users/{userID}/favorites
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON with kind and id", nil)
		return
	}
	kind, err := catalog.ParseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}

	// Resolve through the catalog so the stored favorite carries its
	// title, and so bogus IDs are rejected instead of saved.
	details, err := h.catalog.GetDetails(r.Context(), kind, req.ID)
	if err != nil {
		respondCatalogError(w, err)
		return
	}

	added := h.store.AddFavorite(userID, details.Content)
	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	respondData(w, status, map[string]bool{"added": added}, 1)
}

// RemoveFavorite deletes a favorite.
// DELETE /api/v1/users/{userID}/favorites/{kind}/{id}
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	kind, err := kindParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Content ID must be an integer", nil)
		return
	}

	if !h.store.RemoveFavorite(userID, kind, id) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Favorite not found", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"removed": true}, 1)
}

// Favorites lists a user's saved content.
// GET /api/v1/users/{userID}/favorites
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	favorites := []profile.Favorite{}
	if p, ok := h.store.GetProfile(userID); ok {
		favorites = p.Favorites
	}
	respondData(w, http.StatusOK, favorites, len(favorites))
}

// profileSummary is the public projection of a stored profile. Raw
// histories stay internal; the summary exposes the aggregates a client
// can show the user.
type profileSummary struct {
	UserID        string        `json:"user_id"`
	DisplayName   string        `json:"display_name,omitempty"`
	FirstName     string        `json:"first_name,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	LastActive    time.Time     `json:"last_active"`
	TopGenres     []string      `json:"top_genres"`
	PreferredKind catalog.Kind  `json:"preferred_kind"`
	FavoriteCount int           `json:"favorite_count"`
	Stats         profile.Stats `json:"stats"`
}

// Profile returns a user's preference summary.
// GET /api/v1/users/{userID}/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	p, ok := h.store.GetProfile(userID)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No profile for this user", nil)
		return
	}

	respondData(w, http.StatusOK, &profileSummary{
		UserID:        p.UserID,
		DisplayName:   p.DisplayName,
		FirstName:     p.FirstName,
		CreatedAt:     p.CreatedAt,
		LastActive:    p.LastActive,
		TopGenres:     p.TopGenres(5),
		PreferredKind: p.PreferredKind(),
		FavoriteCount: len(p.Favorites),
		Stats:         p.Stats,
	}, 1)
}

// History returns a user's interaction history in chronological order,
// optionally filtered to one content kind.
// GET /api/v1/users/{userID}/history?kind=tv&limit=N
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var kind catalog.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		var err error
		if kind, err = catalog.ParseKind(raw); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
			return
		}
	}

	entries := h.store.InteractionHistory(userID, kind, getIntParam(r, "limit", 0))
	if entries == nil {
		entries = []profile.InteractionEntry{}
	}
	respondData(w, http.StatusOK, entries, len(entries))
}

// Popular returns the catalog's currently popular content.
// GET /api/v1/popular?kind=movie
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	kind, err := kindQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_KIND", "Content kind must be movie or tv", nil)
		return
	}

	items, err := h.catalog.GetPopular(r.Context(), kind)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondData(w, http.StatusOK, items, len(items))
}

// Trending returns this week's trending movies and shows.
// GET /api/v1/trending
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.GetTrending(r.Context())
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondData(w, http.StatusOK, items, len(items))
}

// Stats returns service-level statistics.
// GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"users":          h.store.UserCount(),
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}, 1)
}

// Health reports service liveness.
// GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"}, 1)
}
