// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

// Package recommend builds personalized movie and TV recommendations
// from a user's taste profile and the content catalog.
//
// Candidates come from four profile-driven generators (genre
// discovery, similar-content expansion, popular-in-genre, trending),
// each contributing items at a fixed base score that encodes how much
// the source says about this specific user. Candidates are then
// deduplicated, cleared against the user's interaction history,
// boosted by quality signals, and ranked.
package recommend

import "github.com/mraprguild/cinescout/internal/catalog"

// Candidate sources, in descending order of personalization strength.
const (
	sourceGenreBased     = "genre_based"
	sourceSimilarContent = "similar_content"
	sourcePopularGenre   = "popular_genre"
	sourceTrending       = "trending"
)

// Fallback sources used when a user has no profile to personalize
// from.
const (
	sourceTrendingFallback  = "trending_fallback"
	sourcePopularFallback   = "popular_fallback"
	sourcePopularTVFallback = "popular_tv_fallback"
)

// Base scores per source. A higher base means the source is more
// specific to the user's demonstrated taste.
const (
	scoreGenreBased     = 0.8
	scoreSimilarContent = 0.7
	scorePopularGenre   = 0.6
	scoreTrendingMatch  = 0.5
	scoreTrendingOther  = 0.4
	scoreFallback       = 0.3
)

// Quality boosts applied on top of the base score. The final score is
// clamped to 1.0.
const (
	boostHighRating   = 0.2  // vote average >= 8
	boostGoodRating   = 0.1  // vote average >= 7
	boostManyVotes    = 0.1  // vote count >= 1000
	boostSomeVotes    = 0.05 // vote count >= 500
	boostRecent       = 0.05 // released within the last two years
	recentYearsWindow = 2
)

// Recommendation is one ranked result. Score is the generator's base
// score; FinalScore adds the quality boosts and is what results are
// ordered by.
type Recommendation struct {
	catalog.Content

	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	FinalScore float64 `json:"final_score"`
}
