// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package recommend

import (
	"sort"
	"strconv"
	"time"

	"github.com/mraprguild/cinescout/internal/catalog"
	"github.com/mraprguild/cinescout/internal/profile"
)

// qualityBoost computes the score bonus from catalog-wide quality
// signals: vote average, vote count, and recency. The boost is
// independent of the user; personalization lives in the base score.
func qualityBoost(c *catalog.Content, now time.Time) float64 {
	boost := 0.0

	switch {
	case c.VoteAverage >= 8:
		boost += boostHighRating
	case c.VoteAverage >= 7:
		boost += boostGoodRating
	}

	switch {
	case c.VoteCount >= 1000:
		boost += boostManyVotes
	case c.VoteCount >= 500:
		boost += boostSomeVotes
	}

	// Release dates are "YYYY-MM-DD"; an unparseable or empty date
	// simply earns no recency boost.
	if len(c.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(c.ReleaseDate[:4]); err == nil {
			if now.Year()-year <= recentYearsWindow {
				boost += boostRecent
			}
		}
	}

	return boost
}

// finalScore applies the quality boost to a base score, clamped to 1.
func finalScore(base float64, c *catalog.Content, now time.Time) float64 {
	score := base + qualityBoost(c, now)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// rank merges candidate lists into a ranked result set.
//
// Candidates are processed in slice order, so earlier (more
// personalized) sources win duplicates. Items the user has already
// interacted with are dropped. The sort is stable and descending on
// FinalScore: equal-scored items keep their source-priority order.
func rank(candidates []Recommendation, seen map[profile.ContentKey]struct{}, limit int, now time.Time) []Recommendation {
	taken := make(map[profile.ContentKey]struct{}, len(candidates))
	ranked := make([]Recommendation, 0, len(candidates))

	for _, c := range candidates {
		key := profile.ContentKey{Kind: c.Kind, ID: c.ID}
		if _, dup := taken[key]; dup {
			continue
		}
		if _, interacted := seen[key]; interacted {
			continue
		}
		taken[key] = struct{}{}

		c.FinalScore = finalScore(c.Score, &c.Content, now)
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// dedupeFirst drops duplicate content keys keeping the earliest
// occurrence and truncates to limit. Input order and base scores are
// preserved unchanged; no quality boost applies.
func dedupeFirst(candidates []Recommendation, limit int) []Recommendation {
	taken := make(map[profile.ContentKey]struct{}, len(candidates))
	out := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		key := profile.ContentKey{Kind: c.Kind, ID: c.ID}
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		c.FinalScore = c.Score
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

// asCandidates tags catalog items with a source and base score,
// keeping at most max items.
func asCandidates(items []catalog.Content, source string, score float64, max int) []Recommendation {
	if len(items) > max {
		items = items[:max]
	}
	out := make([]Recommendation, 0, len(items))
	for _, item := range items {
		out = append(out, Recommendation{
			Content: item,
			Source:  source,
			Score:   score,
		})
	}
	return out
}
