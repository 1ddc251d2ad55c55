// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package profile

import (
	"context"
	"time"

	"github.com/mraprguild/cinescout/internal/config"
	"github.com/mraprguild/cinescout/internal/logging"
)

// Sweeper periodically removes history entries older than the
// configured retention window.
type Sweeper struct {
	store    *Store
	age      time.Duration
	interval time.Duration
}

// NewSweeper builds a retention sweeper from configuration.
func NewSweeper(store *Store, cfg *config.RetentionConfig) *Sweeper {
	return &Sweeper{
		store:    store,
		age:      time.Duration(cfg.Days) * 24 * time.Hour,
		interval: cfg.SweepInterval,
	}
}

// Run sweeps once immediately, then on every interval tick until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logging.Info().Dur("interval", s.interval).Dur("max_age", s.age).Msg("Retention sweeper started")

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Retention sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.age)
	users, entries := s.store.PurgeOlderThan(cutoff)
	if entries > 0 {
		logging.Info().Int("users", users).Int("entries", entries).Time("cutoff", cutoff).Msg("Retention sweep removed expired history")
	} else {
		logging.Debug().Time("cutoff", cutoff).Msg("Retention sweep found nothing to remove")
	}
}
