// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

// Package config provides layered configuration for CineScout.
//
// Configuration is loaded with Koanf v2 from three layers, later layers
// overriding earlier ones:
//
//  1. Built-in defaults
//  2. Optional YAML config file (CONFIG_PATH or a default search path)
//  3. Environment variables (TMDB_API_KEY, HTTP_PORT, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Store     StoreConfig     `koanf:"store"`
	Recommend RecommendConfig `koanf:"recommend"`
	Retention RetentionConfig `koanf:"retention"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// TMDBConfig contains catalog API client settings.
type TMDBConfig struct {
	// APIKey authenticates every catalog request. Required.
	APIKey string `koanf:"api_key"`

	// BaseURL is the catalog API base URL. Overridable for testing.
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig contains profile store settings.
type StoreConfig struct {
	// Path is the BadgerDB data directory.
	Path string `koanf:"path"`
}

// RecommendConfig contains recommendation engine settings.
type RecommendConfig struct {
	// MaxRecommendations is the default result count per request.
	MaxRecommendations int `koanf:"max_recommendations"`

	// MinVoteCountMovies is the discovery vote-count floor for movies.
	// Excludes low-sample ratings from genre-based discovery.
	MinVoteCountMovies int `koanf:"min_vote_count_movies"`

	// MinVoteCountTV is the discovery vote-count floor for TV shows.
	MinVoteCountTV int `koanf:"min_vote_count_tv"`

	// GeneratorTimeout bounds each candidate generator's catalog calls.
	GeneratorTimeout time.Duration `koanf:"generator_timeout"`
}

// RetentionConfig contains user-data retention settings.
type RetentionConfig struct {
	// Days is the age beyond which history and interaction entries are
	// removed. Stats and preference counters are never decremented.
	Days int `koanf:"days"`

	// SweepInterval is how often the retention pass runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// RateLimitConfig contains per-client API rate limiting settings.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}

	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("tmdb.base_url must not be empty")
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be positive, got %v", c.TMDB.Timeout)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}

	if c.Recommend.MaxRecommendations < 1 {
		return fmt.Errorf("recommend.max_recommendations must be positive, got %d", c.Recommend.MaxRecommendations)
	}
	if c.Recommend.MinVoteCountMovies < 0 {
		return fmt.Errorf("recommend.min_vote_count_movies must be non-negative, got %d", c.Recommend.MinVoteCountMovies)
	}
	if c.Recommend.MinVoteCountTV < 0 {
		return fmt.Errorf("recommend.min_vote_count_tv must be non-negative, got %d", c.Recommend.MinVoteCountTV)
	}
	if c.Recommend.GeneratorTimeout <= 0 {
		return fmt.Errorf("recommend.generator_timeout must be positive, got %v", c.Recommend.GeneratorTimeout)
	}

	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days must be non-negative, got %d", c.Retention.Days)
	}
	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention.sweep_interval must be positive, got %v", c.Retention.SweepInterval)
	}

	if c.RateLimit.Requests < 1 {
		return fmt.Errorf("rate_limit.requests must be positive, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %v", c.RateLimit.Window)
	}

	return nil
}
