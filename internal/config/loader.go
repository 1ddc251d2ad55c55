// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/mraprguild/cinescout/internal/logging"
)

const defaultConfigPath = "config/cinescout.yaml"

// envMapping maps environment variables to config keys. Only listed
// variables are consulted, which keeps unrelated environment noise out
// of the configuration.
var envMapping = map[string]string{
	"HTTP_HOST":                "server.host",
	"HTTP_PORT":                "server.port",
	"HTTP_TIMEOUT":             "server.timeout",
	"TMDB_API_KEY":             "tmdb.api_key",
	"TMDB_BASE_URL":            "tmdb.base_url",
	"TMDB_TIMEOUT":             "tmdb.timeout",
	"STORE_PATH":               "store.path",
	"MAX_RECOMMENDATIONS":      "recommend.max_recommendations",
	"MIN_VOTE_COUNT_MOVIES":    "recommend.min_vote_count_movies",
	"MIN_VOTE_COUNT_TV":        "recommend.min_vote_count_tv",
	"GENERATOR_TIMEOUT":        "recommend.generator_timeout",
	"RETENTION_DAYS":           "retention.days",
	"RETENTION_SWEEP_INTERVAL": "retention.sweep_interval",
	"RATE_LIMIT_REQUESTS":      "rate_limit.requests",
	"RATE_LIMIT_WINDOW":        "rate_limit.window",
	"LOG_LEVEL":                "logging.level",
	"LOG_FORMAT":               "logging.format",
	"LOG_CALLER":               "logging.caller",
}

// Defaults returns the built-in default configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: "data/profiles",
		},
		Recommend: RecommendConfig{
			MaxRecommendations: 10,
			MinVoteCountMovies: 100,
			MinVoteCountTV:     50,
			GeneratorTimeout:   8 * time.Second,
		},
		Retention: RetentionConfig{
			Days:          90,
			SweepInterval: 12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults.
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Layer 2: optional YAML file.
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		logging.Debug().Str("path", path).Msg("No config file found, using defaults")
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envMapping[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
