package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the service. Values resolve in
// precedence order: environment variables win over the YAML file, which wins
// over defaults.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	Provider       string `yaml:"provider"`
	GoogleAPIKey   string `yaml:"google_api_key"`
	ValhallaURL    string `yaml:"valhalla_url"`
	DistanceMetric string `yaml:"distance_metric"`

	MaxRouteStops        int     `yaml:"max_route_stops"`
	MaxMatrixElements    int     `yaml:"max_matrix_elements"`
	GridSearchTimeLimit  int     `yaml:"grid_search_time_limit"`
	VehiclePenalty       int64   `yaml:"vehicle_penalty"`
	CartographyRateLimit float64 `yaml:"cartography_rate_limit"`
	CacheTTLSeconds      int     `yaml:"cache_ttl_seconds"`
}

// Defaults mirror the Google provider limits: a Distance Matrix call is
// capped at 100 elements and a Directions call at 25 waypoints plus origin
// and destination.
func defaults() Config {
	return Config{
		Port:                 "8080",
		Provider:             "google",
		ValhallaURL:          "http://localhost:8002",
		DistanceMetric:       "meters",
		MaxRouteStops:        27,
		MaxMatrixElements:    100,
		GridSearchTimeLimit:  30,
		VehiclePenalty:       10000,
		CartographyRateLimit: 10,
		CacheTTLSeconds:      3600,
	}
}

// Load resolves the configuration. path may name a YAML file; an empty path
// or a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to env resolution
		case err != nil:
			return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("load config: parse %q: %w", path, err)
			}
		}
	}

	cfg.Port = Get("PORT", cfg.Port)
	cfg.DatabaseURL = Get("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = Get("REDIS_URL", cfg.RedisURL)
	cfg.Provider = Get("CARTOGRAPHY_PROVIDER", cfg.Provider)
	cfg.GoogleAPIKey = Get("GOOGLE_MAPS_API_KEY", cfg.GoogleAPIKey)
	cfg.ValhallaURL = Get("VALHALLA_URL", cfg.ValhallaURL)
	cfg.DistanceMetric = Get("DISTANCE_METRIC", cfg.DistanceMetric)

	var err error
	if cfg.MaxRouteStops, err = getInt("MAX_ROUTE_STOPS", cfg.MaxRouteStops); err != nil {
		return Config{}, err
	}
	if cfg.MaxMatrixElements, err = getInt("MAX_MATRIX_ELEMENTS", cfg.MaxMatrixElements); err != nil {
		return Config{}, err
	}
	if cfg.GridSearchTimeLimit, err = getInt("GRID_SEARCH_TIME_LIMIT", cfg.GridSearchTimeLimit); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTLSeconds, err = getInt("CACHE_TTL_SECONDS", cfg.CacheTTLSeconds); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("VEHICLE_PENALTY"); v != "" {
		penalty, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("load config: VEHICLE_PENALTY: %w", err)
		}
		cfg.VehiclePenalty = penalty
	}
	if v := os.Getenv("CARTOGRAPHY_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("load config: CARTOGRAPHY_RATE_LIMIT: %w", err)
		}
		cfg.CartographyRateLimit = rps
	}

	return cfg, nil
}

// Get returns an environment variable or a fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	return n, nil
}
