package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Graph      GraphConfig
	Classifier ClassifierConfig
	Places     PlacesConfig
	Logging    LoggingConfig
	Policy     Policy
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	// IdentityHeader carries the authenticated email set by the auth proxy.
	IdentityHeader string
	MaxUploadBytes int64
}

// DatabaseConfig describes the relational store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int
}

// GraphConfig describes connectivity to the collection graph (Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ClassifierConfig configures the image classifier.
type ClassifierConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// PlacesConfig configures the location search collaborator.
type PlacesConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 8080
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultIdentityHeader    = "X-User-Email"
	defaultMaxUploadBytes    = 10 << 20
	defaultLoggingLevel      = "info"
	defaultLoggingFormat     = "text"
	defaultGraphMaxSessions  = 10
	defaultDatabaseMaxConns  = 10
	defaultClassifierModel   = "gemini-1.5-flash"
	defaultClassifierTimeout = 20 * time.Second
	defaultPlacesBaseURL     = "https://maps.googleapis.com/maps/api/place"
	defaultPlacesTimeout     = 5 * time.Second
)

// Load reads configuration from environment variables, applying defaults.
// REWARDS_POLICY_FILE, when set, names a YAML file overriding the policy.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			MetricsEnabled:    parseBoolWithDefault("SERVER_METRICS_ENABLED", true),
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
			IdentityHeader:    valueOrDefault("SERVER_IDENTITY_HEADER", defaultIdentityHeader),
			MaxUploadBytes:    int64(parseIntWithDefault("SERVER_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: parseIntWithDefault("DATABASE_MAX_CONNS", defaultDatabaseMaxConns),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Classifier: ClassifierConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  valueOrDefault("GEMINI_MODEL", defaultClassifierModel),
		},
		Places: PlacesConfig{
			APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
			BaseURL: valueOrDefault("PLACES_BASE_URL", defaultPlacesBaseURL),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Policy: DefaultPolicy(),
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"CLASSIFIER_TIMEOUT", defaultClassifierTimeout, &cfg.Classifier.Timeout},
		{"PLACES_TIMEOUT", defaultPlacesTimeout, &cfg.Places.Timeout},
	}
	for _, d := range durations {
		value, err := parseDuration(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.target = value
	}

	if path := os.Getenv("REWARDS_POLICY_FILE"); path != "" {
		policy, err := LoadPolicy(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
