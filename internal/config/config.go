// Package config loads server configuration from the environment.
//
// Every setting has a development default; Validate reports every bad value
// at once, naming the environment variable responsible.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // PUZZLE_TIMEZONE must resolve in minimal containers

	"github.com/robalobadob/spellbee/internal/game"
)

const (
	devJWTSecret = "dev_secret_change_me"
	devSalt      = "local_dev_salt"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Auth        AuthConfig
	Store       StoreConfig
	Puzzle      PuzzleConfig
	Scoring     game.Scoring
	RateLimit   RateLimitConfig
	Leaderboard LeaderboardConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	Env          string // development | production | test
	ClientOrigin string
}

// LogConfig selects zerolog level and output.
type LogConfig struct {
	Level  string
	Format string // json | console
}

// AuthConfig holds JWT and cookie settings.
type AuthConfig struct {
	JWTSecret      string
	CookieName     string
	AnonCookieName string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver     string // sqlite | badger | memory
	DBPath     string
	BadgerPath string
}

// PuzzleConfig drives daily generation.
type PuzzleConfig struct {
	WordsFile             string // empty: embedded corpus
	RanksFile             string // empty: embedded ladder
	Salt                  string
	Timezone              string
	MinWords              int
	MaxWords              int
	MinPangrams           int
	RequirePerfectPangram bool
	MaxAttempts           int
}

// RateLimitConfig bounds guesses per player.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LeaderboardConfig bounds leaderboard responses.
type LeaderboardConfig struct {
	Limit int
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5175"),
			Env:          getEnv("APP_ENV", "development"),
			ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
			CookieName:     getEnv("COOKIE_NAME", "spellbee_token"),
			AnonCookieName: getEnv("ANON_COOKIE_NAME", "spellbee_anon"),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", "sqlite"),
			DBPath:     getEnv("DB_PATH", "./data/app.db"),
			BadgerPath: getEnv("BADGER_PATH", "./data/badger"),
		},
		Puzzle: PuzzleConfig{
			WordsFile:             getEnv("WORDS_FILE", ""),
			RanksFile:             getEnv("RANKS_FILE", ""),
			Salt:                  getEnv("DAILY_SALT", devSalt),
			Timezone:              getEnv("PUZZLE_TIMEZONE", "UTC"),
			MinWords:              getIntEnv("PUZZLE_MIN_WORDS", 20),
			MaxWords:              getIntEnv("PUZZLE_MAX_WORDS", 60),
			MinPangrams:           getIntEnv("PUZZLE_MIN_PANGRAMS", 1),
			RequirePerfectPangram: getBoolEnv("PUZZLE_REQUIRE_PERFECT_PANGRAM", false),
			MaxAttempts:           getIntEnv("PUZZLE_MAX_ATTEMPTS", 500),
		},
		Scoring: game.Scoring{
			MinLength:       getIntEnv("SCORE_MIN_LENGTH", 4),
			ShortWordPoints: getIntEnv("SCORE_SHORT_WORD_POINTS", 1),
			PangramBonus:    getIntEnv("SCORE_PANGRAM_BONUS", 7),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloatEnv("RATE_LIMIT_RPS", 5),
			Burst: getIntEnv("RATE_LIMIT_BURST", 10),
		},
		Leaderboard: LeaderboardConfig{
			Limit: getIntEnv("LEADERBOARD_LIMIT", 20),
		},
	}, nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// Location resolves PUZZLE_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Puzzle.Timezone)
}

// Generator converts the puzzle and scoring settings for game.NewGenerator.
func (c *Config) Generator() game.GeneratorConfig {
	return game.GeneratorConfig{
		Salt: c.Puzzle.Salt,
		Bounds: game.Bounds{
			MinWords:              c.Puzzle.MinWords,
			MaxWords:              c.Puzzle.MaxWords,
			MinPangrams:           c.Puzzle.MinPangrams,
			RequirePerfectPangram: c.Puzzle.RequirePerfectPangram,
		},
		MaxAttempts: c.Puzzle.MaxAttempts,
		Scoring:     c.Scoring,
	}
}

// Validate checks that all configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch c.Server.Env {
	case "development", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got '%s'", c.Log.Format))
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == devJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if c.Puzzle.Salt == devSalt {
			errs = append(errs, errors.New("DAILY_SALT must be set in production"))
		}
	}
	if c.Auth.CookieName == "" || c.Auth.AnonCookieName == "" {
		errs = append(errs, errors.New("COOKIE_NAME and ANON_COOKIE_NAME must be non-empty"))
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required when STORE_DRIVER is sqlite"))
		}
	case "badger":
		if c.Store.BadgerPath == "" {
			errs = append(errs, errors.New("BADGER_PATH is required when STORE_DRIVER is badger"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be 'sqlite', 'badger', or 'memory', got '%s'", c.Store.Driver))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("PUZZLE_TIMEZONE: %w", err))
	}
	if c.Puzzle.MinWords < 1 {
		errs = append(errs, errors.New("PUZZLE_MIN_WORDS must be positive"))
	}
	if c.Puzzle.MaxWords < c.Puzzle.MinWords {
		errs = append(errs, errors.New("PUZZLE_MAX_WORDS must be >= PUZZLE_MIN_WORDS"))
	}
	if c.Puzzle.MinPangrams < 1 {
		errs = append(errs, errors.New("PUZZLE_MIN_PANGRAMS must be positive"))
	}
	if c.Puzzle.MaxAttempts < 1 {
		errs = append(errs, errors.New("PUZZLE_MAX_ATTEMPTS must be positive"))
	}
	if c.Scoring.MinLength < 1 {
		errs = append(errs, errors.New("SCORE_MIN_LENGTH must be positive"))
	}
	if c.Scoring.ShortWordPoints < 0 || c.Scoring.PangramBonus < 0 {
		errs = append(errs, errors.New("SCORE_SHORT_WORD_POINTS and SCORE_PANGRAM_BONUS must not be negative"))
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.Leaderboard.Limit < 1 {
		errs = append(errs, errors.New("LEADERBOARD_LIMIT must be positive"))
	}

	return errors.Join(errs...)
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
