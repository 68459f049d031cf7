package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/spellbee/internal/game"
)

var envKeys = []string{
	"PORT", "APP_ENV", "CLIENT_ORIGIN", "LOG_LEVEL", "LOG_FORMAT",
	"JWT_SECRET", "COOKIE_NAME", "ANON_COOKIE_NAME",
	"STORE_DRIVER", "DB_PATH", "BADGER_PATH",
	"WORDS_FILE", "RANKS_FILE", "DAILY_SALT", "PUZZLE_TIMEZONE",
	"PUZZLE_MIN_WORDS", "PUZZLE_MAX_WORDS", "PUZZLE_MIN_PANGRAMS",
	"PUZZLE_REQUIRE_PERFECT_PANGRAM", "PUZZLE_MAX_ATTEMPTS",
	"SCORE_MIN_LENGTH", "SCORE_SHORT_WORD_POINTS", "SCORE_PANGRAM_BONUS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LEADERBOARD_LIMIT",
}

// load clears the environment first; an empty value reads as unset.
func load(t *testing.T) *Config {
	t.Helper()
	for _, k := range envKeys {
		if _, set := os.LookupEnv(k); set {
			t.Setenv(k, "")
		}
	}
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t)

	assert.Equal(t, "5175", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, game.DefaultScoring(), cfg.Scoring)
	assert.Equal(t, 20, cfg.Leaderboard.Limit)
	assert.NoError(t, cfg.Validate())

	gen := cfg.Generator()
	def := game.DefaultGeneratorConfig()
	assert.Equal(t, def.Bounds, gen.Bounds)
	assert.Equal(t, def.MaxAttempts, gen.MaxAttempts)
	assert.NoError(t, gen.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "badger")
	t.Setenv("PUZZLE_MIN_WORDS", "10")
	t.Setenv("PUZZLE_REQUIRE_PERFECT_PANGRAM", "true")
	t.Setenv("SCORE_PANGRAM_BONUS", "10")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("PUZZLE_TIMEZONE", "America/New_York")
	t.Setenv("LEADERBOARD_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Puzzle.MinWords)
	assert.True(t, cfg.Puzzle.RequirePerfectPangram)
	assert.Equal(t, 10, cfg.Scoring.PangramBonus)
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, 20, cfg.Leaderboard.Limit, "unparseable values fall back")

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := load(t)
	cfg.Server.Env = "staging"
	cfg.Store.Driver = "postgres"
	cfg.Puzzle.MaxWords = 1
	cfg.Puzzle.Timezone = "Mars/Olympus"
	cfg.RateLimit.Burst = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, name := range []string{"APP_ENV", "STORE_DRIVER", "PUZZLE_MAX_WORDS", "PUZZLE_TIMEZONE", "RATE_LIMIT_BURST"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidate_ProductionSecrets(t *testing.T) {
	cfg := load(t)
	cfg.Server.Env = "production"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DAILY_SALT")

	cfg.Auth.JWTSecret = "s3cret"
	cfg.Puzzle.Salt = "pepper"
	assert.NoError(t, cfg.Validate())
}
