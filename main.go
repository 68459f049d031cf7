package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/spellbee/assets"
	"github.com/robalobadob/spellbee/internal/config"
	"github.com/robalobadob/spellbee/internal/daily"
	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/httpserver"
	"github.com/robalobadob/spellbee/internal/words"
)

const (
	sweepEvery   = 10 * time.Minute
	limiterIdle  = 30 * time.Minute
	shutdownWait = 10 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	dict, err := loadDictionary(cfg.Puzzle.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	stats := dict.Stats()
	log.Info().Int("words", stats.Words).Int("pangramSets", stats.PangramMasks).Msg("dictionary loaded")

	ranks, err := loadRanks(cfg.Puzzle.RanksFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load rank ladder")
	}

	gen, err := game.NewGenerator(dict, cfg.Generator())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid generator settings")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid PUZZLE_TIMEZONE")
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	puzzles := daily.NewService(gen, st, loc, time.Now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fail fast: a corpus that cannot satisfy the bounds never will.
	p, err := puzzles.Today(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot generate today's puzzle; adjust PUZZLE_* bounds or WORDS_FILE")
	}
	log.Info().Str("date", p.Seed).Str("center", p.Center).Int("words", len(p.ValidWords)).Msg("today's puzzle ready")

	srv := httpserver.New(httpserver.Options{
		ClientOrigin:     cfg.Server.ClientOrigin,
		Production:       cfg.IsProduction(),
		JWTSecret:        cfg.Auth.JWTSecret,
		CookieName:       cfg.Auth.CookieName,
		AnonCookieName:   cfg.Auth.AnonCookieName,
		RateRPS:          cfg.RateLimit.RPS,
		RateBurst:        cfg.RateLimit.Burst,
		LeaderboardLimit: cfg.Leaderboard.Limit,
	}, httpserver.Deps{
		Dict:    dict,
		Puzzles: puzzles,
		Store:   st,
		Ranks:   ranks,
	})

	go func() {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				srv.Sweep(ctx, limiterIdle)
			}
		}
	}()

	hs := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("starting spellbee server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(c config.LogConfig) {
	if lvl, err := zerolog.ParseLevel(c.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func loadDictionary(path string) (*words.Dictionary, error) {
	if path == "" {
		return words.LoadDefault()
	}
	return words.LoadFile(path)
}

func loadRanks(path string) (game.Ranks, error) {
	if path != "" {
		return game.LoadRanksFile(path)
	}
	data, err := assets.Ranks()
	if err != nil {
		return nil, err
	}
	return game.ParseRanks(data)
}
