package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/dbconfig"
	"github.com/skyfall-games/skyfall/internal/match"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	matchCfg := match.DefaultConfig()
	if path := getEnv("CONFIG_PATH", ""); path != "" {
		fileCfg, err := loadConfig(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load config")
		}
		matchCfg = fileCfg.matchConfig()
	}

	var pool *pgxpool.Pool
	if getEnvAsBool("STANDINGS_ENABLED", false) {
		dbCfg := dbconfig.NewConfigFromEnv()
		p, err := pgxpool.New(context.Background(), dbCfg.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		pool = p
		log.Info().Str("database", dbCfg.Database).Msg("standings persistence enabled")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	services, err := setupServices(matchCfg, pool, rng)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}

	server := setupServer(services)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Gateway.Start(ctx)
	if services.Relay != nil {
		go services.Relay.Start(ctx)
		defer services.Relay.Close()
	}

	go func() {
		if err := services.Session.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("session loop failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	time.Sleep(1 * time.Second)

	log.Info().Msg("server shutdown complete")
}
