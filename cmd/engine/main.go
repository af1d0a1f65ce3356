// Package main is the entry point for the political game engine daemon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"political-game-engine/internal/config"
	"political-game-engine/internal/engine"
	"political-game-engine/internal/pkg/db"
	"political-game-engine/internal/pkg/lock"
	"political-game-engine/internal/repository"
	"political-game-engine/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	playerRepo := repository.NewPlayerRepository(dbPool.Pool)
	walletRepo := repository.NewWalletRepository(dbPool.Pool)
	districtRepo := repository.NewDistrictRepository(dbPool.Pool)
	politicianRepo := repository.NewPoliticianRepository(dbPool.Pool)
	actionRepo := repository.NewActionRepository(dbPool.Pool)
	collectiveRepo := repository.NewCollectiveRepository(dbPool.Pool)
	cycleRepo := repository.NewCycleRepository(dbPool.Pool)
	effectRepo := repository.NewEffectRepository(dbPool.Pool)
	eventRepo := repository.NewEventRepository(dbPool.Pool)
	tradeRepo := repository.NewTradeRepository(dbPool.Pool)

	if err := seedWorld(ctx, districtRepo, politicianRepo); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed world data")
	}

	// Initialize services
	playerLock := lock.NewPlayerLock()
	rng := engine.NewRng(time.Now().UnixNano())
	schedule := engine.Schedule{
		MorningDeadlineHour: cfg.Cycle.MorningDeadlineHour,
		MorningResultsHour:  cfg.Cycle.MorningResultsHour,
		EveningDeadlineHour: cfg.Cycle.EveningDeadlineHour,
		EveningResultsHour:  cfg.Cycle.EveningResultsHour,
		Location:            time.Local,
	}

	cycleService := service.NewCycleService(dbPool, cycleRepo, playerRepo, schedule)
	eng := &service.Engine{
		Actions: service.NewActionService(dbPool, playerRepo, walletRepo, actionRepo,
			districtRepo, politicianRepo, cycleRepo, playerLock),
		Collectives: service.NewCollectiveService(dbPool, playerRepo, walletRepo,
			collectiveRepo, districtRepo, cycleRepo, playerLock),
		Cycles: cycleService,
		Effects: service.NewEffectService(effectRepo, politicianRepo, districtRepo,
			cycleRepo, eventRepo, rng,
			time.Duration(cfg.Game.EffectExpiryHours)*time.Hour, cfg.Game.MaxEffectsPerBatch),
		Trades: service.NewTradeService(dbPool, tradeRepo, walletRepo, playerRepo, playerLock),
		Resolution: service.NewResolutionService(dbPool, actionRepo, collectiveRepo,
			walletRepo, districtRepo, politicianRepo, effectRepo, playerRepo, eventRepo,
			cycleService, rng, cfg.Game.DecayPoints, cfg.Game.HandoffPenalty),
		Events: eventRepo,
	}

	if _, err := eng.Cycles.EnsureOpen(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to open bootstrap cycle")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runScheduler(ctx, eng.Cycles, eng.Resolution)
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Scheduler did not stop in time")
	}
	log.Info().Msg("Engine stopped")
}

// runScheduler sleeps until the open cycle's results time, runs the
// end-of-cycle pass, and repeats for the successor.
func runScheduler(ctx context.Context, cycles *service.CycleService, resolution *service.ResolutionService) {
	const retryDelay = 30 * time.Second

	for {
		cycle, err := cycles.EnsureOpen(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to get open cycle")
			if !sleep(ctx, retryDelay) {
				return
			}
			continue
		}

		if wait := time.Until(cycle.ResultsTime); wait > 0 {
			log.Info().
				Int64("cycle_id", cycle.ID).
				Str("type", cycle.Type).
				Dur("wait", wait).
				Msg("Waiting for results time")
			if !sleep(ctx, wait) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		report, err := resolution.RunEndOfCycle(ctx)
		if err != nil {
			log.Error().Err(err).Int64("cycle_id", cycle.ID).Msg("End-of-cycle pass failed")
			if !sleep(ctx, retryDelay) {
				return
			}
			continue
		}
		log.Info().
			Int64("cycle_id", report.CycleID).
			Int64("next_cycle_id", report.NextCycleID).
			Msg("End-of-cycle pass complete")
	}
}

// sleep waits for d or until the context is cancelled. Returns false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
