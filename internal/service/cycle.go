package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"political-game-engine/internal/engine"
	"political-game-engine/internal/model"
	"political-game-engine/internal/pkg/db"
	"political-game-engine/internal/repository"
)

// CycleInfo describes the open cycle for callers.
type CycleInfo struct {
	Cycle          *model.Cycle
	SubmissionOpen bool
	TimeToDeadline time.Duration
	TimeToResults  time.Duration
}

// CycleService manages the cycle state machine: one open cycle at a
// time, deterministic succession, quota resets on advance.
type CycleService struct {
	pool     *db.Pool
	cycles   *repository.CycleRepository
	players  *repository.PlayerRepository
	schedule engine.Schedule
	now      func() time.Time
}

// NewCycleService creates a new CycleService instance.
func NewCycleService(
	pool *db.Pool,
	cycles *repository.CycleRepository,
	players *repository.PlayerRepository,
	schedule engine.Schedule,
) *CycleService {
	return &CycleService{
		pool:     pool,
		cycles:   cycles,
		players:  players,
		schedule: schedule,
		now:      time.Now,
	}
}

// GetCycleInfo reports the open cycle, whether submissions are still
// accepted, and the time remaining to the deadline and results.
func (s *CycleService) GetCycleInfo(ctx context.Context) (*CycleInfo, error) {
	cycle, err := s.cycles.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return nil, stateErr("no cycle is open")
		}
		return nil, processing("get cycle info", err)
	}

	now := s.now()
	return &CycleInfo{
		Cycle:          cycle,
		SubmissionOpen: engine.SubmissionOpen(cycle, now),
		TimeToDeadline: cycle.Deadline.Sub(now),
		TimeToResults:  cycle.ResultsTime.Sub(now),
	}, nil
}

// EnsureOpen opens the bootstrap cycle when the world has none yet and
// returns the open cycle. Safe to call on every startup.
func (s *CycleService) EnsureOpen(ctx context.Context) (*model.Cycle, error) {
	cycle, err := s.cycles.GetOpen(ctx)
	if err == nil {
		return cycle, nil
	}
	if !errors.Is(err, repository.ErrCycleNotFound) {
		return nil, processing("ensure open cycle", err)
	}

	w := s.schedule.Bootstrap(s.now())
	cycle, err = s.cycles.Open(ctx, w.Type, w.Date, w.Deadline, w.ResultsTime)
	if err != nil {
		return nil, processing("ensure open cycle", err)
	}

	log.Info().
		Int64("cycle_id", cycle.ID).
		Str("type", cycle.Type).
		Time("deadline", cycle.Deadline).
		Msg("Bootstrap cycle opened")

	return cycle, nil
}

// Advance closes the cycle with the given ID and opens its deterministic
// successor, resetting every player's quotas, all in one transaction.
// This is the only way a new open cycle follows an existing one; the
// partial unique index on the open flag makes a double advance fail
// rather than fork the timeline.
func (s *CycleService) Advance(ctx context.Context, closedID int64) (*model.Cycle, error) {
	var next *model.Cycle
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := s.cycles.WithTx(tx).GetOpenForUpdate(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrCycleNotFound) {
				return stateErr("no cycle is open")
			}
			return fmt.Errorf("failed to lock open cycle: %w", err)
		}
		if current.ID != closedID {
			return stateErr("cycle %d is not the open cycle (open is %d)", closedID, current.ID)
		}

		if err := s.cycles.WithTx(tx).MarkResolved(ctx, current.ID); err != nil {
			return fmt.Errorf("failed to close cycle: %w", err)
		}

		w := s.schedule.Successor(current)
		next, err = s.cycles.WithTx(tx).Open(ctx, w.Type, w.Date, w.Deadline, w.ResultsTime)
		if err != nil {
			return fmt.Errorf("failed to open successor cycle: %w", err)
		}

		if err := s.players.WithTx(tx).ResetAllQuotas(ctx); err != nil {
			return fmt.Errorf("failed to reset quotas: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("advance cycle", err)
	}

	log.Info().
		Int64("closed_cycle_id", closedID).
		Int64("next_cycle_id", next.ID).
		Str("next_type", next.Type).
		Msg("Cycle advanced")

	return next, nil
}
