package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// CycleRepository handles cycle persistence. A partial unique index on
// the open flag guarantees at most one open cycle.
type CycleRepository struct {
	db Querier
}

// NewCycleRepository creates a new CycleRepository instance.
func NewCycleRepository(db Querier) *CycleRepository {
	return &CycleRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *CycleRepository) WithTx(tx pgx.Tx) *CycleRepository {
	return &CycleRepository{db: tx}
}

const cycleColumns = `id, type, date, deadline, results_time, is_open, is_resolved, created_at`

func scanCycle(row pgx.Row) (*model.Cycle, error) {
	var c model.Cycle
	err := row.Scan(&c.ID, &c.Type, &c.Date, &c.Deadline, &c.ResultsTime, &c.IsOpen, &c.IsResolved, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetOpen returns the single open cycle, or ErrCycleNotFound when the
// world has none yet.
func (r *CycleRepository) GetOpen(ctx context.Context) (*model.Cycle, error) {
	const query = `SELECT ` + cycleColumns + ` FROM cycles WHERE is_open LIMIT 1`

	c, err := scanCycle(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, ErrCycleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get open cycle: %w", err)
	}
	return c, nil
}

// GetOpenForUpdate locks and returns the open cycle. Must run inside a
// transaction; serializes cycle advancement.
func (r *CycleRepository) GetOpenForUpdate(ctx context.Context) (*model.Cycle, error) {
	const query = `SELECT ` + cycleColumns + ` FROM cycles WHERE is_open LIMIT 1 FOR UPDATE`

	c, err := scanCycle(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, ErrCycleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock open cycle: %w", err)
	}
	return c, nil
}

// GetByID retrieves a cycle.
func (r *CycleRepository) GetByID(ctx context.Context, id int64) (*model.Cycle, error) {
	const query = `SELECT ` + cycleColumns + ` FROM cycles WHERE id = $1`

	c, err := scanCycle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrCycleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return c, nil
}

// Open inserts a new open cycle. Fails if another cycle is still open.
func (r *CycleRepository) Open(ctx context.Context, cycleType string, date time.Time, deadline, resultsTime time.Time) (*model.Cycle, error) {
	const query = `
		INSERT INTO cycles (type, date, deadline, results_time, is_open, is_resolved)
		VALUES ($1, $2, $3, $4, TRUE, FALSE)
		RETURNING ` + cycleColumns

	c, err := scanCycle(r.db.QueryRow(ctx, query, cycleType, date, deadline, resultsTime))
	if err != nil {
		return nil, fmt.Errorf("failed to open cycle: %w", err)
	}
	return c, nil
}

// MarkResolved closes an open cycle and flags it resolved.
func (r *CycleRepository) MarkResolved(ctx context.Context, id int64) error {
	const query = `
		UPDATE cycles
		SET is_open = FALSE, is_resolved = TRUE
		WHERE id = $1 AND is_open
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark cycle resolved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}
