package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
	"political-game-engine/internal/pkg/db"
)

// inTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func inTx(ctx context.Context, pool *db.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EventSink receives structured outcome records. The repository-backed
// sink persists them; tests may capture them in memory. Publication is
// best effort and happens after the owning transaction commits.
type EventSink interface {
	Publish(ctx context.Context, e *model.GameEvent) error
}
