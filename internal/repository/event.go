package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// EventRepository stores structured outcome records. It is the durable
// half of the event sink; delivery and rendering belong to collaborators
// reading from it.
type EventRepository struct {
	db Querier
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(db Querier) *EventRepository {
	return &EventRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *EventRepository) WithTx(tx pgx.Tx) *EventRepository {
	return &EventRepository{db: tx}
}

// Publish appends one event record.
func (r *EventRepository) Publish(ctx context.Context, e *model.GameEvent) error {
	const query = `
		INSERT INTO game_events (player_id, cycle_id, kind, body)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Exec(ctx, query, e.PlayerID, e.CycleID, e.Kind, e.Body); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// ListForPlayer returns a player's events plus public events, newest
// first.
func (r *EventRepository) ListForPlayer(ctx context.Context, playerID int64, limit int) ([]*model.GameEvent, error) {
	const query = `
		SELECT id, player_id, cycle_id, kind, body, created_at
		FROM game_events
		WHERE player_id = $1 OR player_id IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*model.GameEvent
	for rows.Next() {
		var e model.GameEvent
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.CycleID, &e.Kind, &e.Body, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}
