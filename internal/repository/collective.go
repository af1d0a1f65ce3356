package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// CollectiveRepository handles collective actions and their participants.
type CollectiveRepository struct {
	db Querier
}

// NewCollectiveRepository creates a new CollectiveRepository instance.
func NewCollectiveRepository(db Querier) *CollectiveRepository {
	return &CollectiveRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *CollectiveRepository) WithTx(tx pgx.Tx) *CollectiveRepository {
	return &CollectiveRepository{db: tx}
}

const collectiveColumns = `id, initiator_id, type, district_id, target_player_id,
	cycle_id, status, outcome, created_at, updated_at`

func scanCollective(row pgx.Row) (*model.CollectiveAction, error) {
	var c model.CollectiveAction
	err := row.Scan(
		&c.ID, &c.InitiatorID, &c.Type, &c.DistrictID, &c.TargetPlayerID,
		&c.CycleID, &c.Status, &c.Outcome, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollectiveNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create opens a collective action in active status.
func (r *CollectiveRepository) Create(ctx context.Context, c *model.CollectiveAction) (*model.CollectiveAction, error) {
	const query = `
		INSERT INTO collective_actions (initiator_id, type, district_id, target_player_id, cycle_id, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING ` + collectiveColumns

	created, err := scanCollective(r.db.QueryRow(ctx, query,
		c.InitiatorID, c.Type, c.DistrictID, c.TargetPlayerID, c.CycleID))
	if err != nil {
		return nil, fmt.Errorf("failed to create collective action: %w", err)
	}
	return created, nil
}

// GetByID retrieves a collective action.
func (r *CollectiveRepository) GetByID(ctx context.Context, id int64) (*model.CollectiveAction, error) {
	const query = `SELECT ` + collectiveColumns + ` FROM collective_actions WHERE id = $1`

	c, err := scanCollective(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrCollectiveNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get collective action: %w", err)
	}
	return c, nil
}

// GetByIDForUpdate locks and returns a collective action. Must run inside
// a transaction; serializes joins against resolution.
func (r *CollectiveRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.CollectiveAction, error) {
	const query = `SELECT ` + collectiveColumns + ` FROM collective_actions
		WHERE id = $1 FOR UPDATE`

	c, err := scanCollective(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrCollectiveNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock collective action: %w", err)
	}
	return c, nil
}

// ListActive returns all active collective actions in creation order.
func (r *CollectiveRepository) ListActive(ctx context.Context) ([]*model.CollectiveAction, error) {
	const query = `SELECT ` + collectiveColumns + ` FROM collective_actions
		WHERE status = 'active'
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active collective actions: %w", err)
	}
	defer rows.Close()

	var actions []*model.CollectiveAction
	for rows.Next() {
		c, err := scanCollective(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collective action: %w", err)
		}
		actions = append(actions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collective actions: %w", err)
	}
	return actions, nil
}

// AddParticipant records a player's contribution. Each player may join a
// collective action at most once; the primary key enforces it and a
// duplicate surfaces as ErrDuplicateJoin.
func (r *CollectiveRepository) AddParticipant(ctx context.Context, p *model.CollectiveParticipant) error {
	const query = `
		INSERT INTO collective_participants
			(collective_action_id, player_id, resource_kind, resource_amount, physical_presence)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		p.CollectiveActionID, p.PlayerID, p.ResourceKind, p.ResourceAmount, p.PhysicalPresence)
	if err != nil {
		if uniqueViolation(err) {
			return ErrDuplicateJoin
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// HasParticipant reports whether the player already joined.
func (r *CollectiveRepository) HasParticipant(ctx context.Context, collectiveID, playerID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM collective_participants
		WHERE collective_action_id = $1 AND player_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, collectiveID, playerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// ListParticipants returns a collective action's participants in join
// order.
func (r *CollectiveRepository) ListParticipants(ctx context.Context, collectiveID int64) ([]model.CollectiveParticipant, error) {
	const query = `
		SELECT collective_action_id, player_id, resource_kind, resource_amount,
			physical_presence, credited_points, created_at
		FROM collective_participants
		WHERE collective_action_id = $1
		ORDER BY created_at, player_id
	`

	rows, err := r.db.Query(ctx, query, collectiveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var parts []model.CollectiveParticipant
	for rows.Next() {
		var p model.CollectiveParticipant
		err := rows.Scan(&p.CollectiveActionID, &p.PlayerID, &p.ResourceKind,
			&p.ResourceAmount, &p.PhysicalPresence, &p.CreditedPoints, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return parts, nil
}

// SetParticipantCredit records the control points credited to one
// participant at resolution.
func (r *CollectiveRepository) SetParticipantCredit(ctx context.Context, collectiveID, playerID, points int64) error {
	const query = `
		UPDATE collective_participants
		SET credited_points = $3
		WHERE collective_action_id = $1 AND player_id = $2
	`

	if _, err := r.db.Exec(ctx, query, collectiveID, playerID, points); err != nil {
		return fmt.Errorf("failed to set participant credit: %w", err)
	}
	return nil
}

// Complete marks an active collective action completed with its outcome.
func (r *CollectiveRepository) Complete(ctx context.Context, id int64, outcome string) error {
	const query = `
		UPDATE collective_actions
		SET status = 'completed', outcome = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	tag, err := r.db.Exec(ctx, query, id, outcome)
	if err != nil {
		return fmt.Errorf("failed to complete collective action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCollectiveNotFound
	}
	return nil
}
