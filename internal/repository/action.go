package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// ActionRepository handles single-player action persistence.
type ActionRepository struct {
	db Querier
}

// NewActionRepository creates a new ActionRepository instance.
func NewActionRepository(db Querier) *ActionRepository {
	return &ActionRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *ActionRepository) WithTx(tx pgx.Tx) *ActionRepository {
	return &ActionRepository{db: tx}
}

const actionColumns = `id, player_id, type, is_quick, cycle_id, district_id,
	target_player_id, target_politician_id, resource_kind, resource_amount,
	physical_presence, status, outcome, control_delta, created_at, updated_at`

func scanAction(row pgx.Row) (*model.Action, error) {
	var a model.Action
	err := row.Scan(
		&a.ID, &a.PlayerID, &a.Type, &a.IsQuick, &a.CycleID, &a.DistrictID,
		&a.TargetPlayerID, &a.TargetPolitician, &a.ResourceKind, &a.ResourceAmount,
		&a.PhysicalPresence, &a.Status, &a.Outcome, &a.ControlDelta, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrActionNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create records a pending action. The resource cost has already been
// debited by the caller.
func (r *ActionRepository) Create(ctx context.Context, a *model.Action) (*model.Action, error) {
	const query = `
		INSERT INTO actions (player_id, type, is_quick, cycle_id, district_id,
			target_player_id, target_politician_id, resource_kind, resource_amount,
			physical_presence, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending')
		RETURNING ` + actionColumns

	created, err := scanAction(r.db.QueryRow(ctx, query,
		a.PlayerID, a.Type, a.IsQuick, a.CycleID, a.DistrictID,
		a.TargetPlayerID, a.TargetPolitician, a.ResourceKind, a.ResourceAmount,
		a.PhysicalPresence))
	if err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}
	return created, nil
}

// GetByID retrieves an action.
func (r *ActionRepository) GetByID(ctx context.Context, id int64) (*model.Action, error) {
	const query = `SELECT ` + actionColumns + ` FROM actions WHERE id = $1`

	a, err := scanAction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrActionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return a, nil
}

// ListPendingByCycle returns the cycle's pending actions in creation
// order, the order the resolution engine processes them.
func (r *ActionRepository) ListPendingByCycle(ctx context.Context, cycleID int64) ([]*model.Action, error) {
	const query = `SELECT ` + actionColumns + ` FROM actions
		WHERE cycle_id = $1 AND status = 'pending'
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}
	defer rows.Close()

	var actions []*model.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}
	return actions, nil
}

// CountByClass counts a player's non-cancelled actions of one class in a
// cycle. This is the authoritative quota check.
func (r *ActionRepository) CountByClass(ctx context.Context, playerID, cycleID int64, isQuick bool) (int, error) {
	const query = `
		SELECT COUNT(*) FROM actions
		WHERE player_id = $1 AND cycle_id = $2 AND is_quick = $3 AND status <> 'cancelled'
	`

	var count int
	if err := r.db.QueryRow(ctx, query, playerID, cycleID, isQuick).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

// Complete marks a pending action completed with its outcome text and
// computed control delta. Completed rows are immutable, so the update is
// guarded on the pending status.
func (r *ActionRepository) Complete(ctx context.Context, id int64, outcome string, controlDelta int64) error {
	const query = `
		UPDATE actions
		SET status = 'completed', outcome = $2, control_delta = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, outcome, controlDelta)
	if err != nil {
		return fmt.Errorf("failed to complete action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// LatestPendingForUpdate locks and returns the player's newest pending
// action. Must run inside a transaction.
func (r *ActionRepository) LatestPendingForUpdate(ctx context.Context, playerID int64) (*model.Action, error) {
	const query = `SELECT ` + actionColumns + ` FROM actions
		WHERE player_id = $1 AND status = 'pending'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE`

	a, err := scanAction(r.db.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, ErrActionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get latest pending action: %w", err)
	}
	return a, nil
}

// Cancel marks a pending action cancelled. The refund is the caller's
// responsibility, inside the same transaction.
func (r *ActionRepository) Cancel(ctx context.Context, id int64) error {
	const query = `
		UPDATE actions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}
