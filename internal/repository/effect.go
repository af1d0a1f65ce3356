package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// EffectRepository handles international effect persistence.
type EffectRepository struct {
	db Querier
}

// NewEffectRepository creates a new EffectRepository instance.
func NewEffectRepository(db Querier) *EffectRepository {
	return &EffectRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *EffectRepository) WithTx(tx pgx.Tx) *EffectRepository {
	return &EffectRepository{db: tx}
}

const effectColumns = `id, politician_id, type, district_id, ideology_filter,
	control_delta, resource_kind, resource_delta, expires_at, created_at`

func scanEffect(row pgx.Row) (*model.InternationalEffect, error) {
	var e model.InternationalEffect
	err := row.Scan(
		&e.ID, &e.PoliticianID, &e.Type, &e.DistrictID, &e.IdeologyFilter,
		&e.ControlDelta, &e.ResourceKind, &e.ResourceDelta, &e.ExpiresAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create stores a generated effect.
func (r *EffectRepository) Create(ctx context.Context, e *model.InternationalEffect) (*model.InternationalEffect, error) {
	const query = `
		INSERT INTO international_effects
			(politician_id, type, district_id, ideology_filter, control_delta,
			 resource_kind, resource_delta, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + effectColumns

	created, err := scanEffect(r.db.QueryRow(ctx, query,
		e.PoliticianID, e.Type, e.DistrictID, e.IdeologyFilter, e.ControlDelta,
		e.ResourceKind, e.ResourceDelta, e.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create international effect: %w", err)
	}
	return created, nil
}

// ListUnexpired returns effects still active at the given instant.
func (r *EffectRepository) ListUnexpired(ctx context.Context, now time.Time) ([]*model.InternationalEffect, error) {
	const query = `SELECT ` + effectColumns + ` FROM international_effects
		WHERE expires_at > $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list unexpired effects: %w", err)
	}
	defer rows.Close()

	var effects []*model.InternationalEffect
	for rows.Next() {
		e, err := scanEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan effect: %w", err)
		}
		effects = append(effects, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating effects: %w", err)
	}
	return effects, nil
}

// PruneExpired deletes effects past their expiry. Returns the number of
// rows removed.
func (r *EffectRepository) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM international_effects WHERE expires_at <= $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired effects: %w", err)
	}
	return tag.RowsAffected(), nil
}
