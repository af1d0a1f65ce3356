package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// PoliticianRepository handles politician reference data and player
// relations.
type PoliticianRepository struct {
	db Querier
}

// NewPoliticianRepository creates a new PoliticianRepository instance.
func NewPoliticianRepository(db Querier) *PoliticianRepository {
	return &PoliticianRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *PoliticianRepository) WithTx(tx pgx.Tx) *PoliticianRepository {
	return &PoliticianRepository{db: tx}
}

const politicianColumns = `id, name, scope, district_id, country, ideology, district_influence`

func scanPolitician(row pgx.Row) (*model.Politician, error) {
	var p model.Politician
	err := row.Scan(&p.ID, &p.Name, &p.Scope, &p.DistrictID, &p.Country, &p.Ideology, &p.DistrictInfluence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPoliticianNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Seed inserts a politician.
func (r *PoliticianRepository) Seed(ctx context.Context, p *model.Politician) (*model.Politician, error) {
	const query = `
		INSERT INTO politicians (name, scope, district_id, country, ideology, district_influence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + politicianColumns

	seeded, err := scanPolitician(r.db.QueryRow(ctx, query,
		p.Name, p.Scope, p.DistrictID, p.Country, p.Ideology, p.DistrictInfluence))
	if err != nil {
		return nil, fmt.Errorf("failed to seed politician: %w", err)
	}
	return seeded, nil
}

// GetByID retrieves a politician. Returns ErrPoliticianNotFound if absent.
func (r *PoliticianRepository) GetByID(ctx context.Context, id int64) (*model.Politician, error) {
	const query = `SELECT ` + politicianColumns + ` FROM politicians WHERE id = $1`

	p, err := scanPolitician(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrPoliticianNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get politician: %w", err)
	}
	return p, nil
}

// Exists checks if a politician with the given ID exists.
func (r *PoliticianRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM politicians WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check politician existence: %w", err)
	}
	return exists, nil
}

// ListInternational returns all international politicians.
func (r *PoliticianRepository) ListInternational(ctx context.Context) ([]*model.Politician, error) {
	const query = `SELECT ` + politicianColumns + ` FROM politicians
		WHERE scope = 'international' ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list international politicians: %w", err)
	}
	defer rows.Close()

	var politicians []*model.Politician
	for rows.Next() {
		p, err := scanPolitician(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan politician: %w", err)
		}
		politicians = append(politicians, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating politicians: %w", err)
	}
	return politicians, nil
}

// AdjustInfluence moves a politician's district influence score, floored
// at zero.
func (r *PoliticianRepository) AdjustInfluence(ctx context.Context, id, delta int64) error {
	const query = `
		UPDATE politicians
		SET district_influence = GREATEST(0, district_influence + $2)
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust politician influence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPoliticianNotFound
	}
	return nil
}

// GetRelation retrieves a player's relation with a politician, creating
// it at the default friendliness on first access.
func (r *PoliticianRepository) GetRelation(ctx context.Context, playerID, politicianID int64) (*model.PoliticianRelation, error) {
	const query = `
		INSERT INTO politician_relations (player_id, politician_id, friendliness)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, politician_id) DO UPDATE SET player_id = EXCLUDED.player_id
		RETURNING player_id, politician_id, friendliness, updated_at
	`

	var rel model.PoliticianRelation
	err := r.db.QueryRow(ctx, query, playerID, politicianID, model.DefaultFriendliness).Scan(
		&rel.PlayerID,
		&rel.PoliticianID,
		&rel.Friendliness,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get politician relation: %w", err)
	}
	return &rel, nil
}

// AdjustFriendliness moves a relation's friendliness, clamped to 0..100,
// creating the relation at the default on first touch.
func (r *PoliticianRepository) AdjustFriendliness(ctx context.Context, playerID, politicianID int64, delta int) (int, error) {
	const query = `
		INSERT INTO politician_relations (player_id, politician_id, friendliness)
		VALUES ($1, $2, LEAST(100, GREATEST(0, $3 + $4)))
		ON CONFLICT (player_id, politician_id) DO UPDATE SET
			friendliness = LEAST(100, GREATEST(0, politician_relations.friendliness + $4)),
			updated_at = NOW()
		RETURNING friendliness
	`

	var friendliness int
	err := r.db.QueryRow(ctx, query, playerID, politicianID, model.DefaultFriendliness, delta).Scan(&friendliness)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust friendliness: %w", err)
	}
	return friendliness, nil
}
