package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

const playerColumns = `id, name, ideology, main_actions_left, quick_actions_left, is_admin, created_at, updated_at`

// PlayerRepository handles player persistence.
type PlayerRepository struct {
	db Querier
}

// NewPlayerRepository creates a new PlayerRepository instance.
func NewPlayerRepository(db Querier) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *PlayerRepository) WithTx(tx pgx.Tx) *PlayerRepository {
	return &PlayerRepository{db: tx}
}

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var p model.Player
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Ideology,
		&p.MainActionsLeft,
		&p.QuickActionsLeft,
		&p.IsAdmin,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create registers a new player with full quotas and an empty wallet row.
func (r *PlayerRepository) Create(ctx context.Context, name string, ideology int) (*model.Player, error) {
	const query = `
		INSERT INTO players (name, ideology, main_actions_left, quick_actions_left)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + playerColumns

	p, err := scanPlayer(r.db.QueryRow(ctx, query, name, ideology,
		model.MainActionsPerCycle, model.QuickActionsPerCycle))
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	const walletQuery = `INSERT INTO wallets (player_id) VALUES ($1) ON CONFLICT DO NOTHING`
	if _, err := r.db.Exec(ctx, walletQuery, p.ID); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return p, nil
}

// GetByID retrieves a player. Returns ErrPlayerNotFound if absent.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*model.Player, error) {
	const query = `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// Exists checks if a player with the given ID exists.
func (r *PlayerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check player existence: %w", err)
	}
	return exists, nil
}

// List returns all players.
func (r *PlayerRepository) List(ctx context.Context) ([]*model.Player, error) {
	const query = `SELECT ` + playerColumns + ` FROM players ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

// ConsumeQuota decrements a player's remaining quota in the given class.
// Returns false when the class is exhausted.
func (r *PlayerRepository) ConsumeQuota(ctx context.Context, playerID int64, isQuick bool) (bool, error) {
	column := "main_actions_left"
	if isQuick {
		column = "quick_actions_left"
	}
	query := fmt.Sprintf(`
		UPDATE players
		SET %[1]s = %[1]s - 1, updated_at = NOW()
		WHERE id = $1 AND %[1]s > 0
	`, column)

	tag, err := r.db.Exec(ctx, query, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to consume quota: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RestoreQuota returns one quota unit to a player after a cancellation.
func (r *PlayerRepository) RestoreQuota(ctx context.Context, playerID int64, isQuick bool) error {
	column := "main_actions_left"
	limit := model.MainActionsPerCycle
	if isQuick {
		column = "quick_actions_left"
		limit = model.QuickActionsPerCycle
	}
	query := fmt.Sprintf(`
		UPDATE players
		SET %[1]s = LEAST(%[1]s + 1, $2), updated_at = NOW()
		WHERE id = $1
	`, column)

	if _, err := r.db.Exec(ctx, query, playerID, limit); err != nil {
		return fmt.Errorf("failed to restore quota: %w", err)
	}
	return nil
}

// ResetAllQuotas refills every player's quotas. Called on cycle transition.
func (r *PlayerRepository) ResetAllQuotas(ctx context.Context) error {
	const query = `
		UPDATE players
		SET main_actions_left = $1, quick_actions_left = $2, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query,
		model.MainActionsPerCycle, model.QuickActionsPerCycle); err != nil {
		return fmt.Errorf("failed to reset quotas: %w", err)
	}
	return nil
}
