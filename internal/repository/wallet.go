package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// walletColumn maps a resource kind to its wallet column. The kind must
// be validated before it reaches SQL construction.
func walletColumn(kind model.ResourceKind) (string, error) {
	switch kind {
	case model.ResourceInfluence:
		return "influence", nil
	case model.ResourceMoney:
		return "money", nil
	case model.ResourceInformation:
		return "information", nil
	case model.ResourceForce:
		return "force", nil
	}
	return "", fmt.Errorf("unknown resource kind %q", kind)
}

// WalletRepository handles resource wallet persistence.
type WalletRepository struct {
	db Querier
}

// NewWalletRepository creates a new WalletRepository instance.
func NewWalletRepository(db Querier) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *WalletRepository) WithTx(tx pgx.Tx) *WalletRepository {
	return &WalletRepository{db: tx}
}

// Get retrieves a player's wallet.
func (r *WalletRepository) Get(ctx context.Context, playerID int64) (*model.Wallet, error) {
	const query = `
		SELECT player_id, influence, money, information, force
		FROM wallets
		WHERE player_id = $1
	`

	var w model.Wallet
	err := r.db.QueryRow(ctx, query, playerID).Scan(
		&w.PlayerID,
		&w.Influence,
		&w.Money,
		&w.Information,
		&w.Force,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// Credit adds amount of the given kind to a player's wallet and records
// it in the resource history. Amount must be positive.
func (r *WalletRepository) Credit(ctx context.Context, playerID int64, kind model.ResourceKind, amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	column, err := walletColumn(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE wallets
		SET %[1]s = %[1]s + $2
		WHERE player_id = $1
	`, column)

	tag, err := r.db.Exec(ctx, query, playerID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}

	return r.record(ctx, playerID, kind, amount, reason)
}

// Debit subtracts amount of the given kind from a player's wallet,
// refusing to go below zero. Returns ErrInsufficientFunds when the
// balance does not cover the amount.
func (r *WalletRepository) Debit(ctx context.Context, playerID int64, kind model.ResourceKind, amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	column, err := walletColumn(kind)
	if err != nil {
		return err
	}

	// Conditional update keeps the non-negative invariant without a
	// read-modify-write race.
	query := fmt.Sprintf(`
		UPDATE wallets
		SET %[1]s = %[1]s - $2
		WHERE player_id = $1 AND %[1]s >= $2
	`, column)

	tag, err := r.db.Exec(ctx, query, playerID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, eerr := r.walletExists(ctx, playerID)
		if eerr != nil {
			return eerr
		}
		if !exists {
			return ErrPlayerNotFound
		}
		return ErrInsufficientFunds
	}

	return r.record(ctx, playerID, kind, -amount, reason)
}

// DebitFloor subtracts up to amount, flooring the balance at zero instead
// of failing. Used by international effects, which take what is there.
func (r *WalletRepository) DebitFloor(ctx context.Context, playerID int64, kind model.ResourceKind, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	column, err := walletColumn(kind)
	if err != nil {
		return 0, err
	}

	// The prior balance is read in the same statement so the history row
	// records what was actually taken, not the requested amount.
	query := fmt.Sprintf(`
		WITH prior AS (
			SELECT %[1]s AS balance FROM wallets WHERE player_id = $1
		)
		UPDATE wallets
		SET %[1]s = GREATEST(0, wallets.%[1]s - $2)
		FROM prior
		WHERE wallets.player_id = $1
		RETURNING wallets.%[1]s, prior.balance
	`, column)

	var after, before int64
	if err := r.db.QueryRow(ctx, query, playerID, amount).Scan(&after, &before); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("failed to debit wallet: %w", err)
	}

	if taken := before - after; taken > 0 {
		if err := r.record(ctx, playerID, kind, -taken, reason); err != nil {
			return 0, err
		}
	}
	return after, nil
}

// record appends a resource history row.
func (r *WalletRepository) record(ctx context.Context, playerID int64, kind model.ResourceKind, amount int64, reason string) error {
	const query = `
		INSERT INTO resource_history (player_id, kind, amount, reason)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, playerID, kind, amount, reason); err != nil {
		return fmt.Errorf("failed to record resource history: %w", err)
	}
	return nil
}

func (r *WalletRepository) walletExists(ctx context.Context, playerID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM wallets WHERE player_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, playerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	return exists, nil
}

// History returns a player's most recent resource history entries.
func (r *WalletRepository) History(ctx context.Context, playerID int64, limit int) ([]*model.ResourceEntry, error) {
	const query = `
		SELECT id, player_id, kind, amount, reason, created_at
		FROM resource_history
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get resource history: %w", err)
	}
	defer rows.Close()

	var entries []*model.ResourceEntry
	for rows.Next() {
		var e model.ResourceEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Kind, &e.Amount, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resource history: %w", err)
	}
	return entries, nil
}
