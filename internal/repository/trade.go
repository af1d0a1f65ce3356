package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// TradeRepository handles trade offer persistence.
type TradeRepository struct {
	db Querier
}

// NewTradeRepository creates a new TradeRepository instance.
func NewTradeRepository(db Querier) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *TradeRepository) WithTx(tx pgx.Tx) *TradeRepository {
	return &TradeRepository{db: tx}
}

const tradeColumns = `id, seller_id, buyer_id, offered_kind, offered_qty,
	wanted_kind, wanted_qty, status, created_at, updated_at`

func scanTrade(row pgx.Row) (*model.TradeOffer, error) {
	var t model.TradeOffer
	err := row.Scan(
		&t.ID, &t.SellerID, &t.BuyerID, &t.OfferedKind, &t.OfferedQty,
		&t.WantedKind, &t.WantedQty, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create stores an open offer. The escrow debit happens in the same
// transaction at the service layer.
func (r *TradeRepository) Create(ctx context.Context, t *model.TradeOffer) (*model.TradeOffer, error) {
	const query = `
		INSERT INTO trade_offers (seller_id, offered_kind, offered_qty, wanted_kind, wanted_qty, status)
		VALUES ($1, $2, $3, $4, $5, 'open')
		RETURNING ` + tradeColumns

	created, err := scanTrade(r.db.QueryRow(ctx, query,
		t.SellerID, t.OfferedKind, t.OfferedQty, t.WantedKind, t.WantedQty))
	if err != nil {
		return nil, fmt.Errorf("failed to create trade offer: %w", err)
	}
	return created, nil
}

// GetByIDForUpdate locks and returns an offer. Must run inside a
// transaction; serializes settlement against cancellation.
func (r *TradeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.TradeOffer, error) {
	const query = `SELECT ` + tradeColumns + ` FROM trade_offers WHERE id = $1 FOR UPDATE`

	t, err := scanTrade(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock trade offer: %w", err)
	}
	return t, nil
}

// ListOpen returns open offers, newest first.
func (r *TradeRepository) ListOpen(ctx context.Context, limit int) ([]*model.TradeOffer, error) {
	const query = `SELECT ` + tradeColumns + ` FROM trade_offers
		WHERE status = 'open'
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open offers: %w", err)
	}
	defer rows.Close()

	var offers []*model.TradeOffer
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade offer: %w", err)
		}
		offers = append(offers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade offers: %w", err)
	}
	return offers, nil
}

// MarkAccepted settles an open offer for the buyer.
func (r *TradeRepository) MarkAccepted(ctx context.Context, id, buyerID int64) error {
	const query = `
		UPDATE trade_offers
		SET status = 'accepted', buyer_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	tag, err := r.db.Exec(ctx, query, id, buyerID)
	if err != nil {
		return fmt.Errorf("failed to accept trade offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOfferNotFound
	}
	return nil
}

// MarkCancelled withdraws an open offer.
func (r *TradeRepository) MarkCancelled(ctx context.Context, id int64) error {
	const query = `
		UPDATE trade_offers
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel trade offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOfferNotFound
	}
	return nil
}
