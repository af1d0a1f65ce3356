package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"political-game-engine/internal/model"
	"political-game-engine/internal/pkg/db"
	"political-game-engine/internal/pkg/lock"
	"political-game-engine/internal/repository"
)

// CreateOfferRequest opens a trade offer. The offered amount is escrowed
// from the seller's wallet on creation.
type CreateOfferRequest struct {
	SellerID    int64
	OfferedKind model.ResourceKind
	OfferedQty  int64
	WantedKind  model.ResourceKind
	WantedQty   int64
}

// TradeService handles player-to-player resource exchange.
type TradeService struct {
	pool    *db.Pool
	trades  *repository.TradeRepository
	wallets *repository.WalletRepository
	players *repository.PlayerRepository
	locks   *lock.PlayerLock
}

// NewTradeService creates a new TradeService instance.
func NewTradeService(
	pool *db.Pool,
	trades *repository.TradeRepository,
	wallets *repository.WalletRepository,
	players *repository.PlayerRepository,
	locks *lock.PlayerLock,
) *TradeService {
	return &TradeService{
		pool:    pool,
		trades:  trades,
		wallets: wallets,
		players: players,
		locks:   locks,
	}
}

// CreateOffer escrows the offered amount and opens the offer, atomically.
func (s *TradeService) CreateOffer(ctx context.Context, req CreateOfferRequest) (*model.TradeOffer, error) {
	if req.OfferedQty <= 0 || req.WantedQty <= 0 {
		return nil, invalid(ReasonInvalidInput, "quantities must be positive")
	}
	if !model.ValidResourceKind(req.OfferedKind) || !model.ValidResourceKind(req.WantedKind) {
		return nil, invalid(ReasonInvalidInput, "unknown resource kind")
	}
	if req.OfferedKind == req.WantedKind {
		return nil, invalid(ReasonInvalidInput, "offered and wanted kinds must differ")
	}

	s.locks.Lock(req.SellerID)
	defer s.locks.Unlock(req.SellerID)

	var created *model.TradeOffer
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := s.wallets.WithTx(tx).Debit(ctx, req.SellerID, req.OfferedKind,
			req.OfferedQty, model.ResourceReasonTradeEscrow)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return invalid(ReasonInsufficientResources, "%s balance below %d",
					req.OfferedKind, req.OfferedQty)
			}
			if errors.Is(err, repository.ErrPlayerNotFound) {
				return notFound("player", req.SellerID)
			}
			return fmt.Errorf("failed to escrow offer: %w", err)
		}

		created, err = s.trades.WithTx(tx).Create(ctx, &model.TradeOffer{
			SellerID:    req.SellerID,
			OfferedKind: req.OfferedKind,
			OfferedQty:  req.OfferedQty,
			WantedKind:  req.WantedKind,
			WantedQty:   req.WantedQty,
		})
		if err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("create offer", err)
	}

	log.Info().
		Int64("offer_id", created.ID).
		Int64("seller_id", req.SellerID).
		Str("offered", string(req.OfferedKind)).
		Str("wanted", string(req.WantedKind)).
		Msg("Trade offer created")

	return created, nil
}

// AcceptOffer settles an open offer in one transaction: the buyer pays
// the wanted amount to the seller and receives the escrowed amount.
// Sellers cannot accept their own offers.
func (s *TradeService) AcceptOffer(ctx context.Context, buyerID, offerID int64) (*model.TradeOffer, error) {
	s.locks.Lock(buyerID)
	defer s.locks.Unlock(buyerID)

	var offer *model.TradeOffer
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		offer, err = s.trades.WithTx(tx).GetByIDForUpdate(ctx, offerID)
		if err != nil {
			if errors.Is(err, repository.ErrOfferNotFound) {
				return notFound("trade offer", offerID)
			}
			return fmt.Errorf("failed to lock offer: %w", err)
		}
		if offer.Status != model.TradeStatusOpen {
			return stateErr("trade offer %d is %s", offerID, offer.Status)
		}
		if offer.SellerID == buyerID {
			return stateErr("cannot accept own trade offer %d", offerID)
		}

		wallets := s.wallets.WithTx(tx)
		err = wallets.Debit(ctx, buyerID, offer.WantedKind, offer.WantedQty,
			model.ResourceReasonTradeSettle)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return invalid(ReasonInsufficientResources, "%s balance below %d",
					offer.WantedKind, offer.WantedQty)
			}
			if errors.Is(err, repository.ErrPlayerNotFound) {
				return notFound("player", buyerID)
			}
			return fmt.Errorf("failed to debit buyer: %w", err)
		}
		err = wallets.Credit(ctx, offer.SellerID, offer.WantedKind, offer.WantedQty,
			model.ResourceReasonTradeSettle)
		if err != nil {
			return fmt.Errorf("failed to credit seller: %w", err)
		}
		// The escrowed amount moves to the buyer; the seller was debited
		// at creation time.
		err = wallets.Credit(ctx, buyerID, offer.OfferedKind, offer.OfferedQty,
			model.ResourceReasonTradeSettle)
		if err != nil {
			return fmt.Errorf("failed to credit buyer: %w", err)
		}

		if err := s.trades.WithTx(tx).MarkAccepted(ctx, offerID, buyerID); err != nil {
			return fmt.Errorf("failed to mark offer accepted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("accept offer", err)
	}

	log.Info().
		Int64("offer_id", offerID).
		Int64("buyer_id", buyerID).
		Int64("seller_id", offer.SellerID).
		Msg("Trade offer accepted")

	offer.Status = model.TradeStatusAccepted
	offer.BuyerID = &buyerID
	return offer, nil
}

// CancelOffer withdraws an open offer and refunds the escrow. Only the
// seller can cancel.
func (s *TradeService) CancelOffer(ctx context.Context, sellerID, offerID int64) error {
	s.locks.Lock(sellerID)
	defer s.locks.Unlock(sellerID)

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		offer, err := s.trades.WithTx(tx).GetByIDForUpdate(ctx, offerID)
		if err != nil {
			if errors.Is(err, repository.ErrOfferNotFound) {
				return notFound("trade offer", offerID)
			}
			return fmt.Errorf("failed to lock offer: %w", err)
		}
		if offer.Status != model.TradeStatusOpen {
			return stateErr("trade offer %d is %s", offerID, offer.Status)
		}
		if offer.SellerID != sellerID {
			return stateErr("player %d is not the seller of offer %d", sellerID, offerID)
		}

		if err := s.trades.WithTx(tx).MarkCancelled(ctx, offerID); err != nil {
			return fmt.Errorf("failed to mark offer cancelled: %w", err)
		}
		err = s.wallets.WithTx(tx).Credit(ctx, sellerID, offer.OfferedKind,
			offer.OfferedQty, model.ResourceReasonRefund)
		if err != nil {
			return fmt.Errorf("failed to refund escrow: %w", err)
		}
		return nil
	})
	if err != nil {
		return translate("cancel offer", err)
	}

	log.Info().Int64("offer_id", offerID).Int64("seller_id", sellerID).Msg("Trade offer cancelled")
	return nil
}

// ListOpenOffers returns the current open offers, newest first.
func (s *TradeService) ListOpenOffers(ctx context.Context, limit int) ([]*model.TradeOffer, error) {
	if limit <= 0 {
		limit = 50
	}
	offers, err := s.trades.ListOpen(ctx, limit)
	if err != nil {
		return nil, processing("list open offers", err)
	}
	return offers, nil
}
