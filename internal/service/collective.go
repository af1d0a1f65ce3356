package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"political-game-engine/internal/engine"
	"political-game-engine/internal/model"
	"political-game-engine/internal/pkg/db"
	"political-game-engine/internal/pkg/lock"
	"political-game-engine/internal/repository"
)

// InitiateRequest opens a collective action. The initiator's contribution
// is debited and recorded as the first participation.
type InitiateRequest struct {
	InitiatorID      int64
	Type             string // attack | defense
	DistrictID       int64
	TargetPlayerID   *int64
	ResourceKind     model.ResourceKind
	ResourceAmount   int64
	PhysicalPresence bool
}

// JoinRequest adds a contribution to an active collective action.
type JoinRequest struct {
	CollectiveID     int64
	PlayerID         int64
	ResourceKind     model.ResourceKind
	ResourceAmount   int64
	PhysicalPresence bool
}

// CollectiveService handles pooled attack and defense actions.
type CollectiveService struct {
	pool        *db.Pool
	players     *repository.PlayerRepository
	wallets     *repository.WalletRepository
	collectives *repository.CollectiveRepository
	districts   *repository.DistrictRepository
	cycles      *repository.CycleRepository
	locks       *lock.PlayerLock
	now         func() time.Time
}

// NewCollectiveService creates a new CollectiveService instance.
func NewCollectiveService(
	pool *db.Pool,
	players *repository.PlayerRepository,
	wallets *repository.WalletRepository,
	collectives *repository.CollectiveRepository,
	districts *repository.DistrictRepository,
	cycles *repository.CycleRepository,
	locks *lock.PlayerLock,
) *CollectiveService {
	return &CollectiveService{
		pool:        pool,
		players:     players,
		wallets:     wallets,
		collectives: collectives,
		districts:   districts,
		cycles:      cycles,
		locks:       locks,
		now:         time.Now,
	}
}

// Initiate validates and opens a collective action with the initiator as
// its first participant. The contribution is debited atomically with the
// creation.
func (s *CollectiveService) Initiate(ctx context.Context, req InitiateRequest) (*model.CollectiveAction, error) {
	if req.Type != model.CollectiveAttack && req.Type != model.CollectiveDefense {
		return nil, invalid(ReasonInvalidInput, "unknown collective type %q", req.Type)
	}
	if req.ResourceAmount <= 0 {
		return nil, invalid(ReasonInvalidInput, "contribution must be positive, got %d", req.ResourceAmount)
	}
	if !model.ValidResourceKind(req.ResourceKind) {
		return nil, invalid(ReasonInvalidInput, "unknown resource kind %q", req.ResourceKind)
	}

	s.locks.Lock(req.InitiatorID)
	defer s.locks.Unlock(req.InitiatorID)

	cycle, err := s.cycles.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return nil, invalid(ReasonWindowClosed, "no cycle is open")
		}
		return nil, processing("initiate collective action", err)
	}
	if !engine.SubmissionOpen(cycle, s.now()) {
		return nil, invalid(ReasonWindowClosed, "cycle %d deadline passed", cycle.ID)
	}

	ok, err := s.districts.Exists(ctx, req.DistrictID)
	if err != nil {
		return nil, processing("initiate collective action", err)
	}
	if !ok {
		return nil, invalid(ReasonTargetNotFound, "district %d", req.DistrictID)
	}
	if req.TargetPlayerID != nil {
		ok, err := s.players.Exists(ctx, *req.TargetPlayerID)
		if err != nil {
			return nil, processing("initiate collective action", err)
		}
		if !ok {
			return nil, invalid(ReasonTargetNotFound, "player %d", *req.TargetPlayerID)
		}
	}

	var created *model.CollectiveAction
	err = inTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := s.wallets.WithTx(tx).Debit(ctx, req.InitiatorID, req.ResourceKind,
			req.ResourceAmount, model.ResourceReasonActionCost)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return invalid(ReasonInsufficientResources, "%s balance below %d",
					req.ResourceKind, req.ResourceAmount)
			}
			if errors.Is(err, repository.ErrPlayerNotFound) {
				return notFound("player", req.InitiatorID)
			}
			return fmt.Errorf("failed to debit contribution: %w", err)
		}

		created, err = s.collectives.WithTx(tx).Create(ctx, &model.CollectiveAction{
			InitiatorID:    req.InitiatorID,
			Type:           req.Type,
			DistrictID:     req.DistrictID,
			TargetPlayerID: req.TargetPlayerID,
			CycleID:        cycle.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create collective action: %w", err)
		}

		err = s.collectives.WithTx(tx).AddParticipant(ctx, &model.CollectiveParticipant{
			CollectiveActionID: created.ID,
			PlayerID:           req.InitiatorID,
			ResourceKind:       req.ResourceKind,
			ResourceAmount:     req.ResourceAmount,
			PhysicalPresence:   req.PhysicalPresence,
		})
		if err != nil {
			return fmt.Errorf("failed to add initiator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("initiate collective action", err)
	}

	log.Info().
		Int64("collective_id", created.ID).
		Int64("initiator_id", req.InitiatorID).
		Str("type", req.Type).
		Int64("district_id", req.DistrictID).
		Msg("Collective action initiated")

	return created, nil
}

// Join adds one player's contribution to an active collective action.
// Each player may join a given collective at most once; the row lock on
// the collective serializes joins against resolution.
func (s *CollectiveService) Join(ctx context.Context, req JoinRequest) error {
	if req.ResourceAmount <= 0 {
		return invalid(ReasonInvalidInput, "contribution must be positive, got %d", req.ResourceAmount)
	}
	if !model.ValidResourceKind(req.ResourceKind) {
		return invalid(ReasonInvalidInput, "unknown resource kind %q", req.ResourceKind)
	}

	s.locks.Lock(req.PlayerID)
	defer s.locks.Unlock(req.PlayerID)

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		collective, err := s.collectives.WithTx(tx).GetByIDForUpdate(ctx, req.CollectiveID)
		if err != nil {
			if errors.Is(err, repository.ErrCollectiveNotFound) {
				return notFound("collective action", req.CollectiveID)
			}
			return fmt.Errorf("failed to lock collective action: %w", err)
		}
		if collective.Status != model.CollectiveStatusActive {
			return stateErr("collective action %d is %s", collective.ID, collective.Status)
		}

		err = s.wallets.WithTx(tx).Debit(ctx, req.PlayerID, req.ResourceKind,
			req.ResourceAmount, model.ResourceReasonActionCost)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return invalid(ReasonInsufficientResources, "%s balance below %d",
					req.ResourceKind, req.ResourceAmount)
			}
			if errors.Is(err, repository.ErrPlayerNotFound) {
				return notFound("player", req.PlayerID)
			}
			return fmt.Errorf("failed to debit contribution: %w", err)
		}

		err = s.collectives.WithTx(tx).AddParticipant(ctx, &model.CollectiveParticipant{
			CollectiveActionID: req.CollectiveID,
			PlayerID:           req.PlayerID,
			ResourceKind:       req.ResourceKind,
			ResourceAmount:     req.ResourceAmount,
			PhysicalPresence:   req.PhysicalPresence,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateJoin) {
				return stateErr("player %d already joined collective action %d",
					req.PlayerID, req.CollectiveID)
			}
			return fmt.Errorf("failed to add participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return translate("join collective action", err)
	}

	log.Info().
		Int64("collective_id", req.CollectiveID).
		Int64("player_id", req.PlayerID).
		Int64("amount", req.ResourceAmount).
		Msg("Collective action joined")

	return nil
}
