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

// SubmitRequest is one player's action submission.
type SubmitRequest struct {
	PlayerID         int64
	Type             model.ActionType
	IsQuick          bool
	DistrictID       *int64
	TargetPlayerID   *int64
	TargetPolitician *int64
	ResourceKind     model.ResourceKind
	ResourceAmount   int64
	PhysicalPresence bool
}

// Refund reports what a cancellation returned to the player.
type Refund struct {
	ActionID int64
	Kind     model.ResourceKind
	Amount   int64
}

// ActionService handles single-player action submission and cancellation.
type ActionService struct {
	pool        *db.Pool
	players     *repository.PlayerRepository
	wallets     *repository.WalletRepository
	actions     *repository.ActionRepository
	districts   *repository.DistrictRepository
	politicians *repository.PoliticianRepository
	cycles      *repository.CycleRepository
	locks       *lock.PlayerLock
	now         func() time.Time
}

// NewActionService creates a new ActionService instance.
func NewActionService(
	pool *db.Pool,
	players *repository.PlayerRepository,
	wallets *repository.WalletRepository,
	actions *repository.ActionRepository,
	districts *repository.DistrictRepository,
	politicians *repository.PoliticianRepository,
	cycles *repository.CycleRepository,
	locks *lock.PlayerLock,
) *ActionService {
	return &ActionService{
		pool:        pool,
		players:     players,
		wallets:     wallets,
		actions:     actions,
		districts:   districts,
		politicians: politicians,
		cycles:      cycles,
		locks:       locks,
		now:         time.Now,
	}
}

// districtActions require a district target; politicianActions require a
// politician target.
var districtActions = map[model.ActionType]bool{
	model.ActionInfluence:         true,
	model.ActionAttack:            true,
	model.ActionDefense:           true,
	model.ActionReconnaissance:    true,
	model.ActionInformationSpread: true,
	model.ActionSupport:           true,
}

var politicianActions = map[model.ActionType]bool{
	model.ActionPoliticianInfluence:  true,
	model.ActionPoliticianReputation: true,
	model.ActionPoliticianDisplace:   true,
	model.ActionIntlNegotiations:     true,
	model.ActionLobbying:             true,
	model.ActionKompromatSearch:      true,
}

// Submit validates and records one action. Checks run in a fixed order
// under the player's lock: window open, targets exist, balance covers the
// amount, quota remaining. On success the resource is debited and the
// action created in pending status, atomically. A failed submission
// leaves no ledger mutation.
func (s *ActionService) Submit(ctx context.Context, req SubmitRequest) (*model.Action, error) {
	if !model.ValidActionType(req.Type) {
		return nil, invalid(ReasonInvalidInput, "unknown action type %q", req.Type)
	}
	if req.ResourceAmount < 0 {
		return nil, invalid(ReasonInvalidInput, "negative resource amount %d", req.ResourceAmount)
	}
	if req.ResourceAmount > 0 && !model.ValidResourceKind(req.ResourceKind) {
		return nil, invalid(ReasonInvalidInput, "unknown resource kind %q", req.ResourceKind)
	}

	s.locks.Lock(req.PlayerID)
	defer s.locks.Unlock(req.PlayerID)

	cycle, err := s.cycles.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return nil, invalid(ReasonWindowClosed, "no cycle is open")
		}
		return nil, processing("submit action", err)
	}
	if !engine.SubmissionOpen(cycle, s.now()) {
		return nil, invalid(ReasonWindowClosed, "cycle %d deadline passed", cycle.ID)
	}

	if err := s.validateTargets(ctx, req); err != nil {
		return nil, err
	}

	wallet, err := s.wallets.Get(ctx, req.PlayerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return nil, notFound("player", req.PlayerID)
		}
		return nil, processing("submit action", err)
	}
	if req.ResourceAmount > 0 && wallet.Balance(req.ResourceKind) < req.ResourceAmount {
		return nil, invalid(ReasonInsufficientResources, "%s balance %d below %d",
			req.ResourceKind, wallet.Balance(req.ResourceKind), req.ResourceAmount)
	}

	// The quota is counted from recorded actions, not the cached counter,
	// so restarts and manual fixes cannot desynchronize it.
	used, err := s.actions.CountByClass(ctx, req.PlayerID, cycle.ID, req.IsQuick)
	if err != nil {
		return nil, processing("submit action", err)
	}
	limit := model.MainActionsPerCycle
	if req.IsQuick {
		limit = model.QuickActionsPerCycle
	}
	if used >= limit {
		return nil, invalid(ReasonQuotaExceeded, "%d of %d used this cycle", used, limit)
	}

	var created *model.Action
	err = inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if req.ResourceAmount > 0 {
			err := s.wallets.WithTx(tx).Debit(ctx, req.PlayerID, req.ResourceKind,
				req.ResourceAmount, model.ResourceReasonActionCost)
			if err != nil {
				if errors.Is(err, repository.ErrInsufficientFunds) {
					return invalid(ReasonInsufficientResources, "%s balance below %d",
						req.ResourceKind, req.ResourceAmount)
				}
				return fmt.Errorf("failed to debit action cost: %w", err)
			}
		}
		ok, err := s.players.WithTx(tx).ConsumeQuota(ctx, req.PlayerID, req.IsQuick)
		if err != nil {
			return fmt.Errorf("failed to consume quota: %w", err)
		}
		if !ok {
			return invalid(ReasonQuotaExceeded, "%d of %d used this cycle", used, limit)
		}

		created, err = s.actions.WithTx(tx).Create(ctx, &model.Action{
			PlayerID:         req.PlayerID,
			Type:             req.Type,
			IsQuick:          req.IsQuick,
			CycleID:          cycle.ID,
			DistrictID:       req.DistrictID,
			TargetPlayerID:   req.TargetPlayerID,
			TargetPolitician: req.TargetPolitician,
			ResourceKind:     req.ResourceKind,
			ResourceAmount:   req.ResourceAmount,
			PhysicalPresence: req.PhysicalPresence,
		})
		if err != nil {
			return fmt.Errorf("failed to create action: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("submit action", err)
	}

	log.Info().
		Int64("player_id", req.PlayerID).
		Str("type", string(req.Type)).
		Bool("quick", req.IsQuick).
		Int64("cycle_id", cycle.ID).
		Int64("action_id", created.ID).
		Msg("Action submitted")

	return created, nil
}

// validateTargets checks that every referenced entity exists and that
// the action type's required target is present.
func (s *ActionService) validateTargets(ctx context.Context, req SubmitRequest) error {
	if districtActions[req.Type] && req.DistrictID == nil {
		return invalid(ReasonInvalidInput, "%s requires a district", req.Type)
	}
	if politicianActions[req.Type] && req.TargetPolitician == nil {
		return invalid(ReasonInvalidInput, "%s requires a target politician", req.Type)
	}

	if req.DistrictID != nil {
		ok, err := s.districts.Exists(ctx, *req.DistrictID)
		if err != nil {
			return processing("validate targets", err)
		}
		if !ok {
			return invalid(ReasonTargetNotFound, "district %d", *req.DistrictID)
		}
	}
	if req.TargetPlayerID != nil {
		ok, err := s.players.Exists(ctx, *req.TargetPlayerID)
		if err != nil {
			return processing("validate targets", err)
		}
		if !ok {
			return invalid(ReasonTargetNotFound, "player %d", *req.TargetPlayerID)
		}
	}
	if req.TargetPolitician != nil {
		ok, err := s.politicians.Exists(ctx, *req.TargetPolitician)
		if err != nil {
			return processing("validate targets", err)
		}
		if !ok {
			return invalid(ReasonTargetNotFound, "politician %d", *req.TargetPolitician)
		}
	}
	return nil
}

// CancelLatest cancels the player's newest pending action, refunding its
// resource cost and quota unit in the same transaction. Cancellation
// obeys the same submission window as Submit: once the deadline passes
// the debit stays committed until resolution. A second cancel finds no
// pending action and fails with a StateError.
func (s *ActionService) CancelLatest(ctx context.Context, playerID int64) (*Refund, error) {
	s.locks.Lock(playerID)
	defer s.locks.Unlock(playerID)

	cycle, err := s.cycles.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return nil, invalid(ReasonWindowClosed, "no cycle is open")
		}
		return nil, processing("cancel action", err)
	}
	if !engine.SubmissionOpen(cycle, s.now()) {
		return nil, invalid(ReasonWindowClosed, "cycle %d deadline passed", cycle.ID)
	}

	var refund *Refund
	err = inTx(ctx, s.pool, func(tx pgx.Tx) error {
		action, err := s.actions.WithTx(tx).LatestPendingForUpdate(ctx, playerID)
		if err != nil {
			if errors.Is(err, repository.ErrActionNotFound) {
				return stateErr("player %d has no pending action", playerID)
			}
			return fmt.Errorf("failed to find pending action: %w", err)
		}

		if err := s.actions.WithTx(tx).Cancel(ctx, action.ID); err != nil {
			if errors.Is(err, repository.ErrNotPending) {
				return stateErr("action %d is not pending", action.ID)
			}
			return fmt.Errorf("failed to cancel action: %w", err)
		}

		if action.ResourceAmount > 0 {
			err := s.wallets.WithTx(tx).Credit(ctx, playerID, action.ResourceKind,
				action.ResourceAmount, model.ResourceReasonRefund)
			if err != nil {
				return fmt.Errorf("failed to refund action cost: %w", err)
			}
		}
		if err := s.players.WithTx(tx).RestoreQuota(ctx, playerID, action.IsQuick); err != nil {
			return fmt.Errorf("failed to restore quota: %w", err)
		}

		refund = &Refund{ActionID: action.ID, Kind: action.ResourceKind, Amount: action.ResourceAmount}
		return nil
	})
	if err != nil {
		return nil, translate("cancel action", err)
	}

	log.Info().
		Int64("player_id", playerID).
		Int64("action_id", refund.ActionID).
		Int64("refund", refund.Amount).
		Msg("Action cancelled")

	return refund, nil
}
