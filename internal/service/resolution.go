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
	"political-game-engine/internal/repository"
)

// CycleReport summarizes one end-of-cycle pass.
type CycleReport struct {
	CycleID             int64
	NextCycleID         int64
	ActionsResolved     int
	ActionFailures      int
	CollectivesResolved int
	EffectsApplied      int
	EffectsPruned       int64
	RowsDecayed         int64
	HandoffPenalties    int
	IncomePayouts       int
}

// ResolutionService runs the end-of-cycle batch: single actions,
// collective actions, international effects, decay, income, then cycle
// advance. Per-item failures are isolated; the pass always terminates
// and always advances the cycle.
type ResolutionService struct {
	pool        *db.Pool
	actions     *repository.ActionRepository
	collectives *repository.CollectiveRepository
	wallets     *repository.WalletRepository
	districts   *repository.DistrictRepository
	politicians *repository.PoliticianRepository
	effects     *repository.EffectRepository
	players     *repository.PlayerRepository
	events      EventSink
	cycleSvc    *CycleService
	rng         engine.Rng

	decayPoints    int64
	handoffPenalty int64
	now            func() time.Time
}

// NewResolutionService creates a new ResolutionService instance.
func NewResolutionService(
	pool *db.Pool,
	actions *repository.ActionRepository,
	collectives *repository.CollectiveRepository,
	wallets *repository.WalletRepository,
	districts *repository.DistrictRepository,
	politicians *repository.PoliticianRepository,
	effects *repository.EffectRepository,
	players *repository.PlayerRepository,
	events EventSink,
	cycleSvc *CycleService,
	rng engine.Rng,
	decayPoints, handoffPenalty int64,
) *ResolutionService {
	return &ResolutionService{
		pool:           pool,
		actions:        actions,
		collectives:    collectives,
		wallets:        wallets,
		districts:      districts,
		politicians:    politicians,
		effects:        effects,
		players:        players,
		events:         events,
		cycleSvc:       cycleSvc,
		rng:            rng,
		decayPoints:    decayPoints,
		handoffPenalty: handoffPenalty,
		now:            time.Now,
	}
}

// RunEndOfCycle resolves the open cycle and advances to its successor.
// Safe to invoke any time after the submission deadline.
func (s *ResolutionService) RunEndOfCycle(ctx context.Context) (*CycleReport, error) {
	cycle, err := s.cycleSvc.cycles.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return nil, stateErr("no cycle is open")
		}
		return nil, processing("run end of cycle", err)
	}

	report := &CycleReport{CycleID: cycle.ID}
	log.Info().Int64("cycle_id", cycle.ID).Str("type", cycle.Type).Msg("Resolving cycle")

	s.resolveSingles(ctx, cycle, report)
	s.resolveCollectives(ctx, cycle, report)
	s.applyInternationalEffects(ctx, cycle, report)
	s.applyDecay(ctx, cycle, report)
	s.distributeIncome(ctx, cycle, report)

	next, err := s.cycleSvc.Advance(ctx, cycle.ID)
	if err != nil {
		return report, err
	}
	report.NextCycleID = next.ID

	log.Info().
		Int64("cycle_id", cycle.ID).
		Int64("next_cycle_id", next.ID).
		Int("actions", report.ActionsResolved).
		Int("failures", report.ActionFailures).
		Int("collectives", report.CollectivesResolved).
		Int("effects", report.EffectsApplied).
		Int64("decayed", report.RowsDecayed).
		Int("income_payouts", report.IncomePayouts).
		Msg("Cycle resolved")

	return report, nil
}

// resolveSingles resolves pending actions in creation order. A failing
// action is recorded as completed-with-error and never aborts the batch.
func (s *ResolutionService) resolveSingles(ctx context.Context, cycle *model.Cycle, report *CycleReport) {
	pending, err := s.actions.ListPendingByCycle(ctx, cycle.ID)
	if err != nil {
		log.Error().Err(err).Int64("cycle_id", cycle.ID).Msg("Failed to list pending actions")
		return
	}

	for _, a := range pending {
		if err := s.resolveOne(ctx, cycle, a, report); err != nil {
			report.ActionFailures++
			log.Error().Err(err).Int64("action_id", a.ID).Msg("Action resolution failed")

			outcome := fmt.Sprintf("resolution error: %v", err)
			if cerr := s.actions.Complete(ctx, a.ID, outcome, 0); cerr != nil {
				log.Error().Err(cerr).Int64("action_id", a.ID).Msg("Failed to record action error")
			}
			continue
		}
		report.ActionsResolved++
	}
}

// resolveOne applies one action's computed effect atomically, then emits
// its events.
func (s *ResolutionService) resolveOne(ctx context.Context, cycle *model.Cycle, a *model.Action, report *CycleReport) error {
	eff := engine.Resolve(a, s.rng)

	var handoff *engine.Handoff
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.actions.WithTx(tx).Complete(ctx, a.ID, eff.Outcome, eff.ControlDelta); err != nil {
			return err
		}

		if eff.ControlDelta != 0 && a.DistrictID != nil {
			h, err := s.applyControlGain(ctx, tx, cycle.ID, a.PlayerID, *a.DistrictID, eff.ControlDelta)
			if err != nil {
				return err
			}
			handoff = h
		}
		if eff.TargetControlDelta != 0 && a.TargetPlayerID != nil && a.DistrictID != nil {
			_, err := s.districts.WithTx(tx).ApplyControlDelta(ctx,
				*a.TargetPlayerID, *a.DistrictID, eff.TargetControlDelta, 0)
			if err != nil {
				return err
			}
		}
		if eff.FriendlinessDelta != 0 && a.TargetPolitician != nil {
			_, err := s.politicians.WithTx(tx).AdjustFriendliness(ctx,
				a.PlayerID, *a.TargetPolitician, eff.FriendlinessDelta)
			if err != nil {
				return err
			}
		}
		if eff.PoliticianInfluenceDelta != 0 && a.TargetPolitician != nil {
			err := s.politicians.WithTx(tx).AdjustInfluence(ctx,
				*a.TargetPolitician, eff.PoliticianInfluenceDelta)
			if err != nil {
				return err
			}
		}
		if eff.ResourceDelta > 0 {
			err := s.wallets.WithTx(tx).Credit(ctx, a.PlayerID, eff.ResourceKind,
				eff.ResourceDelta, model.ResourceReasonActionReward)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, &model.GameEvent{
		PlayerID: eventTarget(a.PlayerID, eff.Public),
		CycleID:  cycle.ID,
		Kind:     eff.EventKind,
		Body:     eff.Outcome,
	})
	if eff.NotifyTarget && a.TargetPlayerID != nil && a.DistrictID != nil {
		s.publish(ctx, &model.GameEvent{
			PlayerID: a.TargetPlayerID,
			CycleID:  cycle.ID,
			Kind:     model.EventAttackIncoming,
			Body:     fmt.Sprintf("district %d: control shifted by %d", *a.DistrictID, eff.TargetControlDelta),
		})
	}
	if handoff != nil {
		report.HandoffPenalties++
		s.publishHandoff(ctx, cycle.ID, handoff)
	}
	return nil
}

// applyControlGain applies a control delta for a player in a district,
// detecting an ownership hand-off and charging the ousted player the
// hand-off penalty in the same transaction.
func (s *ResolutionService) applyControlGain(ctx context.Context, tx pgx.Tx, cycleID, playerID, districtID, delta int64) (*engine.Handoff, error) {
	repo := s.districts.WithTx(tx)

	before, err := repo.GetControl(ctx, playerID, districtID)
	if err != nil {
		return nil, err
	}
	others, err := repo.ListControlsByDistrict(ctx, districtID)
	if err != nil {
		return nil, err
	}
	after, err := repo.ApplyControlDelta(ctx, playerID, districtID, delta, cycleID)
	if err != nil {
		return nil, err
	}

	h, ok := engine.DetectHandoff(districtID, playerID, before.ControlPoints, after, others)
	if !ok {
		return nil, nil
	}
	if _, err := repo.ApplyControlDelta(ctx, h.OustedID, districtID, -s.handoffPenalty, 0); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *ResolutionService) publishHandoff(ctx context.Context, cycleID int64, h *engine.Handoff) {
	s.publish(ctx, &model.GameEvent{
		CycleID: cycleID,
		Kind:    model.EventControlShift,
		Body: fmt.Sprintf("district %d changed hands: player %d displaced player %d",
			h.DistrictID, h.RiserID, h.OustedID),
	})
}

// resolveCollectives resolves every active collective action: one roll
// per collective, all participant credits in one transaction.
func (s *ResolutionService) resolveCollectives(ctx context.Context, cycle *model.Cycle, report *CycleReport) {
	active, err := s.collectives.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active collective actions")
		return
	}

	for _, c := range active {
		if err := s.resolveCollective(ctx, cycle, c, report); err != nil {
			log.Error().Err(err).Int64("collective_id", c.ID).Msg("Collective resolution failed")
			continue
		}
		report.CollectivesResolved++
	}
}

func (s *ResolutionService) resolveCollective(ctx context.Context, cycle *model.Cycle, c *model.CollectiveAction, report *CycleReport) error {
	var (
		result   engine.CollectiveResult
		parts    []model.CollectiveParticipant
		handoffs []*engine.Handoff
	)

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		repo := s.collectives.WithTx(tx)

		locked, err := repo.GetByIDForUpdate(ctx, c.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.CollectiveStatusActive {
			return nil // resolved concurrently
		}

		parts, err = repo.ListParticipants(ctx, c.ID)
		if err != nil {
			return err
		}

		contribs := make([]engine.Contribution, 0, len(parts))
		for _, p := range parts {
			contribs = append(contribs, engine.Contribution{
				PlayerID:         p.PlayerID,
				Amount:           p.ResourceAmount,
				PhysicalPresence: p.PhysicalPresence,
			})
		}

		result = engine.ResolveCollective(c.Type, c.TargetPlayerID != nil, contribs, s.rng)

		for _, credit := range result.Credits {
			if credit.Points > 0 {
				h, err := s.applyControlGain(ctx, tx, cycle.ID, credit.PlayerID, c.DistrictID, credit.Points)
				if err != nil {
					return err
				}
				if h != nil {
					handoffs = append(handoffs, h)
				}
			}
			if err := repo.SetParticipantCredit(ctx, c.ID, credit.PlayerID, credit.Points); err != nil {
				return err
			}
		}

		if result.TargetLoss > 0 && c.TargetPlayerID != nil {
			_, err := s.districts.WithTx(tx).ApplyControlDelta(ctx,
				*c.TargetPlayerID, c.DistrictID, -result.TargetLoss, 0)
			if err != nil {
				return err
			}
		}

		outcome := fmt.Sprintf("collective %s: roll %d vs %d, total %d, base %d, success %t",
			c.Type, result.Roll, result.Chance, result.Total, result.BasePoints, result.Success)
		return repo.Complete(ctx, c.ID, outcome)
	})
	if err != nil {
		return err
	}

	for _, p := range parts {
		pid := p.PlayerID
		s.publish(ctx, &model.GameEvent{
			PlayerID: &pid,
			CycleID:  cycle.ID,
			Kind:     model.EventCollective,
			Body: fmt.Sprintf("collective %s in district %d: success %t, roll %d vs %d",
				c.Type, c.DistrictID, result.Success, result.Roll, result.Chance),
		})
	}
	if result.Success && result.TargetLoss > 0 && c.TargetPlayerID != nil {
		s.publish(ctx, &model.GameEvent{
			PlayerID: c.TargetPlayerID,
			CycleID:  cycle.ID,
			Kind:     model.EventAttackIncoming,
			Body:     fmt.Sprintf("district %d: collective attack cost you %d control", c.DistrictID, result.TargetLoss),
		})
	}
	for _, h := range handoffs {
		report.HandoffPenalties++
		s.publishHandoff(ctx, cycle.ID, h)
	}
	return nil
}

// applyInternationalEffects applies every unexpired effect to the
// controlling players that pass its ideology filter. Failures are logged
// and skipped per row; expired effects are pruned afterwards.
func (s *ResolutionService) applyInternationalEffects(ctx context.Context, cycle *model.Cycle, report *CycleReport) {
	now := s.now()
	effects, err := s.effects.ListUnexpired(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list international effects")
		return
	}

	players, err := s.players.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list players")
		return
	}
	ideology := make(map[int64]int, len(players))
	for _, p := range players {
		ideology[p.ID] = p.Ideology
	}

	for _, eff := range effects {
		if eff.DistrictID == nil {
			continue
		}
		controls, err := s.districts.ListControlsByDistrict(ctx, *eff.DistrictID)
		if err != nil {
			log.Error().Err(err).Int64("effect_id", eff.ID).Msg("Failed to list district controls")
			continue
		}

		for _, ctl := range controls {
			if !engine.MatchesIdeology(eff.IdeologyFilter, ideology[ctl.PlayerID]) {
				continue
			}
			handoff, err := s.applyEffectToPlayer(ctx, cycle, eff, ctl.PlayerID)
			if err != nil {
				log.Error().Err(err).
					Int64("effect_id", eff.ID).
					Int64("player_id", ctl.PlayerID).
					Msg("Failed to apply international effect")
				continue
			}
			report.EffectsApplied++
			if handoff != nil {
				report.HandoffPenalties++
				s.publishHandoff(ctx, cycle.ID, handoff)
			}
		}
	}

	pruned, err := s.effects.PruneExpired(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune expired effects")
		return
	}
	report.EffectsPruned = pruned
}

// applyEffectToPlayer applies one effect to one control holder. Control
// gains go through the shared hand-off detection so an effect that
// pushes a player past the threshold charges the ousted player the same
// penalty an action gain would. The gain does not count as acting in
// the district, so the row still decays.
func (s *ResolutionService) applyEffectToPlayer(ctx context.Context, cycle *model.Cycle, eff *model.InternationalEffect, playerID int64) (*engine.Handoff, error) {
	var handoff *engine.Handoff
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if eff.ControlDelta > 0 {
			h, err := s.applyControlGain(ctx, tx, 0, playerID, *eff.DistrictID, eff.ControlDelta)
			if err != nil {
				return err
			}
			handoff = h
		} else if eff.ControlDelta < 0 {
			_, err := s.districts.WithTx(tx).ApplyControlDelta(ctx,
				playerID, *eff.DistrictID, eff.ControlDelta, 0)
			if err != nil {
				return err
			}
		}
		if eff.ResourceKind != nil && eff.ResourceDelta != 0 {
			wallets := s.wallets.WithTx(tx)
			if eff.ResourceDelta > 0 {
				return wallets.Credit(ctx, playerID, *eff.ResourceKind,
					eff.ResourceDelta, model.ResourceReasonIntlEffect)
			}
			_, err := wallets.DebitFloor(ctx, playerID, *eff.ResourceKind,
				-eff.ResourceDelta, model.ResourceReasonIntlEffect)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &model.GameEvent{
		PlayerID: &playerID,
		CycleID:  cycle.ID,
		Kind:     model.EventIntlEffect,
		Body: fmt.Sprintf("%s in district %d: control %+d, resources %+d",
			eff.Type, *eff.DistrictID, eff.ControlDelta, eff.ResourceDelta),
	})
	return handoff, nil
}

// applyDecay removes points from every control row untouched during the
// closed cycle.
func (s *ResolutionService) applyDecay(ctx context.Context, cycle *model.Cycle, report *CycleReport) {
	decayed, err := s.districts.ApplyDecay(ctx, cycle.ID, s.decayPoints)
	if err != nil {
		log.Error().Err(err).Int64("cycle_id", cycle.ID).Msg("Decay pass failed")
		return
	}
	report.RowsDecayed = decayed
}

// distributeIncome pays each district's yields to its holders, scaled by
// control tier.
func (s *ResolutionService) distributeIncome(ctx context.Context, cycle *model.Cycle, report *CycleReport) {
	districts, err := s.districts.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list districts")
		return
	}

	for _, d := range districts {
		controls, err := s.districts.ListControlsByDistrict(ctx, d.ID)
		if err != nil {
			log.Error().Err(err).Int64("district_id", d.ID).Msg("Failed to list district controls")
			continue
		}

		for _, ctl := range controls {
			payouts := engine.DistrictIncome(d, &ctl)
			if len(payouts) == 0 {
				continue
			}

			var failed bool
			for _, p := range payouts {
				err := s.wallets.Credit(ctx, p.PlayerID, p.Kind, p.Amount, model.ResourceReasonIncome)
				if err != nil {
					failed = true
					log.Error().Err(err).
						Int64("player_id", p.PlayerID).
						Int64("district_id", d.ID).
						Msg("Income credit failed")
					continue
				}
				report.IncomePayouts++
			}
			if failed {
				continue
			}

			pid := ctl.PlayerID
			s.publish(ctx, &model.GameEvent{
				PlayerID: &pid,
				CycleID:  cycle.ID,
				Kind:     model.EventIncome,
				Body:     fmt.Sprintf("district %d income at %d%% tier", d.ID, engine.IncomeMultiplierPct(ctl.ControlPoints)),
			})
		}
	}
}

// publish emits one event, best effort.
func (s *ResolutionService) publish(ctx context.Context, e *model.GameEvent) {
	if err := s.events.Publish(ctx, e); err != nil {
		log.Error().Err(err).Str("kind", e.Kind).Msg("Failed to publish event")
	}
}

// eventTarget returns the event recipient: the acting player, or nil for
// a public event.
func eventTarget(playerID int64, public bool) *int64 {
	if public {
		return nil
	}
	return &playerID
}
