package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"political-game-engine/internal/engine"
	"political-game-engine/internal/model"
	"political-game-engine/internal/repository"
)

// EffectService generates international effects from the world's
// international politicians. Generation is an admin operation; the
// resolution pass applies the effects.
type EffectService struct {
	effects     *repository.EffectRepository
	politicians *repository.PoliticianRepository
	districts   *repository.DistrictRepository
	cycles      *repository.CycleRepository
	events      EventSink
	rng         engine.Rng

	expiry      time.Duration
	maxPerBatch int
	now         func() time.Time
}

// NewEffectService creates a new EffectService instance.
func NewEffectService(
	effects *repository.EffectRepository,
	politicians *repository.PoliticianRepository,
	districts *repository.DistrictRepository,
	cycles *repository.CycleRepository,
	events EventSink,
	rng engine.Rng,
	expiry time.Duration,
	maxPerBatch int,
) *EffectService {
	return &EffectService{
		effects:     effects,
		politicians: politicians,
		districts:   districts,
		cycles:      cycles,
		events:      events,
		rng:         rng,
		expiry:      expiry,
		maxPerBatch: maxPerBatch,
		now:         time.Now,
	}
}

// Generate produces up to count randomized international effects, each
// sourced from a random international politician and targeting a random
// district. The count is clamped to the configured batch bound.
func (s *EffectService) Generate(ctx context.Context, count int) ([]*model.InternationalEffect, error) {
	if count <= 0 {
		return nil, invalid(ReasonInvalidInput, "count must be positive, got %d", count)
	}
	if count > s.maxPerBatch {
		count = s.maxPerBatch
	}

	politicians, err := s.politicians.ListInternational(ctx)
	if err != nil {
		return nil, processing("generate effects", err)
	}
	if len(politicians) == 0 {
		return nil, stateErr("no international politicians seeded")
	}

	districts, err := s.districts.List(ctx)
	if err != nil {
		return nil, processing("generate effects", err)
	}
	districtIDs := make([]int64, 0, len(districts))
	for _, d := range districts {
		districtIDs = append(districtIDs, d.ID)
	}

	cycleID := int64(0)
	if cycle, err := s.cycles.GetOpen(ctx); err == nil {
		cycleID = cycle.ID
	}

	now := s.now()
	generated := make([]*model.InternationalEffect, 0, count)
	for i := 0; i < count; i++ {
		p := politicians[s.rng.Intn(len(politicians))]

		eff := engine.GenerateEffect(p, districtIDs, now, s.rng)
		eff.ExpiresAt = now.Add(s.expiry)

		created, err := s.effects.Create(ctx, eff)
		if err != nil {
			return generated, processing("generate effects", err)
		}
		generated = append(generated, created)

		s.announce(ctx, cycleID, p, created)
	}

	log.Info().Int("count", len(generated)).Msg("International effects generated")
	return generated, nil
}

// announce publishes the public notice of a new effect, best effort.
func (s *EffectService) announce(ctx context.Context, cycleID int64, p *model.Politician, eff *model.InternationalEffect) {
	body := fmt.Sprintf("%s announced %s", p.Name, eff.Type)
	if eff.DistrictID != nil {
		body = fmt.Sprintf("%s targeting district %d", body, *eff.DistrictID)
	}
	err := s.events.Publish(ctx, &model.GameEvent{
		CycleID: cycleID,
		Kind:    model.EventIntlEffect,
		Body:    body,
	})
	if err != nil {
		log.Error().Err(err).Int64("effect_id", eff.ID).Msg("Failed to announce effect")
	}
}
