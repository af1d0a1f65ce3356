package engine

import (
	"time"

	"political-game-engine/internal/model"
)

// Ideology bands for deriving effect types from an international
// politician's leaning. Reform-leaning politicians sit on the negative
// side of the scale.
const (
	reformMax       = -2
	conservativeMin = 2
)

// EffectExpiry is how long a generated international effect stays active.
const EffectExpiry = 24 * time.Hour

// effectTypesFor returns the effect types an international politician of
// the given ideology can produce.
func effectTypesFor(ideology int) []string {
	switch {
	case ideology <= reformMax:
		return []string{model.EffectSanctions, model.EffectSupport, model.EffectDiplomacy}
	case ideology >= conservativeMin:
		return []string{model.EffectAttack, model.EffectDestabilization, model.EffectDiplomacy}
	default:
		return []string{model.EffectDiplomacy, model.EffectSupport, model.EffectDestabilization}
	}
}

// effectProfile fixes the ledger deltas for one effect type.
type effectProfile struct {
	controlDelta  int64
	resourceKind  model.ResourceKind // empty: no resource delta
	resourceDelta int64
}

var effectProfiles = map[string]effectProfile{
	model.EffectSanctions:       {controlDelta: -10, resourceKind: model.ResourceMoney, resourceDelta: -5},
	model.EffectSupport:         {controlDelta: 10, resourceKind: model.ResourceInfluence, resourceDelta: 5},
	model.EffectDiplomacy:       {controlDelta: 5},
	model.EffectAttack:          {controlDelta: -10, resourceKind: model.ResourceForce, resourceDelta: -3},
	model.EffectDestabilization: {controlDelta: -15},
}

var ideologyFilters = []string{
	model.IdeologyFilterAny,
	model.IdeologyFilterPositive,
	model.IdeologyFilterNegative,
}

// GenerateEffect produces one randomized international effect sourced
// from the given politician, targeting a random district from the pool.
func GenerateEffect(p *model.Politician, districtIDs []int64, now time.Time, rng Rng) *model.InternationalEffect {
	types := effectTypesFor(p.Ideology)
	effectType := types[rng.Intn(len(types))]
	profile := effectProfiles[effectType]

	eff := &model.InternationalEffect{
		PoliticianID:   p.ID,
		Type:           effectType,
		IdeologyFilter: ideologyFilters[rng.Intn(len(ideologyFilters))],
		ControlDelta:   profile.controlDelta,
		ResourceDelta:  profile.resourceDelta,
		ExpiresAt:      now.Add(EffectExpiry),
	}
	if profile.resourceKind != "" {
		kind := profile.resourceKind
		eff.ResourceKind = &kind
	}
	if len(districtIDs) > 0 {
		id := districtIDs[rng.Intn(len(districtIDs))]
		eff.DistrictID = &id
	}
	return eff
}

// MatchesIdeology reports whether a player's ideology passes the
// effect's filter.
func MatchesIdeology(filter string, playerIdeology int) bool {
	switch filter {
	case model.IdeologyFilterPositive:
		return playerIdeology > 0
	case model.IdeologyFilterNegative:
		return playerIdeology < 0
	default:
		return true
	}
}
