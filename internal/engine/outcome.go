package engine

import (
	"fmt"

	"political-game-engine/internal/model"
)

// Outcome tiers for a resolved action.
type Tier int

const (
	TierFailure Tier = iota
	TierPartial
	TierFull
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full success"
	case TierPartial:
		return "partial success"
	default:
		return "failure"
	}
}

// Outcome model constants.
const (
	baseChance       = 60
	chancePerUnit    = 5
	chanceCap        = 95
	presenceBonus    = 20
	partialWindow    = 20
	fullControlGain  = 10
	partialControl   = 5
	supportGain      = 5
	friendlinessGain = 10
	scandalPenalty   = 2
	displacePenalty  = 5
	kompromatGain    = 2
)

// SuccessChance computes the success chance for a single action.
// The resource contribution is capped at 95 before the physical-presence
// bonus, so the chance can exceed 100 for a present player. The partial
// window on top of that can make the failure tier unreachable at high
// amounts; the model keeps that quirk.
func SuccessChance(resourceAmount int64, physicalPresence bool) int {
	chance := baseChance + chancePerUnit*int(resourceAmount)
	if chance > chanceCap {
		chance = chanceCap
	}
	if physicalPresence {
		chance += presenceBonus
	}
	return chance
}

// ClassifyRoll maps a uniform roll in [1,100] to an outcome tier given the
// success chance.
func ClassifyRoll(roll, chance int) Tier {
	switch {
	case roll <= chance:
		return TierFull
	case roll <= chance+partialWindow:
		return TierPartial
	default:
		return TierFailure
	}
}

// Effect is the ledger mutation and event emission computed for one
// resolved action. Zero-valued fields mean no mutation of that ledger.
type Effect struct {
	// ControlDelta applies to the acting player's control in the action's
	// district.
	ControlDelta int64
	// TargetControlDelta applies to the target player's control in the
	// action's district (attacks).
	TargetControlDelta int64
	// FriendlinessDelta applies to the acting player's relation with the
	// target politician.
	FriendlinessDelta int
	// PoliticianInfluenceDelta applies to the target politician's district
	// influence score.
	PoliticianInfluenceDelta int64
	// ResourceKind/ResourceDelta credit the acting player's wallet.
	ResourceKind  model.ResourceKind
	ResourceDelta int64
	// EventKind and Public describe the event emitted for the outcome.
	EventKind string
	Public    bool
	// NotifyTarget emits a second event to the target player.
	NotifyTarget bool
	// Outcome is the human-readable result recorded on the action.
	Outcome string
}

// controlGain returns the tiered control gain with the presence bonus.
func controlGain(tier Tier, presence bool) int64 {
	var gain int64
	switch tier {
	case TierFull:
		gain = fullControlGain
	case TierPartial:
		gain = partialControl
	default:
		return 0
	}
	if presence {
		gain += presenceBonus
	}
	return gain
}

// Resolve computes the outcome of a single pending action. The roll is
// drawn from rng; the returned Effect carries every ledger delta and the
// outcome text, leaving application to the caller.
//
// The effect table is a closed switch over the action-type enumeration:
// influence, attack and defense use the three-tier model; reconnaissance
// and information_spread degrade to a limited variant below full success;
// support is unconditional; the politician actions, negotiations, lobbying
// and kompromat_search are binary (full success or nothing).
func Resolve(a *model.Action, rng Rng) Effect {
	chance := SuccessChance(a.ResourceAmount, a.PhysicalPresence)
	roll := rng.Roll100()
	tier := ClassifyRoll(roll, chance)

	switch a.Type {
	case model.ActionInfluence:
		gain := controlGain(tier, a.PhysicalPresence)
		return Effect{
			ControlDelta: gain,
			EventKind:    model.EventActionResult,
			Outcome:      fmt.Sprintf("influence %s: roll %d vs %d, control %+d", tier, roll, chance, gain),
		}

	case model.ActionAttack:
		gain := controlGain(tier, a.PhysicalPresence)
		var targetLoss int64
		switch tier {
		case TierFull:
			targetLoss = -fullControlGain
		case TierPartial:
			targetLoss = -partialControl
		}
		return Effect{
			ControlDelta:       gain,
			TargetControlDelta: targetLoss,
			EventKind:          model.EventActionResult,
			NotifyTarget:       targetLoss != 0,
			Outcome:            fmt.Sprintf("attack %s: roll %d vs %d, own %+d, target %+d", tier, roll, chance, gain, targetLoss),
		}

	case model.ActionDefense:
		// The block allowance is recorded as a literal control gain.
		gain := controlGain(tier, a.PhysicalPresence)
		return Effect{
			ControlDelta: gain,
			EventKind:    model.EventActionResult,
			Outcome:      fmt.Sprintf("defense %s: roll %d vs %d, block allowance %+d", tier, roll, chance, gain),
		}

	case model.ActionReconnaissance:
		if tier == TierFull {
			return Effect{
				EventKind: model.EventIntel,
				Outcome:   fmt.Sprintf("reconnaissance succeeded: roll %d vs %d, detailed district intel", roll, chance),
			}
		}
		return Effect{
			EventKind: model.EventIntel,
			Outcome:   fmt.Sprintf("reconnaissance partial: roll %d vs %d, limited district intel", roll, chance),
		}

	case model.ActionInformationSpread:
		if tier == TierFull {
			return Effect{
				EventKind: model.EventNarrative,
				Public:    true,
				Outcome:   fmt.Sprintf("information spread succeeded: roll %d vs %d, public narrative placed", roll, chance),
			}
		}
		return Effect{
			EventKind: model.EventNarrative,
			Outcome:   fmt.Sprintf("information spread partial: roll %d vs %d, faction-only reach", roll, chance),
		}

	case model.ActionSupport:
		// Support applies unconditionally, no roll involved.
		gain := int64(supportGain)
		if a.PhysicalPresence {
			gain += presenceBonus
		}
		return Effect{
			ControlDelta: gain,
			EventKind:    model.EventActionResult,
			Outcome:      fmt.Sprintf("support: control %+d", gain),
		}

	case model.ActionPoliticianInfluence:
		if tier == TierFull {
			return Effect{
				FriendlinessDelta: friendlinessGain,
				EventKind:         model.EventActionResult,
				Outcome:           fmt.Sprintf("politician influence succeeded: roll %d vs %d, friendliness %+d", roll, chance, friendlinessGain),
			}
		}
		return Effect{
			EventKind: model.EventActionResult,
			Outcome:   fmt.Sprintf("politician influence failed: roll %d vs %d, relation unchanged", roll, chance),
		}

	case model.ActionPoliticianReputation:
		if tier == TierFull {
			return Effect{
				PoliticianInfluenceDelta: -scandalPenalty,
				EventKind:                model.EventScandal,
				Public:                   true,
				Outcome:                  fmt.Sprintf("reputation attack succeeded: roll %d vs %d, scandal published", roll, chance),
			}
		}
		return Effect{
			EventKind: model.EventActionResult,
			Outcome:   fmt.Sprintf("reputation attack failed: roll %d vs %d", roll, chance),
		}

	case model.ActionPoliticianDisplace:
		if tier == TierFull {
			return Effect{
				PoliticianInfluenceDelta: -displacePenalty,
				EventKind:                model.EventScandal,
				Public:                   true,
				Outcome:                  fmt.Sprintf("displacement succeeded: roll %d vs %d, influence %+d", roll, chance, -displacePenalty),
			}
		}
		return Effect{
			EventKind: model.EventActionResult,
			Outcome:   fmt.Sprintf("displacement failed: roll %d vs %d", roll, chance),
		}

	case model.ActionIntlNegotiations, model.ActionLobbying:
		if tier == TierFull {
			return Effect{
				EventKind: model.EventNarrative,
				Outcome:   fmt.Sprintf("%s succeeded: roll %d vs %d", a.Type, roll, chance),
			}
		}
		return Effect{
			EventKind: model.EventNarrative,
			Outcome:   fmt.Sprintf("%s came to nothing: roll %d vs %d", a.Type, roll, chance),
		}

	case model.ActionKompromatSearch:
		if tier == TierFull {
			return Effect{
				ResourceKind:  model.ResourceInformation,
				ResourceDelta: kompromatGain,
				EventKind:     model.EventActionResult,
				Outcome:       fmt.Sprintf("kompromat search succeeded: roll %d vs %d, information %+d", roll, chance, kompromatGain),
			}
		}
		return Effect{
			EventKind: model.EventActionResult,
			Outcome:   fmt.Sprintf("kompromat search turned up nothing: roll %d vs %d", roll, chance),
		}
	}

	return Effect{
		EventKind: model.EventActionResult,
		Outcome:   fmt.Sprintf("unknown action type %q", a.Type),
	}
}
