package engine

import "political-game-engine/internal/model"

// Collective aggregation constants.
const (
	collectiveBase      = 60
	collectivePerUnit   = 3
	collectiveCap       = 95
	defenseEvalBonus    = 10
	attackBasePoints    = 10
	attackPerUnit       = 2
	defenseBasePoints   = 15
	defensePerUnit      = 3
	collectivePresence  = 10
	defenseFailureSplit = 2
)

// Contribution is one participant's stake in a collective action.
type Contribution struct {
	PlayerID         int64
	Amount           int64
	PhysicalPresence bool
}

// CollectiveChance computes the success chance for a collective action
// from the pooled contribution total. Defense receives an evaluation bonus.
func CollectiveChance(total int64, actionType string) int {
	chance := collectiveBase + collectivePerUnit*int(total)
	if chance > collectiveCap {
		chance = collectiveCap
	}
	if actionType == model.CollectiveDefense {
		chance += defenseEvalBonus
	}
	return chance
}

// BasePoints computes the pooled control points at stake.
func BasePoints(total int64, actionType string) int64 {
	if actionType == model.CollectiveDefense {
		return defenseBasePoints + defensePerUnit*total
	}
	return attackBasePoints + attackPerUnit*total
}

// Credit is the control points awarded to one participant.
type Credit struct {
	PlayerID int64
	Points   int64
}

// TotalContribution sums the participant amounts.
func TotalContribution(parts []Contribution) int64 {
	var total int64
	for _, p := range parts {
		total += p.Amount
	}
	return total
}

// ShareCredits splits basePoints across the participants proportionally to
// their contribution, rounding each share down, plus a presence bonus.
// The sum of shares never exceeds basePoints (rounding may leave a
// remainder on the table).
func ShareCredits(parts []Contribution, total, basePoints int64) []Credit {
	credits := make([]Credit, 0, len(parts))
	for _, p := range parts {
		var share int64
		if total > 0 {
			share = p.Amount * basePoints / total
		}
		if p.PhysicalPresence {
			share += collectivePresence
		}
		credits = append(credits, Credit{PlayerID: p.PlayerID, Points: share})
	}
	return credits
}

// CollectiveResult is the computed outcome of one collective action.
type CollectiveResult struct {
	Success    bool
	Roll       int
	Chance     int
	Total      int64
	BasePoints int64
	// TargetLoss is subtracted from the target's control on a successful
	// attack with a named target (floored at zero by the caller).
	TargetLoss int64
	Credits    []Credit
}

// ResolveCollective computes the aggregate outcome of a collective action.
// Attack failure credits nothing; defense failure still credits half of
// each success-case share, rewarding partial coordination.
func ResolveCollective(actionType string, hasTarget bool, parts []Contribution, rng Rng) CollectiveResult {
	total := TotalContribution(parts)
	chance := CollectiveChance(total, actionType)
	base := BasePoints(total, actionType)
	roll := rng.Roll100()
	success := roll <= chance

	res := CollectiveResult{
		Success:    success,
		Roll:       roll,
		Chance:     chance,
		Total:      total,
		BasePoints: base,
	}

	switch {
	case success:
		res.Credits = ShareCredits(parts, total, base)
		if actionType == model.CollectiveAttack && hasTarget {
			res.TargetLoss = base
		}
	case actionType == model.CollectiveDefense:
		full := ShareCredits(parts, total, base)
		for i := range full {
			full[i].Points /= defenseFailureSplit
		}
		res.Credits = full
	default:
		// Failed attack: no credit, contributed resources stay spent.
	}

	return res
}
