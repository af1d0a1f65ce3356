package engine

import "political-game-engine/internal/model"

// Decay constants.
const (
	// DecayPoints is lost by every control row whose holder did not act
	// in the district during the just-closed cycle.
	DecayPoints = 5
	// HandoffPenalty is the cost charged to a previously-dominant player
	// when control of a district changes hands.
	HandoffPenalty = 10
)

// Handoff describes an ownership change in a district: the riser crossed
// the control threshold and became the maximum holder while a previously
// dominant player was still above the threshold.
type Handoff struct {
	DistrictID int64
	RiserID    int64
	OustedID   int64
}

// DetectHandoff inspects a district's control rows before and after an
// update to the riser's balance. It returns a handoff when the riser
// newly crossed the threshold, now holds the district maximum, and the
// previous maximum holder (someone else) is still above the threshold.
func DetectHandoff(districtID, riserID, riserBefore, riserAfter int64, others []model.DistrictControl) (Handoff, bool) {
	if riserBefore >= model.ControlThreshold || riserAfter < model.ControlThreshold {
		return Handoff{}, false
	}

	var topID int64
	var topPoints int64 = -1
	for _, o := range others {
		if o.PlayerID == riserID {
			continue
		}
		if o.ControlPoints > topPoints {
			topID = o.PlayerID
			topPoints = o.ControlPoints
		}
	}

	if topPoints < model.ControlThreshold {
		return Handoff{}, false
	}
	if riserAfter <= topPoints {
		// Riser crossed the threshold but is not the new maximum holder.
		return Handoff{}, false
	}

	return Handoff{DistrictID: districtID, RiserID: riserID, OustedID: topID}, true
}
