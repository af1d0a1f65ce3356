// Property-based tests for the single-action outcome model.
package engine

import (
	"testing"

	"pgregory.net/rapid"

	"political-game-engine/internal/model"
)

// TestSuccessChanceBoundsProperty checks the chance stays inside the
// model's envelope: [60, 95] without presence, shifted by exactly 20
// with presence.
func TestSuccessChanceBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(0, 1000).Draw(t, "amount")

		base := SuccessChance(amount, false)
		if base < 60 || base > 95 {
			t.Fatalf("chance %d outside [60,95] for amount %d", base, amount)
		}

		present := SuccessChance(amount, true)
		if present != base+20 {
			t.Fatalf("presence bonus not +20: %d vs %d", present, base)
		}
	})
}

// TestSuccessChanceMonotonicProperty checks that committing more of a
// resource never lowers the chance.
func TestSuccessChanceMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(0, 500).Draw(t, "a")
		b := rapid.Int64Range(0, 500).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		if SuccessChance(a, false) > SuccessChance(b, false) {
			t.Fatalf("chance decreased from amount %d to %d", a, b)
		}
	})
}

// TestClassifyRollPartitionProperty checks every (roll, chance) pair maps
// to exactly the tier its window defines.
func TestClassifyRollPartitionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roll := rapid.IntRange(1, 100).Draw(t, "roll")
		chance := rapid.IntRange(60, 115).Draw(t, "chance")

		tier := ClassifyRoll(roll, chance)
		switch {
		case roll <= chance:
			if tier != TierFull {
				t.Fatalf("roll %d <= chance %d should be full, got %v", roll, chance, tier)
			}
		case roll <= chance+20:
			if tier != TierPartial {
				t.Fatalf("roll %d in partial window of %d, got %v", roll, chance, tier)
			}
		default:
			if tier != TierFailure {
				t.Fatalf("roll %d past window of %d, got %v", roll, chance, tier)
			}
		}
	})
}

// TestResolveControlDeltaNonNegativeProperty checks that the acting
// player's own control delta is never negative for any action type.
func TestResolveControlDeltaNonNegativeProperty(t *testing.T) {
	types := model.ActionTypes()
	rapid.Check(t, func(t *rapid.T) {
		action := &model.Action{
			Type:             types[rapid.IntRange(0, len(types)-1).Draw(t, "type")],
			ResourceAmount:   rapid.Int64Range(0, 50).Draw(t, "amount"),
			PhysicalPresence: rapid.Bool().Draw(t, "presence"),
		}
		roll := rapid.IntRange(1, 100).Draw(t, "roll")

		eff := Resolve(action, &FixedRng{Roll: roll})
		if eff.ControlDelta < 0 {
			t.Fatalf("own control delta negative (%d) for %s", eff.ControlDelta, action.Type)
		}
		if eff.TargetControlDelta > 0 {
			t.Fatalf("target control delta positive (%d) for %s", eff.TargetControlDelta, action.Type)
		}
		if eff.Outcome == "" {
			t.Fatalf("empty outcome text for %s", action.Type)
		}
	})
}
