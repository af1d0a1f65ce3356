package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"political-game-engine/internal/model"
)

func TestSuccessChance(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		presence bool
		expected int
	}{
		{"zero amount", 0, false, 60},
		{"one unit", 1, false, 65},
		{"two units", 2, false, 70},
		{"capped at 95", 7, false, 95},
		{"far past cap", 50, false, 95},
		{"presence on top of base", 0, true, 80},
		{"presence on top of cap", 10, true, 115},
		{"amount two with presence", 2, true, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuccessChance(tt.amount, tt.presence))
		})
	}
}

func TestClassifyRoll(t *testing.T) {
	tests := []struct {
		name   string
		roll   int
		chance int
		want   Tier
	}{
		{"well under chance", 30, 60, TierFull},
		{"exactly chance", 60, 60, TierFull},
		{"just over chance", 61, 60, TierPartial},
		{"top of partial window", 80, 60, TierPartial},
		{"past partial window", 81, 60, TierFailure},
		{"hundred vs low chance", 100, 60, TierFailure},
		{"window past hundred", 100, 90, TierPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRoll(tt.roll, tt.chance))
		})
	}
}

// TestResolve_InfluenceScenario pins the influence outcome for amount=2
// with physical presence: chance 90, full success +30, partial +25, and
// the failure tier unreachable because 90+20 covers the whole die.
func TestResolve_InfluenceScenario(t *testing.T) {
	action := &model.Action{
		Type:             model.ActionInfluence,
		ResourceAmount:   2,
		PhysicalPresence: true,
	}

	tests := []struct {
		name      string
		roll      int
		wantDelta int64
	}{
		{"full success at 1", 1, 30},
		{"full success at 90", 90, 30},
		{"partial at 91", 91, 25},
		{"partial at 100", 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff := Resolve(action, &FixedRng{Roll: tt.roll})
			assert.Equal(t, tt.wantDelta, eff.ControlDelta)
			assert.NotEmpty(t, eff.Outcome)
		})
	}
}

func TestResolve_InfluenceWithoutPresence(t *testing.T) {
	action := &model.Action{Type: model.ActionInfluence, ResourceAmount: 0}

	eff := Resolve(action, &FixedRng{Roll: 60}) // chance 60: full
	assert.Equal(t, int64(10), eff.ControlDelta)

	eff = Resolve(action, &FixedRng{Roll: 70}) // partial
	assert.Equal(t, int64(5), eff.ControlDelta)

	eff = Resolve(action, &FixedRng{Roll: 95}) // failure
	assert.Equal(t, int64(0), eff.ControlDelta)
}

func TestResolve_Attack(t *testing.T) {
	action := &model.Action{Type: model.ActionAttack, ResourceAmount: 0}

	t.Run("full success", func(t *testing.T) {
		eff := Resolve(action, &FixedRng{Roll: 10})
		assert.Equal(t, int64(10), eff.ControlDelta)
		assert.Equal(t, int64(-10), eff.TargetControlDelta)
		assert.True(t, eff.NotifyTarget)
	})

	t.Run("partial success", func(t *testing.T) {
		eff := Resolve(action, &FixedRng{Roll: 70})
		assert.Equal(t, int64(5), eff.ControlDelta)
		assert.Equal(t, int64(-5), eff.TargetControlDelta)
	})

	t.Run("failure", func(t *testing.T) {
		eff := Resolve(action, &FixedRng{Roll: 100})
		assert.Zero(t, eff.ControlDelta)
		assert.Zero(t, eff.TargetControlDelta)
		assert.False(t, eff.NotifyTarget)
	})

	t.Run("presence bonus on own gain only", func(t *testing.T) {
		present := &model.Action{Type: model.ActionAttack, PhysicalPresence: true}
		eff := Resolve(present, &FixedRng{Roll: 10})
		assert.Equal(t, int64(30), eff.ControlDelta)
		assert.Equal(t, int64(-10), eff.TargetControlDelta)
	})
}

func TestResolve_SupportIsUnconditional(t *testing.T) {
	action := &model.Action{Type: model.ActionSupport}

	// Even a maximal roll credits the support gain.
	eff := Resolve(action, &FixedRng{Roll: 100})
	assert.Equal(t, int64(5), eff.ControlDelta)

	present := &model.Action{Type: model.ActionSupport, PhysicalPresence: true}
	eff = Resolve(present, &FixedRng{Roll: 100})
	assert.Equal(t, int64(25), eff.ControlDelta)
}

func TestResolve_PoliticianActions(t *testing.T) {
	t.Run("influence success", func(t *testing.T) {
		eff := Resolve(&model.Action{Type: model.ActionPoliticianInfluence}, &FixedRng{Roll: 10})
		assert.Equal(t, 10, eff.FriendlinessDelta)
	})

	t.Run("influence failure leaves relation unchanged", func(t *testing.T) {
		eff := Resolve(&model.Action{Type: model.ActionPoliticianInfluence}, &FixedRng{Roll: 100})
		assert.Zero(t, eff.FriendlinessDelta)
	})

	t.Run("reputation attack success", func(t *testing.T) {
		eff := Resolve(&model.Action{Type: model.ActionPoliticianReputation}, &FixedRng{Roll: 10})
		assert.Equal(t, int64(-2), eff.PoliticianInfluenceDelta)
		assert.Equal(t, model.EventScandal, eff.EventKind)
		assert.True(t, eff.Public)
	})

	t.Run("displacement success", func(t *testing.T) {
		eff := Resolve(&model.Action{Type: model.ActionPoliticianDisplace}, &FixedRng{Roll: 10})
		assert.Equal(t, int64(-5), eff.PoliticianInfluenceDelta)
		assert.True(t, eff.Public)
	})
}

func TestResolve_KompromatSearch(t *testing.T) {
	eff := Resolve(&model.Action{Type: model.ActionKompromatSearch}, &FixedRng{Roll: 10})
	require.Equal(t, model.ResourceInformation, eff.ResourceKind)
	assert.Equal(t, int64(2), eff.ResourceDelta)

	eff = Resolve(&model.Action{Type: model.ActionKompromatSearch}, &FixedRng{Roll: 100})
	assert.Zero(t, eff.ResourceDelta)
}

func TestResolve_NarrativeActions(t *testing.T) {
	for _, at := range []model.ActionType{model.ActionIntlNegotiations, model.ActionLobbying} {
		t.Run(string(at), func(t *testing.T) {
			success := Resolve(&model.Action{Type: at}, &FixedRng{Roll: 10})
			assert.Equal(t, model.EventNarrative, success.EventKind)
			assert.Zero(t, success.ControlDelta)

			failure := Resolve(&model.Action{Type: at}, &FixedRng{Roll: 100})
			assert.Equal(t, model.EventNarrative, failure.EventKind)
			assert.NotEqual(t, success.Outcome, failure.Outcome)
		})
	}
}

func TestResolve_Reconnaissance(t *testing.T) {
	full := Resolve(&model.Action{Type: model.ActionReconnaissance}, &FixedRng{Roll: 10})
	assert.Equal(t, model.EventIntel, full.EventKind)
	assert.Contains(t, full.Outcome, "detailed")

	limited := Resolve(&model.Action{Type: model.ActionReconnaissance}, &FixedRng{Roll: 100})
	assert.Equal(t, model.EventIntel, limited.EventKind)
	assert.Contains(t, limited.Outcome, "limited")
}

func TestResolve_InformationSpread(t *testing.T) {
	full := Resolve(&model.Action{Type: model.ActionInformationSpread}, &FixedRng{Roll: 10})
	assert.True(t, full.Public)

	limited := Resolve(&model.Action{Type: model.ActionInformationSpread}, &FixedRng{Roll: 100})
	assert.False(t, limited.Public)
}
