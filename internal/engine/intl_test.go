package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"political-game-engine/internal/model"
)

func TestEffectTypesFor(t *testing.T) {
	// Reform-leaning (negative) politicians sanction or back the
	// opposition; conservative (positive) ones attack or destabilize.
	assert.Equal(t,
		[]string{model.EffectSanctions, model.EffectSupport, model.EffectDiplomacy},
		effectTypesFor(-3))
	assert.Equal(t,
		[]string{model.EffectAttack, model.EffectDestabilization, model.EffectDiplomacy},
		effectTypesFor(4))
	assert.Equal(t,
		[]string{model.EffectDiplomacy, model.EffectSupport, model.EffectDestabilization},
		effectTypesFor(0))
	assert.Equal(t,
		[]string{model.EffectDiplomacy, model.EffectSupport, model.EffectDestabilization},
		effectTypesFor(1))
}

func TestGenerateEffect(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	pol := &model.Politician{ID: 4, Scope: model.PoliticianInternational, Ideology: -4}
	districts := []int64{11, 12, 13}

	// Scripted rng: first pick index 0 everywhere.
	eff := GenerateEffect(pol, districts, now, &FixedRng{Roll: 1, N: 0})

	assert.Equal(t, int64(4), eff.PoliticianID)
	assert.Equal(t, model.EffectSanctions, eff.Type)
	assert.Equal(t, model.IdeologyFilterAny, eff.IdeologyFilter)
	assert.Equal(t, int64(-10), eff.ControlDelta)
	require.NotNil(t, eff.ResourceKind)
	assert.Equal(t, model.ResourceMoney, *eff.ResourceKind)
	assert.Equal(t, int64(-5), eff.ResourceDelta)
	require.NotNil(t, eff.DistrictID)
	assert.Equal(t, int64(11), *eff.DistrictID)
	assert.Equal(t, now.Add(24*time.Hour), eff.ExpiresAt)
}

func TestGenerateEffect_ProfilesCoherent(t *testing.T) {
	// Every generatable type has a profile.
	for _, ideology := range []int{-5, 0, 5} {
		for _, typ := range effectTypesFor(ideology) {
			_, ok := effectProfiles[typ]
			require.True(t, ok, "missing profile for %s", typ)
		}
	}
}

func TestMatchesIdeology(t *testing.T) {
	tests := []struct {
		filter   string
		ideology int
		want     bool
	}{
		{model.IdeologyFilterAny, -5, true},
		{model.IdeologyFilterAny, 0, true},
		{model.IdeologyFilterPositive, 3, true},
		{model.IdeologyFilterPositive, 0, false},
		{model.IdeologyFilterPositive, -2, false},
		{model.IdeologyFilterNegative, -1, true},
		{model.IdeologyFilterNegative, 0, false},
		{model.IdeologyFilterNegative, 2, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesIdeology(tt.filter, tt.ideology),
			"filter=%s ideology=%d", tt.filter, tt.ideology)
	}
}

func TestNewRngDeterministic(t *testing.T) {
	a, b := NewRng(42), NewRng(42)
	for i := 0; i < 20; i++ {
		ra, rb := a.Roll100(), b.Roll100()
		require.Equal(t, ra, rb)
		require.GreaterOrEqual(t, ra, 1)
		require.LessOrEqual(t, ra, 100)
	}
}
