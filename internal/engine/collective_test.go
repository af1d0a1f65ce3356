package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"political-game-engine/internal/model"
)

func TestCollectiveChance(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		actionType string
		expected   int
	}{
		{"attack zero pool", 0, model.CollectiveAttack, 60},
		{"attack five", 5, model.CollectiveAttack, 75},
		{"attack capped", 20, model.CollectiveAttack, 95},
		{"defense bonus", 5, model.CollectiveDefense, 85},
		{"defense bonus on cap", 20, model.CollectiveDefense, 105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollectiveChance(tt.total, tt.actionType))
		})
	}
}

func TestBasePoints(t *testing.T) {
	assert.Equal(t, int64(20), BasePoints(5, model.CollectiveAttack))
	assert.Equal(t, int64(30), BasePoints(5, model.CollectiveDefense))
	assert.Equal(t, int64(10), BasePoints(0, model.CollectiveAttack))
	assert.Equal(t, int64(15), BasePoints(0, model.CollectiveDefense))
}

// TestResolveCollective_AttackScenario pins the two-participant attack:
// contributions 2 and 3 give chance 75 and base 20; on success the
// credits split 8 and 12 with no presence bonus.
func TestResolveCollective_AttackScenario(t *testing.T) {
	parts := []Contribution{
		{PlayerID: 1, Amount: 2},
		{PlayerID: 2, Amount: 3},
	}

	res := ResolveCollective(model.CollectiveAttack, true, parts, &FixedRng{Roll: 75})
	require.True(t, res.Success)
	assert.Equal(t, 75, res.Chance)
	assert.Equal(t, int64(20), res.BasePoints)
	assert.Equal(t, int64(20), res.TargetLoss)

	require.Len(t, res.Credits, 2)
	assert.Equal(t, int64(8), res.Credits[0].Points)
	assert.Equal(t, int64(12), res.Credits[1].Points)
}

func TestResolveCollective_AttackFailure(t *testing.T) {
	parts := []Contribution{
		{PlayerID: 1, Amount: 2},
		{PlayerID: 2, Amount: 3},
	}

	res := ResolveCollective(model.CollectiveAttack, true, parts, &FixedRng{Roll: 76})
	assert.False(t, res.Success)
	assert.Empty(t, res.Credits)
	assert.Zero(t, res.TargetLoss)
}

func TestResolveCollective_AttackWithoutTarget(t *testing.T) {
	parts := []Contribution{{PlayerID: 1, Amount: 5}}

	res := ResolveCollective(model.CollectiveAttack, false, parts, &FixedRng{Roll: 1})
	require.True(t, res.Success)
	assert.Zero(t, res.TargetLoss)
	require.Len(t, res.Credits, 1)
}

// TestResolveCollective_DefenseFailure checks the half-share consolation:
// defense failure still credits each participant half of the success-case
// share.
func TestResolveCollective_DefenseFailure(t *testing.T) {
	parts := []Contribution{
		{PlayerID: 1, Amount: 2},
		{PlayerID: 2, Amount: 3},
	}
	// total 5: defense chance 85, base 30; success shares 12 and 18.
	res := ResolveCollective(model.CollectiveDefense, false, parts, &FixedRng{Roll: 86})
	require.False(t, res.Success)
	require.Len(t, res.Credits, 2)
	assert.Equal(t, int64(6), res.Credits[0].Points)
	assert.Equal(t, int64(9), res.Credits[1].Points)
}

func TestShareCredits_PresenceBonus(t *testing.T) {
	parts := []Contribution{
		{PlayerID: 1, Amount: 2, PhysicalPresence: true},
		{PlayerID: 2, Amount: 3},
	}
	credits := ShareCredits(parts, 5, 20)
	require.Len(t, credits, 2)
	assert.Equal(t, int64(18), credits[0].Points) // 8 + 10 presence
	assert.Equal(t, int64(12), credits[1].Points)
}

func TestShareCredits_ZeroTotal(t *testing.T) {
	credits := ShareCredits([]Contribution{{PlayerID: 1}}, 0, 10)
	require.Len(t, credits, 1)
	assert.Zero(t, credits[0].Points)
}
