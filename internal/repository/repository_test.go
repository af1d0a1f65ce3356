// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"political-game-engine/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedPlayer creates a player with a funded wallet.
func seedPlayer(t *testing.T, pool *pgxpool.Pool, name string, funds int64) *model.Player {
	t.Helper()
	ctx := context.Background()

	p, err := NewPlayerRepository(pool).Create(ctx, name, 0)
	require.NoError(t, err)

	if funds > 0 {
		wallets := NewWalletRepository(pool)
		for _, kind := range model.ResourceKinds() {
			require.NoError(t, wallets.Credit(ctx, p.ID, kind, funds, model.ResourceReasonIncome))
		}
	}
	return p
}

func seedDistrict(t *testing.T, pool *pgxpool.Pool, name string) *model.District {
	t.Helper()
	d, err := NewDistrictRepository(pool).Seed(context.Background(), &model.District{
		Name:           name,
		InfluenceYield: 10,
		MoneyYield:     8,
	})
	require.NoError(t, err)
	return d
}

func seedCycle(t *testing.T, pool *pgxpool.Pool) *model.Cycle {
	t.Helper()
	now := time.Now()
	c, err := NewCycleRepository(pool).Open(context.Background(),
		model.CycleMorning, now, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	return c
}

// ============================================================================
// PlayerRepository Tests
// ============================================================================

func TestPlayerRepository_CreateAndQuotas(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	p, err := repo.Create(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Name)
	assert.Equal(t, 2, p.Ideology)
	assert.Equal(t, model.MainActionsPerCycle, p.MainActionsLeft)
	assert.Equal(t, model.QuickActionsPerCycle, p.QuickActionsLeft)

	// Wallet row exists with zero balances.
	w, err := NewWalletRepository(pool).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, w.Influence)
	assert.Zero(t, w.Money)

	// Main quota: one unit, then exhausted.
	ok, err := repo.ConsumeQuota(ctx, p.ID, false)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ConsumeQuota(ctx, p.ID, false)
	require.NoError(t, err)
	assert.False(t, ok)

	// Restore caps at the per-cycle limit.
	require.NoError(t, repo.RestoreQuota(ctx, p.ID, false))
	require.NoError(t, repo.RestoreQuota(ctx, p.ID, false))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MainActionsPerCycle, got.MainActionsLeft)

	// Reset refills everyone.
	_, err = repo.ConsumeQuota(ctx, p.ID, true)
	require.NoError(t, err)
	require.NoError(t, repo.ResetAllQuotas(ctx))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuickActionsPerCycle, got.QuickActionsLeft)
}

func TestPlayerRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewPlayerRepository(pool).GetByID(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

// ============================================================================
// WalletRepository Tests
// ============================================================================

func TestWalletRepository_DebitKeepsBalanceNonNegative(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedPlayer(t, pool, "bob", 0)
	repo := NewWalletRepository(pool)

	require.NoError(t, repo.Credit(ctx, p.ID, model.ResourceMoney, 10, model.ResourceReasonIncome))

	// A debit above the balance fails and mutates nothing.
	err := repo.Debit(ctx, p.ID, model.ResourceMoney, 11, model.ResourceReasonActionCost)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	w, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Money)

	// A covered debit succeeds.
	require.NoError(t, repo.Debit(ctx, p.ID, model.ResourceMoney, 10, model.ResourceReasonActionCost))
	w, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, w.Money)

	// DebitFloor takes what is there and records what it actually took,
	// so the history still sums to the balance.
	require.NoError(t, repo.Credit(ctx, p.ID, model.ResourceForce, 2, model.ResourceReasonIncome))
	after, err := repo.DebitFloor(ctx, p.ID, model.ResourceForce, 5, model.ResourceReasonIntlEffect)
	require.NoError(t, err)
	assert.Zero(t, after)

	entries, err := repo.History(ctx, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-2), entries[0].Amount)
	assert.Equal(t, model.ResourceReasonIntlEffect, entries[0].Reason)

	// Flooring an empty balance leaves no history row.
	before := len(historyAll(t, repo, p.ID))
	after, err = repo.DebitFloor(ctx, p.ID, model.ResourceForce, 5, model.ResourceReasonIntlEffect)
	require.NoError(t, err)
	assert.Zero(t, after)
	assert.Len(t, historyAll(t, repo, p.ID), before)
}

func historyAll(t *testing.T, repo *WalletRepository, playerID int64) []*model.ResourceEntry {
	t.Helper()
	entries, err := repo.History(context.Background(), playerID, 100)
	require.NoError(t, err)
	return entries
}

func TestWalletRepository_History(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedPlayer(t, pool, "carol", 0)
	repo := NewWalletRepository(pool)

	require.NoError(t, repo.Credit(ctx, p.ID, model.ResourceInfluence, 5, model.ResourceReasonIncome))
	require.NoError(t, repo.Debit(ctx, p.ID, model.ResourceInfluence, 3, model.ResourceReasonActionCost))

	entries, err := repo.History(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-3), entries[0].Amount)
	assert.Equal(t, model.ResourceReasonActionCost, entries[0].Reason)
	assert.Equal(t, int64(5), entries[1].Amount)
}

// ============================================================================
// DistrictRepository Tests
// ============================================================================

func TestDistrictRepository_ControlUpsertAndFloor(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedPlayer(t, pool, "dave", 0)
	d := seedDistrict(t, pool, "Central")
	repo := NewDistrictRepository(pool)

	// Missing row reads as zero control.
	ctl, err := repo.GetControl(ctx, p.ID, d.ID)
	require.NoError(t, err)
	assert.Zero(t, ctl.ControlPoints)

	// First delta creates the row.
	points, err := repo.ApplyControlDelta(ctx, p.ID, d.ID, 30, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(30), points)

	ctl, err = repo.GetControl(ctx, p.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ctl.LastActionCycleID)

	// Negative delta floors at zero; zero touch keeps the cycle marker.
	points, err = repo.ApplyControlDelta(ctx, p.ID, d.ID, -50, 0)
	require.NoError(t, err)
	assert.Zero(t, points)

	ctl, err = repo.GetControl(ctx, p.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ctl.LastActionCycleID)
}

func TestDistrictRepository_ApplyDecay(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	active := seedPlayer(t, pool, "active", 0)
	idle := seedPlayer(t, pool, "idle", 0)
	d := seedDistrict(t, pool, "Harbor")
	repo := NewDistrictRepository(pool)

	_, err := repo.ApplyControlDelta(ctx, active.ID, d.ID, 55, 3)
	require.NoError(t, err)
	_, err = repo.ApplyControlDelta(ctx, idle.ID, d.ID, 55, 2)
	require.NoError(t, err)

	// Closing cycle 3: only the idle row decays.
	decayed, err := repo.ApplyDecay(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), decayed)

	ctl, err := repo.GetControl(ctx, active.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(55), ctl.ControlPoints)

	ctl, err = repo.GetControl(ctx, idle.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), ctl.ControlPoints)
}

// ============================================================================
// CycleRepository Tests
// ============================================================================

func TestCycleRepository_SingleOpenCycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCycleRepository(pool)

	_, err := repo.GetOpen(ctx)
	assert.ErrorIs(t, err, ErrCycleNotFound)

	c := seedCycle(t, pool)

	// A second open cycle violates the partial unique index.
	now := time.Now()
	_, err = repo.Open(ctx, model.CycleEvening, now, now.Add(time.Hour), now.Add(2*time.Hour))
	assert.Error(t, err)

	// Closing the first allows a successor.
	require.NoError(t, repo.MarkResolved(ctx, c.ID))
	assert.ErrorIs(t, repo.MarkResolved(ctx, c.ID), ErrCycleNotFound)

	next, err := repo.Open(ctx, model.CycleEvening, now, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, open.ID)
}

// ============================================================================
// ActionRepository Tests
// ============================================================================

func TestActionRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedPlayer(t, pool, "erin", 0)
	d := seedDistrict(t, pool, "University")
	c := seedCycle(t, pool)
	repo := NewActionRepository(pool)

	a, err := repo.Create(ctx, &model.Action{
		PlayerID:       p.ID,
		Type:           model.ActionInfluence,
		CycleID:        c.ID,
		DistrictID:     &d.ID,
		ResourceKind:   model.ResourceInfluence,
		ResourceAmount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPending, a.Status)

	pending, err := repo.ListPendingByCycle(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	count, err := repo.CountByClass(ctx, p.ID, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.Complete(ctx, a.ID, "influence full success", 10))

	// Completed rows are immutable.
	assert.ErrorIs(t, repo.Complete(ctx, a.ID, "again", 0), ErrNotPending)
	assert.ErrorIs(t, repo.Cancel(ctx, a.ID), ErrNotPending)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusCompleted, got.Status)
	assert.Equal(t, int64(10), got.ControlDelta)

	// Completed actions still count against the quota.
	count, err = repo.CountByClass(ctx, p.ID, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestActionRepository_CancelExcludesFromQuota(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedPlayer(t, pool, "frank", 0)
	c := seedCycle(t, pool)
	repo := NewActionRepository(pool)

	a, err := repo.Create(ctx, &model.Action{
		PlayerID: p.ID, Type: model.ActionKompromatSearch, IsQuick: true, CycleID: c.ID,
		ResourceKind: model.ResourceInformation,
	})
	require.NoError(t, err)

	latest, err := repo.LatestPendingForUpdate(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, latest.ID)

	require.NoError(t, repo.Cancel(ctx, a.ID))

	count, err := repo.CountByClass(ctx, p.ID, c.ID, true)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.LatestPendingForUpdate(ctx, p.ID)
	assert.ErrorIs(t, err, ErrActionNotFound)
}

// ============================================================================
// CollectiveRepository Tests
// ============================================================================

func TestCollectiveRepository_DuplicateJoin(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	initiator := seedPlayer(t, pool, "gwen", 0)
	d := seedDistrict(t, pool, "Industrial")
	c := seedCycle(t, pool)
	repo := NewCollectiveRepository(pool)

	ca, err := repo.Create(ctx, &model.CollectiveAction{
		InitiatorID: initiator.ID,
		Type:        model.CollectiveAttack,
		DistrictID:  d.ID,
		CycleID:     c.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.CollectiveStatusActive, ca.Status)

	part := &model.CollectiveParticipant{
		CollectiveActionID: ca.ID,
		PlayerID:           initiator.ID,
		ResourceKind:       model.ResourceForce,
		ResourceAmount:     2,
	}
	require.NoError(t, repo.AddParticipant(ctx, part))
	assert.ErrorIs(t, repo.AddParticipant(ctx, part), ErrDuplicateJoin)

	has, err := repo.HasParticipant(ctx, ca.ID, initiator.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, repo.SetParticipantCredit(ctx, ca.ID, initiator.ID, 12))
	parts, err := repo.ListParticipants(ctx, ca.ID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, int64(12), parts[0].CreditedPoints)

	require.NoError(t, repo.Complete(ctx, ca.ID, "success"))
	assert.ErrorIs(t, repo.Complete(ctx, ca.ID, "again"), ErrCollectiveNotFound)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

// ============================================================================
// PoliticianRepository Tests
// ============================================================================

func TestPoliticianRepository_Relations(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedPlayer(t, pool, "hank", 0)
	repo := NewPoliticianRepository(pool)

	country := "USA"
	pol, err := repo.Seed(ctx, &model.Politician{
		Name: "Senator Hale", Scope: model.PoliticianInternational, Country: &country, Ideology: 3,
	})
	require.NoError(t, err)

	// First touch creates the relation at the default.
	rel, err := repo.GetRelation(ctx, p.ID, pol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultFriendliness, rel.Friendliness)

	// Adjustments clamp to 0..100.
	f, err := repo.AdjustFriendliness(ctx, p.ID, pol.ID, 70)
	require.NoError(t, err)
	assert.Equal(t, 100, f)
	f, err = repo.AdjustFriendliness(ctx, p.ID, pol.ID, -250)
	require.NoError(t, err)
	assert.Equal(t, 0, f)

	// Influence floors at zero.
	require.NoError(t, repo.AdjustInfluence(ctx, pol.ID, -999))
	got, err := repo.GetByID(ctx, pol.ID)
	require.NoError(t, err)
	assert.Zero(t, got.DistrictInfluence)
}

// ============================================================================
// EffectRepository Tests
// ============================================================================

func TestEffectRepository_ExpiryWindow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewEffectRepository(pool)

	country := "Germany"
	pol, err := NewPoliticianRepository(pool).Seed(ctx, &model.Politician{
		Name: "Chancellor Weiss", Scope: model.PoliticianInternational, Country: &country,
	})
	require.NoError(t, err)

	now := time.Now()
	_, err = repo.Create(ctx, &model.InternationalEffect{
		PoliticianID:   pol.ID,
		Type:           model.EffectSanctions,
		IdeologyFilter: model.IdeologyFilterAny,
		ControlDelta:   -10,
		ExpiresAt:      now.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.InternationalEffect{
		PoliticianID:   pol.ID,
		Type:           model.EffectSupport,
		IdeologyFilter: model.IdeologyFilterAny,
		ControlDelta:   10,
		ExpiresAt:      now.Add(-time.Hour),
	})
	require.NoError(t, err)

	live, err := repo.ListUnexpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, model.EffectSanctions, live[0].Type)

	pruned, err := repo.PruneExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
}

// ============================================================================
// EventRepository Tests
// ============================================================================

func TestEventRepository_PublicAndPrivate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := seedPlayer(t, pool, "ivy", 0)
	b := seedPlayer(t, pool, "jack", 0)
	repo := NewEventRepository(pool)

	require.NoError(t, repo.Publish(ctx, &model.GameEvent{
		PlayerID: &a.ID, CycleID: 1, Kind: model.EventActionResult, Body: "private to a",
	}))
	require.NoError(t, repo.Publish(ctx, &model.GameEvent{
		CycleID: 1, Kind: model.EventNarrative, Body: "public",
	}))

	events, err := repo.ListForPlayer(ctx, b.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "public", events[0].Body)

	events, err = repo.ListForPlayer(ctx, a.ID, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

// ============================================================================
// TradeRepository Tests
// ============================================================================

func TestTradeRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seller := seedPlayer(t, pool, "kate", 0)
	buyer := seedPlayer(t, pool, "liam", 0)
	repo := NewTradeRepository(pool)

	offer, err := repo.Create(ctx, &model.TradeOffer{
		SellerID:    seller.ID,
		OfferedKind: model.ResourceMoney,
		OfferedQty:  5,
		WantedKind:  model.ResourceForce,
		WantedQty:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusOpen, offer.Status)

	open, err := repo.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, repo.MarkAccepted(ctx, offer.ID, buyer.ID))

	// Status guards: accepted offers cannot be accepted or cancelled again.
	assert.ErrorIs(t, repo.MarkAccepted(ctx, offer.ID, buyer.ID), ErrOfferNotFound)
	assert.ErrorIs(t, repo.MarkCancelled(ctx, offer.ID), ErrOfferNotFound)
}
