// Package model defines the data models for the political game engine.
package model

import "time"

// ResourceKind identifies one of the four resource types in the economy.
type ResourceKind string

// Resource kinds.
const (
	ResourceInfluence   ResourceKind = "influence"
	ResourceMoney       ResourceKind = "money"
	ResourceInformation ResourceKind = "information"
	ResourceForce       ResourceKind = "force"
)

// ResourceKinds returns all resource kinds in canonical order.
func ResourceKinds() []ResourceKind {
	return []ResourceKind{ResourceInfluence, ResourceMoney, ResourceInformation, ResourceForce}
}

// ValidResourceKind reports whether k is one of the four known kinds.
func ValidResourceKind(k ResourceKind) bool {
	switch k {
	case ResourceInfluence, ResourceMoney, ResourceInformation, ResourceForce:
		return true
	}
	return false
}

// ActionType is the closed enumeration of single-player action types.
type ActionType string

// Single-player action types.
const (
	ActionInfluence            ActionType = "influence"
	ActionAttack               ActionType = "attack"
	ActionDefense              ActionType = "defense"
	ActionReconnaissance       ActionType = "reconnaissance"
	ActionInformationSpread    ActionType = "information_spread"
	ActionSupport              ActionType = "support"
	ActionPoliticianInfluence  ActionType = "politician_influence"
	ActionPoliticianReputation ActionType = "politician_reputation_attack"
	ActionPoliticianDisplace   ActionType = "politician_displacement"
	ActionIntlNegotiations     ActionType = "international_negotiations"
	ActionLobbying             ActionType = "lobbying"
	ActionKompromatSearch      ActionType = "kompromat_search"
)

// ActionTypes returns every single-player action type.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionInfluence, ActionAttack, ActionDefense,
		ActionReconnaissance, ActionInformationSpread, ActionSupport,
		ActionPoliticianInfluence, ActionPoliticianReputation, ActionPoliticianDisplace,
		ActionIntlNegotiations, ActionLobbying, ActionKompromatSearch,
	}
}

// ValidActionType reports whether t is a known action type.
func ValidActionType(t ActionType) bool {
	for _, at := range ActionTypes() {
		if t == at {
			return true
		}
	}
	return false
}

// Action lifecycle statuses. Completed and cancelled actions are immutable.
const (
	ActionStatusPending   = "pending"
	ActionStatusCompleted = "completed"
	ActionStatusCancelled = "cancelled"
)

// Collective action types and statuses.
const (
	CollectiveAttack  = "attack"
	CollectiveDefense = "defense"

	CollectiveStatusActive    = "active"
	CollectiveStatusCompleted = "completed"
)

// Cycle types. Two cycles alternate per day.
const (
	CycleMorning = "morning"
	CycleEvening = "evening"
)

// Politician scopes.
const (
	PoliticianLocal         = "local"
	PoliticianInternational = "international"
)

// International effect types.
const (
	EffectSanctions       = "sanctions"
	EffectSupport         = "support"
	EffectDiplomacy       = "diplomacy"
	EffectAttack          = "attack"
	EffectDestabilization = "destabilization"
)

// Ideology filters for international effects.
const (
	IdeologyFilterAny      = "any"
	IdeologyFilterPositive = "positive"
	IdeologyFilterNegative = "negative"
)

// Trade offer statuses.
const (
	TradeStatusOpen      = "open"
	TradeStatusAccepted  = "accepted"
	TradeStatusCancelled = "cancelled"
)

// Per-cycle action quotas, reset on every cycle transition.
const (
	MainActionsPerCycle  = 1
	QuickActionsPerCycle = 2
)

// Control thresholds.
const (
	// ControlThreshold is the number of control points that grants a
	// player control of a district.
	ControlThreshold = 60
	// ControlBonusThreshold grants the boosted income tier.
	ControlBonusThreshold = 80
)

// Player is a registered participant in the game world.
type Player struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Ideology         int       `db:"ideology"` // -5..+5
	MainActionsLeft  int       `db:"main_actions_left"`
	QuickActionsLeft int       `db:"quick_actions_left"`
	IsAdmin          bool      `db:"is_admin"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Wallet holds a player's balances of the four resources. Every balance
// is >= 0 at all times.
type Wallet struct {
	PlayerID    int64 `db:"player_id"`
	Influence   int64 `db:"influence"`
	Money       int64 `db:"money"`
	Information int64 `db:"information"`
	Force       int64 `db:"force"`
}

// Balance returns the balance for the given kind.
func (w *Wallet) Balance(kind ResourceKind) int64 {
	switch kind {
	case ResourceInfluence:
		return w.Influence
	case ResourceMoney:
		return w.Money
	case ResourceInformation:
		return w.Information
	case ResourceForce:
		return w.Force
	}
	return 0
}

// ResourceEntry is one row of a player's resource history.
type ResourceEntry struct {
	ID        int64        `db:"id"`
	PlayerID  int64        `db:"player_id"`
	Kind      ResourceKind `db:"kind"`
	Amount    int64        `db:"amount"` // signed: credit > 0, debit < 0
	Reason    string       `db:"reason"`
	CreatedAt time.Time    `db:"created_at"`
}

// Resource history reasons.
const (
	ResourceReasonActionCost   = "action_cost"
	ResourceReasonRefund       = "refund"
	ResourceReasonIncome       = "income"
	ResourceReasonActionReward = "action_reward"
	ResourceReasonIntlEffect   = "international_effect"
	ResourceReasonTradeEscrow  = "trade_escrow"
	ResourceReasonTradeSettle  = "trade_settle"
)

// District is a static reference entity with one yield rate per resource kind.
type District struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	InfluenceYield   int64  `db:"influence_yield"`
	MoneyYield       int64  `db:"money_yield"`
	InformationYield int64  `db:"information_yield"`
	ForceYield       int64  `db:"force_yield"`
}

// Yield returns the district's yield rate for the given kind.
func (d *District) Yield(kind ResourceKind) int64 {
	switch kind {
	case ResourceInfluence:
		return d.InfluenceYield
	case ResourceMoney:
		return d.MoneyYield
	case ResourceInformation:
		return d.InformationYield
	case ResourceForce:
		return d.ForceYield
	}
	return 0
}

// DistrictControl is a player's control-point balance in one district.
// Rows are created lazily on first effect.
type DistrictControl struct {
	PlayerID          int64     `db:"player_id"`
	DistrictID        int64     `db:"district_id"`
	ControlPoints     int64     `db:"control_points"` // >= 0
	LastActionCycleID int64     `db:"last_action_cycle_id"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Politician is a static reference entity, either local (tied to a district)
// or international (tied to a country).
type Politician struct {
	ID                int64   `db:"id"`
	Name              string  `db:"name"`
	Scope             string  `db:"scope"` // local | international
	DistrictID        *int64  `db:"district_id"`
	Country           *string `db:"country"`
	Ideology          int     `db:"ideology"` // -5..+5
	DistrictInfluence int64   `db:"district_influence"`
}

// PoliticianRelation tracks a player's friendliness with one politician.
type PoliticianRelation struct {
	PlayerID     int64     `db:"player_id"`
	PoliticianID int64     `db:"politician_id"`
	Friendliness int       `db:"friendliness"` // 0..100, defaults to 50
	UpdatedAt    time.Time `db:"updated_at"`
}

// DefaultFriendliness is the initial friendliness on first access.
const DefaultFriendliness = 50

// Action is a single-player submission. The resource cost is debited at
// submission time; completed and cancelled actions are immutable.
type Action struct {
	ID               int64        `db:"id"`
	PlayerID         int64        `db:"player_id"`
	Type             ActionType   `db:"type"`
	IsQuick          bool         `db:"is_quick"`
	CycleID          int64        `db:"cycle_id"`
	DistrictID       *int64       `db:"district_id"`
	TargetPlayerID   *int64       `db:"target_player_id"`
	TargetPolitician *int64       `db:"target_politician_id"`
	ResourceKind     ResourceKind `db:"resource_kind"`
	ResourceAmount   int64        `db:"resource_amount"`
	PhysicalPresence bool         `db:"physical_presence"`
	Status           string       `db:"status"`
	Outcome          *string      `db:"outcome"`
	ControlDelta     int64        `db:"control_delta"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

// CollectiveAction is a multi-player pooled attack or defense.
type CollectiveAction struct {
	ID             int64     `db:"id"`
	InitiatorID    int64     `db:"initiator_id"`
	Type           string    `db:"type"` // attack | defense
	DistrictID     int64     `db:"district_id"`
	TargetPlayerID *int64    `db:"target_player_id"`
	CycleID        int64     `db:"cycle_id"`
	Status         string    `db:"status"`
	Outcome        *string   `db:"outcome"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// CollectiveParticipant is one player's contribution to a collective action.
// A player may join a given collective action at most once.
type CollectiveParticipant struct {
	CollectiveActionID int64        `db:"collective_action_id"`
	PlayerID           int64        `db:"player_id"`
	ResourceKind       ResourceKind `db:"resource_kind"`
	ResourceAmount     int64        `db:"resource_amount"`
	PhysicalPresence   bool         `db:"physical_presence"`
	CreditedPoints     int64        `db:"credited_points"`
	CreatedAt          time.Time    `db:"created_at"`
}

// Cycle is one submission window. At most one cycle is open at any instant.
type Cycle struct {
	ID          int64     `db:"id"`
	Type        string    `db:"type"` // morning | evening
	Date        time.Time `db:"date"`
	Deadline    time.Time `db:"deadline"`
	ResultsTime time.Time `db:"results_time"`
	IsOpen      bool      `db:"is_open"`
	IsResolved  bool      `db:"is_resolved"`
	CreatedAt   time.Time `db:"created_at"`
}

// InternationalEffect is a time-bounded exogenous modifier targeting a
// district and optionally filtered by player ideology.
type InternationalEffect struct {
	ID             int64         `db:"id"`
	PoliticianID   int64         `db:"politician_id"`
	Type           string        `db:"type"`
	DistrictID     *int64        `db:"district_id"`
	IdeologyFilter string        `db:"ideology_filter"` // any | positive | negative
	ControlDelta   int64         `db:"control_delta"`
	ResourceKind   *ResourceKind `db:"resource_kind"`
	ResourceDelta  int64         `db:"resource_delta"`
	ExpiresAt      time.Time     `db:"expires_at"`
	CreatedAt      time.Time     `db:"created_at"`
}

// GameEvent is a structured outcome record written to the event sink.
// A nil PlayerID marks a public event.
type GameEvent struct {
	ID        int64     `db:"id"`
	PlayerID  *int64    `db:"player_id"`
	CycleID   int64     `db:"cycle_id"`
	Kind      string    `db:"kind"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// Event kinds.
const (
	EventActionResult   = "action_result"
	EventAttackIncoming = "attack_incoming"
	EventIntel          = "intel"
	EventNarrative      = "narrative"
	EventScandal        = "scandal"
	EventCollective     = "collective_result"
	EventIntlEffect     = "international_effect"
	EventControlShift   = "control_shift"
	EventIncome         = "income"
)

// TradeOffer is an open resource exchange between two players. The offered
// amount is escrowed from the seller's wallet on creation.
type TradeOffer struct {
	ID          int64        `db:"id"`
	SellerID    int64        `db:"seller_id"`
	BuyerID     *int64       `db:"buyer_id"`
	OfferedKind ResourceKind `db:"offered_kind"`
	OfferedQty  int64        `db:"offered_qty"`
	WantedKind  ResourceKind `db:"wanted_kind"`
	WantedQty   int64        `db:"wanted_qty"`
	Status      string       `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}
