package engine

import "political-game-engine/internal/model"

// Income tier multipliers in percent. A foothold below the weakest tier
// earns nothing.
const (
	incomeBonusPct     = 120
	incomeFullPct      = 100
	incomeContestedPct = 60
	incomeWeakPct      = 40

	incomeContestedMin = 40
	incomeWeakMin      = 20
)

// IncomeMultiplierPct returns the percentage of a district's yield paid
// to a holder with the given control points.
func IncomeMultiplierPct(controlPoints int64) int64 {
	switch {
	case controlPoints >= model.ControlBonusThreshold:
		return incomeBonusPct
	case controlPoints >= model.ControlThreshold:
		return incomeFullPct
	case controlPoints >= incomeContestedMin:
		return incomeContestedPct
	case controlPoints >= incomeWeakMin:
		return incomeWeakPct
	default:
		return 0
	}
}

// IncomePayout is one resource credit owed to a district holder.
type IncomePayout struct {
	PlayerID int64
	Kind     model.ResourceKind
	Amount   int64
}

// DistrictIncome computes the payouts a district owes to one holder:
// each of the four yield rates scaled by the holder's tier, rounded down,
// zero amounts dropped.
func DistrictIncome(d *model.District, ctl *model.DistrictControl) []IncomePayout {
	pct := IncomeMultiplierPct(ctl.ControlPoints)
	if pct == 0 {
		return nil
	}

	var payouts []IncomePayout
	for _, kind := range model.ResourceKinds() {
		amount := d.Yield(kind) * pct / 100
		if amount <= 0 {
			continue
		}
		payouts = append(payouts, IncomePayout{
			PlayerID: ctl.PlayerID,
			Kind:     kind,
			Amount:   amount,
		})
	}
	return payouts
}
