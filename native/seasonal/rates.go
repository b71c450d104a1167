package seasonal

import (
	"math/big"

	"agrilend/native/pricing"
)

// RateModel shapes how borrow rates react to reserve utilisation. Rates are
// expressed as decimal fractions on big.Rat, e.g. a 2% base rate is 1/50.
type RateModel struct {
	// BaseRate is the minimum borrow APR applied at zero utilisation.
	BaseRate *big.Rat
	// Slope1 is the APR increase per unit of utilisation up to the kink.
	Slope1 *big.Rat
	// Slope2 governs the additional increase beyond the kink.
	Slope2 *big.Rat
	// Kink is the utilisation ratio where the slope changes.
	Kink *big.Rat
}

// NewRateModel constructs a rate model from decimal inputs; an 80% kink is
// expressed as 0.8.
func NewRateModel(baseRate, slope1, slope2, kink float64) *RateModel {
	model := &RateModel{
		BaseRate: new(big.Rat),
		Slope1:   new(big.Rat),
		Slope2:   new(big.Rat),
		Kink:     new(big.Rat),
	}
	model.BaseRate.SetFloat64(baseRate)
	model.Slope1.SetFloat64(slope1)
	model.Slope2.SetFloat64(slope2)
	model.Kink.SetFloat64(kink)
	return model
}

// Clone returns a deep copy of the model.
func (m *RateModel) Clone() *RateModel {
	if m == nil {
		return nil
	}
	clone := &RateModel{
		BaseRate: new(big.Rat),
		Slope1:   new(big.Rat),
		Slope2:   new(big.Rat),
		Kink:     new(big.Rat),
	}
	if m.BaseRate != nil {
		clone.BaseRate.Set(m.BaseRate)
	}
	if m.Slope1 != nil {
		clone.Slope1.Set(m.Slope1)
	}
	if m.Slope2 != nil {
		clone.Slope2.Set(m.Slope2)
	}
	if m.Kink != nil {
		clone.Kink.Set(m.Kink)
	}
	return clone
}

// Utilisation computes U = totalBorrowed / totalSupplied, defined as zero
// when either side is empty.
func (m *RateModel) Utilisation(totalBorrowed, totalSupplied *big.Int) *big.Rat {
	if totalBorrowed == nil || totalBorrowed.Sign() == 0 {
		return new(big.Rat)
	}
	if totalSupplied == nil || totalSupplied.Sign() == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(totalBorrowed, totalSupplied)
}

// BorrowAPR derives the utilisation-driven borrow APR before any seasonal
// shaping.
func (m *RateModel) BorrowAPR(totalBorrowed, totalSupplied *big.Int) *big.Rat {
	if m == nil {
		return new(big.Rat)
	}
	rate := cloneRat(m.BaseRate)
	utilisation := m.Utilisation(totalBorrowed, totalSupplied)
	if utilisation.Sign() == 0 {
		return rate
	}

	kink := cloneRat(m.Kink)
	slope1 := cloneRat(m.Slope1)
	slope2 := cloneRat(m.Slope2)
	if kink.Sign() == 0 || utilisation.Cmp(kink) <= 0 {
		return rate.Add(rate, new(big.Rat).Mul(slope1, utilisation))
	}

	rate.Add(rate, new(big.Rat).Mul(slope1, kink))
	excess := new(big.Rat).Sub(utilisation, kink)
	if excess.Sign() < 0 {
		excess.SetInt64(0)
	}
	return rate.Add(rate, new(big.Rat).Mul(slope2, excess))
}

// SeasonalBorrowAPR scales the utilisation APR by the seasonal multiplier and
// shifts it by the futures-curve basis. The basis enters additively: contango
// raises the carry cost, backwardation lowers it. The result never goes
// negative.
func (m *RateModel) SeasonalBorrowAPR(totalBorrowed, totalSupplied *big.Int, multiplier *big.Int, basis pricing.CurvePoint) *big.Rat {
	apr := m.BorrowAPR(totalBorrowed, totalSupplied)
	apr.Mul(apr, ratFromRay(multiplier))

	if basis.BasisBps != 0 {
		shift := new(big.Rat).SetFrac(big.NewInt(basis.BasisBps), big.NewInt(10_000))
		apr.Add(apr, shift)
	}
	if apr.Sign() < 0 {
		apr.SetInt64(0)
	}
	return apr
}

func cloneRat(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r)
}

// DefaultRateModel is the starting configuration for commodity reserves: a
// modest base with a steep post-kink slope to defend liquidity.
var DefaultRateModel = NewRateModel(0.02, 0.15, 0.6, 0.8)
