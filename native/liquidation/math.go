package liquidation

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	ray         = mustBigInt("1000000000000000000000000000") // 1e27 precision
	// maxHealthFactor saturates debt-free positions at a health factor of
	// one hundred; comparisons never need anything larger.
	maxHealthFactor = new(big.Int).Mul(ray, big.NewInt(100))
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

func rayFromBps(bps uint64) *big.Int {
	out := new(big.Int).SetUint64(bps)
	out.Mul(out, ray)
	return out.Quo(out, basisPoints)
}

// HealthFactor computes risk-adjusted collateral value over debt in 1e27
// fixed point. A value below 1e27 marks the position as breaching its
// liquidation threshold. Debt-free positions saturate at the maximum.
func HealthFactor(collateralValueUSD, debtUSD *big.Int, thresholdBps uint64) (*big.Int, error) {
	if collateralValueUSD == nil || debtUSD == nil {
		return nil, ErrInvalidAmount
	}
	if collateralValueUSD.Sign() < 0 || debtUSD.Sign() < 0 {
		return nil, ErrNegativeValue
	}
	if thresholdBps == 0 || thresholdBps > 10_000 {
		return nil, errInvalidConfig
	}
	if debtUSD.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor), nil
	}

	num := new(big.Int).Mul(collateralValueUSD, new(big.Int).SetUint64(thresholdBps))
	num.Mul(num, ray)
	den := new(big.Int).Mul(debtUSD, basisPoints)
	hf := num.Quo(num, den)
	if hf.Cmp(maxHealthFactor) > 0 {
		hf.Set(maxHealthFactor)
	}
	return hf, nil
}

// bpsShare returns value * bps / 10000, truncating.
func bpsShare(value *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(value, new(big.Int).SetUint64(bps))
	return out.Quo(out, basisPoints)
}

// seizeValue applies the liquidation bonus to the repaid debt.
func seizeValue(repay *big.Int, bonusBps uint64) *big.Int {
	out := new(big.Int).Mul(repay, new(big.Int).SetUint64(10_000+bonusBps))
	return out.Quo(out, basisPoints)
}
