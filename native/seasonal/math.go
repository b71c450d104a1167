package seasonal

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	ray         = mustBigInt("1000000000000000000000000000") // 1e27 precision
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// Ray returns the 1e27 fixed-point unit.
func Ray() *big.Int { return new(big.Int).Set(ray) }

// RayFromBps converts a basis-point value into 1e27 fixed point. Division is
// truncating throughout the rate math.
func RayFromBps(bps *big.Int) *big.Int {
	if bps == nil || bps.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(bps, ray)
	return out.Quo(out, basisPoints)
}

// BpsFromRay converts a 1e27 fixed-point multiplier back to truncated basis
// points.
func BpsFromRay(r *big.Int) *big.Int {
	if r == nil || r.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(r, basisPoints)
	return out.Quo(out, ray)
}

// scaleBps multiplies a bps value by factor/10000 without intermediate
// overflow.
func scaleBps(value *big.Int, factorBps int64) *big.Int {
	out := new(big.Int).Mul(value, big.NewInt(factorBps))
	return out.Quo(out, basisPoints)
}

func ratFromRay(r *big.Int) *big.Rat {
	if r == nil {
		return new(big.Rat).SetInt64(1)
	}
	return new(big.Rat).SetFrac(new(big.Int).Set(r), new(big.Int).Set(ray))
}
