// Package pricing defines the contracts the risk engines consume from the
// external price and futures oracles. The oracles themselves live outside
// this module; only their outputs and the fail-closed validation rules are
// specified here.
package pricing

import (
	"errors"
	"math/big"
	"time"
)

var (
	// ErrNilQuote is returned when an oracle hands back an empty quote.
	ErrNilQuote = errors.New("pricing: quote value not set")
	// ErrStaleQuote is returned when a quote is older than the configured
	// maximum age. Stale data blocks the operation entirely.
	ErrStaleQuote = errors.New("pricing: quote is stale")
	// ErrLowConfidence is returned when a quote's confidence score is below
	// the configured floor.
	ErrLowConfidence = errors.New("pricing: quote confidence below threshold")
	// ErrNonPositivePrice is returned for zero or negative quoted values.
	ErrNonPositivePrice = errors.New("pricing: quote value must be positive")
)

// Quote captures the USD valuation an oracle reports for a commodity amount
// along with the metadata needed to judge whether the reading is trustworthy.
type Quote struct {
	// ValueUSD is the quoted valuation in USD wei (18 decimals).
	ValueUSD *big.Int
	// Confidence scores the reading from 0 (untrusted) to 100.
	Confidence uint64
	// Timestamp records when the upstream oracle observed the price.
	Timestamp time.Time
}

// Clone returns a deep copy of the quote.
func (q Quote) Clone() Quote {
	clone := Quote{Confidence: q.Confidence, Timestamp: q.Timestamp}
	if q.ValueUSD != nil {
		clone.ValueUSD = new(big.Int).Set(q.ValueUSD)
	}
	return clone
}

// PriceOracle values a commodity amount in USD.
type PriceOracle interface {
	ValueOf(subCommodityID uint32, amount *big.Int) (Quote, error)
}

// Guardrails bound which oracle readings the engines will act on. Readings
// outside the bounds are hard input failures, never silent degradation.
type Guardrails struct {
	// MaxAge is the oldest acceptable quote age. Zero disables the check.
	MaxAge time.Duration
	// MinConfidence is the lowest acceptable confidence score.
	MinConfidence uint64
}

// Check validates a quote against the guardrails at the supplied read time.
func (g Guardrails) Check(q Quote, now time.Time) error {
	if q.ValueUSD == nil {
		return ErrNilQuote
	}
	if q.ValueUSD.Sign() <= 0 {
		return ErrNonPositivePrice
	}
	if g.MaxAge > 0 && now.Sub(q.Timestamp) > g.MaxAge {
		return ErrStaleQuote
	}
	if q.Confidence < g.MinConfidence {
		return ErrLowConfidence
	}
	return nil
}

// CurvePoint carries the futures-curve basis for one commodity, expressed in
// basis points of annualised carry. A positive basis signals contango and a
// negative one backwardation.
type CurvePoint struct {
	SubCommodityID uint32
	BasisBps       int64
	ObservedAt     time.Time
}

// Contango reports whether the curve point sits above spot.
func (p CurvePoint) Contango() bool { return p.BasisBps > 0 }

// FuturesOracle supplies contango/backwardation basis data per commodity.
type FuturesOracle interface {
	Basis(subCommodityID uint32) (CurvePoint, error)
}
