package liquidation

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PositionStatus tracks a borrower position through the margin lifecycle.
type PositionStatus uint8

const (
	StatusHealthy PositionStatus = iota
	StatusWarning
	StatusMarginCalled
	StatusLiquidatable
	StatusLiquidated
)

func (s PositionStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusWarning:
		return "warning"
	case StatusMarginCalled:
		return "margin-called"
	case StatusLiquidatable:
		return "liquidatable"
	case StatusLiquidated:
		return "liquidated"
	}
	return "unknown"
}

// Position is one borrower's collateralised debt against a sub-commodity
// reserve. Collateral is denominated in commodity units and debt in USD wei;
// the oracle bridges the two at evaluation time.
type Position struct {
	Borrower       common.Address
	SubCommodityID uint32
	Collateral     *big.Int
	Debt           *big.Int
	Status         PositionStatus
	// Tier is the 1-based warning tier currently applied; zero when the
	// position carries no warning.
	Tier int
	// WarnedAt is when the current tier's grace period began.
	WarnedAt time.Time
	// LastWarningAt throttles repeat warnings through the cooldown.
	LastWarningAt  time.Time
	MarginCalledAt time.Time
	// AuctionID links the position to its live auction, when one exists.
	AuctionID string
}

// Clone returns a deep copy so concurrent readers never observe a partially
// updated position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Collateral != nil {
		clone.Collateral = new(big.Int).Set(p.Collateral)
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	}
	return &clone
}

// GraceTier is one rung of the graceful-liquidation ladder. Positions whose
// health factor drops below the trigger enter the tier; once the grace period
// elapses without recovery they escalate.
type GraceTier struct {
	// TriggerHealthFactor is in 1e27 fixed point; 1e27 is a health factor
	// of exactly one.
	TriggerHealthFactor *big.Int
	GracePeriod         time.Duration
	// CloseFactorBps bounds the share of debt a liquidator may cover when
	// the position escalates out of this tier.
	CloseFactorBps uint64
}

// Config carries the governance-controlled liquidation parameters.
type Config struct {
	LiquidationThresholdBps uint64       `toml:"LiquidationThresholdBps"`
	LiquidationBonusBps     uint64       `toml:"LiquidationBonusBps"`
	WarningCooldownSeconds  uint64       `toml:"WarningCooldownSeconds"`
	MarginCallGraceSeconds  uint64       `toml:"MarginCallGraceSeconds"`
	MinLiquidationWei       *big.Int     `toml:"MinLiquidationWei"`
	Tiers                   []TierConfig `toml:"tiers"`
}

// TierConfig is the serialised form of a grace tier.
type TierConfig struct {
	TriggerHealthFactorBps uint64 `toml:"TriggerHealthFactorBps"`
	GracePeriodSeconds     uint64 `toml:"GracePeriodSeconds"`
	CloseFactorBps         uint64 `toml:"CloseFactorBps"`
}

// DefaultConfig mirrors the protocol's shipped governance parameters: three
// warning tiers stepping from a soft 0.98 breach down to 0.85, with partial
// liquidation widening at each rung.
func DefaultConfig() Config {
	return Config{
		LiquidationThresholdBps: 8000,
		LiquidationBonusBps:     1000,
		WarningCooldownSeconds:  3600,
		MarginCallGraceSeconds:  1800,
		MinLiquidationWei:       big.NewInt(0),
		Tiers: []TierConfig{
			{TriggerHealthFactorBps: 9800, GracePeriodSeconds: 86400, CloseFactorBps: 2500},
			{TriggerHealthFactorBps: 9200, GracePeriodSeconds: 21600, CloseFactorBps: 5000},
			{TriggerHealthFactorBps: 8500, GracePeriodSeconds: 3600, CloseFactorBps: 10000},
		},
	}
}

// Validate enforces the parameter contract: bps fields within scale, tiers
// ordered from softest to deepest trigger with non-zero grace periods.
func (c Config) Validate() error {
	if c.LiquidationThresholdBps == 0 || c.LiquidationThresholdBps > 10_000 {
		return errInvalidConfig
	}
	if c.LiquidationBonusBps > 10_000 {
		return errInvalidConfig
	}
	if len(c.Tiers) == 0 {
		return errInvalidConfig
	}
	prev := uint64(10_000)
	for _, tier := range c.Tiers {
		if tier.TriggerHealthFactorBps == 0 || tier.TriggerHealthFactorBps >= 10_000 {
			return errInvalidConfig
		}
		if tier.TriggerHealthFactorBps > prev {
			return errInvalidConfig
		}
		if tier.GracePeriodSeconds == 0 {
			return errInvalidConfig
		}
		if tier.CloseFactorBps == 0 || tier.CloseFactorBps > 10_000 {
			return errInvalidConfig
		}
		prev = tier.TriggerHealthFactorBps
	}
	return nil
}

// graceTiers resolves the serialised tier table into ray-denominated tiers.
func (c Config) graceTiers() []GraceTier {
	tiers := make([]GraceTier, 0, len(c.Tiers))
	for _, tier := range c.Tiers {
		tiers = append(tiers, GraceTier{
			TriggerHealthFactor: rayFromBps(tier.TriggerHealthFactorBps),
			GracePeriod:         time.Duration(tier.GracePeriodSeconds) * time.Second,
			CloseFactorBps:      tier.CloseFactorBps,
		})
	}
	return tiers
}
