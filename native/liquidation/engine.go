// Package liquidation decides when undercollateralised positions may be
// closed and at what price. It interprets externally supplied health-factor
// readings; oracle prices are consumed, never computed here. Every operation
// is serialised per position so exactly one caller can win a liquidation
// race; the loser fails with a distinguishable error.
package liquidation

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "agrilend/native/common"
	"agrilend/native/pricing"
)

var (
	ErrNilState        = errors.New("liquidation engine: state not configured")
	ErrUnknownPosition = errors.New("liquidation engine: unknown position")
	ErrInvalidAmount   = errors.New("liquidation engine: amount must be positive")
	ErrNegativeValue   = errors.New("liquidation engine: value must not be negative")
	ErrNotLiquidatable = errors.New("liquidation engine: position not eligible for liquidation")
	// ErrAlreadyLiquidated marks the loser of a liquidation race; the
	// position was resolved by a concurrent caller.
	ErrAlreadyLiquidated  = errors.New("liquidation engine: position already resolved")
	ErrBelowMinimum       = errors.New("liquidation engine: repay below configured minimum")
	ErrProfitBelowMinimum = errors.New("liquidation engine: profit below minimum threshold")
	ErrSlippageExceeded   = errors.New("liquidation engine: swap output below slippage bound")
	errInvalidConfig      = errors.New("liquidation engine: invalid configuration")
)

const moduleName = "liquidation"

type engineState interface {
	GetPosition(borrower common.Address) (*Position, error)
	PutPosition(position *Position) error
	GetAuction(id string) (*Auction, error)
	PutAuction(auction *Auction) error
}

// Engine orchestrates the liquidation state machine for borrower positions.
type Engine struct {
	state  engineState
	cfg    Config
	tiers  []GraceTier
	rails  pricing.Guardrails
	pauses nativecommon.PauseView

	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

// NewEngine constructs a liquidation engine with the supplied governance
// parameters.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:   cfg,
		tiers: cfg.graceTiers(),
		locks: make(map[common.Address]*sync.Mutex),
	}, nil
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses installs the governance pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetGuardrails configures the oracle staleness and confidence bounds.
func (e *Engine) SetGuardrails(rails pricing.Guardrails) {
	if e == nil {
		return
	}
	e.rails = rails
}

// lockPosition acquires the per-position mutex, creating it on first use.
func (e *Engine) lockPosition(borrower common.Address) func() {
	e.mu.Lock()
	lock, ok := e.locks[borrower]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[borrower] = lock
	}
	e.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Assessment is the outcome of one health evaluation.
type Assessment struct {
	Status PositionStatus
	Tier   int
	// WarningIssued is set when this evaluation surfaced a new warning to
	// the borrower; the cooldown suppresses repeats.
	WarningIssued bool
}

// Evaluate advances the position state machine using an externally supplied
// health factor in 1e27 fixed point. Recovery above one restores any
// pre-liquidation state to healthy; liquidated positions are terminal.
func (e *Engine) Evaluate(borrower common.Address, healthFactor *big.Int, now time.Time) (*Assessment, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if healthFactor == nil {
		return nil, ErrInvalidAmount
	}
	if healthFactor.Sign() < 0 {
		return nil, ErrNegativeValue
	}

	unlock := e.lockPosition(borrower)
	defer unlock()

	position, err := e.loadPosition(borrower)
	if err != nil {
		return nil, err
	}
	if position.Status == StatusLiquidated {
		return &Assessment{Status: StatusLiquidated}, nil
	}

	if healthFactor.Cmp(ray) >= 0 {
		changed := position.Status != StatusHealthy
		position.Status = StatusHealthy
		position.Tier = 0
		position.WarnedAt = time.Time{}
		position.MarginCalledAt = time.Time{}
		position.AuctionID = ""
		if changed {
			if err := e.state.PutPosition(position); err != nil {
				return nil, err
			}
		}
		return &Assessment{Status: StatusHealthy}, nil
	}

	target := e.breachedTier(healthFactor)
	assessment := &Assessment{}

	switch position.Status {
	case StatusHealthy:
		position.Status = StatusWarning
		position.Tier = target
		position.WarnedAt = now
		assessment.WarningIssued = e.issueWarning(position, now)
	case StatusWarning:
		if target > position.Tier {
			// Health fell through a deeper trigger; the new tier's
			// grace window starts fresh.
			position.Tier = target
			position.WarnedAt = now
			assessment.WarningIssued = e.issueWarning(position, now)
		} else if e.graceElapsed(position, now) {
			if position.Tier < len(e.tiers) {
				position.Tier++
				position.WarnedAt = now
				assessment.WarningIssued = e.issueWarning(position, now)
			} else {
				position.Status = StatusMarginCalled
				position.MarginCalledAt = now
			}
		}
	case StatusMarginCalled:
		grace := time.Duration(e.cfg.MarginCallGraceSeconds) * time.Second
		if !now.Before(position.MarginCalledAt.Add(grace)) {
			position.Status = StatusLiquidatable
		}
	case StatusLiquidatable:
		// Remains eligible until executed or restored.
	}

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	assessment.Status = position.Status
	assessment.Tier = position.Tier
	return assessment, nil
}

// Receipt reports what a liquidation actually moved and who executed it.
type Receipt struct {
	Liquidator       common.Address
	DebtRepaid       *big.Int
	CollateralSeized *big.Int
	SeizedValueUSD   *big.Int
}

// Liquidate repays part of the borrower's debt in exchange for discounted
// collateral. The repay amount is capped by the close factor of the tier the
// position escalated through; the collateral quote must pass the oracle
// guardrails or the whole operation fails.
func (e *Engine) Liquidate(liquidator, borrower common.Address, repay *big.Int, collateralQuote pricing.Quote, now time.Time) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if repay == nil || repay.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.cfg.MinLiquidationWei != nil && repay.Cmp(e.cfg.MinLiquidationWei) < 0 {
		return nil, ErrBelowMinimum
	}

	unlock := e.lockPosition(borrower)
	defer unlock()

	receipt, err := e.liquidateLocked(borrower, repay, collateralQuote, now)
	if err != nil {
		return nil, err
	}
	receipt.Liquidator = liquidator
	return receipt, nil
}

// liquidateLocked assumes the caller holds the position lock.
func (e *Engine) liquidateLocked(borrower common.Address, repay *big.Int, collateralQuote pricing.Quote, now time.Time) (*Receipt, error) {
	position, err := e.loadPosition(borrower)
	if err != nil {
		return nil, err
	}
	switch position.Status {
	case StatusLiquidated:
		return nil, ErrAlreadyLiquidated
	case StatusLiquidatable:
	default:
		return nil, ErrNotLiquidatable
	}
	if err := e.rails.Check(collateralQuote, now); err != nil {
		return nil, err
	}

	closeFactor := uint64(10_000)
	if position.Tier >= 1 && position.Tier <= len(e.tiers) {
		closeFactor = e.tiers[position.Tier-1].CloseFactorBps
	}
	maxRepay := bpsShare(position.Debt, closeFactor)
	actual := new(big.Int).Set(repay)
	if actual.Cmp(maxRepay) > 0 {
		actual = maxRepay
	}
	if actual.Cmp(position.Debt) > 0 {
		actual = new(big.Int).Set(position.Debt)
	}
	if actual.Sign() == 0 {
		return nil, ErrInvalidAmount
	}

	seizedUSD := seizeValue(actual, e.cfg.LiquidationBonusBps)
	if seizedUSD.Cmp(collateralQuote.ValueUSD) > 0 {
		seizedUSD = new(big.Int).Set(collateralQuote.ValueUSD)
	}

	// Convert the seized USD value into collateral units at the quoted
	// valuation of the whole collateral balance.
	units := new(big.Int).Mul(position.Collateral, seizedUSD)
	units.Quo(units, collateralQuote.ValueUSD)
	if units.Cmp(position.Collateral) > 0 {
		units = new(big.Int).Set(position.Collateral)
	}

	position.Debt = new(big.Int).Sub(position.Debt, actual)
	position.Collateral = new(big.Int).Sub(position.Collateral, units)
	if position.Debt.Sign() == 0 {
		position.Status = StatusLiquidated
		position.AuctionID = ""
	}

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	return &Receipt{DebtRepaid: actual, CollateralSeized: units, SeizedValueUSD: seizedUSD}, nil
}

// Position returns a snapshot of the borrower's position.
func (e *Engine) Position(borrower common.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	unlock := e.lockPosition(borrower)
	defer unlock()
	position, err := e.loadPosition(borrower)
	if err != nil {
		return nil, err
	}
	return position.Clone(), nil
}

// breachedTier returns the 1-based index of the deepest tier whose trigger
// the health factor has fallen below. Tiers are ordered softest first, so
// the deepest breached trigger is the last one above the reading.
func (e *Engine) breachedTier(healthFactor *big.Int) int {
	target := 1
	for i, tier := range e.tiers {
		if healthFactor.Cmp(tier.TriggerHealthFactor) < 0 {
			target = i + 1
		}
	}
	return target
}

func (e *Engine) graceElapsed(position *Position, now time.Time) bool {
	if position.Tier < 1 || position.Tier > len(e.tiers) {
		return true
	}
	grace := e.tiers[position.Tier-1].GracePeriod
	return !now.Before(position.WarnedAt.Add(grace))
}

// issueWarning applies the per-position cooldown and records the warning
// time when one is surfaced.
func (e *Engine) issueWarning(position *Position, now time.Time) bool {
	cooldown := time.Duration(e.cfg.WarningCooldownSeconds) * time.Second
	if !position.LastWarningAt.IsZero() && now.Sub(position.LastWarningAt) < cooldown {
		return false
	}
	position.LastWarningAt = now
	return true
}

func (e *Engine) loadPosition(borrower common.Address) (*Position, error) {
	position, err := e.state.GetPosition(borrower)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrUnknownPosition
	}
	if position.Collateral == nil {
		position.Collateral = big.NewInt(0)
	}
	if position.Debt == nil {
		position.Debt = big.NewInt(0)
	}
	return position, nil
}
