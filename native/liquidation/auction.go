package liquidation

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	nativecommon "agrilend/native/common"
)

var (
	ErrInvalidAuctionParams = errors.New("liquidation engine: invalid auction parameters")
	ErrAuctionActive        = errors.New("liquidation engine: auction already active for position")
	ErrUnknownAuction       = errors.New("liquidation engine: unknown auction")
	ErrAuctionExpired       = errors.New("liquidation engine: auction window elapsed")
	ErrPriceBelowFloor      = errors.New("liquidation engine: price below configured floor")
)

const (
	minAuctionWindow = 5 * time.Minute
	maxAuctionWindow = 6 * time.Hour
	// exponentialSteps partitions the window; each step halves the
	// premium over the floor.
	exponentialSteps = 16
)

// DecayCurve selects how the auction price falls over the window.
type DecayCurve uint8

const (
	DecayLinear DecayCurve = iota
	DecayExponential
)

func (c DecayCurve) Valid() bool {
	return c == DecayLinear || c == DecayExponential
}

func (c DecayCurve) String() string {
	switch c {
	case DecayLinear:
		return "linear"
	case DecayExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// AuctionParams fixes the price trajectory of a collateral auction before it
// starts. Prices are USD values for the whole collateral lot.
type AuctionParams struct {
	StartPrice *big.Int
	FloorPrice *big.Int
	Duration   time.Duration
	Curve      DecayCurve
}

func (p AuctionParams) Validate() error {
	if p.StartPrice == nil || p.StartPrice.Sign() <= 0 {
		return ErrInvalidAuctionParams
	}
	if p.FloorPrice == nil || p.FloorPrice.Sign() <= 0 {
		return ErrInvalidAuctionParams
	}
	if p.FloorPrice.Cmp(p.StartPrice) > 0 {
		return ErrInvalidAuctionParams
	}
	if p.Duration < minAuctionWindow || p.Duration > maxAuctionWindow {
		return ErrInvalidAuctionParams
	}
	if !p.Curve.Valid() {
		return ErrInvalidAuctionParams
	}
	return nil
}

// PriceAt computes the lot price after the given elapsed time. The function
// is pure: same elapsed time, same price. Before the window opens it returns
// the start price, at or after the window end the floor, and in between a
// monotonically non-increasing value.
func (p AuctionParams) PriceAt(elapsed time.Duration) *big.Int {
	if elapsed <= 0 {
		return new(big.Int).Set(p.StartPrice)
	}
	if elapsed >= p.Duration {
		return new(big.Int).Set(p.FloorPrice)
	}
	premium := new(big.Int).Sub(p.StartPrice, p.FloorPrice)
	switch p.Curve {
	case DecayExponential:
		step := uint(int64(elapsed) * exponentialSteps / int64(p.Duration))
		premium.Rsh(premium, step)
	default:
		premium.Mul(premium, big.NewInt(int64(p.Duration-elapsed)))
		premium.Quo(premium, big.NewInt(int64(p.Duration)))
	}
	return premium.Add(premium, p.FloorPrice)
}

// Auction is one Dutch auction over a fixed collateral lot.
type Auction struct {
	ID            string
	Borrower      common.Address
	CollateralLot *big.Int
	Params        AuctionParams
	StartedAt     time.Time
	Executed      bool
}

func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.CollateralLot != nil {
		clone.CollateralLot = new(big.Int).Set(a.CollateralLot)
	}
	if a.Params.StartPrice != nil {
		clone.Params.StartPrice = new(big.Int).Set(a.Params.StartPrice)
	}
	if a.Params.FloorPrice != nil {
		clone.Params.FloorPrice = new(big.Int).Set(a.Params.FloorPrice)
	}
	return &clone
}

// StartAuction opens a Dutch auction over part of the borrower's collateral.
// The position must already be liquidatable and must not have a live
// auction; an expired one is replaced.
func (e *Engine) StartAuction(borrower common.Address, collateralLot *big.Int, params AuctionParams, now time.Time) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if collateralLot == nil || collateralLot.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	unlock := e.lockPosition(borrower)
	defer unlock()

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
	if collateralLot.Cmp(position.Collateral) > 0 {
		return nil, ErrInvalidAmount
	}
	if position.AuctionID != "" {
		existing, err := e.state.GetAuction(position.AuctionID)
		if err != nil {
			return nil, err
		}
		if existing != nil && !existing.Executed && now.Sub(existing.StartedAt) <= existing.Params.Duration {
			return nil, ErrAuctionActive
		}
	}

	auction := &Auction{
		ID:            uuid.NewString(),
		Borrower:      borrower,
		CollateralLot: new(big.Int).Set(collateralLot),
		Params:        params,
		StartedAt:     now,
	}
	if err := e.state.PutAuction(auction); err != nil {
		return nil, err
	}
	position.AuctionID = auction.ID
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	return auction.Clone(), nil
}

// AuctionPrice quotes the current lot price for a live auction.
func (e *Engine) AuctionPrice(id string, now time.Time) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	auction, err := e.state.GetAuction(id)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, ErrUnknownAuction
	}
	if auction.Executed {
		return nil, ErrAlreadyLiquidated
	}
	if now.Sub(auction.StartedAt) > auction.Params.Duration {
		return nil, ErrAuctionExpired
	}
	return auction.Params.PriceAt(now.Sub(auction.StartedAt)), nil
}

// Sale reports a settled auction purchase and the winning buyer.
type Sale struct {
	AuctionID        string
	Buyer            common.Address
	PricePaid        *big.Int
	CollateralBought *big.Int
}

// ExecuteAuction settles a live auction at the current decayed price. The
// first caller wins; concurrent callers observe the executed flag and fail.
// When the window has elapsed the auction is detached and the position stays
// liquidatable for direct liquidation or a fresh auction.
func (e *Engine) ExecuteAuction(id string, buyer common.Address, now time.Time) (*Sale, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	auction, err := e.state.GetAuction(id)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, ErrUnknownAuction
	}

	unlock := e.lockPosition(auction.Borrower)
	defer unlock()

	// Reload under the lock so racing buyers serialise on the flag.
	auction, err = e.state.GetAuction(id)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, ErrUnknownAuction
	}
	if auction.Executed {
		return nil, ErrAlreadyLiquidated
	}
	position, err := e.loadPosition(auction.Borrower)
	if err != nil {
		return nil, err
	}
	elapsed := now.Sub(auction.StartedAt)
	if elapsed > auction.Params.Duration {
		if position.AuctionID == auction.ID {
			position.AuctionID = ""
			if err := e.state.PutPosition(position); err != nil {
				return nil, err
			}
		}
		return nil, ErrAuctionExpired
	}
	if position.Status != StatusLiquidatable {
		return nil, ErrNotLiquidatable
	}

	price := auction.Params.PriceAt(elapsed)
	if price.Cmp(auction.Params.FloorPrice) < 0 {
		return nil, ErrPriceBelowFloor
	}

	lot := new(big.Int).Set(auction.CollateralLot)
	if lot.Cmp(position.Collateral) > 0 {
		lot = new(big.Int).Set(position.Collateral)
	}
	repaid := new(big.Int).Set(price)
	if repaid.Cmp(position.Debt) > 0 {
		repaid = new(big.Int).Set(position.Debt)
	}
	position.Debt = new(big.Int).Sub(position.Debt, repaid)
	position.Collateral = new(big.Int).Sub(position.Collateral, lot)
	position.AuctionID = ""
	if position.Debt.Sign() == 0 {
		position.Status = StatusLiquidated
	}

	auction.Executed = true
	if err := e.state.PutAuction(auction); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	return &Sale{AuctionID: auction.ID, Buyer: buyer, PricePaid: price, CollateralBought: lot}, nil
}
