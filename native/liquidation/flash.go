package liquidation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"agrilend/native/pricing"
)

// ErrFlashRepayFailed reports that borrowed funds could not be returned to
// the lender. The loan is still outstanding when this error surfaces.
var ErrFlashRepayFailed = errors.New("liquidation engine: flash loan repayment failed")

// FlashLender provides uncollateralised same-transaction liquidity. Borrow
// and Repay bracket the liquidation; the fee is charged on repayment.
type FlashLender interface {
	Borrow(ctx context.Context, asset common.Address, amount *big.Int) error
	Repay(ctx context.Context, asset common.Address, amount *big.Int) error
	FeeBps() uint64
}

// FlashPlan describes one capital-free liquidation attempt.
type FlashPlan struct {
	Borrower        common.Address
	RepayAmount     *big.Int
	DebtAsset       common.Address
	CollateralAsset common.Address
	CollateralQuote pricing.Quote
	SlippageBps     uint64
	// MinProfit is the smallest acceptable surplus after the loan and
	// its fee are repaid. Nil means any non-negative surplus.
	MinProfit *big.Int
}

// FlashResult reports the settled flash liquidation.
type FlashResult struct {
	Receipt  *Receipt
	Proceeds *big.Int
	LoanOwed *big.Int
	Profit   *big.Int
}

// FlashLiquidator chains a flash loan, a liquidation and a collateral swap
// into one atomic step. If any leg fails, or the surplus falls short of the
// plan's minimum, the position is restored to its pre-call snapshot, the
// borrowed funds go back to the lender and the attempt reports the failure.
type FlashLiquidator struct {
	engine  *Engine
	lender  FlashLender
	routers *RouterSet
}

func NewFlashLiquidator(engine *Engine, lender FlashLender, routers *RouterSet) *FlashLiquidator {
	return &FlashLiquidator{engine: engine, lender: lender, routers: routers}
}

// Execute runs the plan. The position lock is held for the whole sequence
// so the flash path races direct liquidators on equal terms.
func (f *FlashLiquidator) Execute(ctx context.Context, plan FlashPlan, now time.Time) (*FlashResult, error) {
	if f == nil || f.engine == nil || f.engine.state == nil {
		return nil, ErrNilState
	}
	if f.lender == nil || f.routers == nil {
		return nil, ErrNilState
	}
	if plan.RepayAmount == nil || plan.RepayAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	unlock := f.engine.lockPosition(plan.Borrower)
	defer unlock()

	snapshot, err := f.engine.loadPosition(plan.Borrower)
	if err != nil {
		return nil, err
	}
	snapshot = snapshot.Clone()

	owed := loanOwed(plan.RepayAmount, f.lender.FeeBps())

	if err := f.lender.Borrow(ctx, plan.DebtAsset, plan.RepayAmount); err != nil {
		return nil, err
	}

	receipt, err := f.engine.liquidateLocked(plan.Borrower, plan.RepayAmount, plan.CollateralQuote, now)
	if err != nil {
		return nil, f.unwind(ctx, plan.DebtAsset, owed, snapshot, err)
	}

	proceeds, err := f.routers.Execute(ctx, plan.CollateralAsset, plan.DebtAsset, receipt.CollateralSeized, plan.SlippageBps)
	if err != nil {
		return nil, f.unwind(ctx, plan.DebtAsset, owed, snapshot, err)
	}

	profit := new(big.Int).Sub(proceeds, owed)
	if profit.Sign() < 0 || (plan.MinProfit != nil && profit.Cmp(plan.MinProfit) < 0) {
		return nil, f.unwind(ctx, plan.DebtAsset, owed, snapshot, ErrProfitBelowMinimum)
	}

	if err := f.lender.Repay(ctx, plan.DebtAsset, owed); err != nil {
		if restoreErr := f.engine.state.PutPosition(snapshot); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrFlashRepayFailed, err)
	}

	return &FlashResult{Receipt: receipt, Proceeds: proceeds, LoanOwed: owed, Profit: profit}, nil
}

// unwind returns the borrowed funds and restores the pre-call position
// snapshot so a failed attempt leaves neither balance nor position changes
// behind. The causal error is reported; a repayment failure is attached so
// callers can tell the loan is still outstanding.
func (f *FlashLiquidator) unwind(ctx context.Context, asset common.Address, owed *big.Int, snapshot *Position, cause error) error {
	if err := f.lender.Repay(ctx, asset, owed); err != nil {
		cause = errors.Join(cause, fmt.Errorf("%w: %v", ErrFlashRepayFailed, err))
	}
	if err := f.engine.state.PutPosition(snapshot); err != nil {
		cause = errors.Join(cause, err)
	}
	return cause
}

func loanOwed(principal *big.Int, feeBps uint64) *big.Int {
	fee := bpsShare(principal, feeBps)
	return new(big.Int).Add(principal, fee)
}
