package liquidation

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNoRouter = errors.New("liquidation engine: no router produced a quote")

// SwapRouter abstracts one DEX venue. Quote must not move funds; Swap
// executes at the venue and returns the realised output.
type SwapRouter interface {
	Address() common.Address
	Quote(ctx context.Context, assetIn, assetOut common.Address, amountIn *big.Int) (*big.Int, error)
	Swap(ctx context.Context, assetIn, assetOut common.Address, amountIn, minOut *big.Int) (*big.Int, error)
}

// RouterSet selects the best execution venue among the configured routers.
type RouterSet struct {
	routers []SwapRouter
}

func NewRouterSet(routers ...SwapRouter) *RouterSet {
	return &RouterSet{routers: routers}
}

// BestQuote asks every router and returns the one promising the highest
// output. Routers that fail to quote are skipped; only when all of them
// fail does the selection error out.
func (r *RouterSet) BestQuote(ctx context.Context, assetIn, assetOut common.Address, amountIn *big.Int) (SwapRouter, *big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	var (
		best    SwapRouter
		bestOut *big.Int
	)
	for _, router := range r.routers {
		out, err := router.Quote(ctx, assetIn, assetOut, amountIn)
		if err != nil || out == nil || out.Sign() <= 0 {
			continue
		}
		if bestOut == nil || out.Cmp(bestOut) > 0 {
			best = router
			bestOut = out
		}
	}
	if best == nil {
		return nil, nil, ErrNoRouter
	}
	return best, bestOut, nil
}

// Execute swaps through the best venue with a slippage bound derived from
// the quote. slippageBps is the tolerated shortfall in basis points; a
// realised output below the bound aborts the trade.
func (r *RouterSet) Execute(ctx context.Context, assetIn, assetOut common.Address, amountIn *big.Int, slippageBps uint64) (*big.Int, error) {
	if slippageBps > 10_000 {
		return nil, errInvalidConfig
	}
	router, quoted, err := r.BestQuote(ctx, assetIn, assetOut, amountIn)
	if err != nil {
		return nil, err
	}
	minOut := bpsShare(quoted, 10_000-slippageBps)
	out, err := router.Swap(ctx, assetIn, assetOut, amountIn, minOut)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Cmp(minOut) < 0 {
		return nil, ErrSlippageExceeded
	}
	return out, nil
}
