package liquidation

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func linearParams() AuctionParams {
	return AuctionParams{
		StartPrice: big.NewInt(12_000),
		FloorPrice: big.NewInt(6_000),
		Duration:   time.Hour,
		Curve:      DecayLinear,
	}
}

func TestAuctionParamsValidate(t *testing.T) {
	if err := linearParams().Validate(); err != nil {
		t.Fatalf("valid params: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*AuctionParams)
	}{
		{"nil start", func(p *AuctionParams) { p.StartPrice = nil }},
		{"zero start", func(p *AuctionParams) { p.StartPrice = big.NewInt(0) }},
		{"zero floor", func(p *AuctionParams) { p.FloorPrice = big.NewInt(0) }},
		{"floor above start", func(p *AuctionParams) { p.FloorPrice = big.NewInt(20_000) }},
		{"too short", func(p *AuctionParams) { p.Duration = 4 * time.Minute }},
		{"too long", func(p *AuctionParams) { p.Duration = 7 * time.Hour }},
		{"bad curve", func(p *AuctionParams) { p.Curve = DecayCurve(9) }},
	}
	for _, tc := range cases {
		params := linearParams()
		tc.mutate(&params)
		if err := params.Validate(); !errors.Is(err, ErrInvalidAuctionParams) {
			t.Fatalf("%s: %v", tc.name, err)
		}
	}
}

func TestAuctionPriceEndpoints(t *testing.T) {
	for _, curve := range []DecayCurve{DecayLinear, DecayExponential} {
		params := linearParams()
		params.Curve = curve
		if got := params.PriceAt(0); got.Cmp(params.StartPrice) != 0 {
			t.Fatalf("%v: price at zero = %s, want start", curve, got)
		}
		if got := params.PriceAt(-time.Minute); got.Cmp(params.StartPrice) != 0 {
			t.Fatalf("%v: price before start = %s, want start", curve, got)
		}
		if got := params.PriceAt(params.Duration); got.Cmp(params.FloorPrice) != 0 {
			t.Fatalf("%v: price at end = %s, want floor", curve, got)
		}
		if got := params.PriceAt(params.Duration + time.Hour); got.Cmp(params.FloorPrice) != 0 {
			t.Fatalf("%v: price after end = %s, want floor", curve, got)
		}
	}
}

func TestAuctionPriceLinearMidpoint(t *testing.T) {
	params := linearParams()
	if got := params.PriceAt(30 * time.Minute); got.Cmp(big.NewInt(9_000)) != 0 {
		t.Fatalf("midpoint price = %s, want 9000", got)
	}
	if got := params.PriceAt(45 * time.Minute); got.Cmp(big.NewInt(7_500)) != 0 {
		t.Fatalf("three-quarter price = %s, want 7500", got)
	}
}

func TestAuctionPriceExponentialHalving(t *testing.T) {
	params := linearParams()
	params.Curve = DecayExponential
	// Each sixteenth of the window halves the premium over the floor.
	if got := params.PriceAt(time.Hour / 16); got.Cmp(big.NewInt(9_000)) != 0 {
		t.Fatalf("first step = %s, want 9000", got)
	}
	if got := params.PriceAt(2 * time.Hour / 16); got.Cmp(big.NewInt(7_500)) != 0 {
		t.Fatalf("second step = %s, want 7500", got)
	}
	if got := params.PriceAt(4 * time.Hour / 16); got.Cmp(big.NewInt(6_375)) != 0 {
		t.Fatalf("fourth step = %s, want 6375", got)
	}
}

func TestAuctionPriceMonotoneAndPure(t *testing.T) {
	for _, curve := range []DecayCurve{DecayLinear, DecayExponential} {
		params := linearParams()
		params.Curve = curve
		prev := params.PriceAt(0)
		for step := time.Duration(0); step <= params.Duration; step += time.Minute {
			price := params.PriceAt(step)
			if price.Cmp(prev) > 0 {
				t.Fatalf("%v: price rose at %v: %s > %s", curve, step, price, prev)
			}
			if again := params.PriceAt(step); again.Cmp(price) != 0 {
				t.Fatalf("%v: price at %v not deterministic", curve, step)
			}
			if price.Cmp(params.FloorPrice) < 0 {
				t.Fatalf("%v: price fell below floor at %v", curve, step)
			}
			prev = price
		}
	}
}

func TestStartAuctionLifecycle(t *testing.T) {
	engine, state := newTestEngine(t)
	seedPosition(t, state, borrowerA, 1000, 10_000, StatusLiquidatable, 3)
	now := time.Unix(1_700_000_000, 0)

	auction, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), now)
	if err != nil {
		t.Fatalf("start auction: %v", err)
	}
	if auction.ID == "" {
		t.Fatalf("auction id not assigned")
	}
	stored, err := engine.Position(borrowerA)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if stored.AuctionID != auction.ID {
		t.Fatalf("position auction id = %q, want %q", stored.AuctionID, auction.ID)
	}

	if _, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), now.Add(time.Minute)); !errors.Is(err, ErrAuctionActive) {
		t.Fatalf("second live auction: %v", err)
	}

	// Once the window lapses a fresh auction may replace the dead one.
	later := now.Add(2 * time.Hour)
	replacement, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), later)
	if err != nil {
		t.Fatalf("replacement auction: %v", err)
	}
	if replacement.ID == auction.ID {
		t.Fatalf("replacement reused the expired auction id")
	}
}

func TestStartAuctionRequiresLiquidatable(t *testing.T) {
	engine, state := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)

	seedPosition(t, state, borrowerA, 1000, 10_000, StatusWarning, 1)
	if _, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), now); !errors.Is(err, ErrNotLiquidatable) {
		t.Fatalf("warning position: %v", err)
	}
	seedPosition(t, state, borrowerA, 1000, 10_000, StatusLiquidatable, 3)
	if _, err := engine.StartAuction(borrowerA, big.NewInt(1_500), linearParams(), now); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("lot above collateral: %v", err)
	}
}

func TestAuctionPriceQuery(t *testing.T) {
	engine, state := newTestEngine(t)
	seedPosition(t, state, borrowerA, 1000, 10_000, StatusLiquidatable, 3)
	now := time.Unix(1_700_000_000, 0)

	auction, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), now)
	if err != nil {
		t.Fatalf("start auction: %v", err)
	}
	price, err := engine.AuctionPrice(auction.ID, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("auction price: %v", err)
	}
	if price.Cmp(big.NewInt(9_000)) != 0 {
		t.Fatalf("price = %s, want 9000", price)
	}
	if _, err := engine.AuctionPrice(auction.ID, now.Add(2*time.Hour)); !errors.Is(err, ErrAuctionExpired) {
		t.Fatalf("expired query: %v", err)
	}
	if _, err := engine.AuctionPrice("missing", now); !errors.Is(err, ErrUnknownAuction) {
		t.Fatalf("unknown auction: %v", err)
	}
}

func TestExecuteAuctionSettlesAtDecayedPrice(t *testing.T) {
	engine, state := newTestEngine(t)
	seedPosition(t, state, borrowerA, 1000, 10_000, StatusLiquidatable, 3)
	now := time.Unix(1_700_000_000, 0)

	auction, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), now)
	if err != nil {
		t.Fatalf("start auction: %v", err)
	}
	sale, err := engine.ExecuteAuction(auction.ID, liquidatorA, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("execute auction: %v", err)
	}
	if sale.PricePaid.Cmp(big.NewInt(9_000)) != 0 {
		t.Fatalf("price paid = %s, want 9000", sale.PricePaid)
	}
	if sale.CollateralBought.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("lot = %s, want 800", sale.CollateralBought)
	}
	if sale.Buyer != liquidatorA {
		t.Fatalf("buyer = %s, want %s", sale.Buyer, liquidatorA)
	}
	stored, err := engine.Position(borrowerA)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if stored.Debt.Cmp(big.NewInt(1_000)) != 0 || stored.Collateral.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("position after sale: debt=%s collateral=%s", stored.Debt, stored.Collateral)
	}
	if stored.AuctionID != "" {
		t.Fatalf("auction link not cleared")
	}

	if _, err := engine.ExecuteAuction(auction.ID, liquidatorA, now.Add(31*time.Minute)); !errors.Is(err, ErrAlreadyLiquidated) {
		t.Fatalf("second buyer: %v", err)
	}
}

func TestExecuteAuctionExpiryRestoresEligibility(t *testing.T) {
	engine, state := newTestEngine(t)
	seedPosition(t, state, borrowerA, 1000, 10_000, StatusLiquidatable, 3)
	now := time.Unix(1_700_000_000, 0)

	auction, err := engine.StartAuction(borrowerA, big.NewInt(800), linearParams(), now)
	if err != nil {
		t.Fatalf("start auction: %v", err)
	}
	if _, err := engine.ExecuteAuction(auction.ID, liquidatorA, now.Add(90*time.Minute)); !errors.Is(err, ErrAuctionExpired) {
		t.Fatalf("expired execution: %v", err)
	}
	stored, err := engine.Position(borrowerA)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if stored.Status != StatusLiquidatable || stored.AuctionID != "" {
		t.Fatalf("expiry must leave the position liquidatable and detached: %+v", stored)
	}
	// Direct liquidation stays available after the window lapses.
	if _, err := engine.Liquidate(liquidatorA, borrowerA, big.NewInt(1_000), freshQuote(12_000, now), now.Add(91*time.Minute)); err != nil {
		t.Fatalf("liquidate after expiry: %v", err)
	}
}
