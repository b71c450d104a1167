package server

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	nativecommon "agrilend/native/common"
	"agrilend/native/liquidation"
	"agrilend/native/pricing"
	"agrilend/native/seasonal"
	"agrilend/observability/logging"
)

const requestLimit = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, requestLimit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("amount required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, errors.New("amount must be a decimal integer")
	}
	return value, nil
}

func parseBorrower(r *http.Request) (common.Address, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "borrower"))
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("borrower must be a hex address")
	}
	return common.HexToAddress(raw), nil
}

func engineStatus(err error) int {
	switch {
	case errors.Is(err, liquidation.ErrUnknownPosition), errors.Is(err, liquidation.ErrUnknownAuction):
		return http.StatusNotFound
	case errors.Is(err, liquidation.ErrAlreadyLiquidated),
		errors.Is(err, liquidation.ErrNotLiquidatable),
		errors.Is(err, liquidation.ErrAuctionActive),
		errors.Is(err, liquidation.ErrAuctionExpired):
		return http.StatusConflict
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, pricing.ErrStaleQuote),
		errors.Is(err, pricing.ErrLowConfidence),
		errors.Is(err, pricing.ErrNonPositivePrice),
		errors.Is(err, pricing.ErrNilQuote):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

type ratesResponse struct {
	Symbol          string `json:"symbol"`
	Month           int    `json:"month"`
	SeasonalBps     uint64 `json:"seasonal_multiplier_bps"`
	EffectiveBps    uint64 `json:"effective_multiplier_bps"`
	MultiplierRay   string `json:"multiplier_ray"`
	InHarvestSeason bool   `json:"in_harvest_season"`
	WeatherEvent    string `json:"weather_event,omitempty"`
	BorrowAPR       string `json:"borrow_apr,omitempty"`
	BasisBps        int64  `json:"futures_basis_bps"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	commodity, ok := s.commodity(chi.URLParam(r, "symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown commodity"))
		return
	}
	now := s.now()

	month := s.currentMonth()
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("month must be an integer"))
			return
		}
		month = parsed
	}

	baseBps, err := seasonal.MultiplierBps(commodity.Config, commodity.Profile, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := ratesResponse{
		Symbol:      commodity.Symbol,
		Month:       month,
		SeasonalBps: baseBps,
	}
	effectiveBps := baseBps
	if event, live := s.weather.ActiveEvent(commodity.Config.SubCommodityID, now); live {
		adjusted, err := seasonal.ApplyWeatherAdjustment(baseBps, event, commodity.Config.WeatherSensitivity, now)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		effectiveBps = adjusted
		resp.WeatherEvent = event.Type.String()
	}
	resp.EffectiveBps = effectiveBps

	multiplier := seasonal.RayFromBps(new(big.Int).SetUint64(effectiveBps))
	resp.MultiplierRay = multiplier.String()

	inHarvest, err := seasonal.InHarvestSeason(commodity.Config, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp.InHarvestSeason = inHarvest

	basis := pricing.CurvePoint{SubCommodityID: commodity.Config.SubCommodityID}
	if s.futures != nil {
		if point, err := s.futures.Basis(commodity.Config.SubCommodityID); err == nil {
			basis = point
		}
	}
	resp.BasisBps = basis.BasisBps

	borrowedRaw := strings.TrimSpace(r.URL.Query().Get("borrowed"))
	suppliedRaw := strings.TrimSpace(r.URL.Query().Get("supplied"))
	if borrowedRaw != "" && suppliedRaw != "" {
		borrowed, err := parseAmount(borrowedRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		supplied, err := parseAmount(suppliedRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		apr := s.rates.SeasonalBorrowAPR(borrowed, supplied, multiplier, basis)
		resp.BorrowAPR = apr.FloatString(6)
	}

	s.metrics.SetSeasonalMultiplier(commodity.Symbol, effectiveBps)
	writeJSON(w, http.StatusOK, resp)
}

type weatherRequest struct {
	Commodity    string `json:"commodity"`
	Type         string `json:"type"`
	ImpactBps    int64  `json:"impact_bps"`
	DurationDays uint64 `json:"duration_days"`
	Start        string `json:"start,omitempty"`
}

type weatherResponse struct {
	ID           string `json:"id"`
	Commodity    string `json:"commodity"`
	Type         string `json:"type"`
	ImpactBps    int64  `json:"impact_bps"`
	DurationDays uint64 `json:"duration_days"`
	Start        string `json:"start"`
	ExpiresAt    string `json:"expires_at"`
}

func parseWeatherType(raw string) (seasonal.WeatherEventType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "normal":
		return seasonal.WeatherNormal, nil
	case "drought":
		return seasonal.Drought, nil
	case "flood":
		return seasonal.Flood, nil
	case "frost":
		return seasonal.Frost, nil
	case "heat-wave":
		return seasonal.HeatWave, nil
	case "hurricane":
		return seasonal.Hurricane, nil
	default:
		return 0, errors.New("unknown weather event type")
	}
}

func (s *Server) handleRecordWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	if !decodeBody(w, r, &req) {
		return
	}
	commodity, ok := s.commodity(req.Commodity)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown commodity"))
		return
	}
	eventType, err := parseWeatherType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := s.now()
	if raw := strings.TrimSpace(req.Start); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("start must be RFC3339"))
			return
		}
		start = parsed
	}
	event := seasonal.WeatherEvent{
		SubCommodityID: commodity.Config.SubCommodityID,
		Type:           eventType,
		ImpactBps:      req.ImpactBps,
		DurationDays:   req.DurationDays,
		Start:          start,
	}
	recorded, err := s.weather.Record(event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.RecordWeatherEvent(recorded); err != nil {
		s.logger.Error("persist weather event", "error", err)
	}
	s.metrics.ObserveWeatherEvent(recorded.Type.String())
	s.logger.Info("weather event recorded",
		"commodity", commodity.Symbol,
		"type", recorded.Type.String(),
		"impact_bps", recorded.ImpactBps)
	writeJSON(w, http.StatusCreated, weatherEventJSON(commodity.Symbol, recorded))
}

func weatherEventJSON(symbol string, event seasonal.WeatherEvent) weatherResponse {
	return weatherResponse{
		ID:           event.ID,
		Commodity:    symbol,
		Type:         event.Type.String(),
		ImpactBps:    event.ImpactBps,
		DurationDays: event.DurationDays,
		Start:        event.Start.UTC().Format(time.RFC3339),
		ExpiresAt:    event.ExpiresAt().UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListWeather(w http.ResponseWriter, r *http.Request) {
	commodity, ok := s.commodity(chi.URLParam(r, "symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown commodity"))
		return
	}
	events := s.weather.Events(commodity.Config.SubCommodityID)
	out := make([]weatherResponse, 0, len(events))
	for _, event := range events {
		out = append(out, weatherEventJSON(commodity.Symbol, event))
	}
	writeJSON(w, http.StatusOK, out)
}

type positionRequest struct {
	SubCommodityID uint32 `json:"sub_commodity_id"`
	Collateral     string `json:"collateral"`
	Debt           string `json:"debt"`
}

type positionResponse struct {
	Borrower       string `json:"borrower"`
	SubCommodityID uint32 `json:"sub_commodity_id"`
	Collateral     string `json:"collateral"`
	Debt           string `json:"debt"`
	Status         string `json:"status"`
	Tier           int    `json:"tier"`
	AuctionID      string `json:"auction_id,omitempty"`
}

func positionJSON(position *liquidation.Position) positionResponse {
	return positionResponse{
		Borrower:       position.Borrower.Hex(),
		SubCommodityID: position.SubCommodityID,
		Collateral:     position.Collateral.String(),
		Debt:           position.Debt.String(),
		Status:         position.Status.String(),
		Tier:           position.Tier,
		AuctionID:      position.AuctionID,
	}
}

func (s *Server) handleUpsertPosition(w http.ResponseWriter, r *http.Request) {
	borrower, err := parseBorrower(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req positionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	collateral, err := parseAmount(req.Collateral)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	debt, err := parseAmount(req.Debt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if collateral.Sign() < 0 || debt.Sign() < 0 {
		writeError(w, http.StatusBadRequest, errors.New("amounts must not be negative"))
		return
	}

	// Preserve the margin ladder when the balances of a known borrower
	// change; only new borrowers start out healthy.
	position, err := s.store.GetPosition(borrower)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if position == nil {
		position = &liquidation.Position{Borrower: borrower}
	}
	position.SubCommodityID = req.SubCommodityID
	position.Collateral = collateral
	position.Debt = debt
	if err := s.store.PutPosition(position); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("position upserted", logging.MaskField("borrower", borrower.Hex()), "commodity", req.SubCommodityID)
	writeJSON(w, http.StatusOK, positionJSON(position))
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	borrower, err := parseBorrower(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	position, err := s.engine.Position(borrower)
	if err != nil {
		writeError(w, engineStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, positionJSON(position))
}

type evaluateRequest struct {
	CollateralValueUSD string `json:"collateral_value_usd"`
	DebtValueUSD       string `json:"debt_value_usd"`
}

type evaluateResponse struct {
	Status        string `json:"status"`
	Tier          int    `json:"tier"`
	HealthFactor  string `json:"health_factor_ray"`
	WarningIssued bool   `json:"warning_issued"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	borrower, err := parseBorrower(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	collateralValue, err := parseAmount(req.CollateralValueUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	debtValue, err := parseAmount(req.DebtValueUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	healthFactor, err := liquidation.HealthFactor(collateralValue, debtValue, s.cfg.ThresholdBps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	assessment, err := s.engine.Evaluate(borrower, healthFactor, s.now())
	if err != nil {
		writeError(w, engineStatus(err), err)
		return
	}
	s.metrics.ObserveEvaluation(assessment.Status.String())
	if assessment.WarningIssued {
		s.metrics.ObserveWarning()
		s.logger.Warn("margin warning issued",
			logging.MaskField("borrower", borrower.Hex()),
			"tier", assessment.Tier)
	}
	writeJSON(w, http.StatusOK, evaluateResponse{
		Status:        assessment.Status.String(),
		Tier:          assessment.Tier,
		HealthFactor:  healthFactor.String(),
		WarningIssued: assessment.WarningIssued,
	})
}

type liquidateRequest struct {
	Borrower           string `json:"borrower"`
	Liquidator         string `json:"liquidator"`
	Repay              string `json:"repay"`
	CollateralValueUSD string `json:"collateral_value_usd"`
	Confidence         uint64 `json:"confidence"`
	ObservedAt         string `json:"observed_at"`
}

type liquidateResponse struct {
	Liquidator       string `json:"liquidator"`
	DebtRepaid       string `json:"debt_repaid"`
	CollateralSeized string `json:"collateral_seized"`
	SeizedValueUSD   string `json:"seized_value_usd"`
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Borrower) || !common.IsHexAddress(req.Liquidator) {
		writeError(w, http.StatusBadRequest, errors.New("borrower and liquidator must be hex addresses"))
		return
	}
	repay, err := parseAmount(req.Repay)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	collateralValue, err := parseAmount(req.CollateralValueUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	observedAt := s.now()
	if raw := strings.TrimSpace(req.ObservedAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("observed_at must be RFC3339"))
			return
		}
		observedAt = parsed
	}
	quote := pricing.Quote{ValueUSD: collateralValue, Confidence: req.Confidence, Timestamp: observedAt}

	receipt, err := s.engine.Liquidate(common.HexToAddress(req.Liquidator), common.HexToAddress(req.Borrower), repay, quote, s.now())
	if err != nil {
		if status := engineStatus(err); status == http.StatusUnprocessableEntity {
			s.metrics.ObserveOracleReject(err.Error())
		}
		writeError(w, engineStatus(err), err)
		return
	}
	s.metrics.ObserveLiquidation("direct")
	s.logger.Info("position liquidated",
		logging.MaskField("borrower", req.Borrower),
		"repaid", receipt.DebtRepaid.String())
	writeJSON(w, http.StatusOK, liquidateResponse{
		Liquidator:       receipt.Liquidator.Hex(),
		DebtRepaid:       receipt.DebtRepaid.String(),
		CollateralSeized: receipt.CollateralSeized.String(),
		SeizedValueUSD:   receipt.SeizedValueUSD.String(),
	})
}

type auctionRequest struct {
	Borrower      string `json:"borrower"`
	CollateralLot string `json:"collateral_lot"`
	StartPrice    string `json:"start_price"`
	FloorPrice    string `json:"floor_price"`
	Duration      string `json:"duration"`
	Curve         string `json:"curve"`
}

type auctionResponse struct {
	ID        string `json:"id"`
	Borrower  string `json:"borrower"`
	Lot       string `json:"collateral_lot"`
	Curve     string `json:"curve"`
	StartedAt string `json:"started_at"`
}

func (s *Server) handleStartAuction(w http.ResponseWriter, r *http.Request) {
	var req auctionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Borrower) {
		writeError(w, http.StatusBadRequest, errors.New("borrower must be a hex address"))
		return
	}
	lot, err := parseAmount(req.CollateralLot)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start, err := parseAmount(req.StartPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	floor, err := parseAmount(req.FloorPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	duration, err := time.ParseDuration(strings.TrimSpace(req.Duration))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("duration must be a Go duration string"))
		return
	}
	curve := liquidation.DecayLinear
	if strings.EqualFold(strings.TrimSpace(req.Curve), "exponential") {
		curve = liquidation.DecayExponential
	}
	params := liquidation.AuctionParams{StartPrice: start, FloorPrice: floor, Duration: duration, Curve: curve}

	auction, err := s.engine.StartAuction(common.HexToAddress(req.Borrower), lot, params, s.now())
	if err != nil {
		writeError(w, engineStatus(err), err)
		return
	}
	s.logger.Info("auction started",
		"auction", auction.ID,
		logging.MaskField("borrower", req.Borrower),
		"curve", curve.String())
	writeJSON(w, http.StatusCreated, auctionResponse{
		ID:        auction.ID,
		Borrower:  auction.Borrower.Hex(),
		Lot:       auction.CollateralLot.String(),
		Curve:     auction.Params.Curve.String(),
		StartedAt: auction.StartedAt.UTC().Format(time.RFC3339),
	})
}

// handleAuctionPrice is a pure read; keepers poll it, so expiry accounting
// happens on settlement instead.
func (s *Server) handleAuctionPrice(w http.ResponseWriter, r *http.Request) {
	price, err := s.engine.AuctionPrice(chi.URLParam(r, "id"), s.now())
	if err != nil {
		writeError(w, engineStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"price": price.String()})
}

type executeAuctionRequest struct {
	Buyer string `json:"buyer"`
}

func (s *Server) handleExecuteAuction(w http.ResponseWriter, r *http.Request) {
	var req executeAuctionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Buyer) {
		writeError(w, http.StatusBadRequest, errors.New("buyer must be a hex address"))
		return
	}
	sale, err := s.engine.ExecuteAuction(chi.URLParam(r, "id"), common.HexToAddress(req.Buyer), s.now())
	if err != nil {
		if errors.Is(err, liquidation.ErrAuctionExpired) {
			s.metrics.ObserveAuctionExpired()
		}
		writeError(w, engineStatus(err), err)
		return
	}
	s.metrics.ObserveAuctionSettled()
	s.metrics.ObserveLiquidation("auction")
	writeJSON(w, http.StatusOK, map[string]string{
		"auction_id":        sale.AuctionID,
		"buyer":             sale.Buyer.Hex(),
		"price_paid":        sale.PricePaid.String(),
		"collateral_bought": sale.CollateralBought.String(),
	})
}

type pauseRequest struct {
	Module string `json:"module"`
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	module := strings.TrimSpace(req.Module)
	if module == "" || s.switchboard == nil {
		writeError(w, http.StatusBadRequest, errors.New("module required"))
		return
	}
	s.switchboard.Pause(module)
	s.logger.Warn("module paused", "component", module)
	writeJSON(w, http.StatusOK, map[string]string{"module": module, "state": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	module := strings.TrimSpace(req.Module)
	if module == "" || s.switchboard == nil {
		writeError(w, http.StatusBadRequest, errors.New("module required"))
		return
	}
	s.switchboard.Resume(module)
	s.logger.Info("module resumed", "component", module)
	writeJSON(w, http.StatusOK, map[string]string{"module": module, "state": "running"})
}
