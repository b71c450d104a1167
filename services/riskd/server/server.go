// Package server exposes the risk engines over HTTP for operators and
// keeper bots. All monetary amounts travel as decimal strings.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nativecommon "agrilend/native/common"
	"agrilend/native/calendar"
	"agrilend/native/cropcal"
	"agrilend/native/liquidation"
	"agrilend/native/pricing"
	"agrilend/native/seasonal"
	"agrilend/observability/metrics"
	"agrilend/services/riskd/storage"
)

// Commodity bundles everything the server needs to answer rate queries for
// one tracked sub-commodity.
type Commodity struct {
	Symbol  string
	Config  seasonal.SubCommodityConfig
	Profile cropcal.SeasonalProfile
}

// Config defines HTTP server parameters.
type Config struct {
	ListenAddress string
	// ThresholdBps is the liquidation threshold used to derive health
	// factors from raw collateral and debt values.
	ThresholdBps uint64
}

// Server hosts the riskd HTTP API.
type Server struct {
	cfg         Config
	logger      *slog.Logger
	store       *storage.Storage
	engine      *liquidation.Engine
	weather     *seasonal.EventBook
	rates       *seasonal.RateModel
	futures     pricing.FuturesOracle
	switchboard *nativecommon.Switchboard
	metrics     *metrics.RiskMetrics

	bySymbol map[string]Commodity

	now func() time.Time
}

// Options carries the optional collaborators for New.
type Options struct {
	Futures pricing.FuturesOracle
	Now     func() time.Time
}

// New constructs the riskd server.
func New(cfg Config, logger *slog.Logger, store *storage.Storage, engine *liquidation.Engine, weather *seasonal.EventBook, rates *seasonal.RateModel, switchboard *nativecommon.Switchboard, commodities []Commodity, opts Options) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("storage required")
	}
	if engine == nil {
		return nil, fmt.Errorf("liquidation engine required")
	}
	if weather == nil {
		weather = seasonal.NewEventBook()
	}
	if rates == nil {
		rates = seasonal.DefaultRateModel.Clone()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ThresholdBps == 0 || cfg.ThresholdBps > 10_000 {
		return nil, fmt.Errorf("threshold must be in (0, 10000]")
	}
	srv := &Server{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		engine:      engine,
		weather:     weather,
		rates:       rates,
		futures:     opts.Futures,
		switchboard: switchboard,
		metrics:     metrics.Risk(),
		bySymbol:    make(map[string]Commodity, len(commodities)),
		now:         opts.Now,
	}
	if srv.now == nil {
		srv.now = time.Now
	}
	for _, commodity := range commodities {
		symbol := strings.ToUpper(strings.TrimSpace(commodity.Symbol))
		if symbol == "" {
			return nil, fmt.Errorf("commodity symbol required")
		}
		if _, dup := srv.bySymbol[symbol]; dup {
			return nil, fmt.Errorf("duplicate commodity symbol %s", symbol)
		}
		commodity.Symbol = symbol
		srv.bySymbol[symbol] = commodity
	}
	if len(srv.bySymbol) == 0 {
		return nil, fmt.Errorf("at least one commodity required")
	}
	return srv, nil
}

// Handler wires the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rates/{symbol}", s.handleRates)
		r.Post("/weather", s.handleRecordWeather)
		r.Get("/weather/{symbol}", s.handleListWeather)
		r.Put("/positions/{borrower}", s.handleUpsertPosition)
		r.Get("/positions/{borrower}", s.handleGetPosition)
		r.Post("/positions/{borrower}/evaluate", s.handleEvaluate)
		r.Post("/liquidations", s.handleLiquidate)
		r.Post("/auctions", s.handleStartAuction)
		r.Get("/auctions/{id}/price", s.handleAuctionPrice)
		r.Post("/auctions/{id}/execute", s.handleExecuteAuction)
	})
	r.Post("/admin/pause", s.handlePause)
	r.Post("/admin/resume", s.handleResume)
	return r
}

// Run starts the HTTP server and blocks until context cancellation.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.ListenAddress, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("riskd listening", "addr", s.cfg.ListenAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) commodity(symbol string) (Commodity, bool) {
	commodity, ok := s.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return commodity, ok
}

func (s *Server) currentMonth() int {
	date, err := calendar.TimestampToDate(s.now().Unix())
	if err != nil {
		return int(s.now().Month())
	}
	return date.Month
}
