package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	nativecommon "agrilend/native/common"
	"agrilend/native/cropcal"
	"agrilend/native/liquidation"
	"agrilend/native/pricing"
	"agrilend/native/seasonal"
	"agrilend/observability/logging"
	"agrilend/services/riskd/config"
	"agrilend/services/riskd/server"
	"agrilend/services/riskd/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/riskd/config.yaml", "path to riskd configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("AGRILEND_ENV"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("riskd: load config: %v", err)
	}

	logger := logging.Setup("riskd", env, logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	liquidationCfg, err := cfg.LoadLiquidation()
	if err != nil {
		log.Fatalf("riskd: liquidation params: %v", err)
	}

	dsn, err := storage.FileDSN(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("riskd: resolve storage DSN: %v", err)
	}
	store, err := storage.Open(dsn)
	if err != nil {
		log.Fatalf("riskd: open storage: %v", err)
	}
	defer store.Close()

	engine, err := liquidation.NewEngine(liquidationCfg)
	if err != nil {
		log.Fatalf("riskd: liquidation engine: %v", err)
	}
	engine.SetState(store)
	engine.SetGuardrails(pricing.Guardrails{
		MaxAge:        cfg.Oracle.MaxAge.Duration,
		MinConfidence: cfg.Oracle.MinConfidence,
	})
	switchboard := nativecommon.NewSwitchboard()
	engine.SetPauses(switchboard)

	weather := seasonal.NewEventBook()
	commodities := make([]server.Commodity, 0, len(cfg.Commodities))
	for _, entry := range cfg.Commodities {
		seasonalCfg, err := entry.Seasonal()
		if err != nil {
			log.Fatalf("riskd: commodity %d: %v", entry.ID, err)
		}
		profile, err := cropcal.Profile(entry.ID)
		if err != nil {
			log.Fatalf("riskd: commodity %d: no crop calendar profile", entry.ID)
		}
		// Reload the persisted weather history so restarts keep active
		// events on the book.
		events, err := store.WeatherEvents(entry.ID)
		if err != nil {
			log.Fatalf("riskd: load weather events: %v", err)
		}
		for _, event := range events {
			if _, err := weather.Record(event); err != nil {
				logger.Warn("skip malformed stored weather event", "error", err, "commodity", entry.Symbol)
			}
		}
		commodities = append(commodities, server.Commodity{
			Symbol:  entry.Symbol,
			Config:  seasonalCfg,
			Profile: profile,
		})
	}

	rates := seasonal.NewRateModel(cfg.Rates.BaseRate, cfg.Rates.Slope1, cfg.Rates.Slope2, cfg.Rates.Kink)

	srv, err := server.New(
		server.Config{
			ListenAddress: cfg.ListenAddress,
			ThresholdBps:  liquidationCfg.LiquidationThresholdBps,
		},
		logger, store, engine, weather, rates, switchboard, commodities,
		server.Options{},
	)
	if err != nil {
		log.Fatalf("riskd: server: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}
