package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RiskMetrics tracks the seasonal rate and liquidation pipelines.
type RiskMetrics struct {
	evaluations     *prometheus.CounterVec
	warningsIssued  prometheus.Counter
	liquidations    *prometheus.CounterVec
	auctionsSettled prometheus.Counter
	auctionsExpired prometheus.Counter
	multiplierBps   *prometheus.GaugeVec
	weatherEvents   *prometheus.CounterVec
	oracleRejects   *prometheus.CounterVec
}

var (
	riskOnce     sync.Once
	riskRegistry *RiskMetrics
)

// Risk returns the lazily-initialised metrics registry for the risk engines.
func Risk() *RiskMetrics {
	riskOnce.Do(func() {
		riskRegistry = &RiskMetrics{
			evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "risk_evaluations_total",
				Help: "Count of position health evaluations by resulting status.",
			}, []string{"status"}),
			warningsIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "risk_warnings_issued_total",
				Help: "Count of borrower warnings surfaced after the cooldown.",
			}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "risk_liquidations_total",
				Help: "Count of executed liquidations by path.",
			}, []string{"path"}),
			auctionsSettled: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "risk_auctions_settled_total",
				Help: "Count of Dutch auctions settled by a buyer.",
			}),
			auctionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "risk_auctions_expired_total",
				Help: "Count of Dutch auctions that lapsed without a buyer.",
			}),
			multiplierBps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "risk_seasonal_multiplier_bps",
				Help: "Last computed seasonal multiplier per commodity, in basis points.",
			}, []string{"commodity"}),
			weatherEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "risk_weather_events_total",
				Help: "Count of recorded weather events by type.",
			}, []string{"type"}),
			oracleRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "risk_oracle_rejects_total",
				Help: "Count of oracle readings rejected by the guardrails, by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			riskRegistry.evaluations,
			riskRegistry.warningsIssued,
			riskRegistry.liquidations,
			riskRegistry.auctionsSettled,
			riskRegistry.auctionsExpired,
			riskRegistry.multiplierBps,
			riskRegistry.weatherEvents,
			riskRegistry.oracleRejects,
		)
	})
	return riskRegistry
}

// AuctionsExpiredCounter exposes the expiry counter for assertions.
func (m *RiskMetrics) AuctionsExpiredCounter() prometheus.Counter {
	return m.auctionsExpired
}

func (m *RiskMetrics) ObserveEvaluation(status string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.evaluations.WithLabelValues(status).Inc()
}

func (m *RiskMetrics) ObserveWarning() {
	if m == nil {
		return
	}
	m.warningsIssued.Inc()
}

func (m *RiskMetrics) ObserveLiquidation(path string) {
	if m == nil {
		return
	}
	if path == "" {
		path = "direct"
	}
	m.liquidations.WithLabelValues(path).Inc()
}

func (m *RiskMetrics) ObserveAuctionSettled() {
	if m == nil {
		return
	}
	m.auctionsSettled.Inc()
}

func (m *RiskMetrics) ObserveAuctionExpired() {
	if m == nil {
		return
	}
	m.auctionsExpired.Inc()
}

func (m *RiskMetrics) SetSeasonalMultiplier(commodity string, bps uint64) {
	if m == nil {
		return
	}
	m.multiplierBps.WithLabelValues(commodity).Set(float64(bps))
}

func (m *RiskMetrics) ObserveWeatherEvent(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.weatherEvents.WithLabelValues(kind).Inc()
}

func (m *RiskMetrics) ObserveOracleReject(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.oracleRejects.WithLabelValues(reason).Inc()
}
