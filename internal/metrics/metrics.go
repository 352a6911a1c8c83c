// Package metrics exposes Prometheus metrics for the voting backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the broker and HTTP surface.
type Metrics struct {
	registry         *prometheus.Registry
	connectedClients prometheus.Gauge
	songsCurrent     prometheus.Gauge
	eventsTotal      *prometheus.CounterVec
	eventErrorsTotal prometheus.Counter
	loginsTotal      prometheus.Counter
}

// New creates and registers collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	connectedClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "voting_connected_clients",
		Help: "Number of live WebSocket connections",
	})
	songsCurrent := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "voting_songs_current",
		Help: "Number of songs currently suggested",
	})
	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voting_events_total",
		Help: "Total inbound WebSocket events by event name",
	}, []string{"event"})
	eventErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voting_event_errors_total",
		Help: "Total inbound events rejected with an error",
	})
	loginsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voting_dj_logins_total",
		Help: "Total successful DJ logins",
	})

	registry.MustRegister(
		connectedClients,
		songsCurrent,
		eventsTotal,
		eventErrorsTotal,
		loginsTotal,
	)

	return &Metrics{
		registry:         registry,
		connectedClients: connectedClients,
		songsCurrent:     songsCurrent,
		eventsTotal:      eventsTotal,
		eventErrorsTotal: eventErrorsTotal,
		loginsTotal:      loginsTotal,
	}
}

// SetConnectedClients sets the live connections gauge.
func (m *Metrics) SetConnectedClients(n int) {
	m.connectedClients.Set(float64(n))
}

// IncEvent increments the inbound event counter for the given event name.
func (m *Metrics) IncEvent(event string) {
	m.eventsTotal.WithLabelValues(event).Inc()
}

// IncEventError increments the rejected-event counter.
func (m *Metrics) IncEventError() {
	m.eventErrorsTotal.Inc()
}

// IncLogins increments the successful DJ login counter.
func (m *Metrics) IncLogins() {
	m.loginsTotal.Inc()
}

// Handler returns an http.Handler that serves the registry.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. current song count).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// SetSongs sets the current song count gauge.
func (m *Metrics) SetSongs(n int) {
	m.songsCurrent.Set(float64(n))
}
