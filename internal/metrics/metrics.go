package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "rpsgame"

// Metrics holds the Prometheus collectors for matchmaking and transport
type Metrics struct {
	WaitingConnections prometheus.Gauge
	ActiveMatches      prometheus.Gauge
	Connections        prometheus.Gauge

	MatchesCreated   prometheus.Counter
	MatchesResolved  *prometheus.CounterVec
	MatchesAbandoned prometheus.Counter
	InvalidChoices   prometheus.Counter
	DroppedMessages  prometheus.Counter

	MatchDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WaitingConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting_connections",
			Help:      "Connections currently waiting for an opponent.",
		}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Matches created and not yet resolved or abandoned.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open realtime connections.",
		}),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Total matches formed.",
		}),
		MatchesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_resolved_total",
			Help:      "Total matches resolved, by result.",
		}, []string{"result"}),
		MatchesAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_abandoned_total",
			Help:      "Total matches torn down because a participant disconnected.",
		}),
		InvalidChoices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_choices_total",
			Help:      "Total rejected choice submissions.",
		}),
		DroppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_messages_total",
			Help:      "Outbound messages dropped because the client buffer was full or the client was gone.",
		}),
		MatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time from pairing to resolution.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
		}),
	}

	reg.MustRegister(
		m.WaitingConnections,
		m.ActiveMatches,
		m.Connections,
		m.MatchesCreated,
		m.MatchesResolved,
		m.MatchesAbandoned,
		m.InvalidChoices,
		m.DroppedMessages,
		m.MatchDuration,
	)
	return m
}

// Result labels for MatchesResolved
const (
	ResultDecisive = "decisive"
	ResultDraw     = "draw"
)
