package testutil

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/rpsgame/internal/metrics"
)

// NewMetrics returns collectors bound to a private registry,
// so tests never collide on the default one
func NewMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}
