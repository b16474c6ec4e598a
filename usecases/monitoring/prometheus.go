//       _      _  __ _      _ _
//    __| |_ __(_)/ _| |_ __| | |__
//   / _` | '__| | |_| __/ _` | '_ \
//  | (_| | |  | |  _| || (_| | |_) |
//   \__,_|_|  |_|_|  \__\__,_|_.__/
//
//  Copyright © 2021 - 2026 DriftDB B.V. All rights reserved.
//
//  CONTACT: hello@driftdb.io
//

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics holds every metric vector the stores report into.
// Subsystems curry their static labels once at construction time and keep
// the curried observers (see adapters/repos/overlays.Metrics).
type PrometheusMetrics struct {
	Registerer prometheus.Registerer

	// OverlayOperations tracks overlay cache operation durations, labelled
	// by implementation (memory/bolt) and operation.
	OverlayOperations *prometheus.HistogramVec

	// OverlayCount tracks the number of live overlays per implementation.
	OverlayCount *prometheus.GaugeVec

	// LocalViewOperations tracks local documents view operation durations.
	LocalViewOperations *prometheus.HistogramVec
}

// NewPrometheusMetrics builds and registers all vectors on reg. Pass
// prometheus.DefaultRegisterer unless the caller owns a registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		Registerer: reg,
		OverlayOperations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driftdb_overlay_operations_duration_seconds",
			Help:    "Duration of overlay cache operations",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"implementation", "operation"}),
		OverlayCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "driftdb_overlay_count",
			Help: "Number of live overlays",
		}, []string{"implementation"}),
		LocalViewOperations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driftdb_local_view_operations_duration_seconds",
			Help:    "Duration of local documents view operations",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"operation"}),
	}

	reg.MustRegister(pm.OverlayOperations, pm.OverlayCount, pm.LocalViewOperations)
	return pm
}
