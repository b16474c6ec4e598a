package overlays

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/driftdb/driftdb/usecases/monitoring"
)

// Metrics curries the prometheus vectors just once so the hot path only pays
// for an observer call, not for label lookups. A nil *Metrics is valid and
// disables reporting.
type Metrics struct {
	getOverlay            prometheus.Observer
	saveOverlays          prometheus.Observer
	removeOverlays        prometheus.Observer
	getForCollection      prometheus.Observer
	getForCollectionGroup prometheus.Observer
	count                 prometheus.Gauge
}

func NewMetrics(pm *monitoring.PrometheusMetrics, implementation string) *Metrics {
	if pm == nil {
		return nil
	}
	ops := pm.OverlayOperations.MustCurryWith(prometheus.Labels{
		"implementation": implementation,
	})
	return &Metrics{
		getOverlay:            ops.With(prometheus.Labels{"operation": "get_overlay"}),
		saveOverlays:          ops.With(prometheus.Labels{"operation": "save_overlays"}),
		removeOverlays:        ops.With(prometheus.Labels{"operation": "remove_overlays_for_batch_id"}),
		getForCollection:      ops.With(prometheus.Labels{"operation": "get_overlays_for_collection"}),
		getForCollectionGroup: ops.With(prometheus.Labels{"operation": "get_overlays_for_collection_group"}),
		count: pm.OverlayCount.With(prometheus.Labels{
			"implementation": implementation,
		}),
	}
}

// SetOverlayCount reports the number of live overlays. Only implementations
// that can answer it cheaply call this.
func (m *Metrics) SetOverlayCount(n int) {
	if m == nil {
		return
	}
	m.count.Set(float64(n))
}

func (m *Metrics) observe(o prometheus.Observer) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		o.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) GetOverlay() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.getOverlay)
}

func (m *Metrics) SaveOverlays() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.saveOverlays)
}

func (m *Metrics) RemoveOverlays() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.removeOverlays)
}

func (m *Metrics) GetForCollection() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.getForCollection)
}

func (m *Metrics) GetForCollectionGroup() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.getForCollectionGroup)
}
