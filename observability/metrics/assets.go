package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type AssetMetrics struct {
	created     prometheus.Counter
	burned      prometheus.Counter
	transferred prometheus.Counter
	updated     prometheus.Counter
}

var (
	assetsOnce     sync.Once
	assetsRegistry *AssetMetrics
)

func Assets() *AssetMetrics {
	assetsOnce.Do(func() {
		assetsRegistry = &AssetMetrics{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "assets_created_total",
				Help: "Count of assets created in the registry.",
			}),
			burned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "assets_burned_total",
				Help: "Count of assets burned from the registry.",
			}),
			transferred: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "assets_transferred_total",
				Help: "Count of asset ownership transfers.",
			}),
			updated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "assets_updated_total",
				Help: "Count of asset metadata updates.",
			}),
		}
		prometheus.MustRegister(
			assetsRegistry.created,
			assetsRegistry.burned,
			assetsRegistry.transferred,
			assetsRegistry.updated,
		)
	})
	return assetsRegistry
}

func (m *AssetMetrics) CreateInc() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *AssetMetrics) BurnInc() {
	if m == nil {
		return
	}
	m.burned.Inc()
}

func (m *AssetMetrics) TransferInc() {
	if m == nil {
		return
	}
	m.transferred.Inc()
}

func (m *AssetMetrics) UpdateInc() {
	if m == nil {
		return
	}
	m.updated.Inc()
}
