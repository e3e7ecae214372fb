package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type BoxmintMetrics struct {
	boxesMinted      prometheus.Counter
	boxesOpened      prometheus.Counter
	revealsStarted   prometheus.Counter
	revealsFinalized prometheus.Counter
	deliveries       prometheus.Counter
	receiptsMinted   prometheus.Counter
}

var (
	boxmintOnce     sync.Once
	boxmintRegistry *BoxmintMetrics
)

func Boxmint() *BoxmintMetrics {
	boxmintOnce.Do(func() {
		boxmintRegistry = &BoxmintMetrics{
			boxesMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "boxmint_boxes_minted_total",
				Help: "Count of box assets sold through the sale engine.",
			}),
			boxesOpened: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "boxmint_boxes_opened_total",
				Help: "Count of boxes burned through the single-phase reveal.",
			}),
			revealsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "boxmint_reveals_started_total",
				Help: "Count of two-phase reveals committed.",
			}),
			revealsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "boxmint_reveals_finalized_total",
				Help: "Count of two-phase reveals finalized.",
			}),
			deliveries: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "boxmint_deliveries_total",
				Help: "Count of physical delivery requests recorded.",
			}),
			receiptsMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "boxmint_receipts_minted_total",
				Help: "Count of receipt assets minted.",
			}),
		}
		prometheus.MustRegister(
			boxmintRegistry.boxesMinted,
			boxmintRegistry.boxesOpened,
			boxmintRegistry.revealsStarted,
			boxmintRegistry.revealsFinalized,
			boxmintRegistry.deliveries,
			boxmintRegistry.receiptsMinted,
		)
	})
	return boxmintRegistry
}

func (m *BoxmintMetrics) MintedAdd(n float64) {
	if m == nil {
		return
	}
	m.boxesMinted.Add(n)
}

func (m *BoxmintMetrics) OpenedInc() {
	if m == nil {
		return
	}
	m.boxesOpened.Inc()
}

func (m *BoxmintMetrics) RevealStartedInc() {
	if m == nil {
		return
	}
	m.revealsStarted.Inc()
}

func (m *BoxmintMetrics) RevealFinalizedInc() {
	if m == nil {
		return
	}
	m.revealsFinalized.Inc()
}

func (m *BoxmintMetrics) DeliveryInc() {
	if m == nil {
		return
	}
	m.deliveries.Inc()
}

func (m *BoxmintMetrics) ReceiptsAdd(n float64) {
	if m == nil {
		return
	}
	m.receiptsMinted.Add(n)
}
