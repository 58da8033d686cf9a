// Package metrics объявляет Prometheus-метрики панели.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метки результата.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics — набор счётчиков, общий для сервисов одного процесса.
type Metrics struct {
	CreditAdjustments  *prometheus.CounterVec
	ProvisioningCalls  *prometheus.CounterVec
	ProvisioningTiming *prometheus.HistogramVec
	ClientRenewals     *prometheus.CounterVec
	PaymentEvents      *prometheus.CounterVec
	ExpiryNotices      prometheus.Counter
}

// New регистрирует метрики в reg. Для глобального реестра передайте prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CreditAdjustments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_credit_adjustments_total",
			Help: "Credit adjustments by result.",
		}, []string{"result"}),
		ProvisioningCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_provisioning_calls_total",
			Help: "Remote provisioning calls by operation and result.",
		}, []string{"op", "result"}),
		ProvisioningTiming: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "panel_provisioning_call_duration_seconds",
			Help:    "Remote provisioning call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		ClientRenewals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_client_renewals_total",
			Help: "Client renewals, labelled by whether the remote renewal succeeded.",
		}, []string{"remote"}),
		PaymentEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_payment_events_total",
			Help: "Applied payment events by result.",
		}, []string{"result"}),
		ExpiryNotices: f.NewCounter(prometheus.CounterOpts{
			Name: "panel_expiry_notices_total",
			Help: "Near-expiry notices published.",
		}),
	}
}

// NewNoop возвращает метрики на отдельном реестре, не видимом в /metrics.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveProvisioning фиксирует удалённый вызов.
func (m *Metrics) ObserveProvisioning(op string, started time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.ProvisioningCalls.WithLabelValues(op, result).Inc()
	m.ProvisioningTiming.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
