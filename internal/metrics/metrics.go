// Package metrics содержит prometheus-метрики клиента покупок.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/simple-iap/internal/models"
)

// Metrics счетчики исходов покупок и проверок чека.
type Metrics struct {
	purchaseOutcomes   *prometheus.CounterVec
	validations        *prometheus.CounterVec
	validationDuration prometheus.Histogram
	verifyRequests     *prometheus.CounterVec
}

// New создает метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		purchaseOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iap_purchase_outcomes_total",
				Help: "Purchase and restore outcomes reported to the caller.",
			},
			[]string{"status"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iap_receipt_validations_total",
				Help: "Receipt validations by result.",
			},
			[]string{"result"},
		),
		validationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "iap_receipt_validation_duration_seconds",
			Help:    "Time spent on one receipt validation round trip.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		verifyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iap_verify_requests_total",
				Help: "HTTP requests sent to the receipt verification endpoint.",
			},
			[]string{"code", "method"},
		),
	}
	reg.MustRegister(m.purchaseOutcomes, m.validations, m.validationDuration, m.verifyRequests)
	return m
}

// PurchaseOutcome учитывает итог покупки или восстановления.
func (m *Metrics) PurchaseOutcome(status models.PurchaseStatus) {
	m.purchaseOutcomes.WithLabelValues(status.String()).Inc()
}

// ReceiptValidation учитывает одну проверку чека.
func (m *Metrics) ReceiptValidation(result string, elapsed time.Duration) {
	m.validations.WithLabelValues(result).Inc()
	m.validationDuration.Observe(elapsed.Seconds())
}

// InstrumentRoundTripper оборачивает транспорт HTTP-клиента верификации.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.verifyRequests, next)
}
