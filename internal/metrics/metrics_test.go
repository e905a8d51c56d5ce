package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/simple-iap/internal/models"
)

func TestMetrics_PurchaseOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PurchaseOutcome(models.Paid)
	m.PurchaseOutcome(models.Paid)
	m.PurchaseOutcome(models.CannotPay)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.purchaseOutcomes.WithLabelValues("paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchaseOutcomes.WithLabelValues("cannotPay")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.purchaseOutcomes.WithLabelValues("purchaseFailed")))
}

func TestMetrics_ReceiptValidation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReceiptValidation("exists", 120*time.Millisecond)
	m.ReceiptValidation("error", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.validationDuration))
}

func TestMetrics_InstrumentRoundTripper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	m := New(prometheus.NewRegistry())
	client := &http.Client{Transport: m.InstrumentRoundTripper(nil)}

	resp, err := client.Post(srv.URL, "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifyRequests.WithLabelValues("418", "post")))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
