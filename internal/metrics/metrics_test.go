package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CheckoutFinished(domain.CheckoutGateway, "success")
	m.CheckoutFinished(domain.CheckoutGateway, "success")
	m.ReconciliationRecorded("insufficient_stock")
	m.IntentsExpiredAdd(3)
	m.EventPublished(domain.EventOrderCreated, nil)
	m.EventPublished(domain.EventOrderCreated, errors.New("broker down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("gateway", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconciliations.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IntentsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(domain.EventOrderCreated, "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("/api/v1/cart", http.MethodGet, http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",route="/api/v1/cart",status="200"} 1`)
}
