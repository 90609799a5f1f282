package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pawpop-backend/internal/metrics"
)

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *metrics.Registry
	assert.NotPanics(t, func() {
		r.WorkflowFinished("process_paid_order", "ok", time.Now())
		r.IdempotentSkip("fulfillment")
		r.UpscaleFallback()
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := metrics.New()
	r.FulfillmentSubmitted("art_print", "ok")
	r.UpscaleFallback()

	count, err := testutil.GatherAndCount(r.Gatherer(), "pawpop_fulfillment_orders_total", "pawpop_upscale_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pawpop_fulfillment_orders_total{product_type="art_print",result="ok"} 1`)
}
