package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(Config{ServiceName: "autoparts", Environment: "test"}, reg)

	m.IncCartMutation(CartOpAdd)
	m.IncCartMutation(CartOpAdd)
	m.IncStockRejection(StockRejectOrder)
	m.IncOrderCreated()
	m.IncSyncEntry("cart_items", "INSERT")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartMutations.WithLabelValues(CartOpAdd)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockRejections.WithLabelValues(StockRejectOrder)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncEntries.WithLabelValues("cart_items", "INSERT")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCartMutation(CartOpClear)
		m.IncOrderRollback()
		m.SetWSClients(3)
	})
}

func TestHTTPMetrics_ObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(Config{}, reg)

	r := gin.New()
	r.Use(h.GinMiddleware())
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(h.duration, "autoparts_http_request_duration_seconds"))
}
