package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreIsolatedPerInstance(t *testing.T) {
	a := New()
	b := New()

	a.NotificationsCreated.WithLabelValues("like").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.NotificationsCreated.WithLabelValues("like")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NotificationsCreated.WithLabelValues("like")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "GET /lists", http.StatusOK, 20*time.Millisecond)
	m.LiveConnections.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `listshare_http_requests_total{method="GET",route="GET /lists",status="200"} 1`)
	assert.Contains(t, body, "listshare_live_connections 3")
}
