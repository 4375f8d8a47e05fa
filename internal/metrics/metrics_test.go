package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveRender("")
	m.ObserveRender("")
	m.ObserveRender("asset_not_found")
	m.ObserveTransition("entering")
	m.ObservePointer("enter", true)
	m.ObservePointer("enter", false)
	m.SetSessions(3)
	m.SetClients(2)
	m.SetCatalogSize(5)
	m.ObserveHTTP("GET", "/", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pageRenders))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderErrors.WithLabelValues("asset_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("entering")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pointerEvents.WithLabelValues("enter", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sseClients))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ingested))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRender("")
		m.ObserveTransition("shown")
		m.ObservePointer("leave", true)
		m.SetSessions(1)
		m.SetClients(1)
		m.SetCatalogSize(1)
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRender("")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hero_page_renders_total 1"))
}
