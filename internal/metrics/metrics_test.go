package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.GuardDecisions.WithLabelValues("expired").Inc()
	m.ForcedLogouts.WithLabelValues(LogoutFallback).Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("expired")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ForcedLogouts.WithLabelValues(LogoutFallback)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wishplace_guard_decisions_total{outcome="expired"} 1`)
	assert.Contains(t, rec.Body.String(), `wishplace_watchdog_forced_logouts_total{path="fallback"} 2`)
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
