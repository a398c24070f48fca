package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"releasebot/internal/core/port"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Observer(t *testing.T) {
	p := NewPrometheus()

	p.DispatchObserved("ask", port.OutcomeImmediate)
	p.DispatchObserved("ask", port.OutcomeImmediate)
	p.DispatchObserved("new-release", port.OutcomeDeferred)
	p.HandlerCompleted("ask", 20*time.Millisecond, nil)
	p.HandlerCompleted("ask", 30*time.Millisecond, errors.New("boom"))
	p.FollowUpObserved(port.OutcomeDelivered)
	p.FollowUpsInFlight(3)
	p.VerificationFailed()

	assert.InDelta(t, 2, testutil.ToFloat64(p.dispatchTotal.WithLabelValues("ask", "immediate")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.dispatchTotal.WithLabelValues("new-release", "deferred")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.handlerErrors.WithLabelValues("ask")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.followUpTotal.WithLabelValues("delivered")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(p.followUpsInFlight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.verificationFailures), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(p.handlerDuration))
}

func TestPrometheus_CollectAndServe(t *testing.T) {
	p := NewPrometheus()

	mux := http.NewServeMux()
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux.Handle("/metrics", p.Handler())
	handler := p.Collect(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `releasebot_http_requests_total{code="418",method="POST"} 1`))
	assert.False(t, strings.Contains(body, `code="200",method="GET"`))
}
