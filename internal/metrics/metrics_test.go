package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/ports"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ProgressObserver = (*Metrics)(nil)

func TestMetrics_CountsRepetitions(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		m.RepetitionCompleted(power.StrategyAnalytic, power.Outcome{Repetition: i, Rejected: i%2 == 0}, time.Millisecond)
	}

	assert.Equal(t, 10.0, testutil.ToFloat64(m.repetitionsTotal.WithLabelValues("analytic")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.rejectionsTotal.WithLabelValues("analytic")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.repetitionsTotal.WithLabelValues("randomization")))
}

func TestMetrics_EstimationResults(t *testing.T) {
	m := New()

	m.EstimationFinished(&power.Estimate{Strategy: power.StrategyRandomization, Completed: 4, Power: 0.75}, nil)
	m.EstimationFinished(&power.Estimate{Strategy: power.StrategyRandomization, Completed: 2, Partial: true}, nil)
	m.EstimationFinished(nil, core.NewDegenerateSampleError(1, 1))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.estimationsTotal.WithLabelValues("randomization", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.estimationsTotal.WithLabelValues("randomization", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.estimationsTotal.WithLabelValues("unknown", "DEGENERATE_SAMPLE")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastPower.WithLabelValues("randomization")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAPIEndpointDuration("power", http.MethodPost, "200", 0.2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gopower_api_time_seconds_count")
}
