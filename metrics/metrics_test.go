package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsAwarded(t *testing.T) {
	before := testutil.ToFloat64(pointsAwarded.WithLabelValues("challenge"))
	PointsAwarded("challenge", 40)
	PointsAwarded("challenge", 0)
	assert.Equal(t, before+40, testutil.ToFloat64(pointsAwarded.WithLabelValues("challenge")))
}

func TestRunLifecycle(t *testing.T) {
	before := testutil.ToFloat64(activeRuns)
	RunStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(activeRuns))

	done := testutil.ToFloat64(challengeRuns.WithLabelValues("completed"))
	RunFinished(true)
	assert.Equal(t, before, testutil.ToFloat64(activeRuns))
	assert.Equal(t, done+1, testutil.ToFloat64(challengeRuns.WithLabelValues("completed")))
}

func TestBadgesAndDuplicates(t *testing.T) {
	BadgesUnlocked([]string{"explorer", "explorer"})
	assert.GreaterOrEqual(t, testutil.ToFloat64(badgesUnlocked.WithLabelValues("explorer")), 2.0)

	DuplicateRejected("scenario")
	assert.GreaterOrEqual(t, testutil.ToFloat64(duplicateRejections.WithLabelValues("scenario")), 1.0)
}

func TestHandlerExposesCounters(t *testing.T) {
	ModuleCompleted()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mathquest_module_completions_total")
}
