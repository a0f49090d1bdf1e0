package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/game/challenge"
	"github.com/kasuganosora/mathquest/game/daily"
	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/kasuganosora/mathquest/game/reward"
	mw "github.com/kasuganosora/mathquest/middleware"
	"go.uber.org/zap"
)

var errNoActiveRun = errors.New("no active challenge run")

// errorStatus maps domain sentinels to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, reward.ErrProfileNotFound),
		errors.Is(err, reward.ErrUnknownModule),
		errors.Is(err, reward.ErrUnknownScenario),
		errors.Is(err, errNoActiveRun):
		return http.StatusNotFound
	case errors.Is(err, reward.ErrInvalidName),
		errors.Is(err, reward.ErrInvalidFocus):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrOnboardingFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reward.ErrModuleLocked):
		return http.StatusForbidden
	case errors.Is(err, challenge.ErrAlreadyCompleted),
		errors.Is(err, challenge.ErrAnswerLocked),
		errors.Is(err, challenge.ErrFeedbackPending),
		errors.Is(err, challenge.ErrRunFinished),
		errors.Is(err, challenge.ErrNotRunning),
		errors.Is(err, challenge.ErrNoPrompt):
		return http.StatusConflict
	case errors.Is(err, daily.ErrEmptyCatalog),
		errors.Is(err, challenge.ErrManagerClosed),
		errors.Is(err, reward.ErrSyncDisabled),
		errors.Is(err, reward.ErrNoStarterModule):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body. Unexpected errors are logged and
// hidden from the client.
func fail(c *gin.Context, logger *zap.Logger, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed", append(mw.RequestFields(c), zap.Error(err))...)
		c.JSON(code, gin.H{"error": "internal error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// outcomeStatus maps an event disposition to an HTTP status code.
func outcomeStatus(s reward.Status) int {
	switch s {
	case reward.StatusApplied:
		return http.StatusOK
	case reward.StatusAlreadyDone:
		return http.StatusConflict
	case reward.StatusNotReady:
		return http.StatusUnprocessableEntity
	case reward.StatusSkipped:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondOutcome(c *gin.Context, out reward.Outcome) {
	if out.Status == reward.StatusSkipped {
		c.JSON(http.StatusNotFound, gin.H{"error": reward.ErrProfileNotFound.Error(), "status": out.Status})
		return
	}
	c.JSON(outcomeStatus(out.Status), out)
}
