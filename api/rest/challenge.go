package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/game/challenge"
	"github.com/kasuganosora/mathquest/game/reward"
	"go.uber.org/zap"
)

// ChallengeHandler drives daily challenge runs.
type ChallengeHandler struct {
	svc    *reward.Service
	runs   *challenge.Manager
	logger *zap.Logger
}

// NewChallengeHandler creates a ChallengeHandler.
func NewChallengeHandler(svc *reward.Service, runs *challenge.Manager, logger *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{svc: svc, runs: runs, logger: logger}
}

// Today returns the challenge of the day without its answer key.
// GET /api/challenges/today
func (h *ChallengeHandler) Today(c *gin.Context) {
	ch, err := h.svc.TodayChallenge()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               ch.ID,
		"title":            ch.Title,
		"description":      ch.Description,
		"timeLimitMinutes": ch.TimeLimitMinutes,
		"reward":           ch.Reward,
		"tasks":            ch.Tasks,
		"promptCount":      len(ch.RunPrompts()),
	})
}

// Launch starts today's run for the learner.
// POST /api/profiles/:id/runs
func (h *ChallengeHandler) Launch(c *gin.Context) {
	id := c.Param("id")
	ch, err := h.svc.TodayChallenge()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	done, err := h.svc.ChallengeDoneToday(c.Request.Context(), id, ch.ID)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	run, err := h.runs.Launch(id, ch, done)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, run.View())
}

func (h *ChallengeHandler) current(c *gin.Context) (*challenge.Run, bool) {
	run := h.runs.Get(c.Param("id"))
	if run == nil {
		fail(c, h.logger, errNoActiveRun)
		return nil, false
	}
	return run, true
}

// Current returns the live run.
// GET /api/profiles/:id/runs/current
func (h *ChallengeHandler) Current(c *gin.Context) {
	run, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run.View())
}

type answerRequest struct {
	Choice *int `json:"choice" binding:"required"`
}

// Answer records a choice for the current prompt.
// POST /api/profiles/:id/runs/current/answer
func (h *ChallengeHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, ok := h.current(c)
	if !ok {
		return
	}
	fb, err := run.Answer(*req.Choice)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": fb, "run": run.View()})
}

// Next advances past the answered prompt; the last advance finishes the run.
// POST /api/profiles/:id/runs/current/next
func (h *ChallengeHandler) Next(c *gin.Context) {
	run, ok := h.current(c)
	if !ok {
		return
	}
	finished, err := run.Advance()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"finished": finished, "run": run.View()})
}

// Exit abandons the live run.
// POST /api/profiles/:id/runs/current/exit
func (h *ChallengeHandler) Exit(c *gin.Context) {
	run, ok := h.current(c)
	if !ok {
		return
	}
	sum, _ := run.Exit()
	c.JSON(http.StatusOK, gin.H{"summary": sum})
}
