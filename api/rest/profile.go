package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/game/minigame"
	"github.com/kasuganosora/mathquest/game/reward"
	"github.com/kasuganosora/mathquest/resource"
	"go.uber.org/zap"
)

// ProfileHandler handles onboarding, learner state and module endpoints.
type ProfileHandler struct {
	svc    *reward.Service
	logger *zap.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc *reward.Service, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

type onboardRequest struct {
	Name    string            `json:"name" binding:"required"`
	Focus   resource.Audience `json:"focus" binding:"required"`
	Answers map[string]string `json:"answers"`
}

// Onboard creates a learner from the placement quiz.
// POST /api/profiles
func (h *ProfileHandler) Onboard(c *gin.Context) {
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.svc.Onboard(c.Request.Context(), req.Name, req.Focus, req.Answers)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// Get returns the learner's state after the idle streak check.
// GET /api/profiles/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	s, err := h.svc.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Modules lists the learner's track with progress.
// GET /api/profiles/:id/modules
func (h *ProfileHandler) Modules(c *gin.Context) {
	mods, snap, err := h.svc.Modules(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": mods, "progress": snap})
}

// CompleteModule verifies a mini-game attempt.
// POST /api/profiles/:id/modules/:module_id/complete
func (h *ProfileHandler) CompleteModule(c *gin.Context) {
	var attempt minigame.Attempt
	if err := c.ShouldBindJSON(&attempt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.svc.PlayModule(c.Request.Context(), c.Param("id"), c.Param("module_id"), attempt)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	respondOutcome(c, out)
}

// Pull merges the remote snapshot into local state.
// POST /api/profiles/:id/sync/pull
func (h *ProfileHandler) Pull(c *gin.Context) {
	status, err := h.svc.PullRemote(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	code := http.StatusOK
	if status == reward.StatusSkipped {
		code = http.StatusNotFound
	}
	c.JSON(code, gin.H{"status": status})
}
