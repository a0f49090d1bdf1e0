package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/game/reward"
	"go.uber.org/zap"
)

// ScenarioHandler serves scenario readiness and reward claims.
type ScenarioHandler struct {
	svc    *reward.Service
	logger *zap.Logger
}

// NewScenarioHandler creates a ScenarioHandler.
func NewScenarioHandler(svc *reward.Service, logger *zap.Logger) *ScenarioHandler {
	return &ScenarioHandler{svc: svc, logger: logger}
}

// List returns the scenarios offered to the learner and the ones completed.
// GET /api/profiles/:id/scenarios
func (h *ScenarioHandler) List(c *gin.Context) {
	defs, done, err := h.svc.Scenarios(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": defs, "completed": done})
}

type valuesRequest struct {
	Values map[string]float64 `json:"values"`
}

// Readiness reports which parameters are on target.
// POST /api/profiles/:id/scenarios/:scenario_id/readiness
func (h *ScenarioHandler) Readiness(c *gin.Context) {
	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rd, err := h.svc.Readiness(c.Param("scenario_id"), req.Values)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rd)
}

// Claim completes the scenario when every parameter is on target.
// POST /api/profiles/:id/scenarios/:scenario_id/claim
func (h *ScenarioHandler) Claim(c *gin.Context) {
	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.svc.ClaimScenario(c.Request.Context(), c.Param("id"), c.Param("scenario_id"), req.Values)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	respondOutcome(c, out)
}
