package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/game/reward"
	"go.uber.org/zap"
)

// LeaderboardHandler serves the all-time standings.
type LeaderboardHandler struct {
	svc         *reward.Service
	defaultSize int
	logger      *zap.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(svc *reward.Service, defaultSize int, logger *zap.Logger) *LeaderboardHandler {
	if defaultSize <= 0 {
		defaultSize = 10
	}
	return &LeaderboardHandler{svc: svc, defaultSize: defaultSize, logger: logger}
}

// Top returns learners sorted by total points.
// GET /api/leaderboard?limit=20
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit := h.defaultSize
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	rows, err := h.svc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}
