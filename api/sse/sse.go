package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/mathquest/middleware"
	"github.com/kasuganosora/mathquest/notify"
	"go.uber.org/zap"
)

// Profiles reports whether a learner exists.
type Profiles interface {
	Exists(ctx context.Context, profileID string) (bool, error)
}

// Handler streams celebration notices to a learner's client.
type Handler struct {
	profiles  Profiles
	notices   *notify.Publisher
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler. keepalive <= 0 defaults to 30s.
func NewHandler(profiles Profiles, notices *notify.Publisher, keepalive time.Duration, logger *zap.Logger) *Handler {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &Handler{profiles: profiles, notices: notices, keepalive: keepalive, logger: logger}
}

// ServeSSE handles GET /sse/:id.
func (h *Handler) ServeSSE(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	exists, err := h.profiles.Exists(ctx, id)
	cancel()
	if err != nil {
		h.logger.Error("sse profile lookup failed", append(mw.RequestFields(c), zap.Error(err))...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	notices, unsub, err := h.notices.Subscribe(subCtx, id)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.String("profile_id", id), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-notices:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", n.Kind, data)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
