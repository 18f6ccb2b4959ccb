package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health tracks readiness. The server is not ready until SetReady(true) and
// stays unready while the store does not answer pings.
type Health struct {
	ready  atomic.Bool
	pinger Pinger
}

func NewHealth(p Pinger, initialReady bool) *Health {
	h := &Health{pinger: p}
	h.ready.Store(initialReady)
	return h
}

func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) IsReady() bool {
	return h.ready.Load()
}

func (h *Health) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Health) readiness(c *gin.Context) {
	if !h.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": "store unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
