package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
}

type HealthHandler struct {
	serviceName string
	version     string
	store       any
}

// NewHealthHandler reports store reachability when store implements
// portproject.Pinger; otherwise the store is reported as "up".
func NewHealthHandler(serviceName, version string, store any) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, store: store}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "up"
	code := http.StatusOK
	if p, ok := h.store.(portproject.Pinger); ok {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			storeStatus = "down"
			code = http.StatusServiceUnavailable
		}
	}

	status := "healthy"
	if code != http.StatusOK {
		status = "degraded"
	}
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store:     storeStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
