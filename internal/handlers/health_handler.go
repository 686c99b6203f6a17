package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck reports whether a dependency can serve requests
type ReadinessCheck struct {
	Name string
	// Required checks make the service unavailable when they fail
	Required bool
	Check    func(ctx context.Context) error
}

// HealthHandler reports liveness and readiness
type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler creates a health handler that runs the given readiness checks
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			components[chk.Name] = err.Error()
			if chk.Required {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		components[chk.Name] = "ok"
	}

	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	if len(components) > 0 {
		body["components"] = components
	}
	c.JSON(status, body)
}
