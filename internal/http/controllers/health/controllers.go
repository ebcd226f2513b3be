// Package health contiene los controllers de health check.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/tgsession/internal/http/helpers"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
)

// Check es una verificación de readiness nombrada (ej: "postgres", "redis").
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthController expone liveness y readiness.
type HealthController struct {
	checks []Check
}

// NewHealthController crea el controller con las verificaciones dadas.
func NewHealthController(checks ...Check) *HealthController {
	return &HealthController{checks: checks}
}

// Healthz maneja GET /healthz: liveness pura, sin tocar dependencias.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz: ejecuta cada check con timeout corto y responde
// 503 si alguno falla.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	detail := make(map[string]string, len(c.checks))
	for _, chk := range c.checks {
		if err := chk.Ping(ctx); err != nil {
			logger.From(r.Context()).Warn("readiness check failed",
				logger.Component(chk.Name),
				logger.Err(err),
			)
			detail[chk.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		detail[chk.Name] = "ok"
	}

	body := map[string]any{"status": "ok", "checks": detail}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	helpers.WriteJSON(w, status, body)
}
