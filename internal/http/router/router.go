// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpapi "github.com/dropDatabas3/tgsession/internal/http"
	authctrl "github.com/dropDatabas3/tgsession/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/tgsession/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/tgsession/internal/http/errors"
	mw "github.com/dropDatabas3/tgsession/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
	"github.com/dropDatabas3/tgsession/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth   *authctrl.Controllers
	Health *healthctrl.HealthController

	Issuer *jwtx.Issuer

	// RateLimiter es opcional: nil desactiva el rate limiting.
	RateLimiter rate.Limiter

	// MetricsHandler es el handler de /metrics (nil = no se expone).
	MetricsHandler http.Handler
}

// New construye el router chi con todas las rutas registradas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares globales, del más externo al más interno.
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		httpapi.WithMetrics,
		mw.WithLogging(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Observabilidad: sin rate limit ni no-store.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// API de sesión: todas las respuestas transportan tokens -> no-store,
	// y límite por IP+path.
	r.Route("/v1/auth", func(r chi.Router) {
		r.Use(mw.WithNoStore())
		if deps.RateLimiter != nil {
			r.Use(mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: deps.RateLimiter,
				KeyFunc: mw.IPPathRateKey,
			}))
		}

		// Públicos
		r.Post("/telegram", deps.Auth.Login.Login)
		r.Post("/refresh", deps.Auth.Refresh.Refresh)

		// Autenticados
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Issuer))
			r.Post("/role", deps.Auth.Role.Switch)
			r.Get("/me", deps.Auth.Me.Me)
			r.Post("/logout", deps.Auth.Logout.Logout)
		})
	})

	return r
}
