package auth

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/tgsession/internal/audit"
	httperrors "github.com/dropDatabas3/tgsession/internal/http/errors"
	mw "github.com/dropDatabas3/tgsession/internal/http/middlewares"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
	"github.com/dropDatabas3/tgsession/internal/session"
)

// LogoutController invalida el refresh token vivo y borra las cookies.
type LogoutController struct {
	service *session.Service
	cookies CookieConfig
}

// Logout maneja POST /v1/auth/logout.
// Los access tokens ya emitidos expiran solos; lo que se corta acá es la
// capacidad de rotar.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	claims := mw.GetClaims(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	if err := c.service.Logout(ctx, claims.AuthRecordID); err != nil {
		log.Error("logout failed", logger.Err(err))
		if errors.Is(err, session.ErrPersistence) {
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("base de datos no disponible"))
			return
		}
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	audit.Log(ctx, audit.EventLogout,
		logger.AccountID(claims.AccountID),
		logger.AuthRecordID(claims.AuthRecordID),
	)

	c.cookies.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}
