package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/tgsession/internal/audit"
	dto "github.com/dropDatabas3/tgsession/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tgsession/internal/http/errors"
	"github.com/dropDatabas3/tgsession/internal/http/helpers"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
	"github.com/dropDatabas3/tgsession/internal/session"
)

// RefreshController maneja la rotación del par de tokens.
type RefreshController struct {
	service *session.Service
	cookies CookieConfig
}

// Refresh maneja POST /v1/auth/refresh.
// El refresh token puede venir en el body JSON o en la cookie de sesión;
// el body tiene prioridad.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.RefreshRequest
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if ck, err := r.Cookie(c.cookies.RefreshName); err == nil {
			token = ck.Value
		}
	}
	if token == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("refresh_token es obligatorio"))
		return
	}

	result, err := c.service.Refresh(ctx, token)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		switch {
		case errors.Is(err, session.ErrInvalidRefreshToken):
			// Cookie inservible: borrarla para cortar reintentos del cliente.
			c.cookies.clearSessionCookies(w)
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("refresh token inválido o rotado"))
		case errors.Is(err, session.ErrPersistence):
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("base de datos no disponible"))
		case errors.Is(err, session.ErrTokenIssuance):
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))
		default:
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	audit.Log(ctx, audit.EventRefresh,
		logger.AccountID(result.AccountID),
		logger.AuthRecordID(result.AuthRecordID),
	)

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	c.cookies.attachSessionCookies(w, result.Tokens)

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.TokenResponse{
		User:         result.UserAuth,
		AccessToken:  result.Tokens.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(result.Tokens.AccessExpiresAt).Seconds()),
		RefreshToken: result.Tokens.RefreshToken,
	})
}
