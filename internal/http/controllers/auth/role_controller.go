package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/tgsession/internal/audit"
	"github.com/dropDatabas3/tgsession/internal/domain/repository"
	dto "github.com/dropDatabas3/tgsession/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tgsession/internal/http/errors"
	"github.com/dropDatabas3/tgsession/internal/http/helpers"
	mw "github.com/dropDatabas3/tgsession/internal/http/middlewares"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
	"github.com/dropDatabas3/tgsession/internal/session"
)

// RoleController maneja el switch de rol de la sesión autenticada.
type RoleController struct {
	service *session.Service
	cookies CookieConfig
}

// Switch maneja POST /v1/auth/role.
// Requiere autenticación: el auth record destino sale de las claims, nunca
// del body.
func (c *RoleController) Switch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RoleController.Switch"))

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

	var req dto.SwitchRoleRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.SwitchRole(ctx, claims.AuthRecordID, repository.Role(req.Role))
	if err != nil {
		log.Debug("role switch failed", logger.Err(err))
		writeSwitchError(w, err)
		return
	}

	audit.Log(ctx, audit.EventRoleSwitch,
		logger.AccountID(result.AccountID),
		logger.AuthRecordID(result.AuthRecordID),
		logger.Role(string(result.Role)),
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

func writeSwitchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidRole):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(`role debe ser "user" o "provider"`))

	case errors.Is(err, session.ErrNoProviderAccount):
		// Precondición de negocio: sin cuenta de prestador activa no hay
		// switch. El rol almacenado no cambió.
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("la cuenta no tiene un prestador activo"))

	case errors.Is(err, session.ErrAuthRecordNotFound):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("sesión inválida"))

	case errors.Is(err, session.ErrPersistence):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("base de datos no disponible"))

	case errors.Is(err, session.ErrTokenIssuance):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
