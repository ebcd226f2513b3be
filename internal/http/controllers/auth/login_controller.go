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

const maxLoginBodySize = 64 * 1024 // 64KB

// LoginController maneja el endpoint de login con initData de Telegram.
type LoginController struct {
	service *session.Service
	cookies CookieConfig
}

// Login maneja POST /v1/auth/telegram
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	// Parse request (JSON o form)
	var req dto.LoginRequest
	ct := strings.ToLower(r.Header.Get("Content-Type"))

	switch {
	case strings.Contains(ct, "application/json"):
		if !helpers.ReadJSON(w, r, &req) {
			return
		}

	case strings.Contains(ct, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
		defer r.Body.Close()
		if err := r.ParseForm(); err != nil {
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form"))
			return
		}
		req.InitData = r.FormValue("init_data")

	default:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("unsupported content type"))
		return
	}

	if strings.TrimSpace(req.InitData) == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("init_data es obligatorio"))
		return
	}

	// Llamar al service
	result, err := c.service.Login(ctx, req.InitData)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	audit.Log(ctx, audit.EventLogin,
		logger.AccountID(result.AccountID),
		logger.AuthRecordID(result.AuthRecordID),
		logger.Role(string(result.Role)),
	)

	// Headers de seguridad + cookies de sesión
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

// ─── Helpers ───

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrMalformedPayload):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("init data malformado"))

	case errors.Is(err, session.ErrSignatureInvalid):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("firma de init data inválida"))

	case errors.Is(err, session.ErrPayloadExpired):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("init data expirado"))

	case errors.Is(err, session.ErrPersistence):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("base de datos no disponible"))

	case errors.Is(err, session.ErrTokenIssuance):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
