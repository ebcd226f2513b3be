package auth

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/dropDatabas3/tgsession/internal/http/errors"
	mw "github.com/dropDatabas3/tgsession/internal/http/middlewares"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
	"github.com/dropDatabas3/tgsession/internal/session"
)

// MeController handles GET /v1/auth/me.
type MeController struct{}

// NewMeController creates a new me controller.
func NewMeController() *MeController {
	return &MeController{}
}

// Me returns the resolved session for the presented access token.
// Requires authentication via Bearer token.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	// Claims puestas en contexto por RequireAuth
	claims := mw.GetClaims(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(session.UserAuth{
		AccountID:    claims.AccountID,
		AuthRecordID: claims.AuthRecordID,
		Role:         claims.Role,
		ProviderID:   claims.ProviderID,
	})

	log.Debug("session returned")
}
