// Package auth contiene DTOs para los endpoints de autenticación.
package auth

import "github.com/dropDatabas3/tgsession/internal/session"

// LoginRequest representa la solicitud de login con initData de Telegram.
type LoginRequest struct {
	// InitData es el query string crudo entregado por el WebApp de Telegram.
	InitData string `json:"init_data"`
}

// TokenResponse representa una emisión exitosa de tokens.
// Se comparte entre login, switch de rol y refresh.
type TokenResponse struct {
	User         session.UserAuth `json:"user"`
	AccessToken  string           `json:"access_token"`
	TokenType    string           `json:"token_type"` // "Bearer"
	ExpiresIn    int64            `json:"expires_in"` // segundos
	RefreshToken string           `json:"refresh_token"`
}
