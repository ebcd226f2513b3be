package auth

// RefreshRequest representa el body de POST /v1/auth/refresh.
// El token también puede venir en la cookie de sesión; el body tiene prioridad.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}
