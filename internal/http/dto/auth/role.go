package auth

// SwitchRoleRequest representa la solicitud de cambio de rol de la sesión.
type SwitchRoleRequest struct {
	// Role es el rol destino: "user" o "provider".
	Role string `json:"role"`
}
