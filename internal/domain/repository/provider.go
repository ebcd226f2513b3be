package repository

import (
	"context"
	"time"
)

// ProviderRecord es la evidencia de que una cuenta opera un perfil de
// prestador de servicios. Su existencia activa es la precondición para que
// un AuthRecord sostenga legítimamente el rol "provider".
type ProviderRecord struct {
	ID        string
	AccountID string
	IsActive  bool
	CreatedAt time.Time
}

// ProviderRepository es el oráculo de existencia de prestador.
// Lectura pura, sin efectos secundarios.
type ProviderRepository interface {
	// ActiveForAccount retorna el ProviderRecord activo de una cuenta.
	// Retorna ErrNotFound si la cuenta no tiene prestador activo.
	ActiveForAccount(ctx context.Context, accountID string) (*ProviderRecord, error)
}
