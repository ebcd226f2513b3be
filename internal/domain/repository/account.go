package repository

import (
	"context"
	"encoding/json"
	"time"
)

// Role es el conjunto de capacidades que una sesión puede afirmar.
type Role string

const (
	// RoleUser es el rol por defecto (lado demanda del marketplace).
	RoleUser Role = "user"
	// RoleProvider habilita el lado oferta. Requiere un ProviderRecord activo.
	RoleProvider Role = "provider"
)

// Valid reporta si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleProvider
}

// Account es el usuario propio de la plataforma, independiente del proveedor
// de identidad externo por el que entró.
type Account struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Profile     map[string]any
	LocationID  string
	CreatedAt   time.Time
}

// AuthRecord vincula una cuenta con un login de proveedor externo y carga el
// estado de sesión: rol vigente y último refresh token emitido.
//
// Invariante: exactamente un AuthRecord por (provider_type, external_id).
// El campo Role de este registro es la única fuente de verdad sobre qué rol
// puede afirmar un token recién emitido para esta sesión.
type AuthRecord struct {
	ID           string
	AccountID    string
	ProviderType string
	ExternalID   string
	RawContext   json.RawMessage
	Role         Role
	RefreshToken string
	ExpiresAt    time.Time
	LastLoginAt  time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccountInput contiene los datos para crear cuenta + auth record en la
// primera autenticación de una identidad externa.
type NewAccountInput struct {
	ProviderType  string
	ExternalID    string
	DisplayName   string
	AvatarURL     string
	Locale        string
	RawContext    json.RawMessage
	Role          Role
	LocationID    string
	SessionExpiry time.Time
}

// RefreshAccountInput contiene los campos que se refrescan en cada login
// subsiguiente. El rol almacenado NO se toca acá.
type RefreshAccountInput struct {
	DisplayName   string
	AvatarURL     string
	Locale        string
	RawContext    json.RawMessage
	SessionExpiry time.Time
}

// AccountRepository define las operaciones de persistencia que el núcleo de
// sesión consume. La atomicidad de cada método es responsabilidad del adapter.
type AccountRepository interface {
	// FindAuthRecord busca el auth record por clave de identidad externa.
	// Retorna ErrNotFound si no existe.
	FindAuthRecord(ctx context.Context, providerType, externalID string) (*AuthRecord, error)

	// GetAuthRecord busca un auth record por su id.
	// Retorna ErrNotFound si no existe.
	GetAuthRecord(ctx context.Context, authRecordID string) (*AuthRecord, error)

	// CreateAccountWithAuth crea cuenta + auth record en una transacción.
	// Retorna ErrConflict si otro login concurrente ya creó el registro para
	// la misma (provider_type, external_id); el caller reintenta como update.
	CreateAccountWithAuth(ctx context.Context, in NewAccountInput) (*Account, *AuthRecord, error)

	// UpdateAccountAndAuth refresca perfil, raw context, last-login y
	// reactiva el registro, preservando el rol almacenado.
	UpdateAccountAndAuth(ctx context.Context, authRecordID string, in RefreshAccountInput) (*Account, *AuthRecord, error)

	// SetAuthRole actualiza atómicamente el rol del auth record.
	SetAuthRole(ctx context.Context, authRecordID string, role Role) (*AuthRecord, error)

	// SetRefreshToken persiste el componente aleatorio del último refresh
	// token emitido, invalidando implícitamente cualquier valor anterior.
	SetRefreshToken(ctx context.Context, authRecordID, refreshToken string, expiresAt time.Time) error

	// ClearRefreshToken blanquea el refresh token almacenado (logout).
	ClearRefreshToken(ctx context.Context, authRecordID string) error
}
