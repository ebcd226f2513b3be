package telegram

import (
	"encoding/json"
	"strconv"
)

// ProviderType identifica a Telegram como proveedor de identidad externo.
const ProviderType = "telegram"

// NormalizedIdentity es la proyección estable de una identidad verificada.
// ExternalID es siempre el id numérico del usuario: el username es mutable
// y nunca se usa como clave.
type NormalizedIdentity struct {
	ProviderType string
	ExternalID   string
	DisplayName  string
	AvatarURL    string
	Locale       string

	// RawContext es el sub-objeto user verbatim, guardado de forma opaca
	// para auditoría. Nadie vuelve a parsearlo después de este punto.
	RawContext json.RawMessage
}

// Normalize extrae la clave de identidad externa y los campos de perfil de
// un payload ya verificado.
func Normalize(v *VerifiedInitData) NormalizedIdentity {
	name := v.User.FirstName
	if v.User.LastName != "" {
		name = name + " " + v.User.LastName
	}
	return NormalizedIdentity{
		ProviderType: ProviderType,
		ExternalID:   strconv.FormatInt(v.User.ID, 10),
		DisplayName:  name,
		AvatarURL:    v.User.PhotoURL,
		Locale:       v.User.LanguageCode,
		RawContext:   v.RawUser,
	}
}
