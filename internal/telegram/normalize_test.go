package telegram

import (
	"encoding/json"
	"testing"
)

func TestNormalize(t *testing.T) {
	raw := json.RawMessage(`{"id":42,"first_name":"Ana","last_name":"García","language_code":"es","photo_url":"https://t.me/p.jpg"}`)
	v := &VerifiedInitData{
		User: User{
			ID:           42,
			FirstName:    "Ana",
			LastName:     "García",
			Username:     "anag",
			LanguageCode: "es",
			PhotoURL:     "https://t.me/p.jpg",
		},
		RawUser: raw,
	}

	got := Normalize(v)
	if got.ProviderType != "telegram" {
		t.Fatalf("provider type: %q", got.ProviderType)
	}
	// La clave es el id numérico, nunca el username.
	if got.ExternalID != "42" {
		t.Fatalf("external id: %q", got.ExternalID)
	}
	if got.DisplayName != "Ana García" {
		t.Fatalf("display name: %q", got.DisplayName)
	}
	if got.Locale != "es" || got.AvatarURL != "https://t.me/p.jpg" {
		t.Fatalf("perfil: %+v", got)
	}
	if string(got.RawContext) != string(raw) {
		t.Fatalf("raw context no es verbatim")
	}
}

func TestNormalize_SinApellido(t *testing.T) {
	v := &VerifiedInitData{User: User{ID: 7, FirstName: "Solo"}}
	if got := Normalize(v); got.DisplayName != "Solo" {
		t.Fatalf("display name: %q", got.DisplayName)
	}
}
