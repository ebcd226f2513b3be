// Package telegram valida y normaliza el initData que una Mini App de
// Telegram entrega al backend. Es la única puerta de entrada de identidad
// del sistema: nada de lo que llega acá es confiable hasta pasar Verify.
package telegram

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"
)

// Errores de verificación. Se mapean 1:1 a la taxonomía del servicio de sesión.
var (
	// ErrMalformedPayload indica initData estructuralmente inválido
	// (campos faltantes, ids no numéricos, user JSON inparseable).
	ErrMalformedPayload = errors.New("malformed init data")

	// ErrSignatureInvalid indica que el HMAC recomputado no coincide con el
	// hash provisto. Posible intento de forja.
	ErrSignatureInvalid = errors.New("init data signature mismatch")

	// ErrPayloadExpired indica que auth_date supera la edad máxima permitida.
	ErrPayloadExpired = errors.New("init data expired")
)

// User es el sub-objeto "user" embebido en initData.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
	IsPremium    bool   `json:"is_premium"`
}

// VerifiedInitData es el resultado de una verificación exitosa.
// RawUser conserva el sub-objeto user tal como vino, para snapshot opaco.
type VerifiedInitData struct {
	User     User
	AuthDate time.Time
	QueryID  string
	RawUser  json.RawMessage
}

// parsedInitData es el estado intermedio entre parseo y chequeo de firma.
type parsedInitData struct {
	pairs    map[string]string // todos los campos excepto hash
	hash     string
	authDate time.Time
	user     User
	rawUser  json.RawMessage
	queryID  string
}

// parseInitData valida la estructura del payload sin tocar la firma.
// Todo fallo estructural se reporta como ErrMalformedPayload ANTES de
// intentar la comparación de MAC.
func parseInitData(raw string) (*parsedInitData, error) {
	if raw == "" {
		return nil, ErrMalformedPayload
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	hash := vals.Get("hash")
	if hash == "" {
		return nil, ErrMalformedPayload
	}

	authDateStr := vals.Get("auth_date")
	if authDateStr == "" {
		return nil, ErrMalformedPayload
	}
	authUnix, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil || authUnix <= 0 {
		return nil, ErrMalformedPayload
	}

	userJSON := vals.Get("user")
	if userJSON == "" {
		return nil, ErrMalformedPayload
	}
	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, ErrMalformedPayload
	}
	if user.ID <= 0 || user.FirstName == "" {
		return nil, ErrMalformedPayload
	}

	pairs := make(map[string]string, len(vals))
	for k := range vals {
		if k == "hash" {
			continue
		}
		pairs[k] = vals.Get(k)
	}

	return &parsedInitData{
		pairs:    pairs,
		hash:     hash,
		authDate: time.Unix(authUnix, 0).UTC(),
		user:     user,
		rawUser:  json.RawMessage(userJSON),
		queryID:  vals.Get("query_id"),
	}, nil
}
