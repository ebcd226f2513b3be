// Package jwt emite y valida los tokens de sesión del servicio.
//
// Ambos tokens son JWT HS256 firmados con un secreto único de proceso,
// cargado una sola vez al arranque. El access token afirma (cuenta, rol,
// auth record, provider opcional); el refresh token liga la renovación a un
// componente aleatorio ("jti") que también se persiste en el auth record.
package jwt

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

// Tipos de token, viajan en el claim "typ".
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Issuer firma tokens de sesión con el secreto de proceso.
type Issuer struct {
	Iss        string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	secret []byte
	now    func() time.Time
}

// NewIssuer crea un issuer. El secreto no puede ser vacío: eso es un error
// de configuración fatal, no un error por-request.
func NewIssuer(iss string, secret []byte, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt: signing secret vacío")
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &Issuer{
		Iss:        iss,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		secret:     secret,
		now:        time.Now,
	}, nil
}

// TokenPair es el par efímero que recibe el caller tras login/refresh/switch.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshSecret    string // el "jti" del refresh; se persiste en el auth record
	RefreshExpiresAt time.Time
}

// IssueAccess emite un access token para (cuenta, rol, auth record, provider?).
func (i *Issuer) IssueAccess(accountID string, role repository.Role, authRecordID, providerID string) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":  i.Iss,
		"sub":  accountID,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  exp.Unix(),
		"typ":  TypeAccess,
		"role": string(role),
		"aid":  authRecordID,
	}
	if providerID != "" {
		claims["pid"] = providerID
	}

	signed, err := i.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh emite un refresh token ligando la renovación al secreto
// aleatorio por-emisión (claim "jti").
func (i *Issuer) IssueRefresh(accountID, authRecordID, refreshSecret string) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.RefreshTTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": accountID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
		"typ": TypeRefresh,
		"aid": authRecordID,
		"jti": refreshSecret,
	}

	signed, err := i.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssuePair emite access + refresh para la misma sesión resuelta.
// El RefreshSecret retornado DEBE persistirse antes de entregar el par.
func (i *Issuer) IssuePair(accountID string, role repository.Role, authRecordID, providerID, refreshSecret string) (*TokenPair, error) {
	at, atExp, err := i.IssueAccess(accountID, role, authRecordID, providerID)
	if err != nil {
		return nil, err
	}
	rt, rtExp, err := i.IssueRefresh(accountID, authRecordID, refreshSecret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      at,
		AccessExpiresAt:  atExp,
		RefreshToken:     rt,
		RefreshSecret:    refreshSecret,
		RefreshExpiresAt: rtExp,
	}, nil
}

func (i *Issuer) sign(claims jwtv5.MapClaims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.secret)
}
