package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

var (
	// ErrInvalidToken cubre firma inválida, expiración y claims malformados.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType indica un access donde se esperaba refresh o viceversa.
	ErrWrongTokenType = errors.New("wrong token type")
)

// AccessClaims son los claims relevantes de un access token válido.
type AccessClaims struct {
	AccountID    string
	Role         repository.Role
	AuthRecordID string
	ProviderID   string
	ExpiresAt    time.Time
}

// RefreshClaims son los claims relevantes de un refresh token válido.
type RefreshClaims struct {
	AccountID     string
	AuthRecordID  string
	RefreshSecret string
	ExpiresAt     time.Time
}

// parse valida firma HS256, iss y exp/nbf (con leeway de 30s) y retorna las
// MapClaims si el claim "typ" coincide con el esperado.
func (i *Issuer) parse(token, wantTyp string) (jwtv5.MapClaims, error) {
	tok, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return i.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != wantTyp {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ParseAccess valida un access token y extrae sus claims.
func (i *Issuer) ParseAccess(token string) (*AccessClaims, error) {
	claims, err := i.parse(token, TypeAccess)
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	aid, _ := claims["aid"].(string)
	role := repository.Role(roleStr)
	if sub == "" || aid == "" || !role.Valid() {
		return nil, ErrInvalidToken
	}

	out := &AccessClaims{
		AccountID:    sub,
		Role:         role,
		AuthRecordID: aid,
	}
	if pid, ok := claims["pid"].(string); ok {
		out.ProviderID = pid
	}
	if expf, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(expf), 0).UTC()
	}
	return out, nil
}

// ParseRefresh valida un refresh token y extrae sus claims.
func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	claims, err := i.parse(token, TypeRefresh)
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	aid, _ := claims["aid"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || aid == "" || jti == "" {
		return nil, ErrInvalidToken
	}

	out := &RefreshClaims{
		AccountID:     sub,
		AuthRecordID:  aid,
		RefreshSecret: jti,
	}
	if expf, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(expf), 0).UTC()
	}
	return out, nil
}
