// Package auth contiene los controllers de autenticación y sesión.
package auth

import (
	"net/http"
	"strings"
	"time"

	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
	"github.com/dropDatabas3/tgsession/internal/session"
)

const contentTypeJSON = "application/json; charset=utf-8"

// CookieConfig describe cómo se emiten las cookies de sesión.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	SameSite    string
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Role    *RoleController
	Me      *MeController
	Logout  *LogoutController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(svc *session.Service, cookies CookieConfig) *Controllers {
	return &Controllers{
		Login:   &LoginController{service: svc, cookies: cookies},
		Refresh: &RefreshController{service: svc, cookies: cookies},
		Role:    &RoleController{service: svc, cookies: cookies},
		Me:      NewMeController(),
		Logout:  &LogoutController{service: svc, cookies: cookies},
	}
}

// sameSiteMode traduce el valor de config; cualquier cosa no reconocida cae
// en Lax, el default seguro para una Mini App embebida.
func (cc CookieConfig) sameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(cc.SameSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// sessionCookie arma una cookie de sesión httpOnly cuyo Max-Age coincide con
// el TTL del token que transporta.
func (cc CookieConfig) sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   strings.TrimSpace(cc.Domain),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.sameSiteMode(),
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
		ck.Expires = time.Now().UTC().Add(ttl)
	}
	return ck
}

// expiredCookie arma la versión de borrado de una cookie de sesión. Los
// atributos deben coincidir con los de emisión o el browser no la pisa.
func (cc CookieConfig) expiredCookie(name string) *http.Cookie {
	ck := cc.sessionCookie(name, "", 0)
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0).UTC()
	return ck
}

// attachSessionCookies emite las cookies at/rt del par recién firmado.
func (cc CookieConfig) attachSessionCookies(w http.ResponseWriter, pair *jwtx.TokenPair) {
	http.SetCookie(w, cc.sessionCookie(cc.AccessName, pair.AccessToken, cc.AccessTTL))
	http.SetCookie(w, cc.sessionCookie(cc.RefreshName, pair.RefreshToken, cc.RefreshTTL))
}

// clearSessionCookies borra ambas cookies de sesión.
func (cc CookieConfig) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, cc.expiredCookie(cc.AccessName))
	http.SetCookie(w, cc.expiredCookie(cc.RefreshName))
}
