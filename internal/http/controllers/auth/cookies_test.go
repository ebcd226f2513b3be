package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
)

func testCookieConfig() CookieConfig {
	return CookieConfig{
		AccessName:  "at",
		RefreshName: "rt",
		SameSite:    "Lax",
		Secure:      true,
		AccessTTL:   time.Hour,
		RefreshTTL:  24 * time.Hour,
	}
}

func TestAttachSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	testCookieConfig().attachSessionCookies(rec, &jwtx.TokenPair{
		AccessToken:  "acceso",
		RefreshToken: "refresco",
	})

	cks := rec.Result().Cookies()
	require.Len(t, cks, 2)

	byName := map[string]*http.Cookie{}
	for _, ck := range cks {
		byName[ck.Name] = ck
	}

	at := byName["at"]
	require.NotNil(t, at)
	require.Equal(t, "acceso", at.Value)
	require.True(t, at.HttpOnly)
	require.True(t, at.Secure)
	require.Equal(t, "/", at.Path)
	require.Equal(t, int(time.Hour.Seconds()), at.MaxAge)
	require.Equal(t, http.SameSiteLaxMode, at.SameSite)

	rt := byName["rt"]
	require.NotNil(t, rt)
	require.Equal(t, "refresco", rt.Value)
	require.Equal(t, int((24 * time.Hour).Seconds()), rt.MaxAge)
}

func TestClearSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	testCookieConfig().clearSessionCookies(rec)

	cks := rec.Result().Cookies()
	require.Len(t, cks, 2)
	for _, ck := range cks {
		require.Empty(t, ck.Value, ck.Name)
		require.Equal(t, -1, ck.MaxAge, ck.Name)
		require.True(t, ck.Expires.Before(time.Now()), ck.Name)
		// Mismos atributos que en emisión para que el browser la pise.
		require.True(t, ck.HttpOnly, ck.Name)
		require.Equal(t, "/", ck.Path, ck.Name)
	}
}

func TestSameSiteMode_Fallback(t *testing.T) {
	cases := map[string]http.SameSite{
		"Lax":    http.SameSiteLaxMode,
		"strict": http.SameSiteStrictMode,
		"None":   http.SameSiteNoneMode,
		"":       http.SameSiteLaxMode,
		"bogus":  http.SameSiteLaxMode,
	}
	for in, want := range cases {
		cc := CookieConfig{SameSite: in}
		require.Equal(t, want, cc.sameSiteMode(), "samesite %q", in)
	}
}
