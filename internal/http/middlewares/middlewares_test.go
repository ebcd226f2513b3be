package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
	"github.com/dropDatabas3/tgsession/internal/rate"
)

func testIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer("mw-test", []byte("clave-de-test"), time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return iss
}

func okHandler(captured *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r.Context()
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_SinToken(t *testing.T) {
	h := Chain(okHandler(nil), RequireAuth(testIssuer(t)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	require.Contains(t, rec.Body.String(), "error")
}

func TestRequireAuth_TokenInvalido(t *testing.T) {
	h := Chain(okHandler(nil), RequireAuth(testIssuer(t)))

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer no.es.jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_TokenValido(t *testing.T) {
	iss := testIssuer(t)
	tok, _, err := iss.IssueAccess("acc-1", repository.RoleProvider, "ar-1", "prov-1")
	require.NoError(t, err)

	var got context.Context
	h := Chain(okHandler(&got), RequireAuth(iss))

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	claims := GetClaims(got)
	require.NotNil(t, claims)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, repository.RoleProvider, claims.Role)
	require.Equal(t, "prov-1", claims.ProviderID)
	require.Equal(t, "acc-1", GetAccountID(got))
}

func TestRequireAuth_RefreshComoAccess(t *testing.T) {
	iss := testIssuer(t)
	pair, err := iss.IssuePair("acc-1", repository.RoleUser, "ar-1", "", "secret")
	require.NoError(t, err)

	h := Chain(okHandler(nil), RequireAuth(iss))
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Un refresh token no sirve como credencial de acceso.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth_SinTokenPasa(t *testing.T) {
	var got context.Context
	h := Chain(okHandler(&got), OptionalAuth(testIssuer(t)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, GetClaims(got))
}

func TestWithRequestID_PropagaYGenera(t *testing.T) {
	var got context.Context
	h := Chain(okHandler(&got), WithRequestID())

	// Propaga el header entrante.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "req-abc", GetRequestID(got))
	require.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))

	// Genera uno si no viene.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, GetRequestID(got))
	require.Equal(t, GetRequestID(got), rec.Header().Get("X-Request-ID"))

	// Un id entrante desmedido se descarta y se acuña uno propio.
	huge := strings.Repeat("x", 500)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", huge)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, huge, GetRequestID(got))
	require.NotEmpty(t, GetRequestID(got))
}

func TestWithRateLimit_Bloquea(t *testing.T) {
	h := Chain(okHandler(nil), WithRateLimit(RateLimitConfig{
		Limiter: rate.NewMemoryLimiter(2, time.Hour),
		KeyFunc: IPOnlyRateKey,
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/telegram", nil))
		require.Equal(t, http.StatusOK, rec.Code, "hit #%d", i+1)
		require.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/telegram", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestWithRateLimit_Whitelist(t *testing.T) {
	h := Chain(okHandler(nil), WithRateLimit(RateLimitConfig{
		Limiter:   rate.NewMemoryLimiter(1, time.Hour),
		Whitelist: []string{"/healthz"},
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWithRecover_Convierte500(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := Chain(boom, WithRecover())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChain_Orden(t *testing.T) {
	var trace []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler(nil), mk("a"), mk("b"), mk("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, trace)
}
