package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxClaimsKey guarda las claims de acceso parseadas
	ctxClaimsKey ctxKey = "claims"
	// ctxAccountIDKey guarda el account ID extraído del token
	ctxAccountIDKey ctxKey = "account_id"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// =================================================================================
// CONTEXT SETTERS (Internos, usados por middlewares)
// =================================================================================

// WithClaims inyecta las claims de acceso en el contexto
func WithClaims(ctx context.Context, claims *jwtx.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithAccountID inyecta el account ID en el contexto
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, ctxAccountIDKey, accountID)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// =================================================================================
// CONTEXT GETTERS (Públicos, usados por controllers/services)
// =================================================================================

// GetClaims obtiene las claims de acceso del contexto.
// Retorna nil si no hay claims (token no validado o middleware no aplicado).
func GetClaims(ctx context.Context) *jwtx.AccessClaims {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if c, ok := v.(*jwtx.AccessClaims); ok {
			return c
		}
	}
	return nil
}

// GetAccountID obtiene el account ID del contexto.
// Retorna cadena vacía si no hay account ID.
func GetAccountID(ctx context.Context) string {
	if v := ctx.Value(ctxAccountIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
