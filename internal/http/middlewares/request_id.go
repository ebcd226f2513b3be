package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// maxInboundRequestIDLen acota los ids que aceptamos de proxies upstream;
// más allá de esto el id se regenera para no inflar logs ni headers.
const maxInboundRequestIDLen = 64

// WithRequestID asegura que todo request tenga un id de correlación: propaga
// el X-Request-ID entrante si es razonable, o acuña un UUID nuevo. El id
// queda en el contexto (para el logger y los eventos de auditoría) y en el
// header de respuesta.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if rid == "" || len(rid) > maxInboundRequestIDLen {
				rid = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
