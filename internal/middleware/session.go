package middleware

import (
	"net/http"
	"strings"

	"pet-adoption-web/internal/domain/session"
)

// Session:
//   - lee la cookie de sesión del backend (no la valida aquí)
//   - gate == nil o sin cookie => anónimo
//   - el estado queda en el contexto; los handlers deciden qué mostrar
//
// Nunca corta el request: un fallo del probe es simplemente anónimo.
func Session(gate *session.Gate, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cookieName); err == nil {
				token = strings.TrimSpace(c.Value)
			}

			st := session.Anonymous()
			if gate != nil {
				st = gate.Probe(r.Context(), token)
			}

			ctx := session.WithState(r.Context(), st)
			ctx = WithSessionToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
