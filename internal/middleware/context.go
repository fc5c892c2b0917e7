package middleware

import "context"

type ctxKey string

const (
	visitorKey ctxKey = "visitor_id"
	tokenKey   ctxKey = "session_token"
	csrfKey    ctxKey = "csrf_token"
)

// VisitorID devuelve el id del visitante; "" fuera de Visitor.
func VisitorID(ctx context.Context) string {
	v, _ := ctx.Value(visitorKey).(string)
	return v
}

// WithVisitorID inyecta el id (tests y llamadas fuera del router).
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorKey, id)
}

// SessionToken devuelve el valor crudo de la cookie de sesión del backend.
func SessionToken(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// CSRFToken es el token que los formularios deben reenviar.
func CSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(csrfKey).(string)
	return v
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey, token)
}
