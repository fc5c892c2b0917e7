package session

import (
	"context"
	"errors"
)

// ErrUnauthenticated: el backend no reconoce la sesión (401).
var ErrUnauthenticated = errors.New("unauthenticated")

// DefaultAdminEmail es la identidad admin del backend.
const DefaultAdminEmail = "admin@petcenter.com"

type Identity struct {
	Name  string
	Email string
}

// State es anónimo o autenticado con una identidad.
type State struct {
	identity *Identity
}

func Anonymous() State { return State{} }

func Authenticated(id Identity) State {
	return State{identity: &id}
}

func (s State) IsAuthenticated() bool { return s.identity != nil }

// Identity devuelve la identidad; zero value si es anónimo.
func (s State) Identity() Identity {
	if s.identity == nil {
		return Identity{}
	}
	return *s.identity
}

// IsAdmin compara el email exacto. Es solo una pista para la UI; el backend
// vuelve a autorizar.
func (s State) IsAdmin(adminEmail string) bool {
	if s.identity == nil || adminEmail == "" {
		return false
	}
	return s.identity.Email == adminEmail
}

// Prober consulta la sesión en el backend.
type Prober interface {
	CurrentUser(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context, token string) error
}

type ctxKey string

const stateKey ctxKey = "session_state"

func WithState(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

// FromContext devuelve el estado del request; anónimo si no hay.
func FromContext(ctx context.Context) State {
	s, ok := ctx.Value(stateKey).(State)
	if !ok {
		return Anonymous()
	}
	return s
}
