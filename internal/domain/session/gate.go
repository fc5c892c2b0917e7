package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-adoption-web/internal/platform/cache"
	"pet-adoption-web/internal/platform/logger"
)

const DefaultLogoutTimeout = 5 * time.Second

// Gate decide qué ve el usuario según su sesión en el backend.
type Gate struct {
	prober        Prober
	probes        *cache.ReadThrough[State, string]
	store         cache.Store[State]
	ttl           time.Duration
	logoutTimeout time.Duration
	log           logger.Logger

	wg sync.WaitGroup
}

// NewGate con prober nil => sin soporte de sesión (siempre anónimo).
func NewGate(prober Prober, store cache.Store[State], ttl time.Duration, log logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	g := &Gate{
		prober:        prober,
		store:         store,
		ttl:           ttl,
		logoutTimeout: DefaultLogoutTimeout,
		log:           log,
	}
	if prober != nil && store != nil {
		g.probes = cache.NewReadThrough[State, string](store, g.fetch)
	}
	return g
}

// Enabled indica si hay backend de sesiones.
func (g *Gate) Enabled() bool { return g.prober != nil }

// Probe resuelve el estado de sesión:
//   - sin token: anónimo, sin llamada
//   - 200: autenticado
//   - cualquier otra cosa: anónimo
//
// Los resultados definitivos se cachean por token; los fallos de red no.
func (g *Gate) Probe(ctx context.Context, token string) State {
	if token == "" || g.prober == nil {
		return Anonymous()
	}

	var (
		st  State
		err error
	)
	if g.probes != nil {
		st, err = g.probes.Get(ctx, token, token, g.ttl)
	} else {
		st, err = g.fetch(ctx, token)
	}
	if err != nil {
		g.log.Warn("session probe failed", map[string]any{"error": err.Error()})
		return Anonymous()
	}
	return st
}

func (g *Gate) fetch(ctx context.Context, token string) (State, error) {
	id, err := g.prober.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return Anonymous(), nil
		}
		return Anonymous(), err
	}
	return Authenticated(id), nil
}

// Logout dispara el logout en el backend sin esperar respuesta. El
// resultado no cambia nada para el usuario: la UI vuelve a anónimo igual.
func (g *Gate) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if g.store != nil {
		g.store.Delete(ctx, token)
	}
	if g.prober == nil {
		return
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.logoutTimeout)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()
		if err := g.prober.Logout(detached, token); err != nil {
			g.log.Warn("backend logout failed", map[string]any{"error": err.Error()})
		}
	}()
}

// Wait espera los logouts en vuelo (shutdown y tests).
func (g *Gate) Wait() { g.wg.Wait() }
