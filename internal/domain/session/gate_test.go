package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pet-adoption-web/internal/platform/cache"
)

type fakeProber struct {
	mu        sync.Mutex
	users     map[string]Identity
	err       error
	probes    int
	logouts   []string
	logoutErr error
}

func (f *fakeProber) CurrentUser(ctx context.Context, token string) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.err != nil {
		return Identity{}, f.err
	}
	id, ok := f.users[token]
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

func (f *fakeProber) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, token)
	return f.logoutErr
}

func newTestGate(p Prober) *Gate {
	store := cache.NewInMemory[State]("sessions", time.Minute, time.Minute, nil)
	return NewGate(p, store, time.Minute, nil)
}

func TestProbe_NoTokenSkipsBackend(t *testing.T) {
	p := &fakeProber{}
	g := newTestGate(p)

	if g.Probe(context.Background(), "").IsAuthenticated() {
		t.Fatalf("expected anonymous")
	}
	if p.probes != 0 {
		t.Fatalf("expected no backend call, got %d", p.probes)
	}
}

func TestProbe_AuthenticatedIsCached(t *testing.T) {
	p := &fakeProber{users: map[string]Identity{"tok": {Name: "Ana", Email: "ana@example.com"}}}
	g := newTestGate(p)

	for i := 0; i < 3; i++ {
		st := g.Probe(context.Background(), "tok")
		if !st.IsAuthenticated() || st.Identity().Name != "Ana" {
			t.Fatalf("expected authenticated Ana, got %+v", st.Identity())
		}
	}
	if p.probes != 1 {
		t.Fatalf("expected one backend probe, got %d", p.probes)
	}
}

func TestProbe_UnknownTokenIsAnonymous(t *testing.T) {
	g := newTestGate(&fakeProber{users: map[string]Identity{}})

	if g.Probe(context.Background(), "nope").IsAuthenticated() {
		t.Fatalf("expected anonymous for unknown session")
	}
}

func TestProbe_NetworkErrorIsAnonymousAndNotCached(t *testing.T) {
	p := &fakeProber{err: errors.New("dial tcp: refused"), users: map[string]Identity{"tok": {Name: "Ana"}}}
	g := newTestGate(p)

	if g.Probe(context.Background(), "tok").IsAuthenticated() {
		t.Fatalf("expected anonymous on network error")
	}

	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()

	if !g.Probe(context.Background(), "tok").IsAuthenticated() {
		t.Fatalf("failure must not be cached")
	}
}

func TestProbe_DisabledGate(t *testing.T) {
	g := NewGate(nil, nil, time.Minute, nil)
	if g.Enabled() || g.Probe(context.Background(), "tok").IsAuthenticated() {
		t.Fatalf("disabled gate should always be anonymous")
	}
	g.Logout(context.Background(), "tok")
}

func TestLogout_FireAndForget(t *testing.T) {
	p := &fakeProber{
		users:     map[string]Identity{"tok": {Name: "Ana"}},
		logoutErr: errors.New("backend down"),
	}
	g := newTestGate(p)

	if !g.Probe(context.Background(), "tok").IsAuthenticated() {
		t.Fatalf("expected authenticated before logout")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.Logout(ctx, "tok")
	cancel()
	g.Wait()

	p.mu.Lock()
	logouts := append([]string(nil), p.logouts...)
	delete(p.users, "tok")
	p.mu.Unlock()

	if len(logouts) != 1 || logouts[0] != "tok" {
		t.Fatalf("expected one logout call, got %v", logouts)
	}
	if g.Probe(context.Background(), "tok").IsAuthenticated() {
		t.Fatalf("cached session should be invalidated on logout")
	}
}

func TestIsAdmin(t *testing.T) {
	admin := Authenticated(Identity{Name: "Admin", Email: DefaultAdminEmail})
	user := Authenticated(Identity{Name: "Ana", Email: "Admin@PetCenter.com"})

	if !admin.IsAdmin(DefaultAdminEmail) {
		t.Fatalf("expected admin")
	}
	if user.IsAdmin(DefaultAdminEmail) {
		t.Fatalf("email match must be exact")
	}
	if Anonymous().IsAdmin(DefaultAdminEmail) {
		t.Fatalf("anonymous is never admin")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithState(context.Background(), Authenticated(Identity{Name: "Ana"}))
	if FromContext(ctx).Identity().Name != "Ana" {
		t.Fatalf("expected state from context")
	}
	if FromContext(context.Background()).IsAuthenticated() {
		t.Fatalf("missing state should be anonymous")
	}
}
