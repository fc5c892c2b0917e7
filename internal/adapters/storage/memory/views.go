package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/platform/cache"
)

// ViewStore guarda la última vista buena por visitante en go-cache.
// Las secuencias son globales y crecientes; un commit con secuencia menor a
// la vigente (o a la de un Forget posterior) se descarta.
type ViewStore struct {
	mu     sync.Mutex
	seq    atomic.Uint64
	views  cache.Store[listing.View]
	floors cache.Store[uint64]
	ttl    time.Duration
}

func NewViewStore(views cache.Store[listing.View], floors cache.Store[uint64], ttl time.Duration) *ViewStore {
	return &ViewStore{
		views:  views,
		floors: floors,
		ttl:    ttl,
	}
}

func (s *ViewStore) Begin(visitorID string) uint64 {
	return s.seq.Add(1)
}

func (s *ViewStore) Commit(visitorID string, v listing.View) bool {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	if floor, ok := s.floors.Get(ctx, visitorID); ok && v.Seq <= floor {
		return false
	}
	if cur, ok := s.views.Get(ctx, visitorID); ok && cur.Seq > v.Seq {
		return false
	}
	s.views.Set(ctx, visitorID, v, s.ttl)
	return true
}

func (s *ViewStore) Last(visitorID string) (listing.View, bool) {
	return s.views.Get(context.Background(), visitorID)
}

// Forget borra la vista y corta cualquier carga en vuelo iniciada antes.
func (s *ViewStore) Forget(visitorID string) {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.views.Delete(ctx, visitorID)
	s.floors.Set(ctx, visitorID, s.seq.Load(), s.ttl)
}
