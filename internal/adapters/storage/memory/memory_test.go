package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/pets"
	"pet-adoption-web/internal/platform/cache"
)

func newTestViewStore() *ViewStore {
	return NewViewStore(
		cache.NewInMemory[listing.View]("views", time.Minute, time.Minute, nil),
		cache.NewInMemory[uint64]("view-floors", time.Minute, time.Minute, nil),
		time.Minute,
	)
}

func TestStaticCatalog_DefaultOrderMatchesShowcase(t *testing.T) {
	c := NewStaticCatalog(time.Now())

	page, err := c.List(context.Background(), listing.NewQuery())
	require.NoError(t, err)
	require.Equal(t, 6, page.Total)
	require.Equal(t, 1, page.TotalPages)

	names := make([]string, 0, len(page.Pets))
	for _, p := range page.Pets {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"Buddy", "Luna", "Max", "Whiskers", "Charlie", "Bella"}, names)
}

func TestStaticCatalog_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	c := NewStaticCatalog(time.Now())

	q := listing.Reduce(listing.NewQuery(), listing.Search{Text: "GENTLE"})
	page, err := c.List(context.Background(), q)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, p := range page.Pets {
		got[p.Name] = true
	}
	require.Equal(t, map[string]bool{"Whiskers": true, "Bella": true}, got)
}

func TestCatalog_GetAndAdd(t *testing.T) {
	c := NewCatalog(nil)
	require.ErrorIs(t, c.Add(pets.Pet{}), ErrInvalidPet)
	require.NoError(t, c.Add(pets.Pet{ID: 9, Name: "Nemo", Species: pets.SpeciesOther}))

	p, err := c.Get(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, "available", p.Status)

	_, err = c.Get(context.Background(), 10)
	require.True(t, errors.Is(err, listing.ErrPetNotFound))
}

func TestViewStore_RejectsOlderCommit(t *testing.T) {
	s := newTestViewStore()

	older := s.Begin("v")
	newer := s.Begin("v")
	require.Greater(t, newer, older)

	require.True(t, s.Commit("v", listing.View{Query: listing.NewQuery(), Seq: newer}))
	require.False(t, s.Commit("v", listing.View{Seq: older}))

	last, ok := s.Last("v")
	require.True(t, ok)
	require.Equal(t, newer, last.Seq)
}

func TestViewStore_ForgetBlocksInFlightLoads(t *testing.T) {
	s := newTestViewStore()

	inFlight := s.Begin("v")
	s.Forget("v")

	_, ok := s.Last("v")
	require.False(t, ok)
	require.False(t, s.Commit("v", listing.View{Seq: inFlight}), "load started before Forget must not commit")

	after := s.Begin("v")
	require.True(t, s.Commit("v", listing.View{Seq: after}))
}

func TestViewStore_VisitorsAreIsolated(t *testing.T) {
	s := newTestViewStore()

	a := s.Begin("a")
	b := s.Begin("b")
	require.True(t, s.Commit("b", listing.View{Seq: b}))
	require.True(t, s.Commit("a", listing.View{Seq: a}))
}

func TestViewStore_ConcurrentCommitsKeepNewest(t *testing.T) {
	s := newTestViewStore()

	seqs := make([]uint64, 50)
	for i := range seqs {
		seqs[i] = s.Begin("v")
	}

	var wg sync.WaitGroup
	for _, seq := range seqs {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			s.Commit("v", listing.View{Seq: seq})
		}(seq)
	}
	wg.Wait()

	last, ok := s.Last("v")
	require.True(t, ok)
	require.Equal(t, seqs[len(seqs)-1], last.Seq)
}
