package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-adoption-web/internal/domain/pets"
)

var ErrPetNotFound = errors.New("pet not found")

// Resultados de carga para métricas.
const (
	OutcomeOK     = "ok"
	OutcomeStale  = "stale"
	OutcomeFailed = "failed"
)

type Service struct {
	source  Source
	views   ViewStore
	metrics Recorder
	now     func() time.Time
}

func NewService(source Source, views ViewStore, metrics Recorder) *Service {
	return &Service{
		source:  source,
		views:   views,
		metrics: metrics,
		now:     time.Now,
	}
}

// Result es lo que se renderiza tras una carga.
// Err != nil => Query/Page son la vista anterior (o una página vacía).
type Result struct {
	Query Query
	Page  Page
	Stale bool
	Err   error
}

// Load ejecuta Request Builder + Fetcher para q.
//   - éxito: se commitea (q con la página de la respuesta, página) para el visitante
//   - error: se devuelve la última vista buena sin cambios
//   - respuesta vieja (otra carga más nueva ya commiteó): no se commitea
func (s *Service) Load(ctx context.Context, visitorID string, q Query) Result {
	q = q.normalized()
	start := s.now()
	seq := s.views.Begin(visitorID)

	page, err := s.source.List(ctx, q)
	if err != nil {
		s.observe(OutcomeFailed, start)
		err = fmt.Errorf("load listing: %w", err)
		if last, ok := s.views.Last(visitorID); ok {
			return Result{Query: last.Query, Page: last.Page, Err: err}
		}
		return Result{Query: q, Page: Page{Page: q.Page}, Err: err}
	}

	if page.Page >= 1 {
		q.Page = page.Page
	} else {
		page.Page = q.Page
	}

	committed := s.views.Commit(visitorID, View{Query: q, Page: page, Seq: seq})
	if !committed {
		s.observe(OutcomeStale, start)
		return Result{Query: q, Page: page, Stale: true}
	}
	s.observe(OutcomeOK, start)
	return Result{Query: q, Page: page}
}

// Last devuelve la vista vigente del visitante.
func (s *Service) Last(visitorID string) (View, bool) {
	return s.views.Last(visitorID)
}

// Find busca primero en la página que el visitante ya tiene y después en el origen.
func (s *Service) Find(ctx context.Context, visitorID string, id int64) (pets.Pet, error) {
	if last, ok := s.views.Last(visitorID); ok {
		if p, found := last.Page.Find(id); found {
			return p, nil
		}
	}
	p, err := s.source.Get(ctx, id)
	if err != nil {
		return pets.Pet{}, fmt.Errorf("find pet %d: %w", id, err)
	}
	return p, nil
}

// Forget descarta la vista cacheada (p.ej. después de borrar una mascota).
func (s *Service) Forget(visitorID string) {
	s.views.Forget(visitorID)
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ListingLoaded(outcome, s.now().Sub(start).Seconds())
}
