package listing

import (
	"context"

	"pet-adoption-web/internal/domain/pets"
)

// Source es el origen del catálogo (API del backend, memoria o postgres).
type Source interface {
	List(ctx context.Context, q Query) (Page, error)
	Get(ctx context.Context, id int64) (pets.Pet, error)
}

// View es la última página buena que vio un visitante.
type View struct {
	Query Query
	Page  Page
	Seq   uint64
}

// ViewStore guarda la vista por visitante.
// Begin reserva un número de secuencia creciente; Commit solo guarda si
// seq no es más viejo que el último commit.
type ViewStore interface {
	Begin(visitorID string) uint64
	Commit(visitorID string, v View) bool
	Last(visitorID string) (View, bool)
	Forget(visitorID string)
}

// Recorder recibe métricas de carga del listado.
type Recorder interface {
	ListingLoaded(outcome string, seconds float64)
}
