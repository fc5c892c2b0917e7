package listing

import "strings"

// Action es una interacción del usuario sobre el listado.
type Action interface {
	apply(q Query) Query
}

// SelectCategory cambia la categoría y vuelve a la página 1.
type SelectCategory struct {
	Category Category
}

// Search reemplaza el texto y la ubicación de búsqueda; vuelve a la página 1.
type Search struct {
	Text     string
	Location string
}

// ApplyFilters reemplaza precio, edades y ubicaciones; vuelve a la página 1.
type ApplyFilters struct {
	MinPrice  *int64
	MaxPrice  *int64
	Ages      []string
	Locations []string
}

// ChangeSort cambia el orden sin tocar página ni filtros.
type ChangeSort struct {
	Sort string
}

// GoToPage navega a otra página sin tocar filtros ni orden.
type GoToPage struct {
	Page int
}

// Reduce devuelve la nueva query. No modifica q.
func Reduce(q Query, a Action) Query {
	next := q.Clone()
	if a == nil {
		return next
	}
	return a.apply(next).normalized()
}

func (a SelectCategory) apply(q Query) Query {
	if !a.Category.Valid() {
		return q
	}
	q.Category = a.Category
	q.Page = 1
	return q
}

func (a Search) apply(q Query) Query {
	q.Filters.Search = strings.TrimSpace(a.Text)
	q.Filters.Location = strings.TrimSpace(a.Location)
	q.Page = 1
	return q
}

func (a ApplyFilters) apply(q Query) Query {
	q.Filters.MinPrice = copyPrice(a.MinPrice)
	q.Filters.MaxPrice = copyPrice(a.MaxPrice)
	q.Filters.Ages = uniqueKnown(a.Ages, AgeBuckets)
	q.Filters.Locations = uniqueKnown(a.Locations, LocationTags)
	q.Page = 1
	return q
}

func (a ChangeSort) apply(q Query) Query {
	if s := strings.TrimSpace(a.Sort); s != "" {
		q.Sort = s
	}
	return q
}

// GoToPage solo limita por abajo; el tope lo impone la paginación
// deshabilitando "next".
func (a GoToPage) apply(q Query) Query {
	q.Page = a.Page
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func copyPrice(p *int64) *int64 {
	if p == nil || *p < 0 {
		return nil
	}
	v := *p
	return &v
}

// Href devuelve la URL canónica del listado para la query.
func (q Query) Href() string {
	return "/?" + q.Encode()
}
