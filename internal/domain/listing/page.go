package listing

import "pet-adoption-web/internal/domain/pets"

// PerPage coincide con el tamaño de página del backend.
const PerPage = 6

// Page es una página de resultados tal como la devuelve el backend.
// Se reemplaza completa en cada fetch exitoso.
type Page struct {
	Pets       []pets.Pet
	Total      int
	Page       int
	TotalPages int
}

func (p Page) Empty() bool { return len(p.Pets) == 0 }

// Contains indica si la página incluye la mascota id.
func (p Page) Contains(id int64) bool {
	_, ok := p.Find(id)
	return ok
}

func (p Page) Find(id int64) (pets.Pet, bool) {
	for _, pet := range p.Pets {
		if pet.ID == id {
			return pet, true
		}
	}
	return pets.Pet{}, false
}

// Pagination describe los controles de paginación.
type Pagination struct {
	Current  int
	Total    int
	Pages    []int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

// Visible: solo hay controles con más de una página.
func (p Pagination) Visible() bool { return p.Total > 1 }

// Paginate calcula la ventana [max(1,p-2), min(T,p+2)].
// Una página fuera de rango no se corrige: se deshabilitan prev/next.
func Paginate(current, totalPages int) Pagination {
	pg := Pagination{
		Current:  current,
		Total:    totalPages,
		HasPrev:  current > 1,
		HasNext:  current < totalPages,
		PrevPage: current - 1,
		NextPage: current + 1,
	}
	if totalPages <= 1 {
		return pg
	}

	start := current - 2
	if start < 1 {
		start = 1
	}
	end := current + 2
	if end > totalPages {
		end = totalPages
	}
	for i := start; i <= end; i++ {
		pg.Pages = append(pg.Pages, i)
	}
	return pg
}

// TotalPagesFor: ceil(total / PerPage).
func TotalPagesFor(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PerPage - 1) / PerPage
}
