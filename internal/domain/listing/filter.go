package listing

import (
	"sort"
	"strings"

	"pet-adoption-web/internal/domain/pets"
)

// Match es la búsqueda por substring del catálogo estático.
func Match(p pets.Pet, term string) bool { return p.Matches(term) }

// Apply filtra, ordena y pagina en memoria con la misma semántica que el
// endpoint /api/pets. Lo usa el catálogo estático.
func Apply(all []pets.Pet, q Query) Page {
	q = q.normalized()

	var matched []pets.Pet
	for _, p := range all {
		if q.matches(p) {
			matched = append(matched, p)
		}
	}

	SortPets(matched, q.Sort)

	total := len(matched)
	page := Page{
		Total:      total,
		Page:       q.Page,
		TotalPages: TotalPagesFor(total),
	}

	start := (q.Page - 1) * PerPage
	if start >= total {
		return page
	}
	end := start + PerPage
	if end > total {
		end = total
	}
	page.Pets = append([]pets.Pet(nil), matched[start:end]...)
	return page
}

func (q Query) matches(p pets.Pet) bool {
	f := q.Filters

	if q.Category != CategoryAll && !strings.EqualFold(string(p.Species), string(q.Category)) {
		return false
	}
	if !p.Matches(f.Search) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(p.DisplayLocation(), f.Location) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if len(f.Ages) > 0 && !inAnyBucket(p.Age, f.Ages) {
		return false
	}
	if len(f.Locations) > 0 && !contains(f.Locations, strings.ToLower(p.DisplayLocation())) {
		return false
	}
	return true
}

// AgeRange devuelve los límites inclusivos de un bucket. max < 0 = sin tope.
func AgeRange(bucket string) (min, max float64, ok bool) {
	switch bucket {
	case AgeUpToOne:
		return 0, 1, true
	case AgeOneToThree:
		return 1, 3, true
	case AgeThreeToFive:
		return 3, 5, true
	case AgeFivePlus:
		return 5, -1, true
	}
	return 0, 0, false
}

func inAnyBucket(age float64, buckets []string) bool {
	for _, b := range buckets {
		min, max, ok := AgeRange(b)
		if !ok {
			continue
		}
		if age >= min && (max < 0 || age <= max) {
			return true
		}
	}
	return false
}

// SortPets ordena in-place. Claves desconocidas caen en "newest".
func SortPets(list []pets.Pet, key string) {
	var less func(a, b pets.Pet) bool
	switch key {
	case SortOldest:
		less = func(a, b pets.Pet) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceLow:
		less = func(a, b pets.Pet) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b pets.Pet) bool { return a.Price > b.Price }
	default:
		less = func(a, b pets.Pet) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}
