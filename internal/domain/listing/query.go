package listing

import (
	"net/url"
	"strconv"
	"strings"

	"pet-adoption-web/internal/domain/pets"
)

// Category: "all" o una especie.
type Category string

const CategoryAll Category = "all"

// Categories en el orden del sidebar.
var Categories = []Category{
	CategoryAll,
	Category(pets.SpeciesDog),
	Category(pets.SpeciesCat),
	Category(pets.SpeciesBird),
	Category(pets.SpeciesRabbit),
	Category(pets.SpeciesOther),
}

var categoryTitles = map[Category]string{
	CategoryAll:                  "All Pets",
	Category(pets.SpeciesDog):    "Dogs",
	Category(pets.SpeciesCat):    "Cats",
	Category(pets.SpeciesBird):   "Birds",
	Category(pets.SpeciesRabbit): "Rabbits",
	Category(pets.SpeciesOther):  "Others",
}

// Title es el texto del breadcrumb.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return categoryTitles[CategoryAll]
}

func (c Category) Valid() bool {
	_, ok := categoryTitles[c]
	return ok
}

// Claves de orden que entiende el backend.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"

	DefaultSort = SortNewest
)

var SortKeys = []string{SortNewest, SortOldest, SortPriceLow, SortPriceHigh}

// Buckets de edad (checkboxes).
const (
	AgeUpToOne     = "0-1"
	AgeOneToThree  = "1-3"
	AgeThreeToFive = "3-5"
	AgeFivePlus    = "5+"
)

var AgeBuckets = []string{AgeUpToOne, AgeOneToThree, AgeThreeToFive, AgeFivePlus}

// Ubicaciones disponibles en el filtro.
var LocationTags = []string{"dhaka", "chittagong", "sylhet", "rajshahi"}

// Filters son los criterios acumulados por búsqueda y panel de filtros.
// Ages y Locations son sets que preservan el orden de inserción.
type Filters struct {
	Search    string
	Location  string
	MinPrice  *int64
	MaxPrice  *int64
	Ages      []string
	Locations []string
}

// Query es el estado de consulta que vive mientras dura la sesión de página.
type Query struct {
	Page     int
	Category Category
	Sort     string
	Filters  Filters
}

// NewQuery devuelve el estado inicial: página 1, todas las categorías, "newest".
func NewQuery() Query {
	return Query{
		Page:     1,
		Category: CategoryAll,
		Sort:     DefaultSort,
	}
}

// Encode serializa la query al query string canónico del endpoint de listado.
// Reglas:
//   - page siempre
//   - category solo si no es "all"
//   - sort siempre (default newest)
//   - filtros no vacíos en orden fijo; colecciones como key[]=v por elemento
//
// Los filtros vacíos se omiten: para el backend "ausente" = "sin restricción".
func (q Query) Encode() string {
	q = q.normalized()

	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	add("page", strconv.Itoa(q.Page))
	if q.Category != CategoryAll {
		add("category", string(q.Category))
	}
	add("sort", q.Sort)

	f := q.Filters
	if f.Search != "" {
		add("search", f.Search)
	}
	if f.Location != "" {
		add("location", f.Location)
	}
	if f.MinPrice != nil {
		add("minPrice", strconv.FormatInt(*f.MinPrice, 10))
	}
	if f.MaxPrice != nil {
		add("maxPrice", strconv.FormatInt(*f.MaxPrice, 10))
	}
	for _, a := range f.Ages {
		add("ages[]", a)
	}
	for _, l := range f.Locations {
		add("locations[]", l)
	}

	return b.String()
}

// ParseQuery lee una query desde los parámetros de una URL (inversa de Encode).
// Valores inválidos se descartan en vez de fallar: la función es total.
func ParseQuery(v url.Values) Query {
	q := NewQuery()

	if p, err := strconv.Atoi(strings.TrimSpace(v.Get("page"))); err == nil && p >= 1 {
		q.Page = p
	}
	if c := Category(strings.TrimSpace(v.Get("category"))); c.Valid() {
		q.Category = c
	}
	if s := strings.TrimSpace(v.Get("sort")); s != "" {
		q.Sort = s
	}

	q.Filters = Filters{
		Search:    strings.TrimSpace(v.Get("search")),
		Location:  strings.TrimSpace(v.Get("location")),
		MinPrice:  ParsePrice(v.Get("minPrice")),
		MaxPrice:  ParsePrice(v.Get("maxPrice")),
		Ages:      collect(v, "ages", AgeBuckets),
		Locations: collect(v, "locations", LocationTags),
	}

	return q.normalized()
}

// ParsePrice interpreta un precio opcional del formulario.
// Vacío, no numérico o negativo => sin límite.
func ParsePrice(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil
		}
		n = int64(f)
	}
	if n < 0 {
		return nil
	}
	return &n
}

// collect acepta tanto "key[]" como "key" y conserva solo tags conocidos.
func collect(v url.Values, key string, allowed []string) []string {
	raw := append(append([]string{}, v[key+"[]"]...), v[key]...)
	return uniqueKnown(raw, allowed)
}

func uniqueKnown(values, allowed []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, val := range values {
		val = strings.ToLower(strings.TrimSpace(val))
		if !contains(allowed, val) {
			continue
		}
		if _, dup := seen[val]; dup {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// normalized aplica defaults sin tocar la semántica.
func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Category == "" || !q.Category.Valid() {
		q.Category = CategoryAll
	}
	q.Sort = strings.TrimSpace(q.Sort)
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	q.Filters.Search = strings.TrimSpace(q.Filters.Search)
	q.Filters.Location = strings.TrimSpace(q.Filters.Location)
	if len(q.Filters.Ages) == 0 {
		q.Filters.Ages = nil
	}
	if len(q.Filters.Locations) == 0 {
		q.Filters.Locations = nil
	}
	return q
}

// HasAge / HasLocation se usan para marcar checkboxes.
func (f Filters) HasAge(tag string) bool      { return contains(f.Ages, tag) }
func (f Filters) HasLocation(tag string) bool { return contains(f.Locations, tag) }

// Clone copia los slices para que los reducers no compartan memoria.
func (q Query) Clone() Query {
	c := q
	c.Filters.Ages = append([]string(nil), q.Filters.Ages...)
	c.Filters.Locations = append([]string(nil), q.Filters.Locations...)
	if q.Filters.MinPrice != nil {
		v := *q.Filters.MinPrice
		c.Filters.MinPrice = &v
	}
	if q.Filters.MaxPrice != nil {
		v := *q.Filters.MaxPrice
		c.Filters.MaxPrice = &v
	}
	return c.normalized()
}
