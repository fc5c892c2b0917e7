package pets

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Species define las especies que el backend publica.
type Species string

const (
	SpeciesDog    Species = "Dog"
	SpeciesCat    Species = "Cat"
	SpeciesBird   Species = "Bird"
	SpeciesRabbit Species = "Rabbit"
	SpeciesOther  Species = "Other"
)

// AllSpecies en el orden en que se muestran las categorías.
var AllSpecies = []Species{SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesOther}

func (s Species) Valid() bool {
	for _, v := range AllSpecies {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultLocation se usa cuando el backend no informa ubicación.
const DefaultLocation = "Dhaka"

// CurrencySymbol es el prefijo de los precios (taka).
const CurrencySymbol = "৳"

// Pet es una mascota publicada para adopción, tal como la devuelve el backend.
// Para el frontend es inmutable: solo el backend la crea o la borra.
type Pet struct {
	ID int64

	Name    string
	Species Species
	Breed   string
	Age     float64 // años
	Price   int64   // 0 = gratis

	Bio      string
	Image    string
	Location string
	Status   string

	CreatedAt time.Time
}

// DisplayLocation devuelve la ubicación o el default si viene vacía.
func (p Pet) DisplayLocation() string {
	if loc := strings.TrimSpace(p.Location); loc != "" {
		return loc
	}
	return DefaultLocation
}

// IsFree indica si la adopción no tiene costo.
func (p Pet) IsFree() bool {
	return p.Price == 0
}

// PriceLabel: "Free" para 0, si no el monto con separador de miles.
func PriceLabel(price int64) string {
	if price <= 0 {
		return "Free"
	}
	return CurrencySymbol + groupThousands(price)
}

// AgeLabel formatea la edad sin decimales innecesarios ("3 years", "1.5 years").
func AgeLabel(age float64) string {
	v := strconv.FormatFloat(age, 'f', -1, 64)
	if age == 1 {
		return v + " year"
	}
	return v + " years"
}

// DateLabel es el formato corto que usa el detalle ("Posted: Jan 2, 2006").
func DateLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Matches aplica la búsqueda por substring (case-insensitive) sobre
// nombre, raza, especie y descripción. Término vacío matchea todo.
func (p Pet) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Breed, string(p.Species), p.Bio} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (p Pet) String() string {
	return fmt.Sprintf("pet(%d %s)", p.ID, p.Name)
}
