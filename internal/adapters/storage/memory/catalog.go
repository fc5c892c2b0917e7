package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/pets"
)

var (
	ErrInvalidPet = errors.New("pet id required")
)

// Catalog es un catálogo en memoria. Aplica búsqueda, filtros, orden y
// paginación en proceso con la misma semántica que el backend.
type Catalog struct {
	mu   sync.RWMutex
	byID map[int64]pets.Pet
}

func NewCatalog(seed []pets.Pet) *Catalog {
	c := &Catalog{byID: make(map[int64]pets.Pet, len(seed))}
	for _, p := range seed {
		_ = c.Add(p)
	}
	return c
}

// NewStaticCatalog devuelve el catálogo de demo (seis mascotas).
func NewStaticCatalog(now time.Time) *Catalog {
	return NewCatalog(StaticPets(now))
}

func (c *Catalog) Add(p pets.Pet) error {
	if p.ID <= 0 {
		return ErrInvalidPet
	}
	if p.Status == "" {
		p.Status = "available"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[p.ID] = p
	return nil
}

func (c *Catalog) List(ctx context.Context, q listing.Query) (listing.Page, error) {
	return listing.Apply(c.snapshot(), q), nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (pets.Pet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return pets.Pet{}, listing.ErrPetNotFound
	}
	return p, nil
}

// snapshot copia los valores en orden estable por id.
func (c *Catalog) snapshot() []pets.Pet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]pets.Pet, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StaticPets: la mascota 1 es la más nueva, así "newest" respeta el orden de la vitrina.
func StaticPets(now time.Time) []pets.Pet {
	const img = "https://images.pexels.com/photos/%s?auto=compress&cs=tinysrgb&w=400"

	pet := func(id int64, name string, species pets.Species, breed string, age float64, price int64, location, image, bio string) pets.Pet {
		return pets.Pet{
			ID:        id,
			Name:      name,
			Species:   species,
			Breed:     breed,
			Age:       age,
			Price:     price,
			Location:  location,
			Image:     fmt.Sprintf(img, image),
			Bio:       bio,
			Status:    "available",
			CreatedAt: now.Add(-time.Duration(id) * time.Hour),
		}
	}

	return []pets.Pet{
		pet(1, "Buddy", pets.SpeciesDog, "Golden Retriever", 3, 0, "Dhaka",
			"551628/pexels-photo-551628.jpeg",
			"Friendly and energetic dog who loves playing fetch. Great with kids!"),
		pet(2, "Luna", pets.SpeciesCat, "Siamese", 2, 5000, "Chittagong",
			"45201/kitty-cat-kitten-pet-45201.jpeg",
			"Beautiful cat with striking blue eyes. Loves attention and purring."),
		pet(3, "Max", pets.SpeciesDog, "German Shepherd", 4, 15000, "Dhaka",
			"1108099/pexels-photo-1108099.jpeg",
			"Loyal and protective dog. Well-trained and perfect for families."),
		pet(4, "Whiskers", pets.SpeciesCat, "Persian", 5, 8000, "Sylhet",
			"596590/pexels-photo-596590.jpeg",
			"Gentle cat with long, fluffy fur. Perfect for quiet homes."),
		pet(5, "Charlie", pets.SpeciesBird, "Parrot", 2, 3000, "Dhaka",
			"1661179/pexels-photo-1661179.jpeg",
			"Colorful and talkative parrot. Loves to learn new words!"),
		pet(6, "Bella", pets.SpeciesDog, "Labrador", 2, 0, "Rajshahi",
			"1805164/pexels-photo-1805164.jpeg",
			"Sweet and gentle dog who loves everyone. Great with children."),
	}
}
