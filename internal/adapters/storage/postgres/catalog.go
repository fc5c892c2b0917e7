package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/pets"
)

const petColumns = `id, name, species, breed, age, price, bio, image, location, status, created_at`

// Catalog lee la tabla pets con la misma semántica de filtros que /api/pets.
type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) List(ctx context.Context, q listing.Query) (listing.Page, error) {
	where, args := buildWhere(q)

	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE `+where, args...).Scan(&total); err != nil {
		return listing.Page{}, fmt.Errorf("count pets: %w", err)
	}

	offset := (q.Page - 1) * listing.PerPage
	if offset < 0 {
		offset = 0
	}
	limitArgs := append(append([]any{}, args...), listing.PerPage, offset)
	stmt := fmt.Sprintf(`SELECT %s FROM pets WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		petColumns, where, orderBy(q.Sort), len(args)+1, len(args)+2)

	rows, err := c.db.QueryContext(ctx, stmt, limitArgs...)
	if err != nil {
		return listing.Page{}, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0, listing.PerPage)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return listing.Page{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return listing.Page{}, fmt.Errorf("list pets: %w", err)
	}

	return listing.Page{
		Pets:       out,
		Total:      total,
		Page:       q.Page,
		TotalPages: listing.TotalPagesFor(total),
	}, nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (pets.Pet, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1 AND status = 'available'`, id)

	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, listing.ErrPetNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPet(s scanner) (pets.Pet, error) {
	var (
		p        pets.Pet
		species  string
		bio      sql.NullString
		image    sql.NullString
		location sql.NullString
		status   sql.NullString
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&species,
		&p.Breed,
		&p.Age,
		&p.Price,
		&bio,
		&image,
		&location,
		&status,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, err
		}
		return pets.Pet{}, fmt.Errorf("scan pet: %w", err)
	}
	p.Species = pets.Species(species)
	p.Bio = bio.String
	p.Image = image.String
	p.Location = location.String
	p.Status = status.String
	return p, nil
}

// buildWhere arma el WHERE con placeholders posicionales.
// Sin filtros => solo status = 'available'.
func buildWhere(q listing.Query) (string, []any) {
	var (
		conds = []string{"status = 'available'"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	f := q.Filters

	if q.Category != "" && q.Category != listing.CategoryAll {
		conds = append(conds, "species = "+arg(string(q.Category)))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR breed ILIKE %[1]s OR species ILIKE %[1]s OR bio ILIKE %[1]s)", p))
	}
	if f.Location != "" {
		conds = append(conds, fmt.Sprintf("LOWER(COALESCE(NULLIF(location, ''), '%s')) = LOWER(%s)",
			pets.DefaultLocation, arg(f.Location)))
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*f.MaxPrice))
	}

	if len(f.Ages) > 0 {
		var ors []string
		for _, bucket := range f.Ages {
			lo, hi, ok := listing.AgeRange(bucket)
			if !ok {
				continue
			}
			if hi < 0 {
				ors = append(ors, fmt.Sprintf("age >= %g", lo))
				continue
			}
			ors = append(ors, fmt.Sprintf("age BETWEEN %g AND %g", lo, hi))
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(f.Locations) > 0 {
		ph := make([]string, 0, len(f.Locations))
		for _, l := range f.Locations {
			ph = append(ph, arg(strings.ToLower(l)))
		}
		conds = append(conds, fmt.Sprintf("LOWER(COALESCE(NULLIF(location, ''), '%s')) IN (%s)",
			pets.DefaultLocation, strings.Join(ph, ", ")))
	}

	return strings.Join(conds, " AND "), args
}

func orderBy(sort string) string {
	switch sort {
	case listing.SortOldest:
		return "created_at ASC, id ASC"
	case listing.SortPriceLow:
		return "price ASC, id ASC"
	case listing.SortPriceHigh:
		return "price DESC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
