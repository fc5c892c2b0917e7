package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"pet-adoption-web/internal/domain/listing"
)

func TestBuildWhere_NoFilters(t *testing.T) {
	where, args := buildWhere(listing.NewQuery())

	require.Equal(t, "status = 'available'", where)
	require.Empty(t, args)
}

func TestBuildWhere_AllFilters(t *testing.T) {
	q := listing.NewQuery()
	q = listing.Reduce(q, listing.SelectCategory{Category: "Dog"})
	q = listing.Reduce(q, listing.Search{Text: "100%_lab", Location: "Dhaka"})
	lo, hi := int64(10), int64(500)
	q = listing.Reduce(q, listing.ApplyFilters{
		MinPrice:  &lo,
		MaxPrice:  &hi,
		Ages:      []string{"0-1", "5+"},
		Locations: []string{"sylhet", "dhaka"},
	})

	where, args := buildWhere(q)

	want := "status = 'available'" +
		" AND species = $1" +
		" AND (name ILIKE $2 OR breed ILIKE $2 OR species ILIKE $2 OR bio ILIKE $2)" +
		" AND LOWER(COALESCE(NULLIF(location, ''), 'Dhaka')) = LOWER($3)" +
		" AND price >= $4" +
		" AND price <= $5" +
		" AND (age BETWEEN 0 AND 1 OR age >= 5)" +
		" AND LOWER(COALESCE(NULLIF(location, ''), 'Dhaka')) IN ($6, $7)"
	require.Equal(t, want, where)
	require.Equal(t, []any{"Dog", `%100\%\_lab%`, "Dhaka", int64(10), int64(500), "sylhet", "dhaka"}, args)
}

func TestOrderBy(t *testing.T) {
	require.Equal(t, "created_at DESC, id DESC", orderBy(listing.SortNewest))
	require.Equal(t, "created_at DESC, id DESC", orderBy("bogus"))
	require.Equal(t, "created_at ASC, id ASC", orderBy(listing.SortOldest))
	require.Equal(t, "price ASC, id ASC", orderBy(listing.SortPriceLow))
	require.Equal(t, "price DESC, id ASC", orderBy(listing.SortPriceHigh))
}

// testDatabaseURL: sin TEST_DATABASE_URL los tests de integración se saltan.
func testDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return url
}

func TestCatalog_Integration(t *testing.T) {
	url := testDatabaseURL(t)
	ctx := context.Background()

	db, err := Open(ctx, url, PoolOptions{})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS pets; DROP TABLE IF EXISTS schema_migrations;`)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(url))

	v, dirty, err := MigrationVersion(url)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(2), v)

	c := NewCatalog(db)

	page, err := c.List(ctx, listing.NewQuery())
	require.NoError(t, err)
	require.Equal(t, 6, page.Total)
	require.Equal(t, 1, page.TotalPages)
	require.Equal(t, "Buddy", page.Pets[0].Name)

	dogs, err := c.List(ctx, listing.Reduce(listing.NewQuery(), listing.SelectCategory{Category: "Dog"}))
	require.NoError(t, err)
	require.Equal(t, 3, dogs.Total)

	cheap, err := c.List(ctx, listing.Reduce(
		listing.Reduce(listing.NewQuery(), listing.ChangeSort{Sort: listing.SortPriceHigh}),
		listing.Search{Location: "dhaka"},
	))
	require.NoError(t, err)
	require.Equal(t, "Max", cheap.Pets[0].Name)

	p, err := c.Get(ctx, page.Pets[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Buddy", p.Name)

	_, err = c.Get(ctx, -1)
	require.ErrorIs(t, err, listing.ErrPetNotFound)

	require.NoError(t, RollbackMigrations(url))
}
