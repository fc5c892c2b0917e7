package handler

import (
	"errors"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/notify"
	"pet-adoption-web/internal/middleware"
	"pet-adoption-web/internal/platform/tracing"
	"pet-adoption-web/internal/render"
)

// stateField lleva la Query vigente (codificada) en los formularios.
const stateField = "q"

func listingHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.showListing(w, r, listing.ParseQuery(r.URL.Query()))
	}
}

func searchHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := d.formState(r)
		d.navigate(w, r, listing.Reduce(base, listing.Search{
			Text:     r.FormValue("search"),
			Location: r.FormValue("location"),
		}))
	}
}

func filtersHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := d.formState(r)
		d.navigate(w, r, listing.Reduce(base, listing.ApplyFilters{
			MinPrice:  listing.ParsePrice(r.FormValue("minPrice")),
			MaxPrice:  listing.ParsePrice(r.FormValue("maxPrice")),
			Ages:      formList(r, "ages"),
			Locations: formList(r, "locations"),
		}))
	}
}

func sortHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := d.formState(r)
		d.navigate(w, r, listing.Reduce(base, listing.ChangeSort{Sort: r.FormValue("sort")}))
	}
}

// formState decodifica el campo q; si falta usa la vista vigente.
func (d *Deps) formState(r *http.Request) listing.Query {
	raw := r.FormValue(stateField)
	if raw == "" {
		return d.currentQuery(r)
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return d.currentQuery(r)
	}
	return listing.ParseQuery(values)
}

// formList acepta "key[]" (formularios) y "key".
func formList(r *http.Request, key string) []string {
	_ = r.ParseForm()
	out := append([]string{}, r.Form[key+"[]"]...)
	return append(out, r.Form[key]...)
}

// navigate lleva al visitante a la URL canónica de q. Con htmx se responde
// el fragmento directamente y se empuja la URL al historial.
func (d *Deps) navigate(w http.ResponseWriter, r *http.Request, q listing.Query) {
	if isHTMX(r) {
		d.showListing(w, r, q)
		return
	}
	http.Redirect(w, r, q.Href(), http.StatusSeeOther)
}

// showListing corre Request Builder + Fetcher y dibuja grilla y paginación.
func (d *Deps) showListing(w http.ResponseWriter, r *http.Request, q listing.Query) {
	ctx := r.Context()
	visitor := middleware.VisitorID(ctx)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(tracing.AttrQuery, q.Encode()))

	notice := takeFlash(w, r)

	res := d.Listing.Load(ctx, visitor, q)
	switch {
	case res.Err != nil:
		d.Log.Warn("listing load failed", map[string]any{
			"visitor": visitor,
			"query":   q.Encode(),
			"error":   res.Err.Error(),
		})
		notice = notify.FromError(res.Err)
	case res.Stale:
		// Otra carga más nueva ya ganó: se muestra lo commiteado.
		if v, ok := d.Listing.Last(visitor); ok {
			res.Query, res.Page = v.Query, v.Page
		}
	}

	data := d.pageData(r, notice)
	data.Listing = d.Builder.Listing(res.Query, res.Page, data.Viewer)

	if isHTMX(r) {
		w.Header().Set(headerHXPushURL, res.Query.Href())
		d.write(w, r, http.StatusOK, render.FragmentListing, data)
		return
	}
	d.write(w, r, http.StatusOK, render.PageLayout, data)
}

func isNotFound(err error) bool {
	return errors.Is(err, listing.ErrPetNotFound)
}
