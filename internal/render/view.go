package render

import (
	"html"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/notify"
	"pet-adoption-web/internal/domain/pets"
	"pet-adoption-web/internal/domain/session"
)

// FallbackImage reemplaza imágenes rotas (lo aplica app.js).
const FallbackImage = "https://images.pexels.com/photos/45201/kitty-cat-kitten-pet-45201.jpeg?auto=compress&cs=tinysrgb&w=400"

const MsgEmpty = "No pets found matching your criteria."

// Viewer es lo que el render necesita saber de quién mira.
type Viewer struct {
	State      session.State
	AdminEmail string
	LoginURL   string

	// SessionSupported=false => variante estática: sin login, contacto por teléfono.
	SessionSupported bool
	ContactPhone     string
}

func (v Viewer) Authenticated() bool { return v.State.IsAuthenticated() }
func (v Viewer) Name() string        { return v.State.Identity().Name }
func (v Viewer) IsAdmin() bool       { return v.State.IsAdmin(v.AdminEmail) }

// Actions son las affordances de una tarjeta o del detalle.
type Actions struct {
	Adopt        bool
	LoginToAdopt bool
	Contact      bool
	Delete       bool

	LoginURL string
	Phone    string
}

func actionsFor(v Viewer) Actions {
	a := Actions{LoginURL: v.LoginURL, Phone: v.ContactPhone}
	switch {
	case !v.SessionSupported:
		a.Contact = true
	case v.Authenticated():
		a.Adopt = true
	default:
		a.LoginToAdopt = true
	}
	a.Delete = v.SessionSupported && v.IsAdmin()
	return a
}

type Card struct {
	ID         int64
	Name       string
	Species    string
	Breed      string
	Age        string
	Price      string
	Free       bool
	Bio        string
	Image      string
	Fallback   string
	Location   string
	Status     string
	Posted     string
	DetailHref string
	AdoptHref  string
	DeleteHref string

	Actions Actions
}

// Builder arma los view models. El bio pasa por bluemonday: el backend
// guarda texto libre.
type Builder struct {
	policy *bluemonday.Policy
}

func NewBuilder() *Builder {
	return &Builder{policy: bluemonday.StrictPolicy()}
}

// plainText quita todo el markup. bluemonday devuelve texto ya escapado y el
// template vuelve a escapar, así que se deshacen las entidades acá.
func (b *Builder) plainText(s string) string {
	return html.UnescapeString(b.policy.Sanitize(s))
}

func (b *Builder) Card(p pets.Pet, v Viewer) Card {
	id := strconv.FormatInt(p.ID, 10)
	img := p.Image
	if img == "" {
		img = FallbackImage
	}
	return Card{
		ID:         p.ID,
		Name:       p.Name,
		Species:    string(p.Species),
		Breed:      p.Breed,
		Age:        pets.AgeLabel(p.Age),
		Price:      pets.PriceLabel(p.Price),
		Free:       p.IsFree(),
		Bio:        b.plainText(p.Bio),
		Image:      img,
		Fallback:   FallbackImage,
		Location:   p.DisplayLocation(),
		Status:     p.Status,
		Posted:     pets.DateLabel(p.CreatedAt),
		DetailHref: "/pets/" + id,
		AdoptHref:  "/pets/" + id + "/adopt",
		DeleteHref: "/pets/" + id + "/delete",
		Actions:    actionsFor(v),
	}
}

type Link struct {
	Label  string
	Href   string
	Active bool
}

type Option struct {
	Value   string
	Label   string
	Checked bool
}

type PageLink struct {
	Number int
	Href   string
	Active bool
}

type PaginationView struct {
	Visible  bool
	HasPrev  bool
	HasNext  bool
	PrevHref string
	NextHref string
	Pages    []PageLink
}

type Listing struct {
	Query      listing.Query
	State      string // Query.Encode(), reenviado por los formularios
	Title      string
	Count      int
	Cards      []Card
	Empty      bool
	Pagination PaginationView

	Categories []Link
	Sorts      []Option
	Ages       []Option
	Locations  []Option
	Search     string
	Location   string
	MinPrice   string
	MaxPrice   string
}

var sortLabels = map[string]string{
	listing.SortNewest:    "Newest First",
	listing.SortOldest:    "Oldest First",
	listing.SortPriceLow:  "Price: Low to High",
	listing.SortPriceHigh: "Price: High to Low",
}

var ageLabels = map[string]string{
	listing.AgeUpToOne:     "0-1 years",
	listing.AgeOneToThree:  "1-3 years",
	listing.AgeThreeToFive: "3-5 years",
	listing.AgeFivePlus:    "5+ years",
}

var locationLabels = map[string]string{
	"dhaka":      "Dhaka",
	"chittagong": "Chittagong",
	"sylhet":     "Sylhet",
	"rajshahi":   "Rajshahi",
}

// Listing arma la grilla, la paginación y la barra de filtros para q/page.
// Los hrefs salen del reducer, así que siempre son URLs canónicas.
func (b *Builder) Listing(q listing.Query, page listing.Page, v Viewer) Listing {
	l := Listing{
		Query:    q,
		State:    q.Encode(),
		Title:    q.Category.Title(),
		Count:    page.Total,
		Empty:    page.Empty(),
		Search:   q.Filters.Search,
		Location: q.Filters.Location,
	}
	if q.Filters.MinPrice != nil {
		l.MinPrice = strconv.FormatInt(*q.Filters.MinPrice, 10)
	}
	if q.Filters.MaxPrice != nil {
		l.MaxPrice = strconv.FormatInt(*q.Filters.MaxPrice, 10)
	}

	l.Cards = make([]Card, 0, len(page.Pets))
	for _, p := range page.Pets {
		l.Cards = append(l.Cards, b.Card(p, v))
	}

	l.Pagination = paginationView(q, page)

	for _, c := range listing.Categories {
		l.Categories = append(l.Categories, Link{
			Label:  c.Title(),
			Href:   listing.Reduce(q, listing.SelectCategory{Category: c}).Href(),
			Active: c == q.Category,
		})
	}
	for _, s := range listing.SortKeys {
		l.Sorts = append(l.Sorts, Option{Value: s, Label: sortLabels[s], Checked: s == q.Sort})
	}
	for _, a := range listing.AgeBuckets {
		l.Ages = append(l.Ages, Option{Value: a, Label: ageLabels[a], Checked: q.Filters.HasAge(a)})
	}
	for _, loc := range listing.LocationTags {
		l.Locations = append(l.Locations, Option{Value: loc, Label: locationLabels[loc], Checked: q.Filters.HasLocation(loc)})
	}
	return l
}

func paginationView(q listing.Query, page listing.Page) PaginationView {
	current := page.Page
	if current < 1 {
		current = q.Page
	}
	pg := listing.Paginate(current, page.TotalPages)
	if !pg.Visible() {
		return PaginationView{}
	}

	hrefFor := func(n int) string {
		return listing.Reduce(q, listing.GoToPage{Page: n}).Href()
	}

	out := PaginationView{Visible: true, HasPrev: pg.HasPrev, HasNext: pg.HasNext}
	if pg.HasPrev {
		out.PrevHref = hrefFor(pg.PrevPage)
	}
	if pg.HasNext {
		out.NextHref = hrefFor(pg.NextPage)
	}
	for _, n := range pg.Pages {
		out.Pages = append(out.Pages, PageLink{Number: n, Href: hrefFor(n), Active: n == pg.Current})
	}
	return out
}

// Modal es el contenido de la ventana modal (uno a la vez).
type Modal struct {
	Kind   ModalKind
	Card   Card
	Form   AdoptForm
	Notice notify.Notification
}

type ModalKind string

const (
	ModalNone    ModalKind = ""
	ModalDetail  ModalKind = "detail"
	ModalAdopt   ModalKind = "adopt"
	ModalConfirm ModalKind = "confirm"
)

// AdoptForm conserva lo tipeado cuando la validación falla.
type AdoptForm struct {
	Experience      string
	LivingSituation string
	Reason          string
}

type PageData struct {
	AppName   string
	Viewer    Viewer
	CSRFToken string
	Notice    notify.Notification
	Listing   Listing
	Modal     Modal
}
