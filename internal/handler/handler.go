package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pet-adoption-web/internal/domain/adoption"
	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/notify"
	"pet-adoption-web/internal/domain/pets"
	"pet-adoption-web/internal/domain/session"
	"pet-adoption-web/internal/middleware"
	"pet-adoption-web/internal/platform/logger"
	"pet-adoption-web/internal/platform/tracing"
	"pet-adoption-web/internal/render"
)

// Headers de htmx que usamos.
const (
	headerHXRequest  = "HX-Request"
	headerHXPushURL  = "HX-Push-Url"
	headerHXRedirect = "HX-Redirect"
	headerHXLocation = "HX-Location"
)

const MsgPetNotFound = "Pet not found"

// LogoutPath queda fuera de CSRF y rate limit: el logout nunca debe fallar.
const LogoutPath = "/logout"

type Deps struct {
	Listing  *listing.Service
	Actions  *adoption.Service
	Gate     *session.Gate // nil => catálogo sin sesiones
	Renderer *render.Renderer
	Builder  *render.Builder
	Log      logger.Logger

	AppName       string
	LoginURL      string
	ContactPhone  string
	SessionCookie string
	CookieSecure  bool
}

func RegisterRoutes(r chi.Router, d *Deps) {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Builder == nil {
		d.Builder = render.NewBuilder()
	}

	// Listado: las acciones pasan por el reducer y terminan en la URL canónica.
	r.Get("/", listingHandler(d))
	r.Get("/search", searchHandler(d))
	r.Get("/filters", filtersHandler(d))
	r.Get("/sort", sortHandler(d))

	r.Route("/pets/{petID}", func(pr chi.Router) {
		pr.Get("/", detailHandler(d))
		pr.Get("/adopt", adoptFormHandler(d))
		pr.Post("/adopt", adoptSubmitHandler(d))
		pr.Get("/delete", deleteConfirmHandler(d))
		pr.Post("/delete", deleteSubmitHandler(d))
	})

	r.Post(LogoutPath, logoutHandler(d))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get(headerHXRequest) == "true"
}

func (d *Deps) sessionSupported() bool {
	return d.Gate != nil && d.Gate.Enabled()
}

func (d *Deps) viewer(r *http.Request) render.Viewer {
	return render.Viewer{
		State:            session.FromContext(r.Context()),
		AdminEmail:       d.Actions.AdminEmail(),
		LoginURL:         d.LoginURL,
		SessionSupported: d.sessionSupported(),
		ContactPhone:     d.ContactPhone,
	}
}

func (d *Deps) pageData(r *http.Request, notice notify.Notification) render.PageData {
	return render.PageData{
		AppName:   d.AppName,
		Viewer:    d.viewer(r),
		CSRFToken: middleware.CSRFToken(r.Context()),
		Notice:    notice,
	}
}

// currentQuery es la Query que el visitante está viendo: la última vista
// commiteada, o la default.
func (d *Deps) currentQuery(r *http.Request) listing.Query {
	if v, ok := d.Listing.Last(middleware.VisitorID(r.Context())); ok {
		return v.Query
	}
	return listing.NewQuery()
}

// currentView devuelve la vista vigente; sin vista previa carga la default.
func (d *Deps) currentView(r *http.Request) (listing.Query, listing.Page) {
	visitor := middleware.VisitorID(r.Context())
	if v, ok := d.Listing.Last(visitor); ok {
		return v.Query, v.Page
	}
	res := d.Listing.Load(r.Context(), visitor, listing.NewQuery())
	return res.Query, res.Page
}

func (d *Deps) write(w http.ResponseWriter, r *http.Request, status int, name string, data render.PageData) {
	var err error
	if name == render.PageLayout {
		err = d.Renderer.Page(w, status, data)
	} else {
		err = d.Renderer.Fragment(w, status, name, data)
	}
	if err != nil {
		d.Log.Error("render failed", map[string]any{
			"template": name,
			"path":     r.URL.Path,
			"error":    err.Error(),
		})
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// showModal dibuja el modal: fragmento para htmx, página completa si no.
func (d *Deps) showModal(w http.ResponseWriter, r *http.Request, status int, modal render.Modal, notice notify.Notification) {
	data := d.pageData(r, notice)
	data.Modal = modal

	if isHTMX(r) {
		q := d.currentQuery(r)
		data.Listing = render.Listing{Query: q, State: q.Encode()}
		d.write(w, r, status, render.FragmentModal, data)
		return
	}

	q, page := d.currentView(r)
	data.Listing = d.Builder.Listing(q, page, data.Viewer)
	d.write(w, r, status, render.PageLayout, data)
}

// notifyAndReturn muestra un aviso y vuelve al listado sin tocar su estado:
// htmx => cierra el modal y pinta el aviso; si no => flash + redirect.
func (d *Deps) notifyAndReturn(w http.ResponseWriter, r *http.Request, notice notify.Notification) {
	if isHTMX(r) {
		d.showModal(w, r, http.StatusOK, render.Modal{}, notice)
		return
	}
	setFlash(w, notice, d.CookieSecure)
	http.Redirect(w, r, d.currentQuery(r).Href(), http.StatusSeeOther)
}

// redirect: htmx no sigue redirects de página completa, usa HX-Redirect.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set(headerHXRedirect, to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func petIDParam(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "petID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int64(tracing.AttrPetID, id))
	return id, true
}

// findPet busca la mascota para el modal. Si no existe el aviso ya se mostró.
func (d *Deps) findPet(w http.ResponseWriter, r *http.Request) (pets.Pet, bool) {
	id, ok := petIDParam(r)
	if !ok {
		d.notifyAndReturn(w, r, notify.Error(MsgPetNotFound))
		return pets.Pet{}, false
	}

	p, err := d.Listing.Find(r.Context(), middleware.VisitorID(r.Context()), id)
	if err != nil {
		d.Log.Warn("pet lookup failed", map[string]any{"pet_id": id, "error": err.Error()})
		notice := notify.FromError(err)
		if isNotFound(err) {
			notice = notify.Error(MsgPetNotFound)
		}
		d.notifyAndReturn(w, r, notice)
		return pets.Pet{}, false
	}
	return p, true
}

func tokenFrom(ctx context.Context) string {
	return middleware.SessionToken(ctx)
}
