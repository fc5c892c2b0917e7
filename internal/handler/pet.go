package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pet-adoption-web/internal/domain/adoption"
	"pet-adoption-web/internal/domain/notify"
	"pet-adoption-web/internal/domain/pets"
	"pet-adoption-web/internal/domain/session"
	"pet-adoption-web/internal/middleware"
	"pet-adoption-web/internal/render"
)

func detailHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := d.findPet(w, r)
		if !ok {
			return
		}
		v := d.viewer(r)
		d.showModal(w, r, http.StatusOK, render.Modal{
			Kind: render.ModalDetail,
			Card: d.Builder.Card(p, v),
		}, notify.Notification{})
	}
}

func adoptFormHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.sessionSupported() {
			d.notifyAndReturn(w, r, d.contactNotice())
			return
		}
		if !session.FromContext(r.Context()).IsAuthenticated() {
			redirect(w, r, d.LoginURL)
			return
		}

		p, ok := d.findPet(w, r)
		if !ok {
			return
		}
		d.showModal(w, r, http.StatusOK, render.Modal{
			Kind: render.ModalAdopt,
			Card: d.Builder.Card(p, d.viewer(r)),
		}, notify.Notification{})
	}
}

func adoptSubmitHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := petIDParam(r)
		if !ok {
			d.notifyAndReturn(w, r, notify.Error(MsgPetNotFound))
			return
		}

		app := adoption.Application{
			PetID:           id,
			Experience:      r.PostFormValue("experience"),
			LivingSituation: r.PostFormValue("living_situation"),
			Reason:          r.PostFormValue("reason"),
		}

		st := session.FromContext(r.Context())
		notice, err := d.Actions.Apply(r.Context(), st, tokenFrom(r.Context()), app)
		switch {
		case errors.Is(err, adoption.ErrLoginRequired):
			redirect(w, r, d.LoginURL)
			return
		case errors.Is(err, adoption.ErrNotSupported):
			d.notifyAndReturn(w, r, d.contactNotice())
			return
		case err != nil:
			d.Log.Warn("adoption application failed", map[string]any{"pet_id": id, "error": err.Error()})
			d.showAdoptFormError(w, r, app, err)
			return
		}

		// Éxito: se cierra el formulario y se dibuja la vista commiteada con el
		// aviso. El listado no se vuelve a pedir, tampoco sin htmx.
		d.showModal(w, r, http.StatusOK, render.Modal{}, notice)
	}
}

// showAdoptFormError vuelve a mostrar el formulario con lo tipeado.
func (d *Deps) showAdoptFormError(w http.ResponseWriter, r *http.Request, app adoption.Application, err error) {
	v := d.viewer(r)
	p, findErr := d.Listing.Find(r.Context(), middleware.VisitorID(r.Context()), app.PetID)
	if findErr != nil {
		p = pets.Pet{ID: app.PetID}
	}

	notice := notify.FromError(err)
	status := http.StatusOK
	var verr *notify.ValidationError
	if !isHTMX(r) && errors.As(err, &verr) {
		status = http.StatusUnprocessableEntity
	}

	d.showModal(w, r, status, render.Modal{
		Kind: render.ModalAdopt,
		Card: d.Builder.Card(p, v),
		Form: render.AdoptForm{
			Experience:      app.Experience,
			LivingSituation: app.LivingSituation,
			Reason:          app.Reason,
		},
		Notice: notice,
	}, notice)
}

func deleteConfirmHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Actions.CanDelete(session.FromContext(r.Context())) {
			d.notifyAndReturn(w, r, notify.FromError(notify.ErrUnauthorizedAction))
			return
		}

		p, ok := d.findPet(w, r)
		if !ok {
			return
		}
		d.showModal(w, r, http.StatusOK, render.Modal{
			Kind: render.ModalConfirm,
			Card: d.Builder.Card(p, d.viewer(r)),
		}, notify.Notification{})
	}
}

type hxLocation struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}

func deleteSubmitHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := petIDParam(r)
		if !ok {
			d.notifyAndReturn(w, r, notify.Error(MsgPetNotFound))
			return
		}

		ctx := r.Context()
		st := session.FromContext(ctx)
		notice, err := d.Actions.Delete(ctx, st, tokenFrom(ctx), id)
		if err != nil {
			d.Log.Warn("delete pet failed", map[string]any{"pet_id": id, "error": err.Error()})
			d.notifyAndReturn(w, r, notify.FromError(err))
			return
		}

		// La vista cacheada ya no vale: se vuelve a cargar la Query vigente.
		target := d.currentQuery(r).Href()
		d.Listing.Forget(middleware.VisitorID(ctx))
		setFlash(w, notice, d.CookieSecure)

		if isHTMX(r) {
			w.Header().Set(headerHXLocation, hxLocationHeader(target))
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// hxLocationHeader serializa sin escapar & (las URLs canónicas lo usan).
func hxLocationHeader(path string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(hxLocation{Path: path, Target: "#listing"})
	return strings.TrimSpace(buf.String())
}

func (d *Deps) contactNotice() notify.Notification {
	return notify.Info("Contact us for adoption: " + d.ContactPhone)
}
