package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Nombres de fragmentos que los handlers devuelven a htmx.
const (
	PageLayout       = "layout"
	FragmentListing  = "listing_fragment"
	FragmentModal    = "modal_fragment"
	ContentTypeHTML  = "text/html; charset=utf-8"
	htmxScriptSource = "https://unpkg.com/htmx.org@2.0.4"
)

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"htmx": func() string { return htmxScriptSource },
	}
	t, err := template.New("_root").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Page renderiza el documento completo.
func (r *Renderer) Page(w http.ResponseWriter, status int, data PageData) error {
	return r.Fragment(w, status, PageLayout, data)
}

// Fragment ejecuta en un buffer primero: un error de template no deja una
// respuesta a medias.
func (r *Renderer) Fragment(w http.ResponseWriter, status int, name string, data PageData) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", ContentTypeHTML)
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static sirve app.js y style.css embebidos.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
