package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"pet-adoption-web/internal/domain/notify"
)

const flashCookie = "flash"

// setFlash guarda un aviso para el próximo render (redirect-after-post).
func setFlash(w http.ResponseWriter, n notify.Notification, secure bool) {
	if n.Empty() {
		return
	}
	raw := string(n.Kind) + "\n" + n.Text
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(raw)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash lee y borra el aviso pendiente. Cookie inválida => sin aviso.
func takeFlash(w http.ResponseWriter, r *http.Request) notify.Notification {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return notify.Notification{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return notify.Notification{}
	}
	kind, text, ok := strings.Cut(string(b), "\n")
	if !ok || text == "" {
		return notify.Notification{}
	}
	switch notify.Kind(kind) {
	case notify.KindSuccess, notify.KindError, notify.KindInfo:
		return notify.Notification{Kind: notify.Kind(kind), Text: text}
	}
	return notify.Notification{}
}
