package handler

import (
	"net/http"

	"pet-adoption-web/internal/middleware"
)

// logoutHandler: el logout del backend es fire-and-forget; la UI vuelve a
// anónimo pase lo que pase.
func logoutHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.SessionToken(r.Context())
		if d.Gate != nil {
			d.Gate.Logout(r.Context(), token)
		}
		if d.SessionCookie != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     d.SessionCookie,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				Secure:   d.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		redirect(w, r, "/")
	}
}
