package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"

	"pet-adoption-web/internal/platform/logger"
)

const (
	CSRFCookie    = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"
	csrfMaxAge    = 86400
)

var errCSRFMismatch = errors.New("csrf token mismatch")

type CSRFConfig struct {
	CookieSecure bool
	Log          logger.Logger

	// Exempt: rutas no seguras que no exigen token. Igual reciben la cookie.
	Exempt func(*http.Request) bool
}

// CSRF implementa double-submit cookie. GET/HEAD/OPTIONS emiten la cookie si
// falta; el resto exige el mismo valor en X-CSRF-Token (htmx) o en el campo
// csrf_token del formulario.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				token, err := ensureCSRFCookie(w, r, cfg.CookieSecure)
				if err != nil {
					log.Error("generate csrf token", map[string]any{"error": err.Error()})
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithCSRFToken(r.Context(), token)))
				return
			}

			if cfg.Exempt != nil && cfg.Exempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := verifyCSRF(r)
			if err != nil {
				log.Warn("csrf validation failed", map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
					"error":  err.Error(),
				})
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCSRFToken(r.Context(), token)))
		})
	}
}

func verifyCSRF(r *http.Request) (string, error) {
	c, err := r.Cookie(CSRFCookie)
	if err != nil || c.Value == "" {
		return "", errors.New("missing csrf cookie")
	}

	sent := r.Header.Get(CSRFHeader)
	if sent == "" {
		sent = r.PostFormValue(CSRFFormField)
	}
	if sent == "" {
		return "", errors.New("missing csrf token")
	}
	if subtle.ConstantTimeCompare([]byte(sent), []byte(c.Value)) != 1 {
		return "", errCSRFMismatch
	}
	return c.Value, nil
}

// SkipPaths matchea requests por path exacto.
func SkipPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, secure bool) (string, error) {
	if c, err := r.Cookie(CSRFCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	token, err := generateCSRFToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfMaxAge,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
