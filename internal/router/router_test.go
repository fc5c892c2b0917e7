package router_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"pet-adoption-web/internal/adapters/storage/memory"
	"pet-adoption-web/internal/config"
	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/pets"
	"pet-adoption-web/internal/domain/session"
	"pet-adoption-web/internal/middleware"
	"pet-adoption-web/internal/router"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

var seededAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// apiServer imita el backend REST (/api/*).
type apiServer struct {
	mu      sync.Mutex
	deleted map[int64]bool
	applied []int64
	logouts int
}

func newAPIServer(t *testing.T) (*apiServer, *httptest.Server) {
	t.Helper()
	api := &apiServer{deleted: map[int64]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pets", api.listPets)
	mux.HandleFunc("GET /api/user", api.currentUser)
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.logouts++
		api.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	})
	mux.HandleFunc("POST /api/apply", api.apply)
	mux.HandleFunc("POST /api/delete-pet", api.deletePet)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *apiServer) alive() []pets.Pet {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []pets.Pet
	for _, p := range memory.StaticPets(seededAt) {
		if !a.deleted[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func (a *apiServer) listPets(w http.ResponseWriter, r *http.Request) {
	page := listing.Apply(a.alive(), listing.ParseQuery(r.URL.Query()))
	dtos := make([]map[string]any, 0, len(page.Pets))
	for _, p := range page.Pets {
		dtos = append(dtos, map[string]any{
			"id":         p.ID,
			"name":       p.Name,
			"breed":      p.Breed,
			"age":        p.Age,
			"species":    string(p.Species),
			"image":      p.Image,
			"bio":        p.Bio,
			"status":     p.Status,
			"location":   p.Location,
			"price":      p.Price,
			"created_at": p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pets":        dtos,
		"total":       page.Total,
		"page":        page.Page,
		"total_pages": page.TotalPages,
	})
}

func (a *apiServer) currentUser(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("session_id")
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not logged in"})
		return
	}
	switch c.Value {
	case adminToken:
		writeJSON(w, http.StatusOK, map[string]string{"name": "Admin", "email": session.DefaultAdminEmail})
	case userToken:
		writeJSON(w, http.StatusOK, map[string]string{"name": "Ana", "email": "ana@example.com"})
	default:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not logged in"})
	}
}

func (a *apiServer) apply(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PetID int64 `json:"pet_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	a.mu.Lock()
	a.applied = append(a.applied, in.PetID)
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Application submitted"})
}

func (a *apiServer) deletePet(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("session_id")
	if err != nil || c.Value != adminToken {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
		return
	}
	var in struct {
		PetID int64 `json:"pet_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	a.mu.Lock()
	a.deleted[in.PetID] = true
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pet deleted successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// browser es un cliente con cookie jar, como un navegador.
type browser struct {
	t      *testing.T
	base   *url.URL
	client *http.Client
}

func newBrowser(t *testing.T, baseURL string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(baseURL)
	require.NoError(t, err)
	return &browser{t: t, base: u, client: &http.Client{Jar: jar}}
}

func (b *browser) login(token string) {
	b.client.Jar.SetCookies(b.base, []*http.Cookie{{Name: "session_id", Value: token, Path: "/"}})
}

func (b *browser) cookie(name string) string {
	for _, c := range b.client.Jar.Cookies(b.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (b *browser) get(path string, htmx bool) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base.String()+path, nil)
	require.NoError(b.t, err)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values, htmx bool) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base.String()+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set(middleware.CSRFHeader, b.cookie(middleware.CSRFCookie))
	}
	return b.do(req)
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(b.t, err)
	return res, string(body)
}

func newServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	rt, err := router.NewRouter(router.Options{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		Now:      func() time.Time { return seededAt },
	})
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	srv := httptest.NewServer(rt)
	t.Cleanup(srv.Close)
	return srv
}

func apiConfig(backendURL string) config.Config {
	cfg := config.Defaults()
	cfg.BackendURL = backendURL
	cfg.CatalogSource = config.SourceAPI
	return cfg
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	cfg := config.Defaults()
	cfg.CatalogSource = config.SourceMemory
	srv := newServer(t, cfg)

	b := newBrowser(t, srv.URL)
	res, body := b.get("/health", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", body)

	b.get("/", false)
	res, body = b.get("/metrics", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "petweb_http_requests_total")
}

func TestRouter_StaticAssets(t *testing.T) {
	cfg := config.Defaults()
	cfg.CatalogSource = config.SourceMemory
	srv := newServer(t, cfg)

	res, body := newBrowser(t, srv.URL).get("/static/app.js", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "htmx:configRequest")
}

func TestRouter_MemoryCatalogShowsContact(t *testing.T) {
	cfg := config.Defaults()
	cfg.CatalogSource = config.SourceMemory
	srv := newServer(t, cfg)

	b := newBrowser(t, srv.URL)
	res, body := b.get("/", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "6 ads found")
	require.Contains(t, body, "Contact for Adoption")
	require.NotEmpty(t, b.cookie(middleware.VisitorCookie))
	require.NotEmpty(t, b.cookie(middleware.CSRFCookie))
	require.Equal(t, "nosniff", res.Header.Get("X-Content-Type-Options"))
}

func TestRouter_SearchFlowAgainstBackend(t *testing.T) {
	_, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.get("/", false)

	res, body := b.get("/search?search=zzz-no-match", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/?page=1&sort=newest&search=zzz-no-match", res.Header.Get("HX-Push-Url"))
	require.Contains(t, body, "No pets found")
}

func TestRouter_AdoptRequiresLogin(t *testing.T) {
	_, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.get("/", false)

	res, _ := b.get("/pets/1/adopt", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/login.html", res.Header.Get("HX-Redirect"))
}

func TestRouter_AdoptSubmitsToBackend(t *testing.T) {
	state, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.login(userToken)
	b.get("/", false)

	res, body := b.post("/pets/1/adopt", url.Values{
		"experience":       {"Two dogs before"},
		"living_situation": {"House with a yard"},
		"reason":           {"Company"},
	}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Application submitted")

	state.mu.Lock()
	defer state.mu.Unlock()
	require.Equal(t, []int64{1}, state.applied)
}

func TestRouter_AdminDeleteRefreshesListing(t *testing.T) {
	state, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.login(adminToken)

	_, body := b.get("/", false)
	require.Contains(t, body, `data-pet-id="1"`)
	require.Contains(t, body, "6 ads found")

	// Sin htmx: campo csrf_token, 303 y el cliente sigue al listado.
	res, body := b.post("/pets/1/delete", url.Values{
		middleware.CSRFFormField: {b.cookie(middleware.CSRFCookie)},
	}, false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotContains(t, body, `data-pet-id="1"`)
	require.Contains(t, body, "5 ads found")
	require.Contains(t, body, "Pet deleted successfully")

	state.mu.Lock()
	defer state.mu.Unlock()
	require.True(t, state.deleted[1])
}

func TestRouter_NonAdminCannotDelete(t *testing.T) {
	state, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.login(userToken)
	b.get("/", false)

	res, _ := b.post("/pets/1/delete", url.Values{}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	state.mu.Lock()
	defer state.mu.Unlock()
	require.Empty(t, state.deleted)
}

func TestRouter_LogoutClearsSession(t *testing.T) {
	state, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.login(userToken)
	b.get("/", false)

	res, _ := b.post("/logout", url.Values{
		middleware.CSRFFormField: {b.cookie(middleware.CSRFCookie)},
	}, false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, b.cookie("session_id"))

	require.Eventually(t, func() bool {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.logouts == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRouter_RateLimitsActions(t *testing.T) {
	_, api := newAPIServer(t)
	cfg := apiConfig(api.URL)
	cfg.RateLimitActions = 1
	cfg.RateLimitBurst = 1
	srv := newServer(t, cfg)

	b := newBrowser(t, srv.URL)
	b.get("/", false)

	res, _ := b.post("/pets/1/adopt", url.Values{}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = b.post("/pets/1/adopt", url.Values{}, true)
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("Retry-After"))
}

func TestNewRouter_RejectsBadSources(t *testing.T) {
	cfg := config.Defaults()
	cfg.CatalogSource = config.SourcePostgres
	_, err := router.NewRouter(router.Options{Config: cfg})
	require.ErrorIs(t, err, router.ErrDatabaseRequired)

	cfg.CatalogSource = config.SourceAPI
	_, err = router.NewRouter(router.Options{Config: cfg})
	require.ErrorIs(t, err, config.ErrMissingBackendURL)

	cfg.CatalogSource = "carrier-pigeon"
	_, err = router.NewRouter(router.Options{Config: cfg})
	require.ErrorIs(t, err, config.ErrUnknownSource)
}

func TestRouter_LogoutWorksAfterRateLimit(t *testing.T) {
	state, api := newAPIServer(t)
	cfg := apiConfig(api.URL)
	cfg.RateLimitActions = 1
	cfg.RateLimitBurst = 2
	srv := newServer(t, cfg)

	b := newBrowser(t, srv.URL)
	b.login(userToken)
	b.get("/", false)

	var res *http.Response
	for i := 0; i < 3; i++ {
		res, _ = b.post("/pets/1/adopt", url.Values{}, true)
	}
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)

	res, _ = b.post("/logout", url.Values{}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/", res.Header.Get("HX-Redirect"))
	require.Empty(t, b.cookie("session_id"))

	require.Eventually(t, func() bool {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.logouts == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRouter_LogoutWithoutCSRFCookie(t *testing.T) {
	_, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.login(userToken)
	b.get("/", false)
	stale := b.cookie(middleware.CSRFCookie)
	require.NotEmpty(t, stale)

	// La cookie CSRF venció mientras la página seguía abierta.
	b.client.Jar.SetCookies(b.base, []*http.Cookie{{Name: middleware.CSRFCookie, Value: "", Path: "/", MaxAge: -1}})
	require.Empty(t, b.cookie(middleware.CSRFCookie))

	res, body := b.post("/logout", url.Values{middleware.CSRFFormField: {stale}}, false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/", res.Request.URL.Path)
	require.NotContains(t, body, "CSRF token validation failed")
	require.Empty(t, b.cookie("session_id"))
}

func TestRouter_OtherActionsStillRequireCSRF(t *testing.T) {
	_, api := newAPIServer(t)
	srv := newServer(t, apiConfig(api.URL))

	b := newBrowser(t, srv.URL)
	b.login(adminToken)
	b.get("/", false)

	res, _ := b.post("/pets/1/delete", url.Values{}, false)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
}

