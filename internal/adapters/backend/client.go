package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pet-adoption-web/internal/domain/adoption"
	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/notify"
	"pet-adoption-web/internal/domain/pets"
	"pet-adoption-web/internal/domain/session"
	"pet-adoption-web/internal/platform/httpclient"
	"pet-adoption-web/internal/platform/tracing"
)

var ErrBackendNotConfigured = errors.New("backend client not configured")

const (
	DefaultSessionCookie = "session_id"

	// El backend no tiene endpoint por id: Get recorre páginas hasta este tope.
	defaultMaxScanPages = 20
)

// Config del cliente del backend REST.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	SessionCookie string
	Tracer        trace.Tracer
}

// Client habla con /api/*. Implementa listing.Source, session.Prober,
// adoption.Submitter y adoption.Deleter.
type Client struct {
	http         *httpclient.Client
	cookieName   string
	maxScanPages int
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBackendNotConfigured
	}
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	if cfg.Tracer != nil {
		hc.Tracer = cfg.Tracer
	}
	return newClient(hc, cfg.SessionCookie), nil
}

func newClient(hc *httpclient.Client, cookieName string) *Client {
	cookieName = strings.TrimSpace(cookieName)
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return &Client{
		http:         hc,
		cookieName:   cookieName,
		maxScanPages: defaultMaxScanPages,
	}
}

// -------------------------
// Listing
// -------------------------

type petDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Breed     string  `json:"breed"`
	Age       float64 `json:"age"`
	Species   string  `json:"species"`
	Image     string  `json:"image"`
	Bio       string  `json:"bio"`
	Status    string  `json:"status"`
	Location  string  `json:"location"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"created_at"`
}

type listResponse struct {
	Pets       []petDTO `json:"pets"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
}

// List hace GET /api/pets?{query canónica}. No manda cookie: el listado es público.
func (c *Client) List(ctx context.Context, q listing.Query) (listing.Page, error) {
	encoded := q.Encode()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(tracing.AttrQuery, encoded))

	var out listResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, "/api/pets?"+encoded, nil, nil, &out); err != nil {
		return listing.Page{}, fmt.Errorf("list pets: %w", mapError(err))
	}

	page := listing.Page{
		Pets:       make([]pets.Pet, 0, len(out.Pets)),
		Total:      out.Total,
		Page:       out.Page,
		TotalPages: out.TotalPages,
	}
	for _, dto := range out.Pets {
		page.Pets = append(page.Pets, dto.toPet())
	}
	return page, nil
}

// Get busca la mascota recorriendo el listado por defecto.
func (c *Client) Get(ctx context.Context, id int64) (pets.Pet, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64(tracing.AttrPetID, id))

	q := listing.NewQuery()
	for i := 1; i <= c.maxScanPages; i++ {
		q = listing.Reduce(q, listing.GoToPage{Page: i})
		page, err := c.List(ctx, q)
		if err != nil {
			return pets.Pet{}, err
		}
		if p, ok := page.Find(id); ok {
			return p, nil
		}
		if i >= page.TotalPages {
			break
		}
	}
	return pets.Pet{}, listing.ErrPetNotFound
}

func (d petDTO) toPet() pets.Pet {
	return pets.Pet{
		ID:        d.ID,
		Name:      d.Name,
		Species:   pets.Species(d.Species),
		Breed:     d.Breed,
		Age:       d.Age,
		Price:     int64(d.Price),
		Bio:       d.Bio,
		Image:     d.Image,
		Location:  d.Location,
		Status:    d.Status,
		CreatedAt: parseTimestamp(d.CreatedAt),
	}
}

// Formatos que devuelve el backend (sqlite CURRENT_TIMESTAMP / datetime.now()).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// -------------------------
// Session
// -------------------------

type userResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CurrentUser hace GET /api/user con la cookie de sesión del visitante.
func (c *Client) CurrentUser(ctx context.Context, token string) (session.Identity, error) {
	var out userResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/api/user", c.cookieHeader(token), nil, &out)
	if err != nil {
		var herr *httpclient.HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusUnauthorized {
			return session.Identity{}, session.ErrUnauthenticated
		}
		return session.Identity{}, fmt.Errorf("current user: %w", mapError(err))
	}
	return session.Identity{Name: out.Name, Email: out.Email}, nil
}

// Logout hace POST /api/logout. El resultado se ignora río arriba.
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.http.DoJSON(ctx, http.MethodPost, "/api/logout", c.cookieHeader(token), nil, nil); err != nil {
		return fmt.Errorf("logout: %w", mapError(err))
	}
	return nil
}

// -------------------------
// Actions
// -------------------------

type applyRequest struct {
	PetID           int64  `json:"pet_id"`
	Experience      string `json:"experience"`
	LivingSituation string `json:"living_situation"`
	Reason          string `json:"reason"`
}

type deleteRequest struct {
	PetID int64 `json:"pet_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *Client) Apply(ctx context.Context, token string, a adoption.Application) (string, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64(tracing.AttrPetID, a.PetID))

	in := applyRequest{
		PetID:           a.PetID,
		Experience:      a.Experience,
		LivingSituation: a.LivingSituation,
		Reason:          a.Reason,
	}
	var out messageResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/api/apply", c.cookieHeader(token), in, &out); err != nil {
		return "", fmt.Errorf("apply: %w", mapError(err))
	}
	return out.Message, nil
}

func (c *Client) DeletePet(ctx context.Context, token string, petID int64) (string, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64(tracing.AttrPetID, petID))

	var out messageResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/api/delete-pet", c.cookieHeader(token), deleteRequest{PetID: petID}, &out)
	if err != nil {
		return "", fmt.Errorf("delete pet: %w", mapError(err))
	}
	return out.Message, nil
}

func (c *Client) cookieHeader(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Cookie": (&http.Cookie{Name: c.cookieName, Value: token}).String()}
}

// mapError traduce errores de transporte/HTTP a la taxonomía de notify.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var herr *httpclient.HTTPError
	if errors.As(err, &herr) {
		return &notify.ServerError{Status: herr.StatusCode, Message: errorMessage(herr.Body)}
	}
	if errors.Is(err, httpclient.ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", notify.ErrNetwork, err)
	}
	return err
}

// errorMessage extrae {"error": "..."}; cuerpo no-JSON => sin mensaje.
func errorMessage(body string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
