package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pet-adoption-web/internal/platform/logger"
)

const MsgRateLimited = "Too many requests. Please try again later."

type RateLimiterConfig struct {
	Rate            rate.Limit // req/sec por visitante
	Burst           int
	CleanupInterval time.Duration

	// OnLimited se llama por cada request rechazado (métricas).
	OnLimited func()
	Log       logger.Logger

	// Skip deja pasar requests sin consumir tokens (p.ej. logout).
	Skip func(*http.Request) bool
}

// PerMinute convierte acciones por minuto a rate.Limit. <= 0 => sin límite.
func PerMinute(n float64) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Limit(n / 60.0)
}

type visitorLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limita las acciones mutantes (POST) por visitante.
type RateLimiter struct {
	cfg RateLimiterConfig
	log logger.Logger

	mu       sync.Mutex
	limiters map[string]*visitorLimiter
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	rl := &RateLimiter{
		cfg:      cfg,
		log:      log,
		limiters: make(map[string]*visitorLimiter),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware deja pasar los métodos seguros sin consumir tokens.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || (rl.cfg.Skip != nil && rl.cfg.Skip(r)) {
			next.ServeHTTP(w, r)
			return
		}

		key := VisitorID(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		if !rl.limiterFor(key).Allow() {
			if rl.cfg.OnLimited != nil {
				rl.cfg.OnLimited()
			}
			rl.log.Warn("rate limit exceeded", map[string]any{
				"visitor": key,
				"path":    r.URL.Path,
			})
			writeRateLimited(w, rl.cfg.Rate)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Count: entradas vivas (tests).
func (rl *RateLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if vl, ok := rl.limiters[key]; ok {
		vl.lastAccess = rl.now()
		return vl.limiter
	}
	l := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	rl.limiters[key] = &visitorLimiter{limiter: l, lastAccess: rl.now()}
	return l
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup borra visitantes inactivos por más de 2x CleanupInterval.
func (rl *RateLimiter) cleanup() {
	ttl := rl.cfg.CleanupInterval * 2
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, vl := range rl.limiters {
		if now.Sub(vl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

func writeRateLimited(w http.ResponseWriter, limit rate.Limit) {
	retryAfter := 1
	if limit > 0 && limit != rate.Inf {
		retryAfter = int(math.Ceil(1.0 / float64(limit)))
		if retryAfter < 1 {
			retryAfter = 1
		}
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	http.Error(w, MsgRateLimited, http.StatusTooManyRequests)
}
