package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Orígenes del catálogo.
const (
	SourceAPI      = "api"
	SourceMemory   = "memory"
	SourcePostgres = "postgres"
)

var (
	ErrUnknownSource     = errors.New("unknown catalog source")
	ErrMissingBackendURL = errors.New("backend_url is required for the api catalog source")
	ErrMissingDSN        = errors.New("db_dsn is required for the postgres catalog source")
	ErrMissingPort       = errors.New("port is required")
)

type Config struct {
	Port string `mapstructure:"port"`

	BackendURL     string        `mapstructure:"backend_url"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`
	CatalogSource  string        `mapstructure:"catalog_source"`
	DBDSN          string        `mapstructure:"db_dsn"`

	AdminEmail    string `mapstructure:"admin_email"`
	LoginURL      string `mapstructure:"login_url"`
	SessionCookie string `mapstructure:"session_cookie"`
	ContactPhone  string `mapstructure:"contact_phone"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`

	SessionCacheTTL time.Duration `mapstructure:"session_cache_ttl"`
	ViewCacheTTL    time.Duration `mapstructure:"view_cache_ttl"`

	// Acciones POST por minuto por visitante.
	RateLimitActions float64 `mapstructure:"rate_limit_actions"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	AppName   string `mapstructure:"app_name"`

	TracingEnabled  bool   `mapstructure:"tracing_enabled"`
	TracingExporter string `mapstructure:"tracing_exporter"`
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
}

func Defaults() Config {
	return Config{
		Port:             "8080",
		BackendTimeout:   10 * time.Second,
		CatalogSource:    SourceAPI,
		AdminEmail:       "admin@petcenter.com",
		LoginURL:         "/login.html",
		SessionCookie:    "session_id",
		ContactPhone:     "+880 1234-567890",
		SessionCacheTTL:  30 * time.Second,
		ViewCacheTTL:     30 * time.Minute,
		RateLimitActions: 30,
		RateLimitBurst:   5,
		LogLevel:         "info",
		LogFormat:        "text",
		AppName:          "pet-adoption-web",
		TracingExporter:  "stdout",
		OTLPEndpoint:     "localhost:4317",
	}
}

// Load resuelve la config: defaults < archivo YAML (opcional) < env < flags.
// Cada key se lee del env en mayúsculas (backend_url => BACKEND_URL).
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if f := flags.Lookup("port"); f != nil {
			_ = v.BindPFlag("port", f)
		}
		if f := flags.Lookup("catalog"); f != nil {
			_ = v.BindPFlag("catalog_source", f)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("backend_timeout", d.BackendTimeout)
	v.SetDefault("catalog_source", d.CatalogSource)
	v.SetDefault("db_dsn", d.DBDSN)
	v.SetDefault("admin_email", d.AdminEmail)
	v.SetDefault("login_url", d.LoginURL)
	v.SetDefault("session_cookie", d.SessionCookie)
	v.SetDefault("contact_phone", d.ContactPhone)
	v.SetDefault("cookie_secure", d.CookieSecure)
	v.SetDefault("session_cache_ttl", d.SessionCacheTTL)
	v.SetDefault("view_cache_ttl", d.ViewCacheTTL)
	v.SetDefault("rate_limit_actions", d.RateLimitActions)
	v.SetDefault("rate_limit_burst", d.RateLimitBurst)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("app_name", d.AppName)
	v.SetDefault("tracing_enabled", d.TracingEnabled)
	v.SetDefault("tracing_exporter", d.TracingExporter)
	v.SetDefault("otlp_endpoint", d.OTLPEndpoint)
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	c.CatalogSource = strings.ToLower(strings.TrimSpace(c.CatalogSource))
	c.AdminEmail = strings.TrimSpace(c.AdminEmail)
	c.SessionCookie = strings.TrimSpace(c.SessionCookie)
}

func (c Config) Validate() error {
	if c.Port == "" {
		return ErrMissingPort
	}
	switch c.CatalogSource {
	case SourceAPI:
		if c.BackendURL == "" {
			return ErrMissingBackendURL
		}
	case SourcePostgres:
		if c.DBDSN == "" {
			return ErrMissingDSN
		}
	case SourceMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.CatalogSource)
	}
	return nil
}

// HasBackend: hay API REST para sesión y acciones.
func (c Config) HasBackend() bool { return c.BackendURL != "" }

func (c Config) Addr() string { return ":" + c.Port }
