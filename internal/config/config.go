package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadHeaderTimeout  = 10 * time.Second
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 15 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultEnvironment        = "local"
	defaultLang               = "en"
	defaultTemplatesDir       = "templates"
	defaultPublicDir          = "public"
	defaultNowPlayingInterval = 30 * time.Second
	defaultNowPlayingTimeout  = 5 * time.Second
	defaultContactRatePerMin  = 10
	defaultContactRateBurst   = 3
	defaultLogLevel           = "info"
)

// apiBaseKeys are consulted in order; the first non-empty value wins.
var apiBaseKeys = []string{"PORTFOLIO_API_BASE", "VITE_API_BASE", "REACT_APP_API_BASE"}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Site       SiteConfig
	API        APIConfig
	Contact    ContactConfig
	NowPlaying NowPlayingConfig
	Log        LogConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// SiteConfig controls rendering and asset locations.
type SiteConfig struct {
	Environment  string
	DevMode      bool
	PublicURL    string
	Lang         string
	TemplatesDir string
	PublicDir    string
	// ContentFile overrides the embedded portfolio content when set.
	ContentFile string
}

// APIConfig holds the backend collaborator base URL. Empty means same origin.
type APIConfig struct {
	BaseURL string
}

// ContactConfig tunes contact submission and the inbox endpoint.
type ContactConfig struct {
	// SubmitTimeout bounds each delivery; zero leaves the HTTP client default.
	SubmitTimeout time.Duration
	RatePerMinute int
	RateBurst     int
}

// NowPlayingConfig controls the background status poller.
type NowPlayingConfig struct {
	BaseURL  string
	Interval time.Duration
	Timeout  time.Duration
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
}

// IsProd reports whether the site runs in the production environment.
func (c Config) IsProd() bool {
	return c.Site.Environment == "prod" || c.Site.Environment == "production"
}

// ValidationError is returned when configuration values are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return "config: invalid " + strings.Join(e.fields, ", ")
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load.
type Option func(*sources)

// sources are consulted in order: explicit map, process environment, .env file.
type sources struct {
	envFile   string
	explicit  map[string]string
	systemEnv bool
}

// WithEnvFile points Load at a different .env file. Empty disables the file.
func WithEnvFile(path string) Option {
	return func(s *sources) { s.envFile = path }
}

// WithEnvMap supplies values that win over both the environment and the .env file.
func WithEnvMap(values map[string]string) Option {
	return func(s *sources) { s.explicit = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(s *sources) { s.systemEnv = false }
}

// Load reads configuration from defaults, a .env file, the process environment and
// an optional explicit map, in increasing order of precedence, then validates it.
func Load(opts ...Option) (Config, error) {
	src := sources{envFile: defaultEnvFile, systemEnv: true}
	for _, opt := range opts {
		opt(&src)
	}
	e, err := src.open()
	if err != nil {
		return Config{}, err
	}

	port := e.first([]string{"PORTFOLIO_WEB_PORT", "PORT"}, defaultPort)
	apiBase := normalizeBaseURL(e.first(apiBaseKeys, ""))

	cfg := Config{
		Server: ServerConfig{
			Addr:              e.str("PORTFOLIO_WEB_ADDR", ":"+port),
			ReadHeaderTimeout: e.duration("PORTFOLIO_WEB_READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),
			ReadTimeout:       e.duration("PORTFOLIO_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      e.duration("PORTFOLIO_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       e.duration("PORTFOLIO_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout:   e.duration("PORTFOLIO_WEB_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Site: SiteConfig{
			Environment:  strings.ToLower(e.str("PORTFOLIO_WEB_ENV", defaultEnvironment)),
			DevMode:      e.set("PORTFOLIO_WEB_DEV") || e.set("DEV"),
			PublicURL:    normalizeBaseURL(e.str("PORTFOLIO_WEB_PUBLIC_URL", "")),
			Lang:         e.str("PORTFOLIO_WEB_LANG", defaultLang),
			TemplatesDir: e.str("PORTFOLIO_WEB_TEMPLATES", defaultTemplatesDir),
			PublicDir:    e.str("PORTFOLIO_WEB_PUBLIC", defaultPublicDir),
			ContentFile:  e.str("PORTFOLIO_WEB_CONTENT", ""),
		},
		API: APIConfig{
			BaseURL: apiBase,
		},
		Contact: ContactConfig{
			SubmitTimeout: e.duration("PORTFOLIO_CONTACT_TIMEOUT", 0),
			RatePerMinute: e.integer("PORTFOLIO_CONTACT_RATE_PER_MIN", defaultContactRatePerMin),
			RateBurst:     e.integer("PORTFOLIO_CONTACT_RATE_BURST", defaultContactRateBurst),
		},
		NowPlaying: NowPlayingConfig{
			BaseURL:  normalizeBaseURL(e.str("PORTFOLIO_NOW_PLAYING_BASE", apiBase)),
			Interval: e.duration("PORTFOLIO_NOW_PLAYING_INTERVAL", defaultNowPlayingInterval),
			Timeout:  e.duration("PORTFOLIO_NOW_PLAYING_TIMEOUT", defaultNowPlayingTimeout),
		},
		Log: LogConfig{
			Level: strings.ToLower(e.str("LOG_LEVEL", defaultLogLevel)),
		},
	}

	if tag, err := language.Parse(cfg.Site.Lang); err == nil {
		cfg.Site.Lang = tag.String()
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		invalid = append(invalid, "Server.Addr")
	}
	if _, err := language.Parse(cfg.Site.Lang); err != nil {
		invalid = append(invalid, "Site.Lang")
	}
	if !validBaseURL(cfg.API.BaseURL) {
		invalid = append(invalid, "API.BaseURL")
	}
	if !validBaseURL(cfg.NowPlaying.BaseURL) {
		invalid = append(invalid, "NowPlaying.BaseURL")
	}
	if !validBaseURL(cfg.Site.PublicURL) {
		invalid = append(invalid, "Site.PublicURL")
	}
	if cfg.NowPlaying.Interval <= 0 {
		invalid = append(invalid, "NowPlaying.Interval")
	}
	if cfg.NowPlaying.Timeout <= 0 {
		invalid = append(invalid, "NowPlaying.Timeout")
	}
	if cfg.Contact.SubmitTimeout < 0 {
		invalid = append(invalid, "Contact.SubmitTimeout")
	}
	if cfg.Contact.RatePerMinute <= 0 {
		invalid = append(invalid, "Contact.RatePerMinute")
	}
	if cfg.Contact.RateBurst <= 0 {
		invalid = append(invalid, "Contact.RateBurst")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

// validBaseURL accepts the empty string (same origin) or an absolute http(s) URL.
func validBaseURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// env is the merged view over the configured sources.
type env struct {
	layers []func(string) (string, bool)
}

func (s sources) open() (env, error) {
	var e env
	if s.explicit != nil {
		e.layers = append(e.layers, func(k string) (string, bool) {
			v, ok := s.explicit[k]
			return v, ok
		})
	}
	if s.systemEnv {
		e.layers = append(e.layers, os.LookupEnv)
	}
	dotEnv, err := readDotEnv(s.envFile)
	if err != nil {
		return env{}, err
	}
	if dotEnv != nil {
		e.layers = append(e.layers, func(k string) (string, bool) {
			v, ok := dotEnv[k]
			return v, ok
		})
	}
	return e, nil
}

// lookup returns the trimmed value from the first layer that defines key.
func (e env) lookup(key string) (string, bool) {
	for _, layer := range e.layers {
		if v, ok := layer(key); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func (e env) str(key, fallback string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func (e env) first(keys []string, fallback string) string {
	for _, key := range keys {
		if v, ok := e.lookup(key); ok && v != "" {
			return v
		}
	}
	return fallback
}

func (e env) set(key string) bool {
	v, ok := e.lookup(key)
	return ok && v != ""
}

// duration and integer ignore unparsable values and keep the fallback.
func (e env) duration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return fallback
}

func (e env) integer(key string, fallback int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return fallback
}

// readDotEnv parses KEY=VALUE lines. Blank lines, comments and an "export " prefix
// are allowed; surrounding quotes are stripped. A missing file is not an error.
func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	values := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		values[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return values, nil
}
