package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/orangeuaswe/portfolio-web/internal/config"
	"github.com/orangeuaswe/portfolio-web/internal/contact"
	"github.com/orangeuaswe/portfolio-web/internal/contactapi"
	"github.com/orangeuaswe/portfolio-web/internal/content"
	mw "github.com/orangeuaswe/portfolio-web/internal/middleware"
	"github.com/orangeuaswe/portfolio-web/internal/nowplaying"
	"github.com/orangeuaswe/portfolio-web/internal/observability"
)

const requestTimeout = 30 * time.Second

// app carries the dependencies shared by every handler.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *content.Store
	inbox  *contactapi.Inbox
	sender contact.Sender
	poller *nowplaying.Poller
	now    func() time.Time

	tmplCache *template.Template
}

func newApp(cfg config.Config, logger *zap.Logger, store *content.Store) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		inbox:  contactapi.New(contactapi.WithLogger(logger.Named("contact"))),
		now:    time.Now,
	}

	// An empty API base means the form posts to this server's own inbox.
	if cfg.API.BaseURL == "" {
		a.sender = a.inbox
	} else {
		a.sender = contact.NewClient(cfg.API.BaseURL, contact.WithTimeout(cfg.Contact.SubmitTimeout))
	}

	a.poller = nowplaying.NewPoller(
		nowplaying.NewClient(cfg.NowPlaying.BaseURL, cfg.NowPlaying.Timeout),
		nowplaying.WithInterval(cfg.NowPlaying.Interval),
		nowplaying.WithLogger(logger.Named("nowplaying")),
	)

	if !cfg.Site.DevMode {
		tc, err := a.parseTemplates()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		a.tmplCache = tc
	}
	return a, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; only deploy behind a proxy that overwrites it.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLogger(a.logger))
	r.Use(observability.RequestLogger())
	r.Use(observability.Recovery(a.logger))
	r.Use(mw.HTMX())
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(a.cfg.Site.PublicDir, "assets")))
	r.Handle("/assets/*", assets)

	r.Get(nowplaying.Path, a.nowPlayingJSON)
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(a.cfg.Contact.RatePerMinute, a.cfg.Contact.RateBurst))
		r.Method(http.MethodPost, contact.Path, a.inbox)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF(mw.CSRFConfig{Secure: a.cfg.IsProd()}))
		r.Get("/", a.home)
		r.Get("/now-playing", a.nowPlayingFragment)
		r.With(mw.RateLimit(a.cfg.Contact.RatePerMinute, a.cfg.Contact.RateBurst)).Post("/contact", a.contactSubmit)
	})
	return r
}

func (a *app) parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now": a.now,
		// jsonld marks pre-encoded JSON-LD as safe for a script element.
		"jsonld": func(s string) template.JS { return template.JS(s) },
	}
	dir := a.cfg.Site.TemplatesDir
	var files []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

// templates returns the cached set, reparsing on every call in dev mode.
func (a *app) templates() (*template.Template, error) {
	if a.cfg.Site.DevMode {
		return a.parseTemplates()
	}
	if a.tmplCache == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	return a.tmplCache, nil
}

// render executes the named template into a buffer so template failures become a clean 500.
func (a *app) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, err := a.templates()
	if err != nil {
		observability.FromContext(r.Context()).Error("template parse failed", zap.Error(err))
		http.Error(w, "template parse error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
