package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/orangeuaswe/portfolio-web/internal/contact"
	"github.com/orangeuaswe/portfolio-web/internal/handlers"
	"github.com/orangeuaswe/portfolio-web/internal/httpx"
	mw "github.com/orangeuaswe/portfolio-web/internal/middleware"
	"github.com/orangeuaswe/portfolio-web/internal/nowplaying"
	"github.com/orangeuaswe/portfolio-web/internal/observability"
)

const contactSentEvent = "contact:sent"

// home renders the landing page with an empty contact form.
func (a *app) home(w http.ResponseWriter, r *http.Request) {
	p := a.store.Current()
	form := handlers.NewContactFormView(contact.Snapshot{}, p.Contact.FallbackEmail, mw.CSRFTokenFromContext(r.Context()))
	a.render(w, r, http.StatusOK, "base", a.pageData(form))
}

// contactSubmit runs one form submission. htmx requests get the form partial back,
// plain posts get the whole page with a status matching the outcome.
func (a *app) contactSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_form", "form body could not be parsed", http.StatusBadRequest))
		return
	}

	form := contact.NewForm(a.sender, contact.WithLogger(logger))
	unsubscribe := form.Subscribe(func(s contact.Snapshot) {
		logger.Debug("contact form state",
			zap.String("status", string(s.Status)),
			zap.Int("errors", len(s.Errors)),
		)
	})
	defer unsubscribe()

	for _, f := range contact.Fields {
		if err := form.UpdateField(f, r.PostFormValue(string(f))); err != nil {
			logger.Error("contact form field rejected", zap.String("field", string(f)), zap.Error(err))
			httpx.WriteError(ctx, w, httpx.NewError("invalid_form", "unknown form field", http.StatusBadRequest))
			return
		}
	}

	status := http.StatusOK
	err := form.Submit(ctx)
	var validationErr *contact.ValidationError
	var submissionErr *contact.SubmissionError
	switch {
	case err == nil:
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &submissionErr):
		status = http.StatusBadGateway
	default:
		logger.Error("contact submit failed unexpectedly", zap.Error(err))
		status = http.StatusInternalServerError
	}

	p := a.store.Current()
	view := handlers.NewContactFormView(form.Snapshot(), p.Contact.FallbackEmail, mw.CSRFTokenFromContext(ctx))
	if mw.IsHTMXRequest(ctx) {
		if err == nil {
			mw.TriggerEvent(w, contactSentEvent)
		}
		// htmx skips swapping non-2xx responses by default.
		a.render(w, r, http.StatusOK, "contact_form", view)
		return
	}
	a.render(w, r, status, "base", a.pageData(view))
}

// nowPlayingFragment renders the widget partial polled by htmx.
func (a *app) nowPlayingFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	a.render(w, r, http.StatusOK, "now_playing", a.nowPlayingView())
}

// nowPlayingJSON serves the latest polled status in the collaborator's wire shape.
func (a *app) nowPlayingJSON(w http.ResponseWriter, r *http.Request) {
	s, _ := a.poller.Latest()
	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (a *app) nowPlayingView() nowplaying.View {
	v := nowplaying.NewView(a.poller.Latest())
	v.Refresh = refreshDelay(a.cfg.NowPlaying.Interval)
	return v
}

func (a *app) pageData(form handlers.ContactFormView) handlers.PageData {
	data := handlers.BuildHomeData(a.store.Current(), a.cfg.Site.Lang, a.cfg.Site.PublicURL, form, a.nowPlayingView(), a.now())
	data.DevMode = a.cfg.Site.DevMode
	return data
}

// refreshDelay formats d in htmx trigger syntax.
func refreshDelay(d time.Duration) string {
	if d <= 0 {
		d = 30 * time.Second
	}
	if d%time.Second != 0 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%ds", int64(d/time.Second))
}
