package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/orangeuaswe/portfolio-web/internal/config"
	"github.com/orangeuaswe/portfolio-web/internal/contact"
	"github.com/orangeuaswe/portfolio-web/internal/content"
	"github.com/orangeuaswe/portfolio-web/internal/nowplaying"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []contact.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg contact.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSender) sent() []contact.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contact.Message(nil), s.msgs...)
}

type fetcherFunc func(context.Context) (nowplaying.Status, error)

func (f fetcherFunc) Fetch(ctx context.Context) (nowplaying.Status, error) { return f(ctx) }

// newTestApp builds an app like run() does, with templates reparsed per request.
func newTestApp(t *testing.T, env map[string]string) *app {
	t.Helper()
	values := map[string]string{
		"PORTFOLIO_WEB_TEMPLATES": "../../templates",
		"PORTFOLIO_WEB_PUBLIC":    "../../public",
		"PORTFOLIO_WEB_DEV":       "1",
	}
	for k, v := range env {
		values[k] = v
	}
	cfg, err := config.Load(config.WithoutSystemEnv(), config.WithEnvFile(""), config.WithEnvMap(values))
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	store, err := content.NewStore("", logger)
	require.NoError(t, err)

	a, err := newApp(cfg, logger, store)
	require.NoError(t, err)
	_, err = a.parseTemplates()
	require.NoError(t, err, "templates must parse")
	a.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

// csrfSession loads the home page and returns the issued cookie and form token.
func csrfSession(t *testing.T, h http.Handler) (*http.Cookie, string) {
	t.Helper()
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portfolio_csrf" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "csrf cookie issued")

	token, ok := parseHTML(t, rec).Find(`#contact-form input[name="csrf_token"]`).Attr("value")
	require.True(t, ok)
	require.Equal(t, cookie.Value, token)
	return cookie, token
}

func postContact(t *testing.T, h http.Handler, cookie *http.Cookie, token string, values url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		values.Set("csrf_token", token)
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return do(t, h, req)
}

func validValues() url.Values {
	return url.Values{
		"name":    {"  Ada Lovelace "},
		"email":   {"ada@example.com"},
		"subject": {"Engines"},
		"message": {"I would like to talk about the analytical engine."},
	}
}

func TestHealthzOK(t *testing.T) {
	h := newTestApp(t, nil).routes()
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestHomeRendersSections(t *testing.T) {
	h := newTestApp(t, map[string]string{"PORTFOLIO_WEB_PUBLIC_URL": "https://portfolio.example.com"}).routes()
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, strings.Join(rec.Header().Values("Vary"), ","), "HX-Request")

	doc := parseHTML(t, rec)
	require.Equal(t, "Anirudh Deveram", doc.Find("title").Text())
	lang, _ := doc.Find("html").Attr("lang")
	require.Equal(t, "en", lang)
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	require.Equal(t, "https://portfolio.example.com/", canonical)

	var hrefs []string
	doc.Find(".nav-links a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	require.Equal(t, []string{"#about", "#experience", "#projects", "#contact"}, hrefs)

	for _, id := range []string{"hero", "about", "skills", "experience", "education", "projects", "contact"} {
		require.Equal(t, 1, doc.Find("section#"+id).Length(), "section %s", id)
	}
	require.Equal(t, 4, doc.Find("#projects article.project").Length())
	require.Equal(t, 2, doc.Find("#experience li.experience").Length())
	require.Contains(t, doc.Find("footer").Text(), "2026 Anirudh Deveram")

	scripts := doc.Find(`script[type="application/ld+json"]`)
	require.Equal(t, 2, scripts.Length())
	var person map[string]any
	require.NoError(t, json.Unmarshal([]byte(scripts.First().Text()), &person))
	require.Equal(t, "Person", person["@type"])

	widget := doc.Find("#now-playing")
	require.True(t, widget.HasClass("now-playing-loading"))
	trigger, _ := widget.Attr("hx-trigger")
	require.Equal(t, "load delay:1s", trigger)

	form := doc.Find("#contact-form")
	require.Equal(t, 1, form.Length())
	require.Equal(t, 0, form.Find(".banner").Length())
	require.Equal(t, "Send Message", strings.TrimSpace(form.Find("button .label-idle").Text()))
}

func TestContactRejectsMissingCSRF(t *testing.T) {
	h := newTestApp(t, nil).routes()
	rec := postContact(t, h, nil, "", validValues(), true)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestContactValidationFragment(t *testing.T) {
	a := newTestApp(t, nil)
	sender := &recordingSender{}
	a.sender = sender
	h := a.routes()
	cookie, token := csrfSession(t, h)

	rec := postContact(t, h, cookie, token, url.Values{
		"name":    {"Ada"},
		"email":   {"not-an-email"},
		"subject": {" "},
		"message": {"short"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	require.Equal(t, 0, doc.Find("html body header.site-header").Length(), "fragment only")
	form := doc.Find("#contact-form")
	require.Equal(t, 1, form.Length())

	name, _ := form.Find("input#name").Attr("value")
	require.Equal(t, "Ada", name)
	invalid, _ := form.Find("input#email").Attr("aria-invalid")
	require.Equal(t, "true", invalid)
	require.Equal(t, contact.MsgEmail, form.Find("#email-error").Text())
	require.Equal(t, contact.MsgSubject, form.Find("#subject-error").Text())
	require.Equal(t, contact.MsgMessage, form.Find("#message-error").Text())
	require.Equal(t, 0, form.Find("#name-error").Length())
	require.Empty(t, sender.sent(), "invalid forms never reach the sender")
}

func TestContactValidationFullPage(t *testing.T) {
	a := newTestApp(t, nil)
	a.sender = &recordingSender{}
	h := a.routes()
	cookie, token := csrfSession(t, h)

	values := validValues()
	values.Set("email", "")
	rec := postContact(t, h, cookie, token, values, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	doc := parseHTML(t, rec)
	require.Equal(t, 1, doc.Find("section#about").Length())
	require.Equal(t, contact.MsgEmail, doc.Find("#email-error").Text())
}

func TestContactSuccessClearsForm(t *testing.T) {
	a := newTestApp(t, nil)
	sender := &recordingSender{}
	a.sender = sender
	h := a.routes()
	cookie, token := csrfSession(t, h)

	rec := postContact(t, h, cookie, token, validValues(), true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, contactSentEvent, rec.Header().Get("HX-Trigger"))

	doc := parseHTML(t, rec)
	banner := doc.Find(".banner-success")
	require.Equal(t, 1, banner.Length())
	require.Equal(t, "Message sent successfully!", banner.Find(".banner-title").Text())
	name, _ := doc.Find("input#name").Attr("value")
	require.Empty(t, name)

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Equal(t, contact.Message{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Subject: "Engines",
		Message: "I would like to talk about the analytical engine.",
	}, sent[0])
}

func TestContactDeliveryFailureKeepsValues(t *testing.T) {
	a := newTestApp(t, nil)
	a.sender = &recordingSender{err: errors.New("upstream down")}
	h := a.routes()
	cookie, token := csrfSession(t, h)

	rec := postContact(t, h, cookie, token, validValues(), true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	banner := doc.Find(".banner-error")
	require.Equal(t, 1, banner.Length())
	require.Equal(t, "Something went wrong.", banner.Find(".banner-title").Text())
	mailto, _ := banner.Find("a").Attr("href")
	require.Equal(t, "mailto:anirudhdeveram@gmail.com", mailto)
	subject, _ := doc.Find("input#subject").Attr("value")
	require.Equal(t, "Engines", subject)

	rec = postContact(t, h, cookie, token, validValues(), false)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestContactHoneypot(t *testing.T) {
	a := newTestApp(t, nil)
	sender := &recordingSender{}
	a.sender = sender
	h := a.routes()
	cookie, token := csrfSession(t, h)

	values := validValues()
	values.Set("company", "Spam Inc")
	rec := postContact(t, h, cookie, token, values, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, contact.MsgSpamCheck, parseHTML(t, rec).Find("#message-error").Text())
	require.Empty(t, sender.sent())
}

func TestContactSameOriginInbox(t *testing.T) {
	a := newTestApp(t, nil)
	require.Same(t, a.inbox, a.sender)
	h := a.routes()

	body := `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello there, engine fans."}`
	req := httptest.NewRequest(http.MethodPost, contact.Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, h, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var receipt map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	require.NotEmpty(t, receipt["id"])
}

func TestContactUsesRemoteClientWhenConfigured(t *testing.T) {
	a := newTestApp(t, map[string]string{"PORTFOLIO_API_BASE": "https://api.example.com"})
	client, ok := a.sender.(*contact.Client)
	require.True(t, ok)
	require.Equal(t, "https://api.example.com/api/contact", client.Endpoint())
}

func TestNowPlayingFragmentAndJSON(t *testing.T) {
	a := newTestApp(t, map[string]string{"PORTFOLIO_NOW_PLAYING_INTERVAL": "15s"})
	a.poller = nowplaying.NewPoller(fetcherFunc(func(context.Context) (nowplaying.Status, error) {
		return nowplaying.Status{
			IsPlaying: true,
			Platform:  "spotify",
			Progress:  65_000,
			Track: &nowplaying.Track{
				Name:     "Nights",
				Artists:  []string{"Frank Ocean", ""},
				Album:    "Blonde",
				Duration: 260_000,
			},
		}, nil
	}))
	a.poller.Refresh(context.Background())
	h := a.routes()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/now-playing", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	doc := parseHTML(t, rec)
	widget := doc.Find("#now-playing")
	require.True(t, widget.HasClass("now-playing-playing"))
	trigger, _ := widget.Attr("hx-trigger")
	require.Equal(t, "every 15s", trigger)
	require.Equal(t, "Nights", doc.Find(".now-playing-track").Text())
	require.Equal(t, "by Frank Ocean", doc.Find(".now-playing-artists").Text())
	require.Equal(t, "1:05", doc.Find(".elapsed").Text())
	require.Equal(t, "4:20", doc.Find(".total").Text())
	art, _ := doc.Find(".now-playing-art").Attr("src")
	require.Equal(t, nowplaying.PlaceholderArt, art)
	style, _ := doc.Find(".bar-fill").Attr("style")
	require.Contains(t, style, "25%")

	rec = do(t, h, httptest.NewRequest(http.MethodGet, nowplaying.Path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got nowplaying.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.IsPlaying)
	require.Equal(t, "Nights", got.Track.Name)
}

func TestNowPlayingIdleWithoutSource(t *testing.T) {
	a := newTestApp(t, nil)
	a.poller.Refresh(context.Background())
	h := a.routes()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/now-playing", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	require.True(t, doc.Find("#now-playing").HasClass("now-playing-idle"))
	require.Equal(t, "Not playing", doc.Find(".now-playing-title").Text())
}

func TestAssetsServed(t *testing.T) {
	h := newTestApp(t, nil).routes()
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/assets/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/assets/img/album-placeholder.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshDelay(t *testing.T) {
	t.Parallel()
	require.Equal(t, "30s", refreshDelay(30*time.Second))
	require.Equal(t, "1500ms", refreshDelay(1500*time.Millisecond))
	require.Equal(t, "30s", refreshDelay(0))
}
