package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/orangeuaswe/portfolio-web/internal/httpx"
	"github.com/orangeuaswe/portfolio-web/internal/observability"
)

type csrfKey struct{}

const csrfTokenBytes = 32

// CSRFConfig names the cookie, header and form field used for the double-submit check.
// Zero values take the defaults applied in CSRF.
type CSRFConfig struct {
	CookieName string
	CookiePath string
	HeaderName string
	FormField  string
	MaxAge     time.Duration
	Secure     bool
}

func (c CSRFConfig) withDefaults() CSRFConfig {
	if c.CookieName == "" {
		c.CookieName = "portfolio_csrf"
	}
	if c.CookiePath == "" {
		c.CookiePath = "/"
	}
	if c.HeaderName == "" {
		c.HeaderName = "X-CSRF-Token"
	}
	if c.FormField == "" {
		c.FormField = "csrf_token"
	}
	if c.MaxAge == 0 {
		c.MaxAge = 24 * time.Hour
	}
	return c
}

// CSRF protects the contact form with a double-submit cookie. Every request gets a token
// (issued on first visit); unsafe methods must echo it in the header or the form field.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.token(w, r)
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("csrf_error", "csrf token error", http.StatusInternalServerError))
				return
			}
			if !safeMethod(r.Method) && !cfg.submitted(r, token) {
				observability.FromContext(r.Context()).Warn("csrf check failed")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
		})
	}
}

// CSRFTokenFromContext returns the token to embed in the rendered form.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// token returns the cookie token, minting and setting a fresh one when absent.
func (c CSRFConfig) token(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(c.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     c.CookieName,
		Value:    token,
		Path:     c.CookiePath,
		MaxAge:   int(c.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

func (c CSRFConfig) submitted(r *http.Request, token string) bool {
	got := r.Header.Get(c.HeaderName)
	if got == "" {
		got = r.PostFormValue(c.FormField)
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
