package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Path is the collaborator endpoint, relative to the configured base URL.
const Path = "/api/contact"

// Message is the JSON body delivered to the contact endpoint.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Sender delivers a validated contact message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts ordinary functions to Sender.
type SenderFunc func(context.Context, Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// HTTPStatusError reports a non-2xx response from the contact endpoint.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("contact: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("contact: HTTP %d: %s", e.StatusCode, e.Body)
}

var tracer = otel.Tracer("github.com/orangeuaswe/portfolio-web/internal/contact")

// Client posts contact messages to {baseURL}/api/contact.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero keeps the HTTP client's default (no timeout).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			clone := *c.http
			clone.Timeout = d
			c.http = &clone
		}
	}
}

// NewClient builds a client for the given base URL. An empty base yields relative
// request URLs, which only resolve through a transport that understands them; servers
// should wire an in-process Sender for same-origin delivery instead.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the absolute URL messages are posted to.
func (c *Client) Endpoint() string {
	return c.baseURL + Path
}

// Send posts msg as JSON. Any non-2xx response is returned as *HTTPStatusError.
func (c *Client) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "contact.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := c.post(ctx, msg, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) post(ctx context.Context, msg Message, span trace.Span) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: drainError(resp.Body)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
