package contactapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/orangeuaswe/portfolio-web/internal/contact"
	"github.com/orangeuaswe/portfolio-web/internal/httpx"
	"github.com/orangeuaswe/portfolio-web/internal/observability"
)

const (
	metricNamespace = "github.com/orangeuaswe/portfolio-web/internal/contactapi"
	// MaxBodyBytes bounds the JSON body accepted by ServeHTTP.
	MaxBodyBytes = 64 << 10
	// StatusAccepted is reported in the receipt of every accepted message.
	StatusAccepted = "accepted"

	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeInvalid  = "invalid_json"
	logPreviewRunes = 200
)

// Receipt acknowledges an accepted message.
type Receipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Inbox receives contact messages on behalf of the site owner. Messages are validated,
// logged and acknowledged; nothing is stored.
type Inbox struct {
	logger   *zap.Logger
	policy   *bluemonday.Policy
	idGen    func() string
	outcomes metric.Int64Counter
	enabled  bool
}

type inboxConfig struct {
	logger *zap.Logger
	meter  metric.Meter
	idGen  func() string
}

// Option customises Inbox construction.
type Option func(*inboxConfig)

// WithLogger sets the logger used when a request carries none.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *inboxConfig) {
		cfg.logger = logger
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *inboxConfig) {
		cfg.meter = m
	}
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *inboxConfig) {
		cfg.idGen = fn
	}
}

// New constructs an Inbox.
func New(opts ...Option) *Inbox {
	var cfg inboxConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.idGen == nil {
		cfg.idGen = func() string { return ulid.Make().String() }
	}

	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	outcomes, err := meter.Int64Counter(
		"contact.inbox.messages",
		metric.WithDescription("Count of contact messages by outcome"),
	)
	if err != nil {
		cfg.logger.Warn("contactapi: unable to register outcome metric", zap.Error(err))
	}

	return &Inbox{
		logger:   cfg.logger,
		policy:   bluemonday.StrictPolicy(),
		idGen:    cfg.idGen,
		outcomes: outcomes,
		enabled:  err == nil,
	}
}

// Send implements contact.Sender for same-origin delivery.
func (i *Inbox) Send(ctx context.Context, msg contact.Message) error {
	_, err := i.Accept(ctx, msg)
	return err
}

// Accept re-validates msg and acknowledges it. Invalid messages return *contact.ValidationError.
func (i *Inbox) Accept(ctx context.Context, msg contact.Message) (Receipt, error) {
	result := contact.Validate(contact.Values{
		Name:    msg.Name,
		Email:   msg.Email,
		Subject: msg.Subject,
		Message: msg.Message,
	})
	if !result.Valid {
		i.record(ctx, outcomeRejected)
		return Receipt{}, &contact.ValidationError{Errors: result.Errors}
	}

	receipt := Receipt{ID: i.idGen(), Status: StatusAccepted}
	i.loggerFor(ctx).Info("contact message received",
		zap.String("message_id", receipt.ID),
		zap.String("from_name", i.clean(msg.Name)),
		zap.String("from_email", i.clean(msg.Email)),
		zap.String("subject", i.clean(msg.Subject)),
		zap.String("preview", preview(i.clean(msg.Message))),
		zap.Int("message_length", len(msg.Message)),
	)
	i.record(ctx, outcomeAccepted)
	return receipt, nil
}

// ServeHTTP handles POST /api/contact.
func (i *Inbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpx.WriteError(ctx, w, httpx.NewError("method_not_allowed", "method not allowed", http.StatusMethodNotAllowed))
		return
	}

	var msg contact.Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&msg); err != nil {
		i.record(ctx, outcomeInvalid)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
			return
		}
		message := "request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			message = "request body is empty"
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_json", message, http.StatusBadRequest))
		return
	}

	receipt, err := i.Accept(ctx, msg)
	if err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			httpx.WriteError(ctx, w, httpx.WithFields(
				httpx.NewError("validation_failed", "one or more fields are invalid", http.StatusUnprocessableEntity),
				verr.Errors,
			))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "unable to accept message", http.StatusInternalServerError))
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, receipt)
}

func (i *Inbox) loggerFor(ctx context.Context) *zap.Logger {
	logger := observability.FromContext(ctx)
	if logger.Core().Enabled(zap.InfoLevel) {
		return logger
	}
	return i.logger
}

func (i *Inbox) record(ctx context.Context, outcome string) {
	if !i.enabled {
		return
	}
	i.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (i *Inbox) clean(value string) string {
	return strings.TrimSpace(i.policy.Sanitize(value))
}

func preview(value string) string {
	runes := []rune(value)
	if len(runes) <= logPreviewRunes {
		return value
	}
	return string(runes[:logPreviewRunes]) + "…"
}
