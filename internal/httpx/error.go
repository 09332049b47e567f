package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxCodeLen    = 80
	maxMessageLen = 512
)

// Error is the JSON body written by the API routes when a request fails.
type Error struct {
	Code      string            `json:"error"`
	Message   string            `json:"message"`
	Status    int               `json:"status"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// NewError builds an envelope. Status 0 means 500. Code and message are flattened
// to one line and clipped.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    oneLine(code, maxCodeLen),
		Message: oneLine(message, maxMessageLen),
		Status:  status,
	}
}

// WithFields attaches per-field validation messages.
func WithFields[K ~string](e Error, fields map[K]string) Error {
	if len(fields) == 0 {
		return e
	}
	e.Fields = make(map[string]string, len(fields))
	for k, v := range fields {
		e.Fields[string(k)] = v
	}
	return e
}

// WriteError writes e, taking the request id from ctx when e has none.
func WriteError(ctx context.Context, w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	if e.RequestID == "" {
		e.RequestID = oneLine(middleware.GetReqID(ctx), maxCodeLen)
	}
	WriteJSON(w, e.Status, e)
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func oneLine(s string, limit int) string {
	s = strings.TrimSpace(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r'
	}), " "))
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
