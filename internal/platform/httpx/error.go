// Package httpx renders failed requests for the two kinds of client the service has:
// browsers (and htmx) get a short plain-text body, everything else a JSON envelope.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/pdp/internal/platform/requestctx"
)

const (
	codeLimit    = 80
	messageLimit = 512
)

// Error is a client-facing failure.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError builds an Error. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: clip(code, codeLimit), Message: clip(message, messageLimit), Status: status}
}

func NotFound(message string) Error {
	return NewError("not_found", message, http.StatusNotFound)
}

func BadRequest(message string) Error {
	return NewError("invalid_request", message, http.StatusBadRequest)
}

func Conflict(message string) Error {
	return NewError("conflict", message, http.StatusConflict)
}

func Unavailable(message string) Error {
	return NewError("unavailable", message, http.StatusServiceUnavailable)
}

// Internal hides the cause from the client.
func Internal() Error {
	return NewError("internal_error", "internal server error", http.StatusInternalServerError)
}

type envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteError writes err as a JSON envelope tagged with the request and trace ids found on ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	body := envelope{
		Error:     err.Code,
		Message:   err.Message,
		Status:    err.Status,
		RequestID: clip(middleware.GetReqID(ctx), codeLimit),
		TraceID:   clip(requestctx.TraceID(ctx), 64),
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(body)
}

// Respond picks the representation of err from the request: plain text for browsers, JSON otherwise.
func Respond(w http.ResponseWriter, r *http.Request, err Error) {
	if WantsHTML(r) {
		if err.Status == 0 {
			err.Status = http.StatusInternalServerError
		}
		http.Error(w, err.Message, err.Status)
		return
	}
	WriteError(r.Context(), w, err)
}

// WantsHTML reports whether the request comes from a browser page or htmx rather than an API caller.
func WantsHTML(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.Header.Get("HX-Request") != "" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// clip flattens line breaks and bounds the length of values echoed back to clients.
func clip(value string, limit int) string {
	value = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
