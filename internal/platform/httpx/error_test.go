package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanko-field/pdp/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := requestctx.WithTrace(context.Background(), requestctx.TraceInfo{TraceID: "abc123"})
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, NotFound("product\nmissing"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "not_found", payload["error"])
	require.Equal(t, "product missing", payload["message"])
	require.Equal(t, "abc123", payload["trace_id"])
	require.EqualValues(t, 404, payload["status"])
	require.NotContains(t, payload, "request_id")
}

func TestNewErrorDefaultsStatus(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, NewError("x", "y", 0).Status)
	require.Equal(t, "conflict: gone", Conflict("gone").Error())
}

func TestRespondNegotiates(t *testing.T) {
	browser := httptest.NewRequest(http.MethodGet, "/products/x", nil)
	browser.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	Respond(rec, browser, Unavailable("try again"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	require.Equal(t, "try again\n", rec.Body.String())

	api := httptest.NewRequest(http.MethodGet, "/products/x", nil)
	rec = httptest.NewRecorder()
	Respond(rec, api, Internal())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"internal_error"`)
}

func TestWantsHTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.False(t, WantsHTML(req))
	req.Header.Set("HX-Request", "true")
	require.True(t, WantsHTML(req))
	require.False(t, WantsHTML(nil))
}
