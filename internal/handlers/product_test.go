package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanko-field/pdp/internal/catalog"
	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/middleware"
	"github.com/hanko-field/pdp/internal/services"
	"github.com/hanko-field/pdp/internal/storage"
	"github.com/hanko-field/pdp/internal/testutil"
	"github.com/hanko-field/pdp/internal/web"
)

type testServer struct {
	handler http.Handler
	store   *storage.Memory
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	products, err := catalog.Load(context.Background(), "")
	require.NoError(t, err)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	store := storage.NewMemory()
	registry := services.NewPageRegistry(products, func(string) storage.Store { return store })
	t.Cleanup(func() { registry.Close(context.Background()) })

	product := NewProductHandlers(registry, renderer, WithStreamHeartbeat(time.Hour))
	router := NewRouter(
		WithMiddlewares(middleware.HTMX()),
		WithPageRoutes(product.Routes),
		WithStreamRoutes(product.StreamRoutes),
	)
	return testServer{handler: router, store: store}
}

func (s testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func eventRequest(values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/products/silk-kurta/events", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestProductPageRenders(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/products/silk-kurta", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "Handwoven Silk Kurta", doc.Find("h1").Text())
	require.Equal(t, "Royal Blue", doc.Find("#selectedColor").Text())
	require.Equal(t, "/products/silk-kurta/events", testutil.Attr(t, doc, "main", "data-events"))
	require.Equal(t, "/products/silk-kurta/events", testutil.Attr(t, doc, `[data-color="Maroon"]`, "hx-post"))
}

func TestProductPageNotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	req.Header.Set("Accept", "application/json")
	rec := srv.do(t, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "not_found", body["error"])

	req = httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	req.Header.Set("Accept", "text/html")
	rec = srv.do(t, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "product not found")
}

func TestEventReturnsFragment(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, eventRequest(url.Values{"type": {"click"}, "target": {"color:Maroon"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<html")

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "Maroon", doc.Find("#selectedColor").Text())
	require.Contains(t, doc.Find("#liveRegion").Text(), "Selected color: Maroon")

	// The page session survives across requests and the choice was persisted.
	page := testutil.ParseHTML(t, srv.do(t, httptest.NewRequest(http.MethodGet, "/products/silk-kurta", nil)).Body.Bytes())
	require.Equal(t, "Maroon", page.Find("#selectedColor").Text())
	raw, err := srv.store.GetItem(context.Background(), domain.PreferencesKey)
	require.NoError(t, err)
	require.Contains(t, raw, `"selectedColor":"Maroon"`)
}

func TestEventTargetFallsBackToTriggerName(t *testing.T) {
	srv := newTestServer(t)

	req := eventRequest(url.Values{"type": {"click"}}, true)
	req.Header.Set("HX-Trigger-Name", "action:increase")
	rec := srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "2", testutil.Attr(t, doc, "#quantity", "value"))
}

func TestEventKeyboardAndPointer(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, eventRequest(url.Values{"type": {"keydown"}, "target": {"size:M"}, "key": {"End"}}, true))
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "size:XXL", testutil.Attr(t, doc, "#pdp", "data-focus"))
	require.Equal(t, "0", testutil.Attr(t, doc, `[data-size="XXL"]`, "tabindex"))
	require.Equal(t, "Medium", doc.Find("#selectedSize").Text())

	rec = srv.do(t, eventRequest(url.Values{
		"type": {"pointermove"}, "target": {"#mainImage"},
		"clientX": {"50"}, "clientY": {"30"},
		"rectLeft": {"0"}, "rectTop": {"0"}, "rectWidth": {"100"}, "rectHeight": {"120"},
	}, true))
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Contains(t, testutil.Attr(t, doc, "#mainImage", "style"), "50% 25%")
}

func TestBeaconEventSavesWithoutBody(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, eventRequest(url.Values{"type": {"visibilitychange"}, "value": {"hidden"}}, false))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())

	_, err := srv.store.GetItem(context.Background(), domain.PreferencesKey)
	require.NoError(t, err)
}

func TestEventRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	for name, values := range map[string]url.Values{
		"missing type": {"target": {"color:Maroon"}},
		"unknown type": {"type": {"dblclick"}},
		"bad number":   {"type": {"scroll"}, "scrollLeft": {"far"}},
		"bad bool":     {"type": {"change"}, "checked": {"maybe"}},
	} {
		t.Run(name, func(t *testing.T) {
			rec := srv.do(t, eventRequest(values, true))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStreamPushesTimerChanges(t *testing.T) {
	srv := newTestServer(t)
	server := httptest.NewServer(srv.handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/products/silk-kurta/stream", nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	waitFor := func(substr string) {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream ended before %q", substr)
				}
				if strings.Contains(line, substr) {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", substr)
			}
		}
	}

	waitFor("datastar-patch-elements")

	post, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/products/silk-kurta/events",
		strings.NewReader(url.Values{"type": {"click"}, "target": {"action:wishlist"}}.Encode()))
	require.NoError(t, err)
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	post.Header.Set("HX-Request", "true")
	postResp, err := server.Client().Do(post)
	require.NoError(t, err)
	postResp.Body.Close()

	waitFor("♥ Added to Wishlist")
	// The wishlist button reverts on its own after two seconds and the stream carries the change.
	waitFor("♡ Add to Wishlist")
}

func TestHealthEndpoints(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	health := NewHealthHandlers(
		WithHealthClock(func() time.Time { return now }),
		WithHealthVersion("1.2.3"),
		WithReadinessCheck("storage", func(context.Context) error { return errors.New("redis not ready") }),
	)
	router := NewRouter(WithHealthHandlers(health))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "1.2.3", body["version"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body["status"])
	require.Equal(t, "redis not ready", body["checks"].(map[string]any)["storage"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
