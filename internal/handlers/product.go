package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/middleware"
	"github.com/hanko-field/pdp/internal/pdp"
	"github.com/hanko-field/pdp/internal/platform/httpx"
	"github.com/hanko-field/pdp/internal/platform/requestctx"
	"github.com/hanko-field/pdp/internal/services"
	"github.com/hanko-field/pdp/internal/web"
)

const (
	defaultHeartbeat  = 20 * time.Second
	anonymousShopper  = "anonymous"
	maxEventFormBytes = 8 << 10
)

// ProductHandlers serves the product page, replays browser events onto the shopper's page session
// and streams timer-driven changes back to the browser.
type ProductHandlers struct {
	pages     services.PageService
	renderer  *web.Renderer
	heartbeat time.Duration
}

// ProductOption customises ProductHandlers.
type ProductOption func(*ProductHandlers)

// WithStreamHeartbeat sets the keep-alive interval of the event stream.
func WithStreamHeartbeat(d time.Duration) ProductOption {
	return func(h *ProductHandlers) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewProductHandlers constructs product handlers.
func NewProductHandlers(pages services.PageService, renderer *web.Renderer, opts ...ProductOption) *ProductHandlers {
	h := &ProductHandlers{
		pages:     pages,
		renderer:  renderer,
		heartbeat: defaultHeartbeat,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the page and event routes.
func (h *ProductHandlers) Routes(r chi.Router) {
	r.Get("/products/{slug}", h.page)
	r.Post("/products/{slug}/events", h.events)
}

// StreamRoutes registers the long-lived stream route.
func (h *ProductHandlers) StreamRoutes(r chi.Router) {
	r.Get("/products/{slug}/stream", h.stream)
}

func (h *ProductHandlers) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	loop, ok := h.open(w, r, slug)
	if !ok {
		return
	}
	view, err := loop.View(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Page(w, pageData(slug, view)); err != nil {
		h.fail(w, r, err)
	}
}

func (h *ProductHandlers) events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	r.Body = http.MaxBytesReader(w, r.Body, maxEventFormBytes)
	ev, err := parseEvent(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.BadRequest(err.Error()))
		return
	}

	loop, ok := h.open(w, r, slug)
	if !ok {
		return
	}

	var (
		handled bool
		view    pdp.View
	)
	err = loop.Do(ctx, func(p *pdp.Page) error {
		handled = p.Dispatch(ctx, ev)
		view = p.View()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	requestctx.Logger(ctx).Debug("page event",
		zap.String("type", string(ev.Type)),
		zap.String("target", ev.Target.String()),
		zap.Bool("handled", handled),
	)

	if !middleware.IsHTMXRequest(ctx) {
		// Beacons and other fire-and-forget posts.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Fragment(w, pageData(slug, view)); err != nil {
		h.fail(w, r, err)
	}
}

func (h *ProductHandlers) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	loop, ok := h.open(w, r, slug)
	if !ok {
		return
	}

	updates, cancel := loop.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	logger := requestctx.Logger(ctx)

	// Catch up on anything that changed between the page render and the stream opening.
	if err := h.patch(ctx, sse, loop, slug); err != nil {
		logger.Debug("stream closed", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-updates:
			if !open {
				return
			}
			if err := h.patch(ctx, sse, loop, slug); err != nil {
				logger.Debug("stream closed", zap.Error(err))
				return
			}
		case now := <-heartbeat.C:
			payload := fmt.Sprintf(`{"pdpHeartbeat":%d}`, now.Unix())
			if err := sse.PatchSignals([]byte(payload)); err != nil {
				return
			}
		}
	}
}

func (h *ProductHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, loop *pdp.Loop, slug string) error {
	view, err := loop.View(ctx)
	if err != nil {
		return err
	}
	fragment, err := h.renderer.FragmentString(pageData(slug, view))
	if err != nil {
		return err
	}
	return sse.PatchElements(fragment,
		datastar.WithSelector("#"+web.RootID),
		datastar.WithMode(datastar.ElementPatchModeOuter),
	)
}

func (h *ProductHandlers) open(w http.ResponseWriter, r *http.Request, slug string) (*pdp.Loop, bool) {
	shopper := requestctx.ShopperID(r.Context())
	if shopper == "" {
		shopper = anonymousShopper
	}
	loop, err := h.pages.Open(r.Context(), shopper, slug)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return loop, true
}

func (h *ProductHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr httpx.Error
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		apiErr = httpx.NotFound("product not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		apiErr = httpx.Unavailable("request cancelled")
	case errors.Is(err, pdp.ErrLoopClosed), errors.Is(err, services.ErrRegistryClosed):
		apiErr = httpx.Conflict("page session closed; reload the page")
	default:
		requestctx.Logger(r.Context()).Error("product handler failed", zap.Error(err))
		apiErr = httpx.Internal()
	}
	httpx.Respond(w, r, apiErr)
}

func pageData(slug string, view pdp.View) web.PageData {
	return web.PageData{
		View:      view,
		EventsURL: "/products/" + slug + "/events",
		StreamURL: "/products/" + slug + "/stream",
	}
}

// parseEvent decodes an event form posted by htmx or navigator.sendBeacon. The target falls back to
// the HX-Trigger-Name header, which carries the triggering element's name.
func parseEvent(r *http.Request) (pdp.Event, error) {
	if err := r.ParseMultipartForm(maxEventFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return pdp.Event{}, fmt.Errorf("invalid event form: %w", err)
	}
	form := r.Form

	ev := pdp.Event{
		Type:  pdp.EventType(strings.TrimSpace(form.Get("type"))),
		Key:   form.Get("key"),
		Value: form.Get("value"),
	}
	switch ev.Type {
	case pdp.EventClick, pdp.EventKeyDown, pdp.EventChange, pdp.EventPointerMove,
		pdp.EventPointerLeave, pdp.EventScroll, pdp.EventUnload, pdp.EventVisibility:
	case "":
		return pdp.Event{}, errors.New("event type is required")
	default:
		return pdp.Event{}, fmt.Errorf("unsupported event type %q", ev.Type)
	}

	rawTarget := form.Get("target")
	if strings.TrimSpace(rawTarget) == "" {
		rawTarget = middleware.HTMXInfoFromContext(r.Context()).TriggerName
	}
	ev.Target = pdp.ParseTarget(rawTarget)

	var err error
	if ev.Shift, err = formBool(form.Get("shift")); err != nil {
		return pdp.Event{}, fmt.Errorf("shift: %w", err)
	}
	if ev.Checked, err = formBool(form.Get("checked")); err != nil {
		return pdp.Event{}, fmt.Errorf("checked: %w", err)
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"clientX", &ev.ClientX},
		{"clientY", &ev.ClientY},
		{"rectLeft", &ev.Rect.Left},
		{"rectTop", &ev.Rect.Top},
		{"rectWidth", &ev.Rect.Width},
		{"rectHeight", &ev.Rect.Height},
		{"scrollLeft", &ev.ScrollLeft},
		{"scrollWidth", &ev.ScrollWidth},
		{"clientWidth", &ev.ClientWidth},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(form.Get(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return pdp.Event{}, fmt.Errorf("%s: invalid number", f.name)
		}
		*f.dst = v
	}
	return ev, nil
}

func formBool(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
