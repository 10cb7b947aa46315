package pdp

import "strings"

// EventType names the browser event being replayed onto the page.
type EventType string

const (
	EventClick        EventType = "click"
	EventKeyDown      EventType = "keydown"
	EventChange       EventType = "change"
	EventPointerMove  EventType = "pointermove"
	EventPointerLeave EventType = "pointerleave"
	EventScroll       EventType = "scroll"
	EventUnload       EventType = "beforeunload"
	EventVisibility   EventType = "visibilitychange"
)

// TargetKind identifies which part of the DOM contract an event target belongs to.
type TargetKind string

const (
	TargetNone        TargetKind = ""
	TargetColor       TargetKind = "color"        // data-color swatch
	TargetSize        TargetKind = "size"         // data-size option
	TargetThumbnail   TargetKind = "thumb"        // gallery thumbnail carrying data-main
	TargetTab         TargetKind = "tab"          // data-tab header
	TargetAction      TargetKind = "action"       // data-action button
	TargetQuickAdd    TargetKind = "quick-add"    // product card button
	TargetCompare     TargetKind = "compare"      // comparison checkbox
	TargetModalClose  TargetKind = "modal-close"  // close button inside a modal
	TargetScrollLeft  TargetKind = "scroll-left"  // carousel button
	TargetScrollRight TargetKind = "scroll-right" // carousel button
	TargetScrollArea  TargetKind = "scroll"       // carousel scroll region
	TargetElement     TargetKind = "id"           // element addressed by id
)

// Actions carried by data-action buttons.
const (
	ActionIncrease      = "increase"
	ActionDecrease      = "decrease"
	ActionAddToCart     = "add-to-cart"
	ActionAddBundle     = "add-bundle"
	ActionWishlist      = "wishlist"
	ActionSizeChart     = "size-chart"
	ActionCompareColors = "compare-colors"
)

// Fixed element ids.
const (
	IDMainImage      = "mainImage"
	IDQuantity       = "quantity"
	IDSelectedColor  = "selectedColor"
	IDSelectedSize   = "selectedSize"
	IDSizeChart      = "sizeChartModal"
	IDCompareColors  = "compareColorsModal"
	IDSelectedColors = "selectedColorsDisplay"
)

// Target is a parsed event target. Its text form is "kind:value", or "#id" for elements addressed by id.
type Target struct {
	Kind  TargetKind
	Value string
}

// ParseTarget parses the text form produced by Target.String. Unknown kinds yield the zero Target.
func ParseTarget(raw string) Target {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}
	}
	if strings.HasPrefix(raw, "#") {
		if id := strings.TrimSpace(raw[1:]); id != "" {
			return Target{Kind: TargetElement, Value: id}
		}
		return Target{}
	}
	kind, value, ok := strings.Cut(raw, ":")
	if !ok {
		return Target{}
	}
	t := Target{Kind: TargetKind(strings.TrimSpace(kind)), Value: strings.TrimSpace(value)}
	switch t.Kind {
	case TargetColor, TargetSize, TargetThumbnail, TargetTab, TargetAction, TargetQuickAdd,
		TargetCompare, TargetModalClose, TargetScrollLeft, TargetScrollRight, TargetScrollArea, TargetElement:
		return t
	default:
		return Target{}
	}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetNone:
		return ""
	case TargetElement:
		return "#" + t.Value
	default:
		return string(t.Kind) + ":" + t.Value
	}
}

func (t Target) IsZero() bool { return t.Kind == TargetNone }

// Rect is an element's bounding box in client coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Event is a browser event replayed onto the page.
type Event struct {
	Type   EventType
	Target Target
	// Key is KeyboardEvent.key for keydown events.
	Key   string
	Shift bool
	// Value carries the input value for change events and the visibility state for visibilitychange.
	Value   string
	Checked bool
	ClientX float64
	ClientY float64
	Rect    Rect
	// Scroll metrics reported by a carousel scroll region.
	ScrollLeft  float64
	ScrollWidth float64
	ClientWidth float64
}

func colorTarget(name string) Target { return Target{Kind: TargetColor, Value: name} }
func sizeTarget(code string) Target { return Target{Kind: TargetSize, Value: code} }
func tabTarget(id string) Target { return Target{Kind: TargetTab, Value: id} }
func actionTarget(a string) Target { return Target{Kind: TargetAction, Value: a} }
func elementTarget(id string) Target { return Target{Kind: TargetElement, Value: id} }
func compareTarget(name string) Target { return Target{Kind: TargetCompare, Value: name} }
func closeTarget(modal string) Target { return Target{Kind: TargetModalClose, Value: modal} }
