package domain

import (
	"strconv"
	"strings"
)

// PreferencesKey is the storage key the shopper's selections are persisted under.
const PreferencesKey = "productPreferences"

const (
	MinQuantity = 1
	MaxQuantity = 10
	BundleSize  = 3
)

const (
	DefaultColor = "Royal Blue"
	DefaultSize  = "Medium"
)

// SessionState is the in-memory snapshot of the shopper's selections for one page view.
type SessionState struct {
	SelectedColor string
	// SelectedSize holds the full size name, e.g. "Medium".
	SelectedSize string
	Quantity     int
	CartCount    int
}

// DefaultSessionState returns the state a page starts with before preferences are restored.
func DefaultSessionState() SessionState {
	return SessionState{
		SelectedColor: DefaultColor,
		SelectedSize:  DefaultSize,
		Quantity:      MinQuantity,
		CartCount:     0,
	}
}

// Preferences is the persisted record. Absent fields leave the corresponding state untouched on restore.
type Preferences struct {
	SelectedColor *string `json:"selectedColor,omitempty"`
	SelectedSize  *string `json:"selectedSize,omitempty"`
	Quantity      *int    `json:"quantity,omitempty"`
	CartCount     *int    `json:"cartCount,omitempty"`
}

// PreferencesFromState snapshots every field of the state.
func PreferencesFromState(s SessionState) Preferences {
	color, size, qty, count := s.SelectedColor, s.SelectedSize, s.Quantity, s.CartCount
	return Preferences{
		SelectedColor: &color,
		SelectedSize:  &size,
		Quantity:      &qty,
		CartCount:     &count,
	}
}

// ClampQuantity bounds q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// ParseQuantity reads the leading integer of text the way a browser's parseInt does:
// surrounding whitespace, an optional sign, then digits; anything after the digits is ignored.
// Input with no leading digits, or a value of zero, resolves to MinQuantity. The result is clamped.
func ParseQuantity(text string) int {
	s := strings.TrimSpace(text)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return MinQuantity
	}
	digits := s[:end]
	// Anything past the upper bound clamps the same way, so long digit runs need not fit an int.
	if len(digits) > 6 {
		if sign < 0 {
			return MinQuantity
		}
		return MaxQuantity
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n == 0 {
		return MinQuantity
	}
	return ClampQuantity(sign * n)
}
