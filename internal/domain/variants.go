package domain

// Size pairs the abbreviation rendered on a size option with the full name shown and persisted.
type Size struct {
	Code string
	Name string
}

var sizes = []Size{
	{Code: "XS", Name: "Extra Small"},
	{Code: "S", Name: "Small"},
	{Code: "M", Name: "Medium"},
	{Code: "L", Name: "Large"},
	{Code: "XL", Name: "Extra Large"},
	{Code: "XXL", Name: "Extra Extra Large"},
}

// Sizes returns the known sizes in display order.
func Sizes() []Size {
	out := make([]Size, len(sizes))
	copy(out, sizes)
	return out
}

// SizeName maps a size code to its full name. Unknown codes are returned unchanged.
func SizeName(code string) string {
	for _, s := range sizes {
		if s.Code == code {
			return s.Name
		}
	}
	return code
}

// SizeCode maps a full size name back to its code.
func SizeCode(name string) (string, bool) {
	for _, s := range sizes {
		if s.Name == name {
			return s.Code, true
		}
	}
	return "", false
}

// Color is a named swatch colour.
type Color struct {
	Name string
	Hex  string
}

var colors = []Color{
	{Name: "Royal Blue", Hex: "#1e3a8a"},
	{Name: "Saffron Orange", Hex: "#ff9933"},
	{Name: "Forest Green", Hex: "#166534"},
	{Name: "Maroon", Hex: "#800000"},
	{Name: "Cream White", Hex: "#f5f5dc"},
}

// Colors returns the known colours in display order.
func Colors() []Color {
	out := make([]Color, len(colors))
	copy(out, colors)
	return out
}

// ColorHex returns the swatch colour for name.
func ColorHex(name string) (string, bool) {
	for _, c := range colors {
		if c.Name == name {
			return c.Hex, true
		}
	}
	return "", false
}

// ColorNeedsBorder reports whether a swatch is too light to read against a white background.
func ColorNeedsBorder(name string) bool {
	return name == "Cream White"
}
