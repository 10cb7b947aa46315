package pdp

// Group is a set of mutually exclusive, keyboard-navigable controls: the items plus one selected index.
type Group struct {
	items    []string
	selected int
	focused  int
}

// NewGroup builds a group with nothing selected.
func NewGroup(items []string) Group {
	cp := make([]string, len(items))
	copy(cp, items)
	return Group{items: cp, selected: -1, focused: -1}
}

func (g *Group) Len() int { return len(g.items) }

// Index returns the position of value, or -1.
func (g *Group) Index(value string) int {
	for i, item := range g.items {
		if item == value {
			return i
		}
	}
	return -1
}

func (g *Group) Item(i int) string {
	if i < 0 || i >= len(g.items) {
		return ""
	}
	return g.items[i]
}

// Select marks i as the active member. Out of range indices clear the selection.
func (g *Group) Select(i int) {
	if i < 0 || i >= len(g.items) {
		g.selected = -1
		return
	}
	g.selected = i
}

func (g *Group) Selected() int { return g.selected }

func (g *Group) SelectedItem() (string, bool) {
	if g.selected < 0 {
		return "", false
	}
	return g.items[g.selected], true
}

func (g *Group) Focus(i int) {
	if i < 0 || i >= len(g.items) {
		g.focused = -1
		return
	}
	g.focused = i
}

func (g *Group) Focused() int { return g.focused }

// Navigate maps a key press on member i of an n-member group to the member that should receive focus.
// ok is false for keys that do not navigate.
func Navigate(i, n int, key string) (next int, ok bool) {
	if n <= 0 {
		return 0, false
	}
	switch key {
	case "ArrowRight", "ArrowDown":
		return (i + 1) % n, true
	case "ArrowLeft", "ArrowUp":
		return (i - 1 + n) % n, true
	case "Home":
		return 0, true
	case "End":
		return n - 1, true
	default:
		return i, false
	}
}
