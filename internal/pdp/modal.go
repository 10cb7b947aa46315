package pdp

import "github.com/hanko-field/pdp/internal/domain"

// ModalState is the lifecycle position of a modal.
type ModalState string

const (
	ModalClosed  ModalState = "closed"
	ModalOpening ModalState = "opening"
	ModalOpen    ModalState = "open"
	ModalClosing ModalState = "closing"
)

type modal struct {
	id         string
	opener     Target
	focusables []Target
	state      ModalState
	active     bool
	display    bool
	timer      Timer
}

func (m *modal) cancel() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *modal) owns(t Target) bool {
	if t == elementTarget(m.id) {
		return true
	}
	for _, f := range m.focusables {
		if f == t {
			return true
		}
	}
	return false
}

type compareOption struct {
	name    string
	checked bool
}

func (p *Page) wireModals() {
	if p.product.HasSizeChart() {
		p.modals[IDSizeChart] = &modal{
			id:         IDSizeChart,
			opener:     actionTarget(ActionSizeChart),
			focusables: []Target{closeTarget(IDSizeChart)},
			state:      ModalClosed,
		}
	}
	if p.product.HasCompare() {
		focusables := []Target{closeTarget(IDCompareColors)}
		for _, name := range p.product.Compare {
			p.compare = append(p.compare, compareOption{name: name})
			focusables = append(focusables, compareTarget(name))
		}
		p.modals[IDCompareColors] = &modal{
			id:         IDCompareColors,
			opener:     actionTarget(ActionCompareColors),
			focusables: focusables,
			state:      ModalClosed,
		}
	}
}

// OpenModal shows the modal, focuses its first control, and locks page scroll.
// Any other open modal is closed first.
func (p *Page) OpenModal(id string) bool {
	m, ok := p.modals[id]
	if !ok {
		return false
	}
	for otherID, other := range p.modals {
		if otherID != id && other.active {
			p.CloseModal(otherID)
		}
	}

	m.cancel()
	m.active = true
	m.display = true
	m.state = ModalOpening
	m.timer = p.sched.AfterFunc(modalTransition, func() {
		m.timer = nil
		m.state = ModalOpen
	})
	if len(m.focusables) > 0 {
		p.focus = m.focusables[0]
	}
	p.scrollLocked = true
	return true
}

// CloseModal removes the active marker at once and hides the modal after the exit transition.
// Scroll unlocks immediately and focus returns to the opener.
func (p *Page) CloseModal(id string) bool {
	m, ok := p.modals[id]
	if !ok || !m.active {
		return false
	}
	m.cancel()
	m.active = false
	m.state = ModalClosing
	m.timer = p.sched.AfterFunc(modalTransition, func() {
		m.timer = nil
		m.display = false
		m.state = ModalClosed
	})
	p.scrollLocked = false
	p.focus = m.opener
	return true
}

// ModalState reports the lifecycle state of a modal, or ModalClosed for modals the product lacks.
func (p *Page) ModalState(id string) ModalState {
	if m, ok := p.modals[id]; ok {
		return m.state
	}
	return ModalClosed
}

// ScrollLocked reports whether page scrolling is locked by an open modal.
func (p *Page) ScrollLocked() bool {
	return p.scrollLocked
}

func (p *Page) modalOwning(t Target) *modal {
	for _, m := range p.modals {
		if m.owns(t) {
			return m
		}
	}
	return nil
}

// trapFocus keeps Tab and Shift+Tab cycling through the modal's controls.
func (p *Page) trapFocus(m *modal, from Target, backwards bool) bool {
	n := len(m.focusables)
	if n == 0 {
		return false
	}
	i := -1
	for idx, f := range m.focusables {
		if f == from {
			i = idx
			break
		}
	}
	switch {
	case i < 0:
		i = 0
	case backwards:
		i = (i - 1 + n) % n
	default:
		i = (i + 1) % n
	}
	p.focus = m.focusables[i]
	return true
}

// ToggleCompare sets a comparison checkbox. The comparison rows are derived from the checkboxes on every render.
func (p *Page) ToggleCompare(name string, checked bool) bool {
	for i := range p.compare {
		if p.compare[i].name == name {
			p.compare[i].checked = checked
			p.focus = compareTarget(name)
			return true
		}
	}
	return false
}

func (p *Page) compareChecked(name string) (bool, bool) {
	for _, o := range p.compare {
		if o.name == name {
			return o.checked, true
		}
	}
	return false, false
}

// CompareRow is one swatch line of the colour comparison display.
type CompareRow struct {
	Name   string
	Hex    string
	Border bool
}

// CompareRows lists one row per checked box, in checkbox order.
func (p *Page) CompareRows() []CompareRow {
	var rows []CompareRow
	for _, o := range p.compare {
		if !o.checked {
			continue
		}
		hex, _ := domain.ColorHex(o.name)
		rows = append(rows, CompareRow{Name: o.name, Hex: hex, Border: domain.ColorNeedsBorder(o.name)})
	}
	return rows
}
