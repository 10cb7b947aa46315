package pdp

func (p *Page) wireTabs() {
	ids := make([]string, 0, len(p.product.Tabs))
	for _, t := range p.product.Tabs {
		ids = append(ids, t.ID)
	}
	p.tabs = NewGroup(ids)
	for _, panel := range p.product.Panels {
		p.panels[panel.ID] = true
	}
	if len(ids) > 0 {
		p.ActivateTab(ids[0])
	}
}

// ActivateTab deactivates every header and panel, then activates the header and its panel.
// A header without a panel leaves no panel visible.
func (p *Page) ActivateTab(id string) bool {
	i := p.tabs.Index(id)
	if i < 0 {
		return false
	}
	p.tabs.Select(i)
	p.activePanel = ""
	if p.panels[id] {
		p.activePanel = id
	}
	return true
}

// ActiveTab returns the active header and panel ids. The panel id is empty when the header has none.
func (p *Page) ActiveTab() (header, panel string) {
	header, _ = p.tabs.SelectedItem()
	return header, p.activePanel
}
