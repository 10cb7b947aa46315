package pdp

// carousel tracks one horizontal product strip. Until the browser reports the strip's
// geometry the extent is unknown: a strip with cards is assumed to overflow.
type carousel struct {
	id          string
	cards       int
	measured    bool
	offset      float64
	scrollWidth float64
	clientWidth float64
}

func (c *carousel) maxOffset() float64 {
	if !c.measured {
		if c.cards == 0 {
			return 0
		}
		return c.offset + scrollStep
	}
	if m := c.scrollWidth - c.clientWidth; m > 0 {
		return m
	}
	return 0
}

func (c *carousel) leftDisabled() bool {
	return c.offset <= 0
}

func (c *carousel) rightDisabled() bool {
	return c.offset >= c.maxOffset()
}

func (p *Page) wireCarousels() {
	for _, c := range p.product.Carousels {
		p.carousels = append(p.carousels, &carousel{id: c.ID, cards: len(c.Cards)})
	}
}

func (p *Page) carousel(id string) *carousel {
	for _, c := range p.carousels {
		if c.id == id {
			return c
		}
	}
	return nil
}

// ScrollCarousel moves a carousel one step left (dir < 0) or right. The offset is kept within
// the scrollable extent the browser last reported.
func (p *Page) ScrollCarousel(id string, dir int) bool {
	c := p.carousel(id)
	if c == nil {
		return false
	}
	step := scrollStep
	if dir < 0 {
		step = -step
	}
	next := c.offset + step
	if limit := c.maxOffset(); next > limit {
		next = limit
	}
	if next < 0 {
		next = 0
	}
	c.offset = next
	return true
}

// ReportScroll records the scroll metrics of a carousel region and recomputes its buttons.
// A report without a positive scroll width carries no geometry and is ignored.
func (p *Page) ReportScroll(id string, scrollLeft, scrollWidth, clientWidth float64) bool {
	c := p.carousel(id)
	if c == nil || scrollWidth <= 0 {
		return false
	}
	c.measured = true
	c.offset = max(scrollLeft, 0)
	c.scrollWidth = scrollWidth
	c.clientWidth = clientWidth
	return true
}

// CarouselButtons reports whether the left and right buttons of a carousel are disabled.
func (p *Page) CarouselButtons(id string) (leftDisabled, rightDisabled bool, ok bool) {
	c := p.carousel(id)
	if c == nil {
		return false, false, false
	}
	return c.leftDisabled(), c.rightDisabled(), true
}
