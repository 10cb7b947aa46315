package pdp

import "context"

// Dispatch routes a browser event to the operation the DOM contract binds it to.
// It reports whether the event was handled; events for absent elements are ignored.
func (p *Page) Dispatch(ctx context.Context, ev Event) bool {
	switch ev.Type {
	case EventClick:
		return p.click(ctx, ev)
	case EventKeyDown:
		return p.keyDown(ctx, ev)
	case EventChange:
		return p.change(ev)
	case EventPointerMove:
		if ev.Target == elementTarget(IDMainImage) {
			return p.Zoom(ev.ClientX, ev.ClientY, ev.Rect)
		}
	case EventPointerLeave:
		if ev.Target == elementTarget(IDMainImage) {
			p.ResetZoom()
			return true
		}
	case EventScroll:
		if ev.Target.Kind == TargetScrollArea {
			return p.ReportScroll(ev.Target.Value, ev.ScrollLeft, ev.ScrollWidth, ev.ClientWidth)
		}
	case EventUnload:
		p.Unload(ctx)
		return true
	case EventVisibility:
		p.VisibilityChanged(ctx, ev.Value)
		return true
	}
	return false
}

func (p *Page) click(ctx context.Context, ev Event) bool {
	t := ev.Target
	switch t.Kind {
	case TargetColor:
		return p.SelectColor(ctx, t.Value) && p.focusMember(&p.colors, t)
	case TargetSize:
		return p.SelectSize(ctx, t.Value) && p.focusMember(&p.sizes, t)
	case TargetThumbnail:
		return p.SelectThumbnail(t.Value) && p.focusMember(&p.thumbs, t)
	case TargetTab:
		return p.ActivateTab(t.Value) && p.focusMember(&p.tabs, t)
	case TargetAction:
		return p.action(t.Value)
	case TargetQuickAdd:
		return p.QuickAdd(t.Value)
	case TargetCompare:
		checked, ok := p.compareChecked(t.Value)
		if !ok {
			return false
		}
		return p.ToggleCompare(t.Value, !checked)
	case TargetModalClose:
		return p.CloseModal(t.Value)
	case TargetScrollLeft, TargetScrollRight:
		// Button clicks carry the strip's current geometry so the step starts from what the shopper sees.
		p.ReportScroll(t.Value, ev.ScrollLeft, ev.ScrollWidth, ev.ClientWidth)
		dir := 1
		if t.Kind == TargetScrollLeft {
			dir = -1
		}
		return p.ScrollCarousel(t.Value, dir)
	case TargetElement:
		// Overlay clicks land on the modal root itself; clicks inside the dialog carry a descendant target.
		if _, ok := p.modals[t.Value]; ok {
			return p.CloseModal(t.Value)
		}
	}
	return false
}

func (p *Page) action(name string) bool {
	switch name {
	case ActionIncrease:
		p.Increase()
		return true
	case ActionDecrease:
		p.Decrease()
		return true
	case ActionAddToCart:
		p.AddToCart()
		return true
	case ActionAddBundle:
		return p.AddBundleToCart()
	case ActionWishlist:
		p.AddToWishlist()
		return true
	case ActionSizeChart:
		return p.OpenModal(IDSizeChart)
	case ActionCompareColors:
		return p.OpenModal(IDCompareColors)
	}
	return false
}

func (p *Page) keyDown(ctx context.Context, ev Event) bool {
	if m := p.modalOwning(ev.Target); m != nil && m.active {
		switch ev.Key {
		case "Escape":
			return p.CloseModal(m.id)
		case "Tab":
			return p.trapFocus(m, ev.Target, ev.Shift)
		}
	}

	switch ev.Key {
	case "Enter", " ":
		switch ev.Target.Kind {
		case TargetColor, TargetSize, TargetThumbnail, TargetTab:
			return p.click(ctx, Event{Type: EventClick, Target: ev.Target})
		}
		return false
	}

	var g *Group
	switch ev.Target.Kind {
	case TargetColor:
		g = &p.colors
	case TargetSize:
		g = &p.sizes
	case TargetTab:
		g = &p.tabs
	default:
		return false
	}
	i := g.Index(ev.Target.Value)
	if i < 0 {
		return false
	}
	next, ok := Navigate(i, g.Len(), ev.Key)
	if !ok {
		return false
	}
	return p.focusMember(g, Target{Kind: ev.Target.Kind, Value: g.Item(next)})
}

// focusMember moves focus to t, a member of g.
func (p *Page) focusMember(g *Group, t Target) bool {
	g.Focus(g.Index(t.Value))
	p.focus = t
	return true
}

func (p *Page) change(ev Event) bool {
	switch {
	case ev.Target == elementTarget(IDQuantity):
		p.SetQuantityInput(ev.Value)
		return true
	case ev.Target.Kind == TargetCompare:
		return p.ToggleCompare(ev.Target.Value, ev.Checked)
	}
	return false
}
