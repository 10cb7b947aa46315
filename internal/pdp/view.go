package pdp

import (
	"strconv"

	"github.com/hanko-field/pdp/internal/domain"
)

// View is a render-ready snapshot of the page. It holds no references into the Page.
type View struct {
	Slug        string
	Name        string
	Price       string
	Description string

	Gallery   GalleryView
	Colors    []OptionView
	Sizes     []OptionView
	ColorName string
	SizeName  string

	Quantity    int
	MinQuantity int
	MaxQuantity int

	CartCount int
	CartLabel string
	AddToCart ButtonView
	Wishlist  ButtonView
	Bundle    *BundleView

	TabList []TabView
	Panels  []PanelView

	SizeChart *ModalView
	Compare   *CompareView

	Carousels []CarouselView

	Toasts       []ToastView
	LiveRegion   string
	ScrollLocked bool
	Focus        string
}

// GalleryView is the image gallery with its ARIA region label.
type GalleryView struct {
	Label      string
	Main       domain.Image
	Transform  string
	Origin     string
	Thumbnails []ThumbnailView
}

type ThumbnailView struct {
	Image  domain.Image
	Active bool
	Target string
}

// OptionView is a colour swatch or size option.
type OptionView struct {
	Value    string
	Label    string
	Hex      string
	Border   bool
	Active   bool
	TabIndex int
	Target   string
}

type ButtonView struct {
	Label      string
	Background string
	Color      string
	Flashing   bool
	Target     string
}

type BundleView struct {
	Title  string
	Items  []string
	Price  string
	Button ButtonView
}

// TabView carries the roving tabindex: 0 for the active header, -1 otherwise.
type TabView struct {
	ID       string
	Label    string
	Active   bool
	TabIndex int
	Target   string
}

type PanelView struct {
	ID     string
	HTML   string
	Active bool
}

type ModalView struct {
	ID      string
	State   ModalState
	Active  bool
	Display bool
	Close   string
	Rows    []domain.SizeChartRow
}

type CompareView struct {
	ModalView
	Options     []CompareOptionView
	Rows        []CompareRow
	Placeholder string
}

type CompareOptionView struct {
	Name    string
	Checked bool
	Target  string
}

type CarouselView struct {
	ID            string
	Title         string
	Offset        float64
	// Measured is set once the browser has reported the strip's geometry.
	Measured      bool
	ScrollWidth   float64
	ClientWidth   float64
	LeftDisabled  bool
	RightDisabled bool
	LeftOpacity   string
	RightOpacity  string
	Cards         []CardView
}

type CardView struct {
	Card   domain.Card
	Button ButtonView
}

type ToastView struct {
	ID         int
	Message    string
	Kind       Kind
	Stage      ToastStage
	Background string
	Transform  string
}

// NoColorsSelected is shown in the comparison display when no checkbox is checked.
const NoColorsSelected = "No colors selected"

// View renders the current state.
func (p *Page) View() View {
	v := View{
		Slug:         p.product.Slug,
		Name:         p.product.Name,
		Price:        p.product.Price,
		Description:  p.product.Description,
		ColorName:    p.state.SelectedColor,
		SizeName:     p.state.SelectedSize,
		Quantity:     p.state.Quantity,
		MinQuantity:  domain.MinQuantity,
		MaxQuantity:  domain.MaxQuantity,
		CartCount:    p.state.CartCount,
		CartLabel:    p.CartLabel(),
		AddToCart:    p.buttonView(ActionAddToCart, actionTarget(ActionAddToCart)),
		Wishlist:     p.buttonView(ActionWishlist, actionTarget(ActionWishlist)),
		LiveRegion:   p.live,
		ScrollLocked: p.scrollLocked,
		Focus:        p.focus.String(),
	}

	v.Gallery = GalleryView{
		Label:     "Product images",
		Main:      p.mainImage,
		Transform: p.zoom.transform,
		Origin:    p.zoom.origin,
	}
	for i, img := range p.product.Images {
		v.Gallery.Thumbnails = append(v.Gallery.Thumbnails, ThumbnailView{
			Image:  img,
			Active: i == p.thumbs.Selected(),
			Target: Target{Kind: TargetThumbnail, Value: img.ID}.String(),
		})
	}

	for i, name := range p.product.Colors {
		hex, _ := domain.ColorHex(name)
		v.Colors = append(v.Colors, OptionView{
			Value:    name,
			Label:    name,
			Hex:      hex,
			Border:   domain.ColorNeedsBorder(name),
			Active:   i == p.colors.Selected(),
			TabIndex: rovingIndex(&p.colors, i),
			Target:   colorTarget(name).String(),
		})
	}
	for i, code := range p.product.Sizes {
		v.Sizes = append(v.Sizes, OptionView{
			Value:    code,
			Label:    domain.SizeName(code),
			Active:   i == p.sizes.Selected(),
			TabIndex: rovingIndex(&p.sizes, i),
			Target:   sizeTarget(code).String(),
		})
	}

	if b := p.product.Bundle; b != nil {
		v.Bundle = &BundleView{
			Title:  b.Title,
			Items:  append([]string(nil), b.Items...),
			Price:  b.Price,
			Button: p.buttonView(ActionAddBundle, actionTarget(ActionAddBundle)),
		}
	}

	for i, t := range p.product.Tabs {
		active := i == p.tabs.Selected()
		tabIndex := -1
		if active {
			tabIndex = 0
		}
		v.TabList = append(v.TabList, TabView{
			ID:       t.ID,
			Label:    t.Label,
			Active:   active,
			TabIndex: tabIndex,
			Target:   tabTarget(t.ID).String(),
		})
	}
	for _, panel := range p.product.Panels {
		v.Panels = append(v.Panels, PanelView{
			ID:     panel.ID,
			HTML:   panel.HTML,
			Active: panel.ID == p.activePanel,
		})
	}

	if m, ok := p.modals[IDSizeChart]; ok {
		mv := modalView(m)
		mv.Rows = append([]domain.SizeChartRow(nil), p.product.SizeChart...)
		v.SizeChart = &mv
	}
	if m, ok := p.modals[IDCompareColors]; ok {
		cv := &CompareView{ModalView: modalView(m), Rows: p.CompareRows()}
		for _, o := range p.compare {
			cv.Options = append(cv.Options, CompareOptionView{
				Name:    o.name,
				Checked: o.checked,
				Target:  compareTarget(o.name).String(),
			})
		}
		if len(cv.Rows) == 0 {
			cv.Placeholder = NoColorsSelected
		}
		v.Compare = cv
	}

	for i, c := range p.product.Carousels {
		state := p.carousels[i]
		cv := CarouselView{
			ID:            c.ID,
			Title:         c.Title,
			Offset:        state.offset,
			Measured:      state.measured,
			ScrollWidth:   state.scrollWidth,
			ClientWidth:   state.clientWidth,
			LeftDisabled:  state.leftDisabled(),
			RightDisabled: state.rightDisabled(),
			LeftOpacity:   opacity(!state.leftDisabled()),
			RightOpacity:  opacity(!state.rightDisabled()),
		}
		for _, card := range c.Cards {
			cv.Cards = append(cv.Cards, CardView{
				Card:   card,
				Button: p.buttonView(quickAddKey(card.ID), Target{Kind: TargetQuickAdd, Value: card.ID}),
			})
		}
		v.Carousels = append(v.Carousels, cv)
	}

	for _, t := range p.toasts {
		v.Toasts = append(v.Toasts, toastView(t))
	}
	return v
}

func (p *Page) buttonView(key string, target Target) ButtonView {
	f, ok := p.buttons[key]
	if !ok {
		return ButtonView{}
	}
	return ButtonView{
		Label:      f.label,
		Background: f.background,
		Color:      f.color,
		Flashing:   f.flashing(),
		Target:     target.String(),
	}
}

func modalView(m *modal) ModalView {
	return ModalView{
		ID:      m.id,
		State:   m.state,
		Active:  m.active,
		Display: m.display,
		Close:   closeTarget(m.id).String(),
	}
}

func toastView(t *toast) ToastView {
	tv := ToastView{
		ID:         t.id,
		Message:    t.message,
		Kind:       t.kind,
		Stage:      t.stage,
		Background: "#1f2937",
		Transform:  "translateX(100%)",
	}
	if t.kind == KindSuccess {
		tv.Background = toneSuccess
	}
	if t.stage == ToastShown {
		tv.Transform = "translateX(0)"
	}
	return tv
}

// rovingIndex keeps exactly one member of a group in the tab order: the focused one, else the selected one, else the first.
func rovingIndex(g *Group, i int) int {
	anchor := g.Focused()
	if anchor < 0 {
		anchor = g.Selected()
	}
	if anchor < 0 {
		anchor = 0
	}
	if i == anchor {
		return 0
	}
	return -1
}

func opacity(enabled bool) string {
	if enabled {
		return "1"
	}
	return "0.5"
}

// OffsetPx formats a carousel offset for the scroll-left attribute.
func (c CarouselView) OffsetPx() string {
	return strconv.FormatFloat(c.Offset, 'f', -1, 64)
}

// ExtentPx formats the reported scroll and client widths as "scrollWidth clientWidth".
func (c CarouselView) ExtentPx() string {
	return strconv.FormatFloat(c.ScrollWidth, 'f', -1, 64) + " " + strconv.FormatFloat(c.ClientWidth, 'f', -1, 64)
}
