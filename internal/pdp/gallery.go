package pdp

import "strconv"

const zoomScale = "scale(1.2)"

type zoomState struct {
	transform string
	origin    string
}

func (p *Page) wireGallery() {
	ids := make([]string, 0, len(p.product.Images))
	for _, img := range p.product.Images {
		ids = append(ids, img.ID)
	}
	p.thumbs = NewGroup(ids)
	if len(p.product.Images) > 0 {
		p.thumbs.Select(0)
		p.mainImage = p.product.Images[0]
	}
}

// SelectThumbnail activates a thumbnail and shows its image in the main slot.
// A thumbnail without a main image only moves the active marker.
func (p *Page) SelectThumbnail(id string) bool {
	i := p.thumbs.Index(id)
	if i < 0 {
		return false
	}
	p.thumbs.Select(i)
	img := p.product.Images[i]
	if img.Main != "" {
		p.mainImage = img
	}
	return true
}

// Zoom scales the main image around the pointer position inside the container rect.
func (p *Page) Zoom(clientX, clientY float64, rect Rect) bool {
	if len(p.product.Images) == 0 || rect.Width <= 0 || rect.Height <= 0 {
		return false
	}
	x := (clientX - rect.Left) / rect.Width * 100
	y := (clientY - rect.Top) / rect.Height * 100
	p.zoom = zoomState{
		transform: zoomScale,
		origin:    percent(x) + " " + percent(y),
	}
	return true
}

// ResetZoom restores the unscaled image.
func (p *Page) ResetZoom() {
	p.zoom = zoomState{transform: "scale(1)", origin: "center center"}
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
