package domain

// Product describes everything the detail page renders. Optional sections left empty are simply not wired.
type Product struct {
	Slug        string
	Name        string
	Price       string
	Description string
	Images      []Image
	Colors      []string
	Sizes       []string
	Tabs        []Tab
	Panels      []Panel
	SizeChart   []SizeChartRow
	Compare     []string
	Bundle      *Bundle
	Carousels   []Carousel
}

// Image is one gallery entry. Thumb is shown in the strip, Main replaces the main image when selected.
type Image struct {
	ID    string
	Thumb string
	Main  string
	Alt   string
}

// Tab is a tab header. Its panel is the Panel with the same ID, if any.
type Tab struct {
	ID    string
	Label string
}

// Panel is tab content. HTML is already sanitised.
type Panel struct {
	ID   string
	HTML string
}

// SizeChartRow is one line of the size chart modal.
type SizeChartRow struct {
	Code     string
	Chest    string
	Length   string
	Shoulder string
}

// Bundle is the "frequently bought together" offer.
type Bundle struct {
	Title string
	Items []string
	Price string
}

// Carousel is a horizontally scrollable strip of product cards.
type Carousel struct {
	ID    string
	Title string
	Cards []Card
}

// Card is a product tile with a quick-add button.
type Card struct {
	ID    string
	Name  string
	Price string
	Image string
}

// HasSizeChart reports whether the size chart modal is present.
func (p Product) HasSizeChart() bool { return len(p.SizeChart) > 0 }

// HasCompare reports whether the colour comparison modal is present.
func (p Product) HasCompare() bool { return len(p.Compare) > 0 }
