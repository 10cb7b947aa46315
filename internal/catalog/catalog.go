// Package catalog loads product definitions from YAML and renders their tab bodies from Markdown.
package catalog

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/hanko-field/pdp/internal/domain"
)

// ErrNotFound is returned when no product has the requested slug.
var ErrNotFound = errors.New("catalog: product not found")

//go:embed data/products.yaml
var defaultFS embed.FS

const defaultFile = "data/products.yaml"

var (
	knownColors = colorNames(domain.Colors())
	knownSizes  = sizeCodes(domain.Sizes())
)

func colorNames(colors []domain.Color) []string {
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		out = append(out, c.Name)
	}
	return out
}

func sizeCodes(sizes []domain.Size) []string {
	out := make([]string, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, s.Code)
	}
	return out
}

// Catalog is an immutable set of products keyed by slug.
type Catalog struct {
	products map[string]domain.Product
}

type fileDoc struct {
	Products []productDoc `yaml:"products"`
}

type productDoc struct {
	Slug        string        `yaml:"slug"`
	Name        string        `yaml:"name"`
	Price       string        `yaml:"price"`
	Description string        `yaml:"description"`
	Images      []imageDoc    `yaml:"images"`
	Colors      []string      `yaml:"colors"`
	Sizes       []string      `yaml:"sizes"`
	Tabs        []tabDoc      `yaml:"tabs"`
	SizeChart   []sizeRowDoc  `yaml:"sizeChart"`
	Compare     []string      `yaml:"compare"`
	Bundle      *bundleDoc    `yaml:"bundle"`
	Carousels   []carouselDoc `yaml:"carousels"`
}

type imageDoc struct {
	ID    string `yaml:"id"`
	Thumb string `yaml:"thumb"`
	Main  string `yaml:"main"`
	Alt   string `yaml:"alt"`
}

type tabDoc struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	// Body is Markdown. A tab without a body has a header but no panel.
	Body string `yaml:"body"`
}

type sizeRowDoc struct {
	Code     string `yaml:"code"`
	Chest    string `yaml:"chest"`
	Length   string `yaml:"length"`
	Shoulder string `yaml:"shoulder"`
}

type bundleDoc struct {
	Title string   `yaml:"title"`
	Items []string `yaml:"items"`
	Price string   `yaml:"price"`
}

type carouselDoc struct {
	ID    string    `yaml:"id"`
	Title string    `yaml:"title"`
	Cards []cardDoc `yaml:"cards"`
}

type cardDoc struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Image string `yaml:"image"`
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
// A gs://bucket/object path is read from Cloud Storage.
func Load(ctx context.Context, path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	var (
		data []byte
		err  error
	)
	switch {
	case path == "":
		data, err = defaultFS.ReadFile(defaultFile)
	case strings.HasPrefix(path, "gs://"):
		data, err = readObject(ctx, path)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", firstNonEmpty(path, defaultFile), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(data)
}

func readObject(ctx context.Context, raw string) ([]byte, error) {
	bucket, object, err := parseObjectURL(raw)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// parseObjectURL splits gs://bucket/path/to/object.
func parseObjectURL(raw string) (bucket, object string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	bucket = strings.TrimSpace(u.Host)
	object = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return "", "", errors.New("bucket and object are required")
	}
	return bucket, object, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, errors.New("catalog: no products defined")
	}

	renderer := newRenderer()
	c := &Catalog{products: make(map[string]domain.Product, len(doc.Products))}
	for i, pd := range doc.Products {
		product, err := pd.toDomain(renderer)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %d: %w", i, err)
		}
		if _, dup := c.products[product.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate slug %q", product.Slug)
		}
		c.products[product.Slug] = product
	}
	return c, nil
}

// Product returns the product with the given slug.
func (c *Catalog) Product(slug string) (domain.Product, error) {
	if c == nil {
		return domain.Product{}, ErrNotFound
	}
	p, ok := c.products[strings.TrimSpace(slug)]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

// Slugs lists every product slug in lexical order.
func (c *Catalog) Slugs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.products))
	for slug := range c.products {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func (pd productDoc) toDomain(r *renderer) (domain.Product, error) {
	slug := strings.TrimSpace(pd.Slug)
	if slug == "" {
		return domain.Product{}, errors.New("slug is required")
	}
	p := domain.Product{
		Slug:        slug,
		Name:        strings.TrimSpace(pd.Name),
		Price:       strings.TrimSpace(pd.Price),
		Description: strings.TrimSpace(pd.Description),
	}
	for _, img := range pd.Images {
		p.Images = append(p.Images, domain.Image{
			ID:    strings.TrimSpace(img.ID),
			Thumb: strings.TrimSpace(img.Thumb),
			Main:  strings.TrimSpace(img.Main),
			Alt:   strings.TrimSpace(img.Alt),
		})
	}
	for _, name := range pd.Colors {
		name = strings.TrimSpace(name)
		if !slices.Contains(knownColors, name) {
			return domain.Product{}, fmt.Errorf("%s: unknown color %q (known: %s)", slug, name, strings.Join(knownColors, ", "))
		}
		p.Colors = append(p.Colors, name)
	}
	for _, code := range pd.Sizes {
		code = strings.TrimSpace(code)
		if !slices.Contains(knownSizes, code) {
			return domain.Product{}, fmt.Errorf("%s: unknown size %q (known: %s)", slug, code, strings.Join(knownSizes, ", "))
		}
		p.Sizes = append(p.Sizes, code)
	}
	for _, tab := range pd.Tabs {
		id := strings.TrimSpace(tab.ID)
		if id == "" {
			return domain.Product{}, fmt.Errorf("%s: tab without id", slug)
		}
		p.Tabs = append(p.Tabs, domain.Tab{ID: id, Label: firstNonEmpty(strings.TrimSpace(tab.Label), id)})
		if strings.TrimSpace(tab.Body) == "" {
			continue
		}
		html, err := r.render(tab.Body)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%s: tab %s: %w", slug, id, err)
		}
		p.Panels = append(p.Panels, domain.Panel{ID: id, HTML: html})
	}
	for _, row := range pd.SizeChart {
		p.SizeChart = append(p.SizeChart, domain.SizeChartRow{
			Code:     strings.TrimSpace(row.Code),
			Chest:    strings.TrimSpace(row.Chest),
			Length:   strings.TrimSpace(row.Length),
			Shoulder: strings.TrimSpace(row.Shoulder),
		})
	}
	for _, name := range pd.Compare {
		name = strings.TrimSpace(name)
		if _, ok := domain.ColorHex(name); !ok {
			return domain.Product{}, fmt.Errorf("%s: unknown compare color %q", slug, name)
		}
		p.Compare = append(p.Compare, name)
	}
	if pd.Bundle != nil {
		p.Bundle = &domain.Bundle{
			Title: strings.TrimSpace(pd.Bundle.Title),
			Items: append([]string(nil), pd.Bundle.Items...),
			Price: strings.TrimSpace(pd.Bundle.Price),
		}
	}
	for _, cd := range pd.Carousels {
		carousel := domain.Carousel{ID: strings.TrimSpace(cd.ID), Title: strings.TrimSpace(cd.Title)}
		if carousel.ID == "" {
			return domain.Product{}, fmt.Errorf("%s: carousel without id", slug)
		}
		for _, card := range cd.Cards {
			carousel.Cards = append(carousel.Cards, domain.Card{
				ID:    strings.TrimSpace(card.ID),
				Name:  strings.TrimSpace(card.Name),
				Price: strings.TrimSpace(card.Price),
				Image: strings.TrimSpace(card.Image),
			})
		}
		p.Carousels = append(p.Carousels, carousel)
	}
	return p, nil
}

type renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newRenderer() *renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return &renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
	}
}

func (r *renderer) render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
