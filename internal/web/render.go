// Package web renders the product page and its live fragment with html/template.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hanko-field/pdp/internal/pdp"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// RootID is the id of the element replaced by event responses and stream patches.
const RootID = "pdp"

// PageData is the template input.
type PageData struct {
	View      pdp.View
	EventsURL string
	StreamURL string
}

type buttonData struct {
	EventsURL string
	Action    string
	Class     string
	View      pdp.ButtonView
}

// Renderer executes the embedded templates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		// Style values are produced by the page controller, never by the shopper.
		"css":      func(s string) template.CSS { return template.CSS(s) },
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"button": func(events, action, class string, v pdp.ButtonView) buttonData {
			return buttonData{EventsURL: events, Action: action, Class: class, View: v}
		},
	}
	tmpl, err := template.New("_root").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page writes the full document.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.execute(w, "base", data)
}

// Fragment writes only the page root, for htmx swaps.
func (r *Renderer) Fragment(w io.Writer, data PageData) error {
	return r.execute(w, "pdp", data)
}

// FragmentString renders the page root for stream patches.
func (r *Renderer) FragmentString(data PageData) (string, error) {
	var buf bytes.Buffer
	if err := r.execute(&buf, "pdp", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) execute(w io.Writer, name string, data PageData) error {
	// Render into a buffer so a template error never leaves a half-written response.
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("web: execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
