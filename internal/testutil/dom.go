// Package testutil holds HTML assertion helpers shared by the rendering and handler tests.
package testutil

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML loads a rendered page or fragment for selector queries.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("testutil: parse html: %v", err)
	}
	return doc
}

// Attr returns the named attribute of the first element matching selector.
// The test fails when nothing matches.
func Attr(t testing.TB, doc *goquery.Document, selector, name string) string {
	t.Helper()
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		t.Fatalf("testutil: selector %q matched nothing", selector)
	}
	value, _ := sel.Attr(name)
	return value
}
