package web

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanko-field/pdp/internal/catalog"
	"github.com/hanko-field/pdp/internal/pdp"
	"github.com/hanko-field/pdp/internal/storage"
	"github.com/hanko-field/pdp/internal/testutil"
)

func renderData(t *testing.T, mutate func(*pdp.Page)) PageData {
	t.Helper()
	c, err := catalog.Load(context.Background(), "")
	require.NoError(t, err)
	product, err := c.Product("silk-kurta")
	require.NoError(t, err)

	page := pdp.New(product, storage.NewMemory())
	page.Init(context.Background())
	if mutate != nil {
		mutate(page)
	}
	return PageData{
		View:      page.View(),
		EventsURL: "/products/silk-kurta/events",
		StreamURL: "/products/silk-kurta/stream",
	}
}

func TestPageEmitsDOMContract(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, renderData(t, nil)))
	doc := testutil.ParseHTML(t, buf.Bytes())

	require.Equal(t, 1, doc.Find("#pdp").Length())
	require.Equal(t, "Product images", testutil.Attr(t, doc, ".gallery", "aria-label"))
	require.Equal(t, 4, doc.Find(".thumbnail[data-main]").Length())
	require.Equal(t, 5, doc.Find("[data-color]").Length())
	require.Equal(t, 6, doc.Find("[data-size]").Length())
	require.Equal(t, "Royal Blue", doc.Find("#selectedColor").Text())
	require.Equal(t, "Medium", doc.Find("#selectedSize").Text())
	require.Equal(t, "1", testutil.Attr(t, doc, "#quantity", "value"))
	require.Equal(t, "Cart (0)", doc.Find("#cartCount").Text())

	active := doc.Find(`[data-color="Royal Blue"]`)
	require.True(t, active.HasClass("active"))
	require.Equal(t, "true", testutil.Attr(t, doc, `[data-color="Royal Blue"]`, "aria-checked"))
	require.Equal(t, "0", testutil.Attr(t, doc, `[data-color="Royal Blue"]`, "tabindex"))
	require.Equal(t, "-1", testutil.Attr(t, doc, `[data-color="Maroon"]`, "tabindex"))
	require.Contains(t, testutil.Attr(t, doc, `[data-color="Cream White"]`, "style"), "border")

	require.Equal(t, 1, doc.Find(`[role="tablist"]`).Length())
	require.Equal(t, "true", testutil.Attr(t, doc, `[data-tab="description"]`, "aria-selected"))
	require.Equal(t, "-1", testutil.Attr(t, doc, `[data-tab="details"]`, "tabindex"))
	require.Equal(t, "false", testutil.Attr(t, doc, `#description[role="tabpanel"]`, "aria-hidden"))
	require.Equal(t, 1, doc.Find("#description strong").Length())

	for _, action := range []string{"increase", "decrease", "add-to-cart", "wishlist", "add-bundle", "size-chart", "compare-colors"} {
		require.Equal(t, 1, doc.Find(`[data-action="`+action+`"]`).Length(), action)
	}
	require.Contains(t, testutil.Attr(t, doc, "#sizeChartModal", "style"), "none")
	require.Equal(t, "No colors selected", strings.TrimSpace(doc.Find("#selectedColorsDisplay .placeholder").Text()))

	live := doc.Find("#liveRegion")
	require.Equal(t, "polite", live.AttrOr("aria-live", ""))
	require.Equal(t, "true", live.AttrOr("aria-atomic", ""))
	require.Contains(t, testutil.Attr(t, doc, "main", "data-init"), "/products/silk-kurta/stream")
}

func TestFragmentReflectsState(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data := renderData(t, func(p *pdp.Page) {
		ctx := context.Background()
		p.SelectColor(ctx, "Saffron Orange")
		p.Increase()
		p.AddToCart()
		p.OpenModal(pdp.IDCompareColors)
		p.ToggleCompare("Maroon", true)
		p.Zoom(150, 75, pdp.Rect{Left: 100, Top: 50, Width: 200, Height: 100})
	})
	html, err := r.FragmentString(data)
	require.NoError(t, err)
	require.False(t, strings.Contains(html, "<html"), "fragment must not include the layout")

	doc := testutil.ParseHTML(t, []byte(html))
	require.Equal(t, "Saffron Orange", doc.Find("#selectedColor").Text())
	require.Equal(t, "2", testutil.Attr(t, doc, "#quantity", "value"))
	require.Equal(t, "Added!", strings.TrimSpace(doc.Find(`[data-action="add-to-cart"]`).Text()))
	require.Contains(t, testutil.Attr(t, doc, `[data-action="add-to-cart"]`, "style"), "#059669")

	require.True(t, doc.Find("#compareColorsModal").HasClass("active"))
	require.Equal(t, 1, doc.Find("#selectedColorsDisplay .compare-row").Length())
	require.Contains(t, doc.Find("#selectedColorsDisplay .compare-row").Text(), "Maroon")
	_, scrollLocked := doc.Find("#pdp").Attr("data-scroll-locked")
	require.True(t, scrollLocked)

	style := testutil.Attr(t, doc, "#mainImage", "style")
	require.Contains(t, style, "scale(1.2)")
	require.Contains(t, style, "25% 25%")

	require.Equal(t, 2, doc.Find(".toast").Length())
	require.Contains(t, doc.Find("#liveRegion").Text(), "Added 2 item(s) to cart!")
}

func TestFragmentCarriesCartBadge(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.FragmentString(renderData(t, func(p *pdp.Page) {
		p.AddToCart()
	}))
	require.NoError(t, err)
	doc := testutil.ParseHTML(t, []byte(html))
	require.Equal(t, 1, doc.Find("#pdp #cartCount").Length())
	require.Equal(t, "Cart (1)", doc.Find("#cartCount").Text())

	html, err = r.FragmentString(renderData(t, func(p *pdp.Page) {
		p.AddToCart()
		p.QuickAdd("mojari")
		p.AddBundleToCart()
	}))
	require.NoError(t, err)
	doc = testutil.ParseHTML(t, []byte(html))
	require.Equal(t, "Cart (5)", doc.Find("#cartCount").Text())

	var page bytes.Buffer
	require.NoError(t, r.Page(&page, renderData(t, nil)))
	require.Equal(t, 1, testutil.ParseHTML(t, page.Bytes()).Find("#cartCount").Length())
}

func TestCarouselMarkup(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.FragmentString(renderData(t, nil))
	require.NoError(t, err)
	doc := testutil.ParseHTML(t, []byte(html))

	track := doc.Find(`.carousel-track[name="scroll:related"]`)
	require.Equal(t, 1, track.Length())
	require.Equal(t, "", track.AttrOr("data-extent", "missing"))
	require.Contains(t, track.AttrOr("hx-trigger", ""), "!this.dataset.settling")

	right := doc.Find(`[name="scroll-right:related"]`)
	_, disabled := right.Attr("disabled")
	require.False(t, disabled)
	require.Contains(t, right.AttrOr("hx-vals", ""), "pdpGeometry(this)")
	_, disabled = doc.Find(`[name="scroll-left:related"]`).Attr("disabled")
	require.True(t, disabled)

	html, err = r.FragmentString(renderData(t, func(p *pdp.Page) {
		p.ReportScroll("related", 0, 1200, 600)
	}))
	require.NoError(t, err)
	doc = testutil.ParseHTML(t, []byte(html))
	require.Equal(t, "1200 600", doc.Find(`.carousel-track[name="scroll:related"]`).AttrOr("data-extent", ""))
}
