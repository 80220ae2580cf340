package testutil

import (
	"github.com/hupe1980/webscout/core"
)

// PageFixture is the static content served by FakePage for one URL.
type PageFixture struct {
	URL      string
	Title    string
	HTML     string
	Height   int
	Elements []core.Element
	// Links maps an element index to the URL a click navigates to.
	Links map[int]string
	// NewTab marks links that open in a new tab.
	NewTab map[int]bool
	// Options holds the options of select elements by index.
	Options map[int][]string
	// Texts lists strings ScrollToText can find.
	Texts []string
}

// PageBuilder provides a fluent helper for constructing page fixtures.
// Example:
//
//	p := NewPageBuilder("https://shop.test").Title("Shop").Link("Next", "https://shop.test/2").Build()
//
// Element indices are assigned in the order the elements are added.
type PageBuilder struct {
	p PageFixture
}

// NewPageBuilder creates a builder for url with a default height of one viewport.
func NewPageBuilder(url string) *PageBuilder {
	return &PageBuilder{p: PageFixture{
		URL:     url,
		Title:   url,
		Height:  DefaultViewport,
		Links:   map[int]string{},
		NewTab:  map[int]bool{},
		Options: map[int][]string{},
	}}
}

// Title sets the document title (chainable).
func (b *PageBuilder) Title(t string) *PageBuilder { b.p.Title = t; return b }

// HTML sets the document markup (chainable).
func (b *PageBuilder) HTML(h string) *PageBuilder { b.p.HTML = h; return b }

// Height sets the scrollable document height in pixels (chainable).
func (b *PageBuilder) Height(px int) *PageBuilder { b.p.Height = px; return b }

// Text registers text reachable by scroll_to_text (chainable).
func (b *PageBuilder) Text(t ...string) *PageBuilder { b.p.Texts = append(b.p.Texts, t...); return b }

// Link adds an anchor navigating to href (chainable).
func (b *PageBuilder) Link(text, href string) *PageBuilder {
	i := b.add("a", text, map[string]string{"href": href})
	b.p.Links[i] = href
	return b
}

// TabLink adds an anchor that opens href in a new tab (chainable).
func (b *PageBuilder) TabLink(text, href string) *PageBuilder {
	i := b.add("a", text, map[string]string{"href": href, "target": "_blank"})
	b.p.Links[i] = href
	b.p.NewTab[i] = true
	return b
}

// Input adds a text input (chainable).
func (b *PageBuilder) Input(name string) *PageBuilder {
	b.add("input", "", map[string]string{"name": name, "type": "text"})
	return b
}

// Button adds a button without navigation (chainable).
func (b *PageBuilder) Button(text string) *PageBuilder {
	b.add("button", text, nil)
	return b
}

// Select adds a select element with options (chainable).
func (b *PageBuilder) Select(name string, options ...string) *PageBuilder {
	i := b.add("select", "", map[string]string{"name": name})
	b.p.Options[i] = options
	return b
}

// Build returns the fixture.
func (b *PageBuilder) Build() *PageFixture {
	p := b.p
	return &p
}

func (b *PageBuilder) add(tag, text string, attrs map[string]string) int {
	i := len(b.p.Elements)
	b.p.Elements = append(b.p.Elements, core.Element{Index: i, Tag: tag, Text: text, Attributes: attrs})
	return i
}
