package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Page is the browser collaborator every navigation tool and observer
// adapts. Element indices refer to the Elements of the most recent State.
type Page interface {
	// State captures the observable state of the active tab.
	State(ctx context.Context, withScreenshot bool) (*PageState, error)
	// HTML returns the full document markup of the active tab.
	HTML(ctx context.Context) (string, error)

	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	// Click clicks the indexed element and reports whether a new tab opened
	// (in which case the page switches to it).
	Click(ctx context.Context, index int) (newTab bool, err error)
	Type(ctx context.Context, index int, text string) error
	// Scroll scrolls the viewport vertically. pixels <= 0 scrolls one viewport height.
	Scroll(ctx context.Context, down bool, pixels int) error
	// ScrollToText scrolls the first visible match into view.
	ScrollToText(ctx context.Context, text string) (found bool, err error)
	SendKeys(ctx context.Context, keys string) error
	OpenTab(ctx context.Context, url string) error
	SwitchTab(ctx context.Context, tabID int) error
	DropdownOptions(ctx context.Context, index int) ([]string, error)
	SelectOption(ctx context.Context, index int, text string) (string, error)
}

// Tab describes one open browser tab.
type Tab struct {
	ID    int    `json:"page_id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Element is one interactive element inside the viewport.
type Element struct {
	Index      int               `json:"index"`
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// String renders the element the way it is presented to the model:
// [index]<tag attr='value'>text />
func (e Element) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%d]<%s", e.Index, e.Tag)

	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if v := e.Attributes[k]; v != "" {
			fmt.Fprintf(&sb, " %s='%s'", k, v)
		}
	}

	sb.WriteString(">")
	sb.WriteString(e.Text)
	sb.WriteString(" />")

	return sb.String()
}

// PageState is a point-in-time observation of the active tab.
type PageState struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Tabs        []Tab     `json:"tabs"`
	Elements    []Element `json:"elements"`
	PixelsAbove int       `json:"pixels_above"`
	PixelsBelow int       `json:"pixels_below"`
	Screenshot  []byte    `json:"-"`
}

// ElementsText renders the interactive elements with the scroll position
// markers used in observations.
func (s *PageState) ElementsText() string {
	if len(s.Elements) == 0 {
		return "- Empty page -"
	}

	lines := make([]string, 0, len(s.Elements)+2)

	if s.PixelsAbove > 0 {
		lines = append(lines, fmt.Sprintf("... %d pixels above - scroll or extract content to see more ...", s.PixelsAbove))
	} else {
		lines = append(lines, "[Start of page]")
	}

	for _, e := range s.Elements {
		lines = append(lines, e.String())
	}

	if s.PixelsBelow > 0 {
		lines = append(lines, fmt.Sprintf("... %d pixels below - scroll or extract content to see more ...", s.PixelsBelow))
	} else {
		lines = append(lines, "[End of page]")
	}

	return strings.Join(lines, "\n")
}

// TabsText renders the open tabs one per line.
func (s *PageState) TabsText() string {
	lines := make([]string, 0, len(s.Tabs))
	for _, t := range s.Tabs {
		lines = append(lines, fmt.Sprintf("- page_id=%d url=%s title=%q", t.ID, t.URL, t.Title))
	}
	return strings.Join(lines, "\n")
}
