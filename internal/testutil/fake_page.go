package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/webscout/core"
)

// DefaultViewport is the viewport height of the fake browser.
const DefaultViewport = 800

var _ core.Page = (*FakePage)(nil)

type fakeTab struct {
	history []string
	scrollY int
}

func (t *fakeTab) url() string { return t.history[len(t.history)-1] }

// FakePage is an in-memory core.Page. It serves registered fixtures, keeps
// per-tab history and scroll position, and records every operation.
type FakePage struct {
	mu       sync.Mutex
	pages    map[string]*PageFixture
	tabs     []*fakeTab
	active   int
	typed    map[int]string
	selected map[int]string
	keys     []string
	calls    []string
	failures map[string]error
}

// NewFakePage creates a page with one tab showing about:blank.
func NewFakePage(fixtures ...*PageFixture) *FakePage {
	f := &FakePage{
		pages:    map[string]*PageFixture{},
		tabs:     []*fakeTab{{history: []string{"about:blank"}}},
		typed:    map[int]string{},
		selected: map[int]string{},
		failures: map[string]error{},
	}

	for _, p := range fixtures {
		f.pages[p.URL] = p
	}

	return f
}

// Fail makes every later call of op (e.g. "Click") return err.
func (f *FakePage) Fail(op string, err error) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
	return f
}

// Calls returns the recorded operations, e.g. "Navigate https://a".
func (f *FakePage) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// URL returns the URL of the active tab.
func (f *FakePage) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tab().url()
}

// Typed returns the text typed into element index.
func (f *FakePage) Typed(index int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typed[index]
}

// Keys returns the key sequences sent so far.
func (f *FakePage) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.keys)
}

// ScrollY returns the vertical scroll offset of the active tab.
func (f *FakePage) ScrollY() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tab().scrollY
}

func (f *FakePage) State(_ context.Context, withScreenshot bool) (*core.PageState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("State", ""); err != nil {
		return nil, err
	}

	t := f.tab()
	p := f.fixture()

	s := &core.PageState{
		URL:         t.url(),
		Title:       p.Title,
		Elements:    slices.Clone(p.Elements),
		PixelsAbove: t.scrollY,
		PixelsBelow: max(0, p.Height-DefaultViewport-t.scrollY),
	}

	for i, tab := range f.tabs {
		s.Tabs = append(s.Tabs, core.Tab{ID: i, URL: tab.url(), Title: f.fixtureFor(tab.url()).Title})
	}

	if withScreenshot {
		shot, err := screenshot()
		if err != nil {
			return nil, err
		}
		s.Screenshot = shot
	}

	return s, nil
}

func (f *FakePage) HTML(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("HTML", ""); err != nil {
		return "", err
	}

	return f.fixture().HTML, nil
}

func (f *FakePage) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Navigate", url); err != nil {
		return err
	}

	f.visit(url)

	return nil
}

func (f *FakePage) GoBack(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GoBack", ""); err != nil {
		return err
	}

	t := f.tab()
	if len(t.history) > 1 {
		t.history = t.history[:len(t.history)-1]
		t.scrollY = 0
	}

	return nil
}

func (f *FakePage) Click(_ context.Context, index int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Click", fmt.Sprint(index)); err != nil {
		return false, err
	}

	p := f.fixture()
	if index < 0 || index >= len(p.Elements) {
		return false, fmt.Errorf("element index %d does not exist", index)
	}

	href, ok := p.Links[index]
	if !ok {
		return false, nil
	}

	if p.NewTab[index] {
		f.openTab(href)
		return true, nil
	}

	f.visit(href)

	return false, nil
}

func (f *FakePage) Type(_ context.Context, index int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Type", fmt.Sprintf("%d %s", index, text)); err != nil {
		return err
	}

	if index < 0 || index >= len(f.fixture().Elements) {
		return fmt.Errorf("element index %d does not exist", index)
	}

	f.typed[index] = text

	return nil
}

func (f *FakePage) Scroll(_ context.Context, down bool, pixels int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("Scroll", fmt.Sprintf("%t %d", down, pixels)); err != nil {
		return err
	}

	if pixels <= 0 {
		pixels = DefaultViewport
	}
	if !down {
		pixels = -pixels
	}

	t := f.tab()
	limit := max(0, f.fixture().Height-DefaultViewport)
	t.scrollY = min(max(0, t.scrollY+pixels), limit)

	return nil
}

func (f *FakePage) ScrollToText(_ context.Context, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("ScrollToText", text); err != nil {
		return false, err
	}

	for _, t := range f.fixture().Texts {
		if strings.Contains(strings.ToLower(t), strings.ToLower(text)) {
			return true, nil
		}
	}

	return false, nil
}

func (f *FakePage) SendKeys(_ context.Context, keys string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("SendKeys", keys); err != nil {
		return err
	}

	f.keys = append(f.keys, keys)

	return nil
}

func (f *FakePage) OpenTab(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("OpenTab", url); err != nil {
		return err
	}

	f.openTab(url)

	return nil
}

func (f *FakePage) SwitchTab(_ context.Context, tabID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("SwitchTab", fmt.Sprint(tabID)); err != nil {
		return err
	}

	if tabID < 0 || tabID >= len(f.tabs) {
		return fmt.Errorf("no tab with page_id %d", tabID)
	}

	f.active = tabID

	return nil
}

func (f *FakePage) DropdownOptions(_ context.Context, index int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("DropdownOptions", fmt.Sprint(index)); err != nil {
		return nil, err
	}

	opts, ok := f.fixture().Options[index]
	if !ok {
		return nil, fmt.Errorf("element %d is not a select", index)
	}

	return slices.Clone(opts), nil
}

func (f *FakePage) SelectOption(_ context.Context, index int, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("SelectOption", fmt.Sprintf("%d %s", index, text)); err != nil {
		return "", err
	}

	opts, ok := f.fixture().Options[index]
	if !ok {
		return "", fmt.Errorf("element %d is not a select", index)
	}

	for _, o := range opts {
		if o == text {
			f.selected[index] = o
			return o, nil
		}
	}

	return "", fmt.Errorf("option %q not found", text)
}

func (f *FakePage) record(op, arg string) error {
	call := op
	if arg != "" {
		call += " " + arg
	}
	f.calls = append(f.calls, call)
	return f.failures[op]
}

func (f *FakePage) tab() *fakeTab { return f.tabs[f.active] }

func (f *FakePage) fixture() *PageFixture { return f.fixtureFor(f.tab().url()) }

func (f *FakePage) fixtureFor(url string) *PageFixture {
	if p, ok := f.pages[url]; ok {
		return p
	}
	return &PageFixture{URL: url, Title: url}
}

func (f *FakePage) visit(url string) {
	t := f.tab()
	t.history = append(t.history, url)
	t.scrollY = 0
}

func (f *FakePage) openTab(url string) {
	f.tabs = append(f.tabs, &fakeTab{history: []string{url}})
	f.active = len(f.tabs) - 1
}

func screenshot() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
