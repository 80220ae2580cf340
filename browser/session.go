package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/logging"
)

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 1100
	DefaultTimeout        = 30000.0 // milliseconds
)

var _ core.Page = (*Session)(nil)

// Options configures Launch.
type Options struct {
	Headless bool
	// CDPURL connects to a running Chromium instead of launching one.
	CDPURL         string
	ViewportWidth  int
	ViewportHeight int
	// Timeout for navigation and element actions in milliseconds.
	Timeout float64
	// Install downloads the browser driver before starting.
	Install bool
	Logger  logging.Logger
}

// Session is a single-tab-at-a-time browser session. Calls are serialized.
type Session struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	opts    Options
	logger  logging.Logger
}

// Launch starts playwright and opens a browser context with one blank page.
func Launch(optFns ...func(o *Options)) (*Session, error) {
	opts := Options{
		Headless:       true,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		Timeout:        DefaultTimeout,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	runOpts := &playwright.RunOptions{Verbose: false, Stdout: io.Discard, Stderr: io.Discard}

	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	s := &Session{pw: pw, opts: opts, logger: opts.Logger}

	if err := s.open(); err != nil {
		_ = pw.Stop()
		return nil, err
	}

	s.logger.Info("browser.session.start", "headless", opts.Headless, "cdp", opts.CDPURL != "")

	return s, nil
}

func (s *Session) open() error {
	var err error

	if s.opts.CDPURL != "" {
		s.browser, err = s.pw.Chromium.ConnectOverCDP(s.opts.CDPURL)
	} else {
		s.browser, err = s.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(s.opts.Headless),
		})
	}
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	s.bctx, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: s.opts.ViewportWidth, Height: s.opts.ViewportHeight},
	})
	if err != nil {
		_ = s.browser.Close()
		return fmt.Errorf("create browser context: %w", err)
	}

	s.page, err = s.bctx.NewPage()
	if err != nil {
		_ = s.bctx.Close()
		_ = s.browser.Close()
		return fmt.Errorf("create page: %w", err)
	}

	s.bctx.SetDefaultTimeout(s.opts.Timeout)

	return nil
}

// Close releases the browser and stops playwright.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if s.bctx != nil {
		errs = append(errs, s.bctx.Close())
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
	}

	return errors.Join(errs...)
}

func (s *Session) State(ctx context.Context, withScreenshot bool) (*core.PageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.settle()

	raw, err := s.page.Evaluate(indexScript, includeAttributes)
	if err != nil {
		return nil, fmt.Errorf("index elements: %w", err)
	}

	elements, err := parseElements(raw)
	if err != nil {
		return nil, err
	}

	title, _ := s.page.Title()

	state := &core.PageState{
		URL:      s.page.URL(),
		Title:    title,
		Elements: elements,
		Tabs:     s.tabs(),
	}

	if pos, err := s.page.Evaluate(scrollScript); err == nil {
		state.PixelsAbove, state.PixelsBelow = parsePair(pos)
	}

	if withScreenshot {
		shot, err := s.page.Screenshot()
		if err != nil {
			s.logger.Warn("browser.screenshot.error", "error", err.Error())
		} else {
			state.Screenshot = shot
		}
	}

	return state, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return s.page.Content()
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.settle()

	return nil
}

func (s *Session) GoBack(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.page.GoBack(); err != nil {
		return fmt.Errorf("go back: %w", err)
	}

	s.settle()

	return nil
}

func (s *Session) Click(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	el, err := s.element(index)
	if err != nil {
		return false, err
	}

	before := len(s.bctx.Pages())

	if err := el.Click(); err != nil {
		return false, fmt.Errorf("click failed: %w", err)
	}

	s.settle()

	pages := s.bctx.Pages()
	if len(pages) <= before {
		return false, nil
	}

	s.page = pages[len(pages)-1]
	_ = s.page.BringToFront()
	s.settle()

	return true, nil
}

func (s *Session) Type(ctx context.Context, index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	el, err := s.element(index)
	if err != nil {
		return err
	}

	if err := el.Fill(text); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}

	return nil
}

func (s *Session) Scroll(ctx context.Context, down bool, pixels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	sign := 1
	if !down {
		sign = -1
	}

	var err error
	if pixels > 0 {
		_, err = s.page.Evaluate("(dy) => window.scrollBy(0, dy)", sign*pixels)
	} else {
		_, err = s.page.Evaluate("(sign) => window.scrollBy(0, sign * window.innerHeight)", sign)
	}

	return err
}

func (s *Session) ScrollToText(ctx context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	locators := []playwright.Locator{
		s.page.GetByText(text),
		s.page.Locator("text=" + text),
		s.page.Locator(fmt.Sprintf("//*[contains(text(), '%s')]", strings.ReplaceAll(text, "'", ""))),
	}

	for _, l := range locators {
		first := l.First()

		n, err := l.Count()
		if err != nil || n == 0 {
			continue
		}

		if visible, err := first.IsVisible(); err != nil || !visible {
			continue
		}

		if err := first.ScrollIntoViewIfNeeded(); err != nil {
			s.logger.Debug("browser.scroll_to_text.locator_failed", "error", err.Error())
			continue
		}

		return true, nil
	}

	return false, nil
}

func (s *Session) SendKeys(ctx context.Context, keys string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	kb := s.page.Keyboard()

	err := kb.Press(keys)
	if err == nil || !strings.Contains(err.Error(), "Unknown key") {
		return err
	}

	// not a key name: press the characters one by one
	for _, r := range keys {
		if err := kb.Press(string(r)); err != nil {
			return fmt.Errorf("send key %q: %w", r, err)
		}
	}

	return nil
}

func (s *Session) OpenTab(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := s.bctx.NewPage()
	if err != nil {
		return fmt.Errorf("open tab: %w", err)
	}

	s.page = page

	if _, err := page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.settle()

	return nil
}

func (s *Session) SwitchTab(ctx context.Context, tabID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	pages := s.bctx.Pages()
	if tabID < 0 || tabID >= len(pages) {
		return fmt.Errorf("no tab with page_id %d", tabID)
	}

	s.page = pages[tabID]
	if err := s.page.BringToFront(); err != nil {
		return fmt.Errorf("switch tab: %w", err)
	}

	s.settle()

	return nil
}

func (s *Session) DropdownOptions(ctx context.Context, index int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.page.Evaluate(optionsScript, index)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}

	opts, ok := parseStrings(raw)
	if !ok {
		return nil, fmt.Errorf("element %d is not a select", index)
	}

	return opts, nil
}

func (s *Session) SelectOption(ctx context.Context, index int, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	el, err := s.element(index)
	if err != nil {
		return "", err
	}

	values, err := el.SelectOption(playwright.SelectOptionValues{Labels: playwright.StringSlice(text)})
	if err != nil {
		return "", fmt.Errorf("select option: %w", err)
	}

	if len(values) == 0 {
		return "", fmt.Errorf("option %q not found", text)
	}

	return values[0], nil
}

func (s *Session) element(index int) (playwright.Locator, error) {
	l := s.page.Locator(selector(index))

	n, err := l.Count()
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, fmt.Errorf("element index %d does not exist - retry or use alternative actions", index)
	}

	return l.First(), nil
}

func (s *Session) tabs() []core.Tab {
	pages := s.bctx.Pages()
	tabs := make([]core.Tab, 0, len(pages))

	for i, p := range pages {
		title, _ := p.Title()
		tabs = append(tabs, core.Tab{ID: i, URL: p.URL(), Title: title})
	}

	return tabs
}

// settle waits for the load state; timeouts are not fatal.
func (s *Session) settle() {
	if err := s.page.WaitForLoadState(); err != nil {
		s.logger.Debug("browser.load_state.timeout", "url", s.page.URL(), "error", err.Error())
	}
}
