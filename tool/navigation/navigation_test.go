package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/internal/testutil"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool"
)

func shop() []*testutil.PageFixture {
	return []*testutil.PageFixture{
		testutil.NewPageBuilder("https://shop.test").
			Title("Shop").
			Link("Products", "https://shop.test/products").
			TabLink("Help", "https://help.test").
			Input("q").
			Select("sort", "Price", "Name").
			Height(2400).
			Text("Free shipping").
			Build(),
		testutil.NewPageBuilder("https://shop.test/products").Title("Products").Build(),
	}
}

func setup(t *testing.T, page core.Page) (*tool.Registry, *core.RunContext) {
	t.Helper()
	r, err := tool.NewRegistry(Tools()...)
	require.NoError(t, err)
	rc := core.NewRunContext(context.Background(), func(o *core.RunContextOptions) {
		o.RunID = "nav-test"
		o.SaveDir = t.TempDir()
		o.Page = page
	})
	return r, rc
}

func call(r *tool.Registry, rc *core.RunContext, name string, args map[string]any) core.ActionResult {
	return r.Dispatch(rc, model.NewToolCall("call_"+name, name, args))
}

func TestTools_Names(t *testing.T) {
	r, err := tool.NewRegistry(Tools()...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"search_google", "wait", "go_back", "go_to_url", "input_text", "click_element",
		"open_tab", "switch_tab", "scroll_down", "scroll_up", "send_keys", "scroll_to_text",
		"get_dropdown_options", "select_dropdown_option", "navigation_done",
	}, r.Names())
}

func TestNavigate_SearchGoAndBack(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)

	res := call(r, rc, "search_google", map[string]any{"query": "red shoes"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, SearchURL+"red+shoes", page.URL())

	res = call(r, rc, "go_to_url", map[string]any{"url": "https://shop.test"})
	require.True(t, res.Success)
	assert.Equal(t, "Navigated to https://shop.test", res.Message)

	res = call(r, rc, "go_back", nil)
	require.True(t, res.Success)
	assert.Equal(t, SearchURL+"red+shoes", page.URL())
}

func TestClickElement(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)
	require.NoError(t, page.Navigate(context.Background(), "https://shop.test"))

	res := call(r, rc, "click_element", map[string]any{"index": 0})
	require.True(t, res.Success)
	assert.Equal(t, false, res.Content["new_tab"])
	assert.Equal(t, "https://shop.test/products", page.URL())

	call(r, rc, "go_back", nil)

	res = call(r, rc, "click_element", map[string]any{"index": 1})
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "New tab opened")
	assert.Equal(t, "https://help.test", page.URL())

	res = call(r, rc, "click_element", map[string]any{"index": 42})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Element not clickable with index 42")
}

func TestTabs(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)

	require.True(t, call(r, rc, "open_tab", map[string]any{"url": "https://shop.test"}).Success)
	assert.Equal(t, "https://shop.test", page.URL())

	require.True(t, call(r, rc, "switch_tab", map[string]any{"page_id": 0}).Success)
	assert.Equal(t, "about:blank", page.URL())

	res := call(r, rc, "switch_tab", map[string]any{"page_id": 7})
	assert.False(t, res.Success)
	assert.Equal(t, tool.CodeExecution, res.Content["error_code"])
}

func TestInputAndKeys(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)
	require.NoError(t, page.Navigate(context.Background(), "https://shop.test"))

	res := call(r, rc, "input_text", map[string]any{"index": 2, "text": "boots"})
	require.True(t, res.Success)
	assert.Equal(t, "boots", page.Typed(2))

	require.True(t, call(r, rc, "send_keys", map[string]any{"keys": "Enter"}).Success)
	assert.Equal(t, []string{"Enter"}, page.Keys())
}

func TestScroll(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)
	require.NoError(t, page.Navigate(context.Background(), "https://shop.test"))

	res := call(r, rc, "scroll_down", map[string]any{"amount": 0})
	require.True(t, res.Success)
	assert.Equal(t, "Scrolled down the page by one page", res.Message)
	assert.Equal(t, testutil.DefaultViewport, page.ScrollY())

	res = call(r, rc, "scroll_up", map[string]any{"amount": 300})
	require.True(t, res.Success)
	assert.Equal(t, "Scrolled up the page by 300 pixels", res.Message)
	assert.Equal(t, testutil.DefaultViewport-300, page.ScrollY())

	res = call(r, rc, "scroll_to_text", map[string]any{"text": "free shipping"})
	assert.True(t, res.Success)
	assert.Equal(t, true, res.Content["found"])

	res = call(r, rc, "scroll_to_text", map[string]any{"text": "discount"})
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "not found")
}

func TestDropdown(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)
	require.NoError(t, page.Navigate(context.Background(), "https://shop.test"))

	res := call(r, rc, "get_dropdown_options", map[string]any{"index": 3})
	require.True(t, res.Success)
	assert.Equal(t, []string{"Price", "Name"}, res.Content["options"])
	assert.Contains(t, res.Message, `1: text="Name"`)

	res = call(r, rc, "select_dropdown_option", map[string]any{"index": 3, "text": "Name"})
	assert.True(t, res.Success)

	res = call(r, rc, "select_dropdown_option", map[string]any{"index": 3, "text": "Color"})
	assert.False(t, res.Success)

	res = call(r, rc, "get_dropdown_options", map[string]any{"index": 0})
	assert.False(t, res.Success)
}

func TestWait(t *testing.T) {
	r, rc := setup(t, testutil.NewFakePage())

	res := call(r, rc, "wait", map[string]any{"seconds": 0})
	assert.True(t, res.Success)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res = call(r, rc.WithContext(ctx), "wait", map[string]any{"seconds": 5})
	assert.False(t, res.Success)
}

func TestPageErrors(t *testing.T) {
	page := testutil.NewFakePage(shop()...).Fail("Navigate", errors.New("net::ERR_NAME_NOT_RESOLVED"))
	r, rc := setup(t, page)

	res := call(r, rc, "go_to_url", map[string]any{"url": "https://nowhere.test"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "ERR_NAME_NOT_RESOLVED")

	_, noPage := setup(t, nil)
	res = call(r, noPage, "go_back", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no browser page attached")
}

func TestNavigationDone(t *testing.T) {
	page := testutil.NewFakePage(shop()...)
	r, rc := setup(t, page)
	require.NoError(t, page.Navigate(context.Background(), "https://shop.test/products"))

	res := call(r, rc, "navigation_done", map[string]any{"success": true, "message": "on the product list"})
	assert.True(t, res.Done)
	assert.True(t, res.Success)
	assert.Equal(t, core.ActionNavigationDone, res.Action)
	assert.Equal(t, "https://shop.test/products", res.Content["url"])
	assert.Equal(t, "Products", res.Content["title"])
}
