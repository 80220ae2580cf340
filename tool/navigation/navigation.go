// Package navigation adapts core.Page operations into the tools of the
// navigation agent. Every tool reports its effect as a short message that
// stays in the conversation; page errors surface as failed results.
package navigation

import (
	"fmt"
	"net/url"
	"time"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/tool"
)

// SearchURL is the search endpoint used by search_google.
const SearchURL = "https://www.google.com/search?udm=14&q="

// MaxWait caps the wait tool.
const MaxWait = 30 * time.Second

// Tools returns the full navigator tool set, navigation_done last.
func Tools() []tool.Tool {
	return []tool.Tool{
		SearchGoogle(),
		Wait(),
		GoBack(),
		GoToURL(),
		InputText(),
		ClickElement(),
		OpenTab(),
		SwitchTab(),
		ScrollDown(),
		ScrollUp(),
		SendKeys(),
		ScrollToText(),
		GetDropdownOptions(),
		SelectDropdownOption(),
		Done(),
	}
}

// pageTool wraps fn with the page lookup every browser tool needs.
func pageTool(name, description string, params []tool.Param, fn func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error)) tool.Tool {
	return tool.NewFunctionTool(name, description, params, func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
		page, err := tc.Page()
		if err != nil {
			return core.ActionResult{}, err
		}
		return fn(tc, page, args)
	})
}

func SearchGoogle() tool.Tool {
	return pageTool("search_google",
		"Search the query in Google in the current tab. Use concrete, short queries like a human would.",
		[]tool.Param{tool.String("query", "The search query")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			query := args.String("query")
			if err := page.Navigate(tc.Context(), SearchURL+url.QueryEscape(query)); err != nil {
				return core.ActionResult{}, err
			}
			return core.Succeedf("search_google", "Searched for %q in Google", query), nil
		})
}

func Wait() tool.Tool {
	return tool.NewFunctionTool("wait",
		"Wait for a number of seconds, e.g. for a page to finish loading.",
		[]tool.Param{tool.Integer("seconds", "Seconds to wait")},
		func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			d := min(time.Duration(max(args.Int("seconds"), 0))*time.Second, MaxWait)

			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-tc.Context().Done():
				return core.ActionResult{}, tc.Context().Err()
			}

			return core.Succeedf("wait", "Waited for %d seconds", int(d/time.Second)), nil
		})
}

func GoBack() tool.Tool {
	return pageTool("go_back",
		"Navigate back to the previous page in the history of the current tab.",
		nil,
		func(tc *core.ToolContext, page core.Page, _ tool.Args) (core.ActionResult, error) {
			if err := page.GoBack(tc.Context()); err != nil {
				return core.ActionResult{}, err
			}
			return core.Succeed("go_back", "Navigated back"), nil
		})
}

func GoToURL() tool.Tool {
	return pageTool("go_to_url",
		"Navigate to a URL in the current tab.",
		[]tool.Param{tool.String("url", "The URL to open")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			u := args.String("url")
			if err := page.Navigate(tc.Context(), u); err != nil {
				return core.ActionResult{}, err
			}
			return core.Succeedf("go_to_url", "Navigated to %s", u), nil
		})
}

func InputText() tool.Tool {
	return pageTool("input_text",
		"Input text into the interactive element with the given index.",
		[]tool.Param{
			tool.Integer("index", "Index of the element"),
			tool.String("text", "Text to input"),
		},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			index, text := args.Int("index"), args.String("text")
			if err := page.Type(tc.Context(), index, text); err != nil {
				return core.Failf("input_text", "Could not input text into index %d: %v", index, err), nil
			}
			return core.Succeedf("input_text", "Input %s into index %d", text, index), nil
		})
}

func ClickElement() tool.Tool {
	return pageTool("click_element",
		"Click the interactive element with the given index.",
		[]tool.Param{tool.Integer("index", "Index of the element")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			index := args.Int("index")

			newTab, err := page.Click(tc.Context(), index)
			if err != nil {
				return core.Failf("click_element", "Element not clickable with index %d - most likely the page changed: %v", index, err), nil
			}

			msg := fmt.Sprintf("Clicked element with index %d", index)
			if newTab {
				msg += " - New tab opened - switching to it"
			}

			return core.Succeed("click_element", msg).WithContent("new_tab", newTab), nil
		})
}

func OpenTab() tool.Tool {
	return pageTool("open_tab",
		"Open a new tab with the given URL and switch to it.",
		[]tool.Param{tool.String("url", "The URL to open")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			u := args.String("url")
			if err := page.OpenTab(tc.Context(), u); err != nil {
				return core.ActionResult{}, err
			}
			return core.Succeedf("open_tab", "Opened new tab with %s", u), nil
		})
}

func SwitchTab() tool.Tool {
	return pageTool("switch_tab",
		"Switch to the tab with the given page_id.",
		[]tool.Param{tool.Integer("page_id", "Id of the tab")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			id := args.Int("page_id")
			if err := page.SwitchTab(tc.Context(), id); err != nil {
				return core.ActionResult{}, err
			}
			return core.Succeedf("switch_tab", "Switched to tab %d", id), nil
		})
}

func ScrollDown() tool.Tool { return scroll("scroll_down", true) }

func ScrollUp() tool.Tool { return scroll("scroll_up", false) }

func scroll(name string, down bool) tool.Tool {
	dir := "down"
	if !down {
		dir = "up"
	}

	return pageTool(name,
		fmt.Sprintf("Scroll the page %s by a number of pixels. 0 scrolls one page height.", dir),
		[]tool.Param{tool.Integer("amount", "Pixels to scroll, 0 for one page")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			amount := args.Int("amount")
			if err := page.Scroll(tc.Context(), down, amount); err != nil {
				return core.ActionResult{}, err
			}

			by := "one page"
			if amount > 0 {
				by = fmt.Sprintf("%d pixels", amount)
			}

			return core.Succeedf(name, "Scrolled %s the page by %s", dir, by), nil
		})
}

func SendKeys() tool.Tool {
	return pageTool("send_keys",
		"Send special keys like Escape, Backspace, PageDown, Enter or shortcuts like Control+o.",
		[]tool.Param{tool.String("keys", "Keys or shortcut to press")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			keys := args.String("keys")
			if err := page.SendKeys(tc.Context(), keys); err != nil {
				return core.ActionResult{}, err
			}
			return core.Succeedf("send_keys", "Sent keys: %s", keys), nil
		})
}

func ScrollToText() tool.Tool {
	return pageTool("scroll_to_text",
		"Scroll to the first visible occurrence of a text on the page.",
		[]tool.Param{tool.String("text", "Text to scroll to")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			text := args.String("text")

			found, err := page.ScrollToText(tc.Context(), text)
			if err != nil {
				return core.Failf("scroll_to_text", "Failed to scroll to text %q: %v", text, err), nil
			}

			if !found {
				return core.Succeedf("scroll_to_text", "Text %q not found or not visible on page", text).
					WithContent("found", false), nil
			}

			return core.Succeedf("scroll_to_text", "Scrolled to text: %s", text).WithContent("found", true), nil
		})
}

func GetDropdownOptions() tool.Tool {
	return pageTool("get_dropdown_options",
		"List the options of the select element with the given index.",
		[]tool.Param{tool.Integer("index", "Index of the select element")},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			index := args.Int("index")

			opts, err := page.DropdownOptions(tc.Context(), index)
			if err != nil {
				return core.Failf("get_dropdown_options", "No options found for index %d: %v", index, err), nil
			}

			msg := fmt.Sprintf("Options of dropdown %d:", index)
			for i, o := range opts {
				msg += fmt.Sprintf("\n%d: text=%q", i, o)
			}
			msg += "\nUse the exact text in select_dropdown_option"

			return core.Succeed("get_dropdown_options", msg).WithContent("options", opts), nil
		})
}

func SelectDropdownOption() tool.Tool {
	return pageTool("select_dropdown_option",
		"Select the option with the given text in the select element with the given index.",
		[]tool.Param{
			tool.Integer("index", "Index of the select element"),
			tool.String("text", "Exact option text"),
		},
		func(tc *core.ToolContext, page core.Page, args tool.Args) (core.ActionResult, error) {
			index, text := args.Int("index"), args.String("text")

			value, err := page.SelectOption(tc.Context(), index, text)
			if err != nil {
				return core.Failf("select_dropdown_option", "Could not select option %q in index %d: %v", text, index, err), nil
			}

			return core.Succeedf("select_dropdown_option", "Selected option %s with value %s", text, value), nil
		})
}

// Done terminates the navigation agent.
func Done() tool.Tool {
	return tool.NewFunctionTool(core.ActionNavigationDone,
		"Finish the navigation task. Describe where the browser is and what was found.",
		[]tool.Param{
			tool.Boolean("success", "Whether the navigation goal was reached"),
			tool.String("message", "Summary for the caller"),
		},
		func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			content := map[string]any{}
			if page, err := tc.Page(); err == nil {
				if st, err := page.State(tc.Context(), false); err == nil {
					content["url"] = st.URL
					content["title"] = st.Title
				}
			}

			return core.Finish(core.ActionNavigationDone, args.Bool("success"), args.String("message"), content), nil
		})
}
