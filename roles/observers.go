package roles

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"jaytaylor.com/html2text"

	"github.com/hupe1980/webscout/agent"
	"github.com/hupe1980/webscout/conversation"
	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool/planning"
)

// MaxPageText caps the rendered page text handed to the extractor.
const MaxPageText = 100000

// timeNow is replaced in tests.
var timeNow = time.Now

// BrowserState observes the active tab: URL, tabs and interactive elements,
// followed by a screenshot when withScreenshot is set. All entries are
// ephemeral; the next step re-derives them from the live page.
func BrowserState(withScreenshot bool) agent.Observer {
	return agent.ObserverFunc(func(rc *core.RunContext, info agent.StepInfo) ([]conversation.Entry, error) {
		if rc.Page == nil {
			return nil, nil
		}

		state, err := rc.Page.State(rc.Context, withScreenshot)
		if err != nil {
			return nil, fmt.Errorf("page state: %w", err)
		}

		text := fmt.Sprintf("[Current state starts here]\n"+
			"Current step: %d\n"+
			"Current date and time: %s\n"+
			"The following is one-time information - if you need to remember it write it down:\n"+
			"Current url: %s\n"+
			"Available tabs:\n%s\n"+
			"Interactive elements from top layer of the current page inside the viewport:\n%s",
			info.Step, timeNow().Format("2006-01-02 15:04"), state.URL, state.TabsText(), state.ElementsText())

		entries := []conversation.Entry{ephemeral(conversation.UserText(text))}

		if len(state.Screenshot) > 0 {
			entries = append(entries, ephemeral(conversation.User(
				model.TextPart("Here is a screenshot of the current state of the browser:"),
				model.ImagePart("image/png", base64.StdEncoding.EncodeToString(state.Screenshot)),
			)))
		}

		entries = append(entries, ephemeral(conversation.UserText("[Current state ends here]")))

		return entries, nil
	})
}

// PageText observes the full document of the active tab rendered as text
// with tables preserved.
func PageText() agent.Observer {
	return agent.ObserverFunc(func(rc *core.RunContext, _ agent.StepInfo) ([]conversation.Entry, error) {
		if rc.Page == nil {
			return nil, nil
		}

		html, err := rc.Page.HTML(rc.Context)
		if err != nil {
			return nil, fmt.Errorf("page html: %w", err)
		}

		text, err := html2text.FromString(html, html2text.Options{PrettyTables: true})
		if err != nil {
			return nil, fmt.Errorf("render page: %w", err)
		}

		text = truncate(text, MaxPageText)

		if strings.TrimSpace(text) == "" {
			text = "- Empty page -"
		}

		return []conversation.Entry{
			ephemeral(conversation.UserText("Here is the full page content rendered as text:\n\n" + text)),
		}, nil
	})
}

// CurrentPlan shows the plan saved in memory, if any.
func CurrentPlan() agent.Observer {
	return agent.ObserverFunc(func(rc *core.RunContext, _ agent.StepInfo) ([]conversation.Entry, error) {
		text, ok := planning.CurrentPlanText(rc.Memory)
		if !ok {
			return nil, nil
		}
		return []conversation.Entry{ephemeral(conversation.UserText(text))}, nil
	})
}

func ephemeral(e conversation.Entry) conversation.Entry {
	e.Ephemeral = true
	return e
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "\n... [truncated]"
}
