package roles

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/webscout/agent"
	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/internal/testutil"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool/extraction"
)

const productsHTML = `<html><body>
<h1>Widgets</h1>
<table><tr><th>Name</th><th>Price</th></tr><tr><td>Alpha</td><td>1.5</td></tr></table>
</body></html>`

func shopPage() *testutil.FakePage {
	return testutil.NewFakePage(
		testutil.NewPageBuilder("https://shop.test").Title("Shop").Link("Products", "https://shop.test/products").Build(),
		testutil.NewPageBuilder("https://shop.test/products").Title("Products").HTML(productsHTML).Build(),
	)
}

func runContext(t *testing.T, m model.Model, page core.Page) *core.RunContext {
	t.Helper()
	return core.NewRunContext(context.Background(), func(o *core.RunContextOptions) {
		o.RunID = "roles-test"
		o.SaveDir = t.TempDir()
		o.Model = m
		o.Page = page
	})
}

func rows(names ...string) map[string]any {
	items := make([]any, len(names))
	for i, n := range names {
		items[i] = map[string]any{"name": n, "price": float64(i) + 0.5}
	}
	return map[string]any{"rows": items}
}

func messagesText(req model.Request) string {
	var sb strings.Builder
	for _, m := range req.Messages {
		sb.WriteString(m.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestRunBrain_EndToEnd(t *testing.T) {
	m := model.NewScriptedModel().
		AddToolCall("save_plan", map[string]any{"steps": []any{
			map[string]any{"goal": "open product list", "success_criteria": "products page open"},
			map[string]any{"goal": "extract products", "success_criteria": "table written"},
		}}).
		AddToolCall("invoke_navigator", map[string]any{"task": "Open the product list of shop.test"}).
		AddToolCall("go_to_url", map[string]any{"url": "https://shop.test/products"}).
		AddToolCall("navigation_done", map[string]any{"success": true, "message": "on the product list"}).
		AddToolCall("invoke_extractor", map[string]any{
			"goal": "all products",
			"row_schema": []any{
				map[string]any{"name": "name", "type": "string", "description": "Product name"},
				map[string]any{"name": "price", "type": "number", "description": "Price in EUR"},
			},
		}).
		AddToolCall("persist_rows", rows("A", "B", "C")).
		AddToolCall("persist_rows", rows("D", "E")).
		AddToolCall("finalize_extraction", nil).
		AddToolCall("print_file", map[string]any{"path": "02_extractor/rows.csv"}).
		AddToolCall("done", map[string]any{"success": true, "message": "5 products"})

	rc := runContext(t, m, shopPage())

	res := RunBrain(rc, "List all products of shop.test with their price")
	require.True(t, res.Success, res.Message)
	assert.True(t, res.Done)
	assert.Equal(t, core.ActionDone, res.Action)
	assert.Equal(t, "5 products", res.Message)
	assert.Equal(t, 2, rc.LastAgentID())

	reqs := m.Requests()
	require.Len(t, reqs, 10)

	// brain sees its plan from the step after save_plan on
	assert.NotContains(t, messagesText(reqs[0]), "Current plan:")
	assert.Contains(t, messagesText(reqs[1]), "Current plan:")

	// navigator observation with screenshot and structured output
	assert.Contains(t, messagesText(reqs[2]), "Current url: about:blank")
	assert.True(t, reqs[2].Messages[len(reqs[2].Messages)-2].HasImages())
	require.NotNil(t, reqs[2].OutputSchema)
	assert.Equal(t, "navigator_state", reqs[2].OutputSchema.Name)
	assert.Contains(t, messagesText(reqs[3]), "Current url: https://shop.test/products")

	// extractor sees the rendered page and the row schema
	assert.Contains(t, messagesText(reqs[5]), "Widgets")
	assert.Contains(t, messagesText(reqs[5]), `"price"`)
	assert.Equal(t, "rows", reqs[5].OutputSchema.Name)

	// the brain gets the table back through print_file
	last := messagesText(reqs[9])
	assert.Contains(t, last, "extractor (agent 2) finished with extraction_done")
	assert.Contains(t, last, "name,price\nA,0.5\nB,1.5\nC,2.5\nD,0.5\nE,1.5")

	for _, dir := range []string{"00_brain", "01_navigator", "02_extractor"} {
		_, err := os.Stat(filepath.Join(rc.SaveDir, dir, "step_00_messages.json"))
		assert.NoError(t, err, dir)
	}
}

func TestRunBrain_ProtocolViolation(t *testing.T) {
	m := model.NewScriptedModel().AddResponse(&model.Response{})

	res := RunBrain(runContext(t, m, nil), "anything")
	assert.False(t, res.Success)
	assert.True(t, res.Done)
	assert.Equal(t, core.ActionProtocolViolation, res.Action)
}

func TestRunBrain_ChildViolationIsToolFailure(t *testing.T) {
	m := model.NewScriptedModel().
		AddToolCall("invoke_navigator", map[string]any{"task": "open shop"}).
		AddResponse(&model.Response{}).
		AddToolCall("done", map[string]any{"success": false, "message": "navigator broke"})

	res := RunBrain(runContext(t, m, shopPage()), "anything", func(o *Options) { o.DisablePersistence = true })
	assert.False(t, res.Success)
	assert.Equal(t, core.ActionDone, res.Action)

	reqs := m.Requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, messagesText(reqs[2]), "navigator (agent 1) aborted")
}

func TestRunBrain_BudgetExhaustion(t *testing.T) {
	m := model.NewScriptedModel().SetFallback(&model.Response{Text: "thinking"})

	res := RunBrain(runContext(t, m, nil), "anything", func(o *Options) {
		o.BrainSteps = 3
		o.DisablePersistence = true
	})
	assert.False(t, res.Success)
	assert.Equal(t, core.ActionMaxStepsExceeded, res.Action)
	assert.Len(t, m.Requests(), 3)
}

func TestInvokeExtractor_RejectsBadSchema(t *testing.T) {
	m := model.NewScriptedModel().
		AddToolCall("invoke_extractor", map[string]any{
			"goal": "x",
			"row_schema": []any{
				map[string]any{"name": "a", "type": "string", "description": ""},
				map[string]any{"name": "a", "type": "string", "description": ""},
			},
		}).
		AddToolCall("done", map[string]any{"success": false, "message": "no"})

	rc := runContext(t, m, shopPage())
	res := RunBrain(rc, "x", func(o *Options) { o.DisablePersistence = true })
	assert.Equal(t, core.ActionDone, res.Action)
	assert.Contains(t, messagesText(m.Requests()[1]), "declared twice")
}

func TestNewRoles_Budgets(t *testing.T) {
	brain, err := NewBrain("g")
	require.NoError(t, err)
	assert.Equal(t, 1000, brain.MaxSteps())
	assert.Equal(t, []string{
		"save_plan", "complete_plan_step", "print_file", "done", "invoke_navigator", "invoke_extractor",
	}, brain.Tools().Names())

	nav, err := NewNavigator("t")
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultMaxSteps, nav.MaxSteps())
	assert.Equal(t, 15, nav.Tools().Len())

	schema, err := extraction.ParseFieldList("name,price:number")
	require.NoError(t, err)
	ext, err := NewExtractor("g", schema, func(o *Options) { o.ExtractorSteps = 5 })
	require.NoError(t, err)
	assert.Equal(t, 5, ext.MaxSteps())
	assert.Equal(t, []string{"persist_rows", "finalize_extraction"}, ext.Tools().Names())
}

func TestBrowserState_Observation(t *testing.T) {
	timeNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC) }
	defer func() { timeNow = time.Now }()

	page := shopPage()
	require.NoError(t, page.Navigate(context.Background(), "https://shop.test"))
	rc := runContext(t, nil, page)

	entries, err := BrowserState(false).Observe(rc, agent.StepInfo{Step: 4, MaxSteps: 20})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	text := entries[0].Text()
	assert.True(t, entries[0].Ephemeral)
	assert.Contains(t, text, "Current step: 4")
	assert.Contains(t, text, "Current date and time: 2026-01-02 03:04")
	assert.Contains(t, text, "[Start of page]\n[0]<a href='https://shop.test/products'>Products />\n[End of page]")
	assert.Contains(t, text, `- page_id=0 url=https://shop.test title="Shop"`)
}

func TestObservers_NoPage(t *testing.T) {
	rc := runContext(t, nil, nil)

	for _, o := range []agent.Observer{BrowserState(true), PageText(), CurrentPlan()} {
		entries, err := o.Observe(rc, agent.StepInfo{})
		assert.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	out := truncate("aé€b", 4)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "aé\n... [truncated]", out)
}
