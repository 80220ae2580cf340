package planning

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool"
)

func setup(t *testing.T) (*tool.Registry, *core.RunContext) {
	t.Helper()
	r, err := tool.NewRegistry(Tools()...)
	require.NoError(t, err)
	rc := core.NewRunContext(context.Background(), func(o *core.RunContextOptions) {
		o.RunID = "plan-test"
		o.SaveDir = t.TempDir()
	})
	return r, rc
}

func TestSaveAndCompletePlan(t *testing.T) {
	r, rc := setup(t)

	_, ok := CurrentPlanText(rc.Memory)
	assert.False(t, ok)

	res := r.Dispatch(rc, model.NewToolCall("c1", "save_plan", map[string]any{
		"steps": []any{
			map[string]any{"goal": "find list", "success_criteria": "list page open"},
			map[string]any{"goal": "extract", "success_criteria": "csv written"},
		},
	}))
	require.True(t, res.Success, res.Message)

	p, ok := Load(rc.Memory)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, []int{p.Steps[0].ID, p.Steps[1].ID})

	res = r.Dispatch(rc, model.NewToolCall("c2", "complete_plan_step", map[string]any{"step_id": 2}))
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "1 remaining")

	text, ok := CurrentPlanText(rc.Memory)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(text, "Current plan: {"))
	assert.Contains(t, text, `"goal":"extract","success_criteria":"csv written","completed":true`)

	res = r.Dispatch(rc, model.NewToolCall("c3", "complete_plan_step", map[string]any{"step_id": 9}))
	assert.False(t, res.Success)
}

func TestSavePlan_RejectsMalformedSteps(t *testing.T) {
	r, rc := setup(t)

	res := r.Dispatch(rc, model.NewToolCall("c1", "save_plan", map[string]any{
		"steps": []any{map[string]any{"goal": "only goal"}},
	}))
	assert.False(t, res.Success)
	assert.Equal(t, tool.CodeValidation, res.Content["error_code"])

	res = r.Dispatch(rc, model.NewToolCall("c2", "save_plan", map[string]any{"steps": []any{}}))
	assert.False(t, res.Success)

	_, ok := Load(rc.Memory)
	assert.False(t, ok)
}

func TestLoad_ReturnsCopy(t *testing.T) {
	_, rc := setup(t)
	Store(rc.Memory, &Plan{Steps: []PlanStep{{ID: 1, Goal: "g"}}})

	p, _ := Load(rc.Memory)
	p.Steps[0].Completed = true

	again, _ := Load(rc.Memory)
	assert.False(t, again.Steps[0].Completed)
}

func TestPrintFile(t *testing.T) {
	r, rc := setup(t)

	dir := filepath.Join(rc.SaveDir, "01_extractor")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,price\nA,1\n"), 0o644))

	for _, p := range []string{path, "01_extractor/rows.csv"} {
		res := r.Dispatch(rc, model.NewToolCall("c1", "print_file", map[string]any{"path": p}))
		require.True(t, res.Success, res.Message)
		assert.Contains(t, res.Message, "name,price\nA,1")
	}

	res := r.Dispatch(rc, model.NewToolCall("c2", "print_file", map[string]any{"path": "../../etc/passwd"}))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "outside the run directory")

	res = r.Dispatch(rc, model.NewToolCall("c3", "print_file", map[string]any{"path": "missing.csv"}))
	assert.False(t, res.Success)
}

func TestDone(t *testing.T) {
	r, rc := setup(t)

	res := r.Dispatch(rc, model.NewToolCall("c1", "done", map[string]any{"success": true, "message": "42 items"}))
	assert.True(t, res.Done)
	assert.True(t, res.Success)
	assert.Equal(t, core.ActionDone, res.Action)
	assert.Equal(t, "42 items", res.Message)
}
