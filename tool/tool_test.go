package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/model"
)

func newRunContext(t *testing.T) *core.RunContext {
	t.Helper()
	return core.NewRunContext(context.Background(), func(o *core.RunContextOptions) {
		o.RunID = "run-test"
		o.SaveDir = t.TempDir()
	})
}

func sumTool() *FunctionTool {
	return NewFunctionTool("sum", "Add numbers",
		[]Param{
			{Name: "a", Type: TypeNumber},
			{Name: "b", Type: TypeNumber},
		},
		func(_ *core.ToolContext, args Args) (core.ActionResult, error) {
			return core.Succeedf("", "%g", args.Float("a")+args.Float("b")), nil
		})
}

func call(name, args string) model.ToolCall {
	return model.NewToolCall("call_1", name, args)
}

// -------------------- Schema Tests --------------------

func TestSchema_Strict(t *testing.T) {
	schema := Schema([]Param{
		String("url", "Target URL"),
		{Name: "mode", Type: TypeString, Enum: []string{"a", "b"}},
		ArrayOf("steps", "Plan steps", ObjectOf("", "", String("goal", ""), Integer("id", ""))),
	})

	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"url", "mode", "steps"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Equal(t, "Target URL", props["url"].(map[string]any)["description"])
	assert.Equal(t, []string{"a", "b"}, props["mode"].(map[string]any)["enum"])

	items := props["steps"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, false, items["additionalProperties"])
	assert.Equal(t, []string{"goal", "id"}, items["required"])
}

func TestSchema_NoParams(t *testing.T) {
	schema := Schema(nil)
	assert.Empty(t, schema["properties"])
	assert.Equal(t, []string{}, schema["required"])
}

// -------------------- Registry Tests --------------------

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(sumTool(), sumTool())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTool))
}

func TestRegistry_SchemaAndLookup(t *testing.T) {
	r, err := NewRegistry(sumTool(), NewFunctionTool("done", "Finish", nil, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"sum", "done"}, r.Names())
	assert.Equal(t, 2, r.Len())

	defs := r.Schema()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "sum", defs[0].Function.Name)
	assert.True(t, defs[0].Function.Strict)

	_, ok := r.Lookup("done")
	assert.True(t, ok)
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistry_DispatchSuccess(t *testing.T) {
	r, err := NewRegistry(sumTool())
	require.NoError(t, err)

	res := r.Dispatch(newRunContext(t), call("sum", `{"a":2,"b":3}`))
	assert.True(t, res.Success)
	assert.Equal(t, "sum", res.Action)
	assert.Equal(t, "5", res.Message)
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r, err := NewRegistry(sumTool())
	require.NoError(t, err)

	res := r.Dispatch(newRunContext(t), call("fly", `{}`))
	assert.False(t, res.Success)
	assert.False(t, res.Done)
	assert.Contains(t, res.Message, "Tool 'fly' not found")
	assert.Equal(t, CodeUnknownTool, res.Content["error_code"])
}

func TestRegistry_DispatchValidation(t *testing.T) {
	r, err := NewRegistry(sumTool())
	require.NoError(t, err)

	tests := []struct {
		name string
		args string
	}{
		{"malformed json", `{"a":`},
		{"missing", `{"a":1}`},
		{"undeclared", `{"a":1,"b":2,"c":3}`},
		{"mistyped", `{"a":"1","b":2}`},
		{"null", `{"a":null,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Dispatch(newRunContext(t), call("sum", tt.args))
			assert.False(t, res.Success)
			assert.Equal(t, CodeValidation, res.Content["error_code"])
		})
	}
}

func TestRegistry_DispatchExecutionErrors(t *testing.T) {
	failing := NewFunctionTool("fail", "Fails", nil, func(_ *core.ToolContext, _ Args) (core.ActionResult, error) {
		return core.ActionResult{}, errors.New("boom")
	})
	panicking := NewFunctionTool("panic", "Panics", nil, func(_ *core.ToolContext, _ Args) (core.ActionResult, error) {
		panic("kaboom")
	})
	custom := NewFunctionTool("custom", "Custom code", nil, func(_ *core.ToolContext, _ Args) (core.ActionResult, error) {
		return core.ActionResult{}, NewToolError("custom", "nope", "E123")
	})

	r, err := NewRegistry(failing, panicking, custom)
	require.NoError(t, err)
	rc := newRunContext(t)

	res := r.Dispatch(rc, call("fail", ""))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "boom")
	assert.Equal(t, CodeExecution, res.Content["error_code"])

	res = r.Dispatch(rc, call("panic", "{}"))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "kaboom")
	assert.Equal(t, CodeExecution, res.Content["error_code"])

	res = r.Dispatch(rc, call("custom", "{}"))
	assert.False(t, res.Success)
	assert.Equal(t, "E123", res.Content["error_code"])
}

func TestRegistry_DispatchPassesCallID(t *testing.T) {
	var seen string
	probe := NewFunctionTool("probe", "Records the call id", nil, func(tc *core.ToolContext, _ Args) (core.ActionResult, error) {
		seen = tc.CallID()
		return core.Finish("probe", true, "ok", nil), nil
	})

	r, err := NewRegistry(probe)
	require.NoError(t, err)

	res := r.Dispatch(newRunContext(t), model.NewToolCall("call_42", "probe", nil))
	assert.True(t, res.Done)
	assert.Equal(t, "call_42", seen)
}

// -------------------- Args Tests --------------------

func TestArgs_Accessors(t *testing.T) {
	args, err := ParseArgs(`{"s":"x","i":3,"f":1.5,"b":true,"l":[1,2],"o":{"goal":"g"}}`)
	require.NoError(t, err)

	assert.Equal(t, "x", args.String("s"))
	assert.Equal(t, 3, args.Int("i"))
	assert.Equal(t, 1.5, args.Float("f"))
	assert.True(t, args.Bool("b"))
	assert.Len(t, args.Slice("l"), 2)
	assert.Equal(t, "", args.String("missing"))

	var o struct {
		Goal string `json:"goal"`
	}
	require.NoError(t, args.Decode("o", &o))
	assert.Equal(t, "g", o.Goal)

	empty, err := ParseArgs("null")
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

// -------------------- Delegation Tests --------------------

type stubRunner struct {
	name   string
	result core.ActionResult
	err    error
	seen   []*core.RunContext
}

func (s *stubRunner) Name() string { return s.name }

func (s *stubRunner) Run(rc *core.RunContext) (core.ActionResult, error) {
	s.seen = append(s.seen, rc)
	rc.Memory.Set("child_wrote", rc.AgentID)
	return s.result, s.err
}

func TestDelegateTool_DistinctChildIDs(t *testing.T) {
	runner := &stubRunner{name: "navigator", result: core.Finish(core.ActionNavigationDone, true, "arrived", map[string]any{"url": "https://x"})}

	delegate := NewDelegateTool("invoke_navigator", "Navigate", []Param{String("goal", "")},
		func(child *core.RunContext, args Args) (core.Runner, error) {
			return runner, nil
		})

	r, err := NewRegistry(delegate)
	require.NoError(t, err)
	rc := newRunContext(t)

	first := r.Dispatch(rc, call("invoke_navigator", `{"goal":"a"}`))
	second := r.Dispatch(rc, call("invoke_navigator", `{"goal":"b"}`))

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.False(t, first.Done, "child termination never terminates the parent")
	assert.Equal(t, 1, first.Content["agent_id"])
	assert.Equal(t, 2, second.Content["agent_id"])
	assert.Equal(t, "https://x", first.Content["url"])
	assert.Equal(t, core.ActionNavigationDone, first.Content["child_action"])

	// Forked children do not leak memory into the parent.
	_, ok := rc.Memory.Get("child_wrote")
	assert.False(t, ok)
	assert.Equal(t, 0, runner.seen[0].ParentID)
}

func TestDelegateTool_ShareIsolation(t *testing.T) {
	runner := &stubRunner{name: "extractor", result: core.Finish(core.ActionExtractionDone, true, "ok", nil)}

	delegate := NewDelegateTool("invoke_extractor", "Extract", nil,
		func(child *core.RunContext, _ Args) (core.Runner, error) { return runner, nil },
		func(o *DelegateOptions) { o.Isolation = Share })

	r, err := NewRegistry(delegate)
	require.NoError(t, err)
	rc := newRunContext(t)

	res := r.Dispatch(rc, call("invoke_extractor", `{}`))
	require.True(t, res.Success)

	v, ok := rc.Memory.Get("child_wrote")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestDelegateTool_ChildFailures(t *testing.T) {
	aborting := &stubRunner{name: "navigator", err: fmt.Errorf("protocol violation")}

	delegate := NewDelegateTool("invoke_navigator", "Navigate", nil,
		func(child *core.RunContext, _ Args) (core.Runner, error) { return aborting, nil })
	broken := NewDelegateTool("invoke_broken", "Cannot spawn", nil,
		func(child *core.RunContext, _ Args) (core.Runner, error) { return nil, errors.New("no model") })

	r, err := NewRegistry(delegate, broken)
	require.NoError(t, err)
	rc := newRunContext(t)

	res := r.Dispatch(rc, call("invoke_navigator", `{}`))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "protocol violation")
	assert.Equal(t, 1, res.Content["agent_id"])

	res = r.Dispatch(rc, call("invoke_broken", `{}`))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no model")
	assert.Equal(t, CodeExecution, res.Content["error_code"])
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
}
