package tool

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/internal/util"
	"github.com/hupe1980/webscout/model"
)

// ErrDuplicateTool is returned by NewRegistry when two tools share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry is the static tool set of one agent role: an ordered list of
// tools resolved by table lookup on the name issued by the model.
type Registry struct {
	tools   []Tool
	byName  map[string]Tool
	schemas map[string]map[string]any
}

// NewRegistry builds a registry preserving the order of tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:   make([]Tool, 0, len(tools)),
		byName:  make(map[string]Tool, len(tools)),
		schemas: make(map[string]map[string]any, len(tools)),
	}

	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, errors.New("tool name must not be empty")
		}

		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}

		r.tools = append(r.tools, t)
		r.byName[name] = t
		r.schemas[name] = Schema(t.Params())
	}

	return r, nil
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Schema returns the strict function definitions presented to the model.
func (r *Registry) Schema() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.tools))

	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  r.schemas[t.Name()],
				Strict:      true,
			},
		})
	}

	return defs
}

// Dispatch resolves call against the registry, validates its arguments and
// invokes the tool bound to rc. It never panics and never returns an error:
// every failure is reported as a failed ActionResult whose message is fed
// back to the model.
func (r *Registry) Dispatch(rc *core.RunContext, call model.ToolCall) (result core.ActionResult) {
	name := call.Function.Name
	tc := core.NewToolContext(rc, name, call.ID)
	start := time.Now()

	t, ok := r.byName[name]
	if !ok {
		tc.LogWarn("tool.dispatch.unknown", "available", r.Names())

		return failed(name, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("Tool '%s' not found. Available tools: %s", name, strings.Join(r.Names(), ", ")),
			Code:    CodeUnknownTool,
		})
	}

	args, err := ParseArgs(call.Function.Arguments)
	if err != nil {
		tc.LogWarn("tool.dispatch.validation_failed", "error", err.Error())

		return failed(name, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation, Details: err})
	}

	if err := util.ValidateParameters(args, r.schemas[name]); err != nil {
		tc.LogWarn("tool.dispatch.validation_failed", "error", err.Error())

		return failed(name, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		})
	}

	defer func() {
		if rec := recover(); rec != nil {
			tc.LogError("tool.dispatch.panic", "panic", fmt.Sprint(rec))

			result = failed(name, &ToolError{Tool: name, Message: fmt.Sprintf("panic: %v", rec), Code: CodeExecution})
		}
	}()

	res, err := t.Call(tc, args)
	if err != nil {
		var toolErr *ToolError
		if !errors.As(err, &toolErr) {
			toolErr = &ToolError{Tool: name, Message: err.Error(), Code: CodeExecution}
		}

		return failed(name, toolErr)
	}

	if res.Action == "" {
		res.Action = name
	}

	tc.LogDebug("tool.dispatch.done", "duration_ms", time.Since(start).Milliseconds(), "result", res.String())

	return res
}

func failed(name string, err *ToolError) core.ActionResult {
	return core.Fail(name, err.Error()).WithContent("error_code", err.Code)
}
