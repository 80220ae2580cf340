package tool

import (
	"errors"
	"time"

	"github.com/hupe1980/webscout/core"
)

// FunctionFunc is the implementation signature wrapped by FunctionTool.
type FunctionFunc func(tc *core.ToolContext, args Args) (core.ActionResult, error)

// FunctionTool is a generic adapter that exposes a plain Go function as a tool.
//
// Responsibilities:
//   - Holds the declared parameter spec
//   - Invokes the wrapped function with a *core.ToolContext giving access to
//     the page, scratch memory, logging and the call id
//   - Normalizes errors so callers receive *ToolError with consistent codes:
//     EXECUTION_ERROR for plain errors, custom codes preserved when the
//     function returns *ToolError directly
//   - Defaults the ActionResult tag to the tool name
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	// Tool identifier (snake_case)
	name string
	// Human-readable description shown to models
	description string
	// Declared parameters
	params []Param
	// User supplied implementation
	fn FunctionFunc
}

// NewFunctionTool constructs a FunctionTool from an explicit parameter spec and function.
//
// Example:
//
//	goBack := NewFunctionTool(
//	  "go_back",
//	  "Navigate back in the browser history",
//	  nil,
//	  func(tc *core.ToolContext, _ Args) (core.ActionResult, error) {
//	    page, err := tc.Page()
//	    if err != nil {
//	      return core.ActionResult{}, err
//	    }
//	    if err := page.GoBack(tc.Context()); err != nil {
//	      return core.Fail("go_back", err.Error()), nil
//	    }
//	    return core.Succeed("go_back", "Navigated back"), nil
//	  },
//	)
func NewFunctionTool(name, description string, params []Param, fn FunctionFunc) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
	}
}

// Name returns the unique tool name used in tool definitions and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Params returns the declared parameters.
func (t *FunctionTool) Params() []Param { return t.params }

// Call invokes the underlying function.
//
// Error Semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
//
// Logging Fields:
//
//	duration_ms: execution time in milliseconds
//	success: local success flag of the ActionResult
func (t *FunctionTool) Call(tc *core.ToolContext, args Args) (core.ActionResult, error) {
	start := time.Now()

	tc.LogDebug("tool.call.start")

	result, err := t.fn(tc, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) { // Already a ToolError -> just log and forward
			tc.LogError("tool.call.error", "error", toolErr.Message, "code", toolErr.Code)

			return core.ActionResult{}, toolErr
		}

		tc.LogError("tool.call.error", "error", err.Error())

		return core.ActionResult{}, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	if result.Action == "" {
		result.Action = t.name
	}

	tc.LogInfo("tool.call.success", "duration_ms", time.Since(start).Milliseconds(), "success", result.Success)

	return result, nil
}
