// Package tool implements the tool calling subsystem that lets agents invoke
// structured capabilities (browser actions, bookkeeping, delegation) with
// strictly validated arguments and uniform ActionResult outcomes.
package tool

import (
	"fmt"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/internal/util"
)

// Tool defines one named capability exposed to the model.
//
// Tool implementations should:
//   - Provide clear, descriptive snake_case names and descriptions
//   - Declare every parameter (all declared parameters are required)
//   - Report operational failures as a failed ActionResult or an error
//   - Be thread-safe if shared between registries
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Params returns the declared parameter spec. The JSON schema presented
	// to the model is derived from it mechanically.
	Params() []Param

	// Call executes the tool with validated arguments. A returned error is
	// converted into a failed ActionResult by the dispatcher.
	Call(tc *core.ToolContext, args Args) (core.ActionResult, error)
}

// Error codes used by ToolError.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeUnknownTool = "UNKNOWN_TOOL"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
