package core

import "fmt"

// Distinguished action tags.
const (
	// ActionDone signals voluntary termination of the owning agent's loop.
	ActionDone = "done"
	// ActionNavigationDone terminates a navigation specialist.
	ActionNavigationDone = "navigation_done"
	// ActionExtractionDone terminates an extraction specialist.
	ActionExtractionDone = "extraction_done"
	// ActionNoAction tags a step in which the model answered with text only.
	ActionNoAction = "no_action"
	// ActionMaxStepsExceeded tags the synthesized result of budget exhaustion.
	ActionMaxStepsExceeded = "max_steps_exceeded"
	// ActionModelLimitExceeded tags the result of exhausting the run-wide model call cap.
	ActionModelLimitExceeded = "model_limit_exceeded"
	// ActionProtocolViolation tags a run aborted by a malformed model response.
	ActionProtocolViolation = "protocol_violation"
)

// ActionResult is the uniform outcome of one tool execution or one bare-text
// turn. Success reports local success of the action, not whether the
// overarching goal was met. Done requests termination of the owning loop.
// Content carries structured payload (rows, file paths, child ids) that the
// caller can consume without re-parsing Message.
type ActionResult struct {
	Action  string         `json:"action"`
	Success bool           `json:"success"`
	Done    bool           `json:"is_done"`
	Message string         `json:"message"`
	Content map[string]any `json:"content,omitempty"`
}

// Succeed returns a successful, non-terminal result.
func Succeed(action, message string) ActionResult {
	return ActionResult{Action: action, Success: true, Message: message}
}

// Succeedf is Succeed with fmt formatting.
func Succeedf(action, format string, args ...any) ActionResult {
	return Succeed(action, fmt.Sprintf(format, args...))
}

// Fail returns a failed, non-terminal result.
func Fail(action, message string) ActionResult {
	return ActionResult{Action: action, Success: false, Message: message}
}

// Failf is Fail with fmt formatting.
func Failf(action, format string, args ...any) ActionResult {
	return Fail(action, fmt.Sprintf(format, args...))
}

// Finish returns a terminal result.
func Finish(action string, success bool, message string, content map[string]any) ActionResult {
	return ActionResult{Action: action, Success: success, Done: true, Message: message, Content: content}
}

// WithContent returns a copy of r carrying key=value in Content.
func (r ActionResult) WithContent(key string, value any) ActionResult {
	c := make(map[string]any, len(r.Content)+1)
	for k, v := range r.Content {
		c[k] = v
	}
	c[key] = value
	r.Content = c
	return r
}

// String renders a compact single-line description for logs.
func (r ActionResult) String() string {
	return fmt.Sprintf("%s(success=%t, done=%t): %s", r.Action, r.Success, r.Done, r.Message)
}
