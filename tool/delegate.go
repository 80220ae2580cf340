package tool

import (
	"fmt"

	"github.com/hupe1980/webscout/core"
)

// Isolation selects how a delegation derives the child context.
type Isolation int

const (
	// Fork gives the child a fresh agent id and empty memory.
	Fork Isolation = iota
	// Share gives the child a fresh agent id and the parent's memory.
	Share
)

// SpawnFunc builds the child runner for one delegation. child is the
// already derived context the runner will be run with.
type SpawnFunc func(child *core.RunContext, args Args) (core.Runner, error)

// DelegateOptions configures a DelegateTool.
type DelegateOptions struct {
	Isolation Isolation
}

// DelegateTool runs a nested agent to completion and folds its terminal
// result into a single tool result. Delegation is call/return: the parent
// step blocks until the child loop terminates.
type DelegateTool struct {
	name        string
	description string
	params      []Param
	spawn       SpawnFunc
	opts        DelegateOptions
}

// NewDelegateTool creates a delegation tool. Children are forked by default.
func NewDelegateTool(name, description string, params []Param, spawn SpawnFunc, optFns ...func(o *DelegateOptions)) *DelegateTool {
	opts := DelegateOptions{Isolation: Fork}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &DelegateTool{
		name:        name,
		description: description,
		params:      params,
		spawn:       spawn,
		opts:        opts,
	}
}

func (t *DelegateTool) Name() string        { return t.name }
func (t *DelegateTool) Description() string { return t.description }
func (t *DelegateTool) Params() []Param     { return t.params }

// Call derives the child context, runs the child and maps its result. The
// returned ActionResult is never terminal for the parent; Content carries
// the child's agent_id, its action tag and its own content.
func (t *DelegateTool) Call(tc *core.ToolContext, args Args) (core.ActionResult, error) {
	parent := tc.RunContext()

	var child *core.RunContext
	if t.opts.Isolation == Share {
		child = parent.Share()
	} else {
		child = parent.Fork()
	}

	runner, err := t.spawn(child, args)
	if err != nil {
		return core.ActionResult{}, fmt.Errorf("spawn child agent: %w", err)
	}

	tc.LogInfo("tool.delegate.start", "child", runner.Name(), "child_id", child.AgentID)

	res, err := runner.Run(child)
	if err != nil {
		tc.LogError("tool.delegate.error", "child", runner.Name(), "child_id", child.AgentID, "error", err.Error())

		return core.Failf(t.name, "%s (agent %d) aborted: %v", runner.Name(), child.AgentID, err).
			WithContent("agent_id", child.AgentID), nil
	}

	tc.LogInfo("tool.delegate.done", "child", runner.Name(), "child_id", child.AgentID, "success", res.Success)

	content := make(map[string]any, len(res.Content)+2)
	for k, v := range res.Content {
		content[k] = v
	}
	content["agent_id"] = child.AgentID
	content["child_action"] = res.Action

	return core.ActionResult{
		Action:  t.name,
		Success: res.Success,
		Message: fmt.Sprintf("%s (agent %d) finished with %s: %s", runner.Name(), child.AgentID, res.Action, res.Message),
		Content: content,
	}, nil
}
