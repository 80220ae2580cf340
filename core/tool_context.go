package core

import (
	"context"
	"fmt"
)

// ToolContext is the surface handed to a tool for one invocation. It binds
// the shared RunContext to the call identifier issued by the model so that
// logs and produced artifacts can be correlated with the conversation.
type ToolContext struct {
	run      *RunContext
	callID   string
	toolName string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext,
// the invoked tool and the model-issued call id.
func NewToolContext(rc *RunContext, toolName, callID string) *ToolContext {
	return &ToolContext{
		run:           rc,
		callID:        callID,
		toolName:      toolName,
		loggerAdapter: rc.loggerAdapter.with("tool", toolName, "call_id", callID),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.run.Context }

// RunContext returns the shared run context (used by delegation tools to
// derive child contexts).
func (tc *ToolContext) RunContext() *RunContext { return tc.run }

// CallID returns the model-issued call identifier.
func (tc *ToolContext) CallID() string { return tc.callID }

// ToolName returns the name of the invoked tool.
func (tc *ToolContext) ToolName() string { return tc.toolName }

// Page returns the browser page or an error when none is attached.
func (tc *ToolContext) Page() (Page, error) {
	if tc.run.Page == nil {
		return nil, fmt.Errorf("no browser page attached to run %s", tc.run.RunID)
	}
	return tc.run.Page, nil
}

// Memory returns the scratch memory of the bound agent.
func (tc *ToolContext) Memory() MemoryStore { return tc.run.Memory }

// AgentDir returns the persistence directory of the bound agent for role.
func (tc *ToolContext) AgentDir(role string) string { return tc.run.AgentDir(role) }

// SaveDir returns the run-level save directory.
func (tc *ToolContext) SaveDir() string { return tc.run.SaveDir }

// SaveArtifact forwards to RunContext.SaveArtifact.
func (tc *ToolContext) SaveArtifact(id string, data []byte) error {
	return tc.run.SaveArtifact(id, data)
}
