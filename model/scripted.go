package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ScriptedModel is a deterministic in-memory Model useful for tests and
// dry runs. It replays queued responses in order and records every request
// it receives. Once the script is exhausted the fallback (if any) is
// returned for every further call.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	script   []scriptedTurn
	fallback *Response
	requests []Request
	nextID   int
}

type scriptedTurn struct {
	resp *Response
	err  error
}

// NewScriptedModel constructs an empty ScriptedModel.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{info: Info{Name: "scripted", Provider: "scripted", SupportsTools: true}}
}

// AddText queues a free-text response.
func (m *ScriptedModel) AddText(text string) *ScriptedModel {
	return m.AddResponse(&Response{Text: text, FinishReason: "stop"})
}

// AddToolCall queues a single tool call response. args is marshalled to JSON
// unless it already is a string.
func (m *ScriptedModel) AddToolCall(name string, args any) *ScriptedModel {
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("call_%d", m.nextID)
	m.mu.Unlock()

	return m.AddResponse(&Response{
		ToolCalls:    []ToolCall{NewToolCall(id, name, args)},
		FinishReason: "tool_calls",
	})
}

// AddResponse queues an arbitrary response.
func (m *ScriptedModel) AddResponse(resp *Response) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, scriptedTurn{resp: resp})

	return m
}

// AddError queues a failing call.
func (m *ScriptedModel) AddError(err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, scriptedTurn{err: err})

	return m
}

// SetFallback sets the response returned once the script is exhausted.
func (m *ScriptedModel) SetFallback(resp *Response) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fallback = resp

	return m
}

// Requests returns a copy of every request received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		if m.fallback != nil {
			cp := *m.fallback
			return &cp, nil
		}
		return nil, fmt.Errorf("scripted model: no response queued for call %d", len(m.requests))
	}

	turn := m.script[0]
	m.script = m.script[1:]

	if turn.err != nil {
		return nil, turn.err
	}

	return turn.resp, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// NewToolCall builds a function ToolCall. args may be a JSON string or any
// JSON-marshallable value.
func NewToolCall(id, name string, args any) ToolCall {
	var raw string

	switch v := args.(type) {
	case nil:
		raw = "{}"
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			raw = "{}"
		} else {
			raw = string(b)
		}
	}

	return ToolCall{ID: id, Type: "function", Function: ToolCallFunction{Name: name, Arguments: raw}}
}
