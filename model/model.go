package model

import (
	"context"
	"strings"
)

// Role identifies the author of a wire message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType discriminates the payload held by a Part.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one content element of a message. Image parts carry base64
// encoded bytes in Data together with their MediaType.
type Part struct {
	Type      PartType `json:"type"`
	Text      string   `json:"text,omitempty"`
	Data      string   `json:"data,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
}

// TextPart constructs a text part.
func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

// ImagePart constructs an image part from base64 encoded data.
func ImagePart(mediaType, base64Data string) Part {
	return Part{Type: PartImage, MediaType: mediaType, Data: base64Data}
}

// DataURL renders an image part as a data URL.
func (p Part) DataURL() string {
	return "data:" + p.MediaType + ";base64," + p.Data
}

// Message is the provider-neutral record sent to a model.
//
// Assistant messages may carry ToolCalls; tool messages carry the ToolCallID
// they answer and their output as text parts.
type Message struct {
	Role       Role       `json:"role"`
	Parts      []Part     `json:"parts,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Text concatenates all text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// HasImages reports whether the message embeds at least one image part.
func (m Message) HasImages() bool {
	for _, p := range m.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object. Strict asks the provider to reject
// arguments that do not conform to it.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict"`
}

// OutputSchema constrains free-text output to a JSON document.
type OutputSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// Request captures the normalized model input produced by an agent step.
type Request struct {
	Messages          []Message        `json:"messages"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
	OutputSchema      *OutputSchema    `json:"output_schema,omitempty"`
	ParallelToolCalls bool             `json:"parallel_tool_calls"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete result of one Generate call. A well formed
// response carries Text, ToolCalls, or both.
type Response struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Empty reports whether the response has neither text nor tool calls.
func (r *Response) Empty() bool {
	return r == nil || (strings.TrimSpace(r.Text) == "" && len(r.ToolCalls) == 0)
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}
