package conversation

import "github.com/hupe1980/webscout/model"

// Kind classifies a conversation entry.
type Kind string

const (
	KindSystem     Kind = "system"
	KindUser       Kind = "user"
	KindAssistant  Kind = "assistant"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
)

// Entry is one element of a conversation. Tool calls carry CallID, Name and
// the raw JSON Arguments; tool results carry CallID and their output as a
// text part. Ephemeral entries are visible to the next model call only.
type Entry struct {
	Kind      Kind         `json:"kind"`
	Parts     []model.Part `json:"parts,omitempty"`
	CallID    string       `json:"call_id,omitempty"`
	Name      string       `json:"name,omitempty"`
	Arguments string       `json:"arguments,omitempty"`
	Ephemeral bool         `json:"ephemeral,omitempty"`
}

// System returns a system entry.
func System(text string) Entry {
	return Entry{Kind: KindSystem, Parts: []model.Part{model.TextPart(text)}}
}

// User returns a user entry made of parts.
func User(parts ...model.Part) Entry {
	return Entry{Kind: KindUser, Parts: parts}
}

// UserText returns a text-only user entry.
func UserText(text string) Entry {
	return User(model.TextPart(text))
}

// Assistant returns a free-text assistant entry.
func Assistant(text string) Entry {
	return Entry{Kind: KindAssistant, Parts: []model.Part{model.TextPart(text)}}
}

// ToolCall returns the entry recording a model issued tool call.
func ToolCall(call model.ToolCall) Entry {
	return Entry{Kind: KindToolCall, CallID: call.ID, Name: call.Function.Name, Arguments: call.Function.Arguments}
}

// ToolResult returns the entry answering the tool call callID.
func ToolResult(callID, output string) Entry {
	return Entry{Kind: KindToolResult, CallID: callID, Parts: []model.Part{model.TextPart(output)}}
}

// Text concatenates the text parts of the entry.
func (e Entry) Text() string {
	return model.Message{Parts: e.Parts}.Text()
}

func (e Entry) clone() Entry {
	if e.Parts != nil {
		parts := make([]model.Part, len(e.Parts))
		copy(parts, e.Parts)
		e.Parts = parts
	}
	return e
}
