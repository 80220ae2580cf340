package conversation

import (
	"errors"
	"fmt"

	"github.com/hupe1980/webscout/logging"
	"github.com/hupe1980/webscout/model"
)

var (
	// ErrInvalidEntry is returned when an entry violates the conversation shape.
	ErrInvalidEntry = errors.New("invalid conversation entry")
	// ErrUnpairedToolCall is returned when a tool call is not answered by
	// exactly one matching tool result.
	ErrUnpairedToolCall = errors.New("unpaired tool call")
)

// Options configures a Conversation.
type Options struct {
	Logger logging.Logger
}

// Conversation is the ordered, append-only message log owned by one agent.
// It is not safe for concurrent use; an agent loop is its single writer.
type Conversation struct {
	entries []Entry
	pending string // call id awaiting its tool result
	logger  logging.Logger
}

// New creates a conversation seeded with the system prompt.
func New(system string, optFns ...func(o *Options)) *Conversation {
	opts := Options{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Conversation{
		entries: []Entry{System(system)},
		logger:  opts.Logger,
	}
}

// Append adds a durable entry.
func (c *Conversation) Append(e Entry) error {
	return c.append(e)
}

// AppendEphemeral adds an entry that is sent with the next model call but
// never persisted as history and removed by DropEphemeral.
func (c *Conversation) AppendEphemeral(e Entry) error {
	if e.Kind == KindToolCall || e.Kind == KindToolResult {
		return fmt.Errorf("%w: %s entries cannot be ephemeral", ErrInvalidEntry, e.Kind)
	}

	e.Ephemeral = true

	return c.append(e)
}

func (c *Conversation) append(e Entry) error {
	switch e.Kind {
	case KindSystem:
		return fmt.Errorf("%w: system entry must be first and unique", ErrInvalidEntry)
	case KindUser, KindAssistant:
		if c.pending != "" {
			return fmt.Errorf("%w: %s entry while call %s is unanswered", ErrUnpairedToolCall, e.Kind, c.pending)
		}
	case KindToolCall:
		if e.CallID == "" || e.Name == "" {
			return fmt.Errorf("%w: tool call requires id and name", ErrInvalidEntry)
		}
		if c.pending != "" {
			return fmt.Errorf("%w: call %s is unanswered", ErrUnpairedToolCall, c.pending)
		}
		c.pending = e.CallID
	case KindToolResult:
		if e.CallID == "" || e.CallID != c.pending {
			return fmt.Errorf("%w: result for %q does not answer pending call %q", ErrUnpairedToolCall, e.CallID, c.pending)
		}
		c.pending = ""
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	}

	c.entries = append(c.entries, e.clone())

	return nil
}

// Validate reports an error when a tool call is still waiting for its
// result. It must hold before every model call.
func (c *Conversation) Validate() error {
	if c.pending != "" {
		return fmt.Errorf("%w: call %s is unanswered", ErrUnpairedToolCall, c.pending)
	}
	return nil
}

// Len returns the number of entries including ephemeral ones.
func (c *Conversation) Len() int { return len(c.entries) }

// Snapshot returns a deep copy of the entries.
func (c *Conversation) Snapshot() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// Durable returns a deep copy of the non-ephemeral entries.
func (c *Conversation) Durable() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.Ephemeral {
			out = append(out, e.clone())
		}
	}
	return out
}

// DropEphemeral removes all ephemeral entries and returns how many were removed.
func (c *Conversation) DropEphemeral() int {
	kept := c.entries[:0]
	dropped := 0

	for _, e := range c.entries {
		if e.Ephemeral {
			dropped++
			continue
		}
		kept = append(kept, e)
	}

	// Clear the tail so dropped image payloads can be collected.
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = Entry{}
	}

	c.entries = kept

	return dropped
}

// WireFormat converts a snapshot of the conversation, ephemeral entries
// included, into the messages accepted by a model.
func (c *Conversation) WireFormat() []model.Message {
	return ToMessages(c.Snapshot())
}

// ToMessages converts entries into model messages.
func ToMessages(entries []Entry) []model.Message {
	msgs := make([]model.Message, 0, len(entries))

	for _, e := range entries {
		switch e.Kind {
		case KindSystem:
			msgs = append(msgs, model.Message{Role: model.RoleSystem, Parts: e.Parts})
		case KindUser:
			msgs = append(msgs, model.Message{Role: model.RoleUser, Parts: e.Parts})
		case KindAssistant:
			msgs = append(msgs, model.Message{Role: model.RoleAssistant, Parts: e.Parts})
		case KindToolCall:
			msgs = append(msgs, model.Message{
				Role: model.RoleAssistant,
				ToolCalls: []model.ToolCall{{
					ID:       e.CallID,
					Type:     "function",
					Function: model.ToolCallFunction{Name: e.Name, Arguments: e.Arguments},
				}},
			})
		case KindToolResult:
			msgs = append(msgs, model.Message{Role: model.RoleTool, ToolCallID: e.CallID, Parts: e.Parts})
		}
	}

	return msgs
}
