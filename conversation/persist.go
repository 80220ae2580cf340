package conversation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/webscout/model"
)

// Redacted replaces binary payloads in persisted JSON transcripts.
const Redacted = "REDACTED"

// Persist writes the transcript files of step into dir. Failures are
// logged and never returned; persistence must not change the outcome of a
// run.
func (c *Conversation) Persist(step int, dir string) {
	if err := c.WriteTranscript(step, dir); err != nil {
		c.logger.Warn("conversation.persist.error", "step", step, "dir", dir, "error", err.Error())
	}
}

// WriteTranscript writes
//
//	step_NN_messages.json        durable entries, images redacted
//	step_NN_messages.txt         every entry, ephemeral ones marked
//	step_NN_screenshot_MM.png    one file per embedded image
//
// into dir, creating it when needed.
func (c *Conversation) WriteTranscript(step int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}

	snapshot := c.Snapshot()
	prefix := fmt.Sprintf("step_%02d", step)

	durable := make([]Entry, 0, len(snapshot))
	for _, e := range snapshot {
		if !e.Ephemeral {
			durable = append(durable, redact(e))
		}
	}

	data, err := json.MarshalIndent(durable, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, prefix+"_messages.json"), data, 0o644); err != nil {
		return fmt.Errorf("write transcript json: %w", err)
	}

	var (
		sb    strings.Builder
		image int
		errs  []string
	)

	for i, e := range snapshot {
		fmt.Fprintf(&sb, "---- [%d] %s", i, e.Kind)
		if e.Ephemeral {
			sb.WriteString(" (ephemeral)")
		}
		sb.WriteString(" ----\n")

		switch e.Kind {
		case KindToolCall:
			fmt.Fprintf(&sb, "call %s: %s(%s)\n", e.CallID, e.Name, e.Arguments)
		case KindToolResult:
			fmt.Fprintf(&sb, "result %s:\n", e.CallID)
		}

		for _, p := range e.Parts {
			if p.Type != model.PartImage {
				sb.WriteString(p.Text)
				sb.WriteString("\n")
				continue
			}

			name := fmt.Sprintf("%s_screenshot_%02d.png", prefix, image)
			image++
			fmt.Fprintf(&sb, "<image %s>\n", name)

			if err := writeImage(filepath.Join(dir, name), p.Data); err != nil {
				errs = append(errs, err.Error())
			}
		}

		sb.WriteString("\n")
	}

	if err := os.WriteFile(filepath.Join(dir, prefix+"_messages.txt"), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write transcript text: %w", err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("write screenshots: %s", strings.Join(errs, "; "))
	}

	return nil
}

func redact(e Entry) Entry {
	e = e.clone()
	for i, p := range e.Parts {
		if p.Type == model.PartImage {
			e.Parts[i].Data = Redacted
		}
	}
	return e
}

func writeImage(path, b64 string) error {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, raw, 0o644)
}
