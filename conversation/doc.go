// Package conversation implements the per-agent message log: an ordered,
// append-only sequence of system, user, assistant, tool_call and tool_result
// entries. It enforces call/result pairing, supports ephemeral observations
// that live for one model call, converts entries into model messages and
// writes redacted step transcripts to disk.
package conversation
