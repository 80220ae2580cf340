// Package model defines the provider-agnostic abstractions for interacting
// with chat completion models inside webscout.
//
// Core goals:
//   - One synchronous Generate call per agent step returning text, a tool call, or both
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Carry strict tool schemas, an optional strict output schema and the
//     parallel-tool-call switch down to the provider
//   - Facilitate deterministic tests (ScriptedModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface in sub-packages
// so agents remain decoupled from vendor SDKs.
package model
