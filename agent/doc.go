// Package agent contains the step-loop state machine that drives one
// LLM agent through a bounded sequence of observe, call and dispatch steps.
//
// Each step:
//
//  1. Runs the configured observers and appends their entries (ephemeral
//     where bulky) to the conversation
//  2. Persists the pre-call transcript below the agent's directory
//  3. Calls the model with the tool schema and parallel tool calls disabled
//  4. Handles a text answer through the TextHandler, or records the first
//     tool call, dispatches it and records the tool result
//  5. Stops on a Done result or a configured terminal action
//
// Budget exhaustion yields a failing max_steps_exceeded result. Protocol
// violations (empty responses) and model transport failures are returned
// as errors. Agents implement core.Runner so delegation tools can nest them
// without importing this package.
package agent
