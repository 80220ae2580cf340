// Package core provides the foundational domain types, interfaces and
// execution contexts used by webscout. It defines:
//
//   - ActionResult, the uniform outcome of a tool call or a bare-text turn
//   - RunContext / ToolContext (shared run environment and per-call scope)
//   - IDAllocator and ModelLimiter, both owned by a run
//   - Page, the narrow browser collaborator contract
//   - Runner, the delegation seam between tools and agents
//   - Pluggable stores for scratch memory and durable artifacts
//
// Implementation concerns (agents, tools, browser automation, persistence
// backends) live in their own packages and depend on these contracts.
package core
