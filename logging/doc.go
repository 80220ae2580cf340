// Package logging provides a minimal logging interface and adapters for webscout.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, tools and the browser session use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging, optionally tee'd into a rotating file
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	agentLogger := logging.With(logger, "agent", "navigator", "agent_id", 3)
package logging
