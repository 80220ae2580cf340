// Package memory contains the scratch memory used by a run. The interface
// (core.MemoryStore) lives in the core package; this package provides the
// in-process implementation selected by default when a RunContext is built
// or forked.
package memory
