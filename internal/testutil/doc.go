// Package testutil contains fakes and fluent builders shared by tests: an
// in-memory core.Page driven by page fixtures, so navigation tools, observers
// and agent loops can run without a browser. Not intended for production use.
package testutil
