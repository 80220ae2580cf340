package core

import "sync/atomic"

// IDAllocator hands out monotonically increasing agent ids. One allocator
// is owned by each top-level run and shared by every context derived from
// it, so ids never collide inside a run and never leak across runs.
type IDAllocator struct {
	last atomic.Int64
}

// NewIDAllocator returns an allocator whose first Next() is 1. Id 0 is
// reserved for the root agent of the run.
func NewIDAllocator() *IDAllocator { return &IDAllocator{} }

// Next returns a fresh id.
func (a *IDAllocator) Next() int { return int(a.last.Add(1)) }

// Last returns the most recently issued id (0 if none).
func (a *IDAllocator) Last() int { return int(a.last.Load()) }
