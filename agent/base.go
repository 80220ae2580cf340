package agent

import (
	"fmt"
	"sync"
)

// State is the lifecycle state of an agent loop.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a point-in-time view of the state machine: Running(Step),
// Done(Success) or Failed(Reason).
type Status struct {
	State   State
	Step    int
	Success bool
	Reason  string
}

func (s Status) String() string {
	switch s.State {
	case StateRunning:
		return fmt.Sprintf("running(step=%d)", s.Step)
	case StateDone:
		return fmt.Sprintf("done(success=%t)", s.Success)
	case StateFailed:
		return fmt.Sprintf("failed(%s)", s.Reason)
	default:
		return s.State.String()
	}
}

// BaseAgent bundles identity and the goroutine-safe status shared by agent
// implementations. Embed it and supply Run to satisfy core.Runner.
type BaseAgent struct {
	name        string     // Human-readable name
	description string     // Detailed description of agent's purpose
	mu          sync.Mutex // Protects status
	status      Status
}

// NewBaseAgent constructs a BaseAgent with generated description (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Status returns the current status.
func (b *BaseAgent) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *BaseAgent) running(step int) {
	b.setStatus(Status{State: StateRunning, Step: step})
}

func (b *BaseAgent) done(step int, success bool) {
	b.setStatus(Status{State: StateDone, Step: step, Success: success})
}

func (b *BaseAgent) failed(step int, reason string) {
	b.setStatus(Status{State: StateFailed, Step: step, Reason: reason})
}

func (b *BaseAgent) setStatus(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}
