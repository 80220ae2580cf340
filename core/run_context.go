package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hupe1980/webscout/logging"
	"github.com/hupe1980/webscout/memory"
	"github.com/hupe1980/webscout/model"
)

// RunContext is the shared execution environment of an agent tree. It
// aggregates:
//   - The ambient cancellation Context
//   - Run identity (RunID) and the identity of the bound agent (AgentID)
//   - Handles to the browser page and the model client
//   - The filesystem root of the run (SaveDir)
//   - Scratch memory and an optional durable ArtifactStore
//   - The run-owned agent id allocator and model call limiter
//
// A RunContext is created once per top-level run. Children are derived with
// Fork (isolated memory) or Share (cooperative memory); both allocate a fresh
// AgentID from the same allocator. Which one to use is decided at the
// delegation call site.
type RunContext struct {
	Context   context.Context
	RunID     string
	AgentID   int
	ParentID  int
	SaveDir   string
	Page      Page
	Model     model.Model
	Memory    MemoryStore
	Artifacts ArtifactStore
	Limiter   *ModelLimiter

	ids       *IDAllocator
	runLogger *loggerAdapter

	*loggerAdapter
}

// RunContextOptions configures NewRunContext.
type RunContextOptions struct {
	RunID         string
	SaveDir       string
	Page          Page
	Model         model.Model
	Memory        MemoryStore
	Artifacts     ArtifactStore
	MaxModelCalls int
	Logger        logging.Logger
}

// NewRunContext constructs the root context of a run. The root agent gets id 0.
func NewRunContext(ctx context.Context, optFns ...func(o *RunContextOptions)) *RunContext {
	opts := RunContextOptions{
		RunID:   uuid.NewString(),
		SaveDir: "runs",
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryStore()
	}

	if ctx == nil {
		ctx = context.Background()
	}

	runLogger := newLoggerAdapter(logging.With(opts.Logger, "run_id", opts.RunID))

	return &RunContext{
		Context:       ctx,
		RunID:         opts.RunID,
		AgentID:       0,
		ParentID:      -1,
		SaveDir:       filepath.Join(opts.SaveDir, opts.RunID),
		Page:          opts.Page,
		Model:         opts.Model,
		Memory:        opts.Memory,
		Artifacts:     opts.Artifacts,
		Limiter:       NewModelLimiter(opts.MaxModelCalls),
		ids:           NewIDAllocator(),
		runLogger:     runLogger,
		loggerAdapter: runLogger.with("agent_id", 0),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Fork derives a context for an isolated sub-task: same handles, a fresh
// agent id and empty memory.
func (rc *RunContext) Fork() *RunContext {
	c := rc.derive()
	c.Memory = memory.NewInMemoryStore()
	return c
}

// Share derives a context for a cooperative sub-task: same handles, a fresh
// agent id and the parent's memory.
func (rc *RunContext) Share() *RunContext {
	return rc.derive()
}

func (rc *RunContext) derive() *RunContext {
	id := rc.ids.Next()

	return &RunContext{
		Context:       rc.Context,
		RunID:         rc.RunID,
		AgentID:       id,
		ParentID:      rc.AgentID,
		SaveDir:       rc.SaveDir,
		Page:          rc.Page,
		Model:         rc.Model,
		Memory:        rc.Memory,
		Artifacts:     rc.Artifacts,
		Limiter:       rc.Limiter,
		ids:           rc.ids,
		runLogger:     rc.runLogger,
		loggerAdapter: rc.root().with("agent_id", id),
	}
}

// root returns the run-level logger without agent bindings.
func (rc *RunContext) root() *loggerAdapter {
	if rc.runLogger != nil {
		return rc.runLogger
	}
	return rc.loggerAdapter
}

// WithContext returns a shallow copy bound to ctx, keeping identity and memory.
func (rc *RunContext) WithContext(ctx context.Context) *RunContext {
	c := *rc
	c.Context = ctx
	return &c
}

// AgentDir returns the per-agent persistence directory, e.g. "<save>/03_navigator".
func (rc *RunContext) AgentDir(role string) string {
	return filepath.Join(rc.SaveDir, fmt.Sprintf("%02d_%s", rc.AgentID, role))
}

// LastAgentID returns the most recently allocated agent id of the run.
func (rc *RunContext) LastAgentID() int { return rc.ids.Last() }

// SaveArtifact stores bytes in the ArtifactStore under the run id. It is a
// no-op when no store is configured.
func (rc *RunContext) SaveArtifact(id string, data []byte) error {
	if rc.Artifacts == nil {
		return nil
	}

	if err := rc.Artifacts.Save(rc.RunID, id, data); err != nil {
		return fmt.Errorf("save artifact %s: %w", id, err)
	}

	return nil
}
