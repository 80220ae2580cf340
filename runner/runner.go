package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/logging"
	"github.com/hupe1980/webscout/memory"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/roles"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// SaveDir is the root under which every run gets its own directory.
	SaveDir string
	// MaxModelCalls limits the number of model calls per run. Zero is unlimited.
	MaxModelCalls int
	// Page is the browser page shared by all agents of a run.
	Page core.Page
	// ArtifactStore receives extracted tables. Optional.
	ArtifactStore core.ArtifactStore
	// Logging services.
	Logger logging.Logger
	// Roles tunes budgets and output settings of the agent tree.
	Roles []func(o *roles.Options)
}

// Result is the outcome of a finished run.
type Result struct {
	RunID     string
	SaveDir   string
	Agents    int
	Duration  time.Duration
	Outcome   core.ActionResult
	Artifacts []string
}

// Runner starts brain runs against a model and a browser page. Public
// methods are safe for concurrent use; runs sharing one page should not
// overlap.
type Runner struct {
	model model.Model

	saveDir       string
	maxModelCalls int
	page          core.Page
	artifactStore core.ArtifactStore
	logger        logging.Logger
	roleOpts      []func(o *roles.Options)

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SaveDir: "runs",
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		model:         m,
		saveDir:       opts.SaveDir,
		maxModelCalls: opts.MaxModelCalls,
		page:          opts.Page,
		artifactStore: opts.ArtifactStore,
		logger:        opts.Logger,
		roleOpts:      opts.Roles,
		activeRuns:    make(map[string]context.CancelFunc),
	}
}

// Run executes one brain run for goal and blocks until it ends.
func (r *Runner) Run(ctx context.Context, goal string) (*Result, error) {
	rc, cancel, err := r.prepare(ctx, goal)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return r.execute(rc, goal), nil
}

// Start launches a run asynchronously. The returned channel yields exactly
// one Result and is then closed.
func (r *Runner) Start(ctx context.Context, goal string) (string, <-chan *Result, error) {
	rc, cancel, err := r.prepare(ctx, goal)
	if err != nil {
		return "", nil, err
	}

	out := make(chan *Result, 1)

	go func() {
		defer close(out)
		defer cancel()

		out <- r.execute(rc, goal)
	}()

	return rc.RunID, out, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// Active returns the ids of runs in flight.
func (r *Runner) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}

	return ids
}

func (r *Runner) prepare(ctx context.Context, goal string) (*core.RunContext, context.CancelFunc, error) {
	if r.model == nil {
		return nil, nil, errors.New("runner: no model configured")
	}

	if goal == "" {
		return nil, nil, errors.New("runner: goal is required")
	}

	ctx, cancel := context.WithCancel(ctx)

	rc := core.NewRunContext(ctx, func(o *core.RunContextOptions) {
		o.SaveDir = r.saveDir
		o.Page = r.page
		o.Model = r.model
		o.Memory = memory.NewInMemoryStore()
		o.Artifacts = r.artifactStore
		o.MaxModelCalls = r.maxModelCalls
		o.Logger = r.logger
	})

	r.mu.Lock()
	r.activeRuns[rc.RunID] = cancel
	r.mu.Unlock()

	return rc, func() {
		cancel()
		r.mu.Lock()
		delete(r.activeRuns, rc.RunID)
		r.mu.Unlock()
	}, nil
}

func (r *Runner) execute(rc *core.RunContext, goal string) *Result {
	start := time.Now()

	rc.LogInfo("runner.run.start", "goal", goal, "save_dir", rc.SaveDir)

	outcome := roles.RunBrain(rc, goal, r.roleOpts...)

	res := &Result{
		RunID:    rc.RunID,
		SaveDir:  rc.SaveDir,
		Agents:   rc.LastAgentID() + 1,
		Duration: time.Since(start),
		Outcome:  outcome,
	}

	if rc.Artifacts != nil {
		ids, err := rc.Artifacts.List(rc.RunID)
		if err != nil {
			rc.LogWarn("runner.artifacts.list.error", "error", err.Error())
		}
		res.Artifacts = ids
	}

	rc.LogInfo("runner.run.end",
		"action", outcome.Action,
		"success", outcome.Success,
		"agents", res.Agents,
		"duration", res.Duration.String(),
	)

	return res
}
