package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/webscout/conversation"
	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool"
)

// DefaultMaxSteps is the step budget of an agent without explicit configuration.
const DefaultMaxSteps = 20

// NoActionMessage is fed back when the model answers with text only.
const NoActionMessage = "No action executed. The model output is text."

// ErrProtocolViolation is returned when the model response carries neither
// text nor a usable tool call. It is fatal for the agent and not retried.
var ErrProtocolViolation = errors.New("model protocol violation")

// StepInfo describes the step being prepared.
type StepInfo struct {
	Step     int // zero-based
	MaxSteps int
}

// Observer gathers the external observation of one step (page state,
// rendered content, plan). Returned entries marked Ephemeral are sent with
// the next model call only.
type Observer interface {
	Observe(rc *core.RunContext, info StepInfo) ([]conversation.Entry, error)
}

// ObserverFunc is a functional adapter for Observer.
type ObserverFunc func(rc *core.RunContext, info StepInfo) ([]conversation.Entry, error)

// Observe implements Observer.
func (f ObserverFunc) Observe(rc *core.RunContext, info StepInfo) ([]conversation.Entry, error) {
	return f(rc, info)
}

// TextHandler turns a text-only model answer into the step's ActionResult.
type TextHandler func(rc *core.RunContext, text string) core.ActionResult

// StepHook is invoked after every completed step.
type StepHook func(rc *core.RunContext, info StepInfo, result core.ActionResult)

// NoAction is the default TextHandler: a successful, non-terminal no-op.
func NoAction(_ *core.RunContext, _ string) core.ActionResult {
	return core.Succeed(core.ActionNoAction, NoActionMessage)
}

// Options configures an Agent.
type Options struct {
	// Instruction resolves the system prompt.
	Instruction Instruction
	// Task is the initial user entry.
	Task string
	// MaxSteps bounds the loop.
	MaxSteps int
	// Role names the persistence directory (NN_<role>); defaults to the agent name.
	Role string
	// Observers run in order at the start of each step.
	Observers []Observer
	// TerminalActions end the loop when a tool returns them successfully.
	TerminalActions []string
	// OutputSchema constrains text answers.
	OutputSchema *model.OutputSchema
	// TextHandler interprets text-only answers.
	TextHandler TextHandler
	// OnStep is called after every step.
	OnStep StepHook
	// DisablePersistence skips transcript writes.
	DisablePersistence bool
	// Tokens, when set, estimates the prompt size logged before each call.
	Tokens *model.TokenCounter
}

// Agent is one instance of the step-loop state machine: a goal, a tool set
// and a conversation bounded by a step budget. An Agent value describes the
// loop; every Run builds a fresh conversation, so a value may be reused.
type Agent struct {
	BaseAgent
	tools       *tool.Registry
	instruction Instruction
	task        string
	maxSteps    int
	role        string
	observers   []Observer
	terminal    map[string]bool
	schema      *model.OutputSchema
	onText      TextHandler
	onStep      StepHook
	persist     bool
	tokens      *model.TokenCounter
}

// New creates an agent bound to a tool set.
func New(name string, tools *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction:     NewInstructionFromText(fmt.Sprintf("You are %s, a web browsing agent.", name)),
		MaxSteps:        DefaultMaxSteps,
		Role:            name,
		TerminalActions: []string{core.ActionDone},
		TextHandler:     NoAction,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}

	if opts.TextHandler == nil {
		opts.TextHandler = NoAction
	}

	terminal := make(map[string]bool, len(opts.TerminalActions))
	for _, a := range opts.TerminalActions {
		terminal[a] = true
	}

	return &Agent{
		BaseAgent:   NewBaseAgent(name),
		tools:       tools,
		instruction: opts.Instruction,
		task:        opts.Task,
		maxSteps:    opts.MaxSteps,
		role:        opts.Role,
		observers:   opts.Observers,
		terminal:    terminal,
		schema:      opts.OutputSchema,
		onText:      opts.TextHandler,
		onStep:      opts.OnStep,
		persist:     !opts.DisablePersistence,
		tokens:      opts.Tokens,
	}
}

// MaxSteps returns the step budget.
func (a *Agent) MaxSteps() int { return a.maxSteps }

// Tools returns the tool set.
func (a *Agent) Tools() *tool.Registry { return a.tools }

// Run drives the loop until a terminal result or the step budget. Every
// controlled outcome is an ActionResult; an error is returned only for
// protocol violations, model transport failures and cancellation.
func (a *Agent) Run(rc *core.RunContext) (core.ActionResult, error) {
	if rc.Model == nil {
		return core.ActionResult{}, errors.New("no model attached to run context")
	}

	system, err := a.instruction.Resolve(rc)
	if err != nil {
		return core.ActionResult{}, fmt.Errorf("resolve instruction: %w", err)
	}

	conv := conversation.New(system, func(o *conversation.Options) { o.Logger = rc.Logger() })
	if a.task != "" {
		if err := conv.Append(conversation.UserText(a.task)); err != nil {
			return core.ActionResult{}, err
		}
	}

	dir := rc.AgentDir(a.role)

	rc.LogInfo("agent.run.start", "agent", a.Name(), "max_steps", a.maxSteps, "tools", a.tools.Names())

	for step := 0; step < a.maxSteps; step++ {
		info := StepInfo{Step: step, MaxSteps: a.maxSteps}
		a.running(step)

		if err := rc.Err(); err != nil {
			a.failed(step, err.Error())
			return core.ActionResult{}, fmt.Errorf("agent %s cancelled at step %d: %w", a.Name(), step, err)
		}

		result, err := a.step(rc, conv, info, dir)
		if err != nil {
			a.failed(step, err.Error())
			rc.LogError("agent.run.error", "agent", a.Name(), "step", step, "error", err.Error())
			a.persistFinal(conv, step+1, dir)

			return core.ActionResult{}, err
		}

		conv.DropEphemeral()

		if a.onStep != nil {
			a.onStep(rc, info, result)
		}

		if a.isTerminal(result) {
			a.done(step, result.Success)
			rc.LogInfo("agent.run.done", "agent", a.Name(), "step", step, "action", result.Action, "success", result.Success)
			a.persistFinal(conv, step+1, dir)

			return result, nil
		}
	}

	reason := "max steps exceeded"
	a.failed(a.maxSteps, reason)
	rc.LogWarn("agent.run.max_steps", "agent", a.Name(), "max_steps", a.maxSteps)
	a.persistFinal(conv, a.maxSteps, dir)

	return core.Finish(core.ActionMaxStepsExceeded, false,
		fmt.Sprintf("%s stopped: %s (%d)", a.Name(), reason, a.maxSteps), nil), nil
}

func (a *Agent) step(rc *core.RunContext, conv *conversation.Conversation, info StepInfo, dir string) (core.ActionResult, error) {
	rc.LogInfo("agent.step.start", "agent", a.Name(), "step", fmt.Sprintf("%d of %d", info.Step+1, info.MaxSteps))

	for _, obs := range a.observers {
		entries, err := obs.Observe(rc, info)
		if err != nil {
			rc.LogWarn("agent.observe.error", "agent", a.Name(), "step", info.Step, "error", err.Error())
			continue
		}

		for _, e := range entries {
			appendFn := conv.Append
			if e.Ephemeral {
				appendFn = conv.AppendEphemeral
			}
			if err := appendFn(e); err != nil {
				return core.ActionResult{}, fmt.Errorf("append observation: %w", err)
			}
		}
	}

	if a.persist {
		conv.Persist(info.Step, dir)
	}

	if err := conv.Validate(); err != nil {
		return core.ActionResult{}, err
	}

	if rc.Limiter != nil {
		if err := rc.Limiter.Increment(); err != nil {
			rc.LogWarn("agent.model.limit", "agent", a.Name(), "error", err.Error())
			return core.Finish(core.ActionModelLimitExceeded, false, err.Error(), nil), nil
		}
	}

	req := model.Request{
		Messages:          conv.WireFormat(),
		Tools:             a.tools.Schema(),
		OutputSchema:      a.schema,
		ParallelToolCalls: false,
	}

	if a.tokens != nil {
		rc.LogDebug("agent.model.request", "agent", a.Name(), "messages", len(req.Messages), "tokens", a.tokens.CountMessages(req.Messages))
	} else {
		rc.LogDebug("agent.model.request", "agent", a.Name(), "messages", len(req.Messages))
	}

	resp, err := rc.Model.Generate(rc.Context, req)
	if err != nil {
		return core.ActionResult{}, fmt.Errorf("model call at step %d: %w", info.Step, err)
	}

	if resp.Empty() {
		return core.ActionResult{}, fmt.Errorf("%w: response at step %d has neither text nor tool call", ErrProtocolViolation, info.Step)
	}

	if len(resp.ToolCalls) == 0 {
		if err := conv.Append(conversation.Assistant(resp.Text)); err != nil {
			return core.ActionResult{}, err
		}

		rc.LogDebug("agent.model.text", "agent", a.Name(), "chars", len(resp.Text))

		return a.onText(rc, resp.Text), nil
	}

	if len(resp.ToolCalls) > 1 {
		ignored := make([]string, 0, len(resp.ToolCalls)-1)
		for _, c := range resp.ToolCalls[1:] {
			ignored = append(ignored, c.Function.Name)
		}
		rc.LogWarn("agent.model.extra_tool_calls", "agent", a.Name(), "ignored", strings.Join(ignored, ","))
	}

	call := resp.ToolCalls[0]
	if call.Function.Name == "" {
		return core.ActionResult{}, fmt.Errorf("%w: tool call without name at step %d", ErrProtocolViolation, info.Step)
	}

	if call.ID == "" {
		call.ID = fmt.Sprintf("call_%d_%d", rc.AgentID, info.Step)
	}

	if strings.TrimSpace(resp.Text) != "" {
		if err := conv.Append(conversation.Assistant(resp.Text)); err != nil {
			return core.ActionResult{}, err
		}
	}

	if err := conv.Append(conversation.ToolCall(call)); err != nil {
		return core.ActionResult{}, err
	}

	result := a.tools.Dispatch(rc, call)

	if err := conv.Append(conversation.ToolResult(call.ID, resultText(result))); err != nil {
		return core.ActionResult{}, err
	}

	rc.LogInfo("agent.step.result", "agent", a.Name(), "step", info.Step, "action", result.Action, "success", result.Success, "done", result.Done)

	return result, nil
}

func (a *Agent) isTerminal(r core.ActionResult) bool {
	return r.Done || (r.Success && a.terminal[r.Action])
}

func (a *Agent) persistFinal(conv *conversation.Conversation, step int, dir string) {
	if a.persist {
		conv.Persist(step, dir)
	}
}

func resultText(r core.ActionResult) string {
	if r.Success {
		return r.Message
	}
	return "Error: " + r.Message
}
