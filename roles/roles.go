// Package roles assembles the three agent roles of a web research run: the
// brain plans and delegates, the navigator drives the browser and the
// extractor turns a page into rows. Each role is an agent.Agent with its own
// prompt, tool set, observers and step budget.
package roles

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/webscout/agent"
	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool"
	"github.com/hupe1980/webscout/tool/extraction"
	"github.com/hupe1980/webscout/tool/navigation"
	"github.com/hupe1980/webscout/tool/planning"
)

const (
	BrainSteps     = 1000
	NavigatorSteps = agent.DefaultMaxSteps
	ExtractorSteps = agent.DefaultMaxSteps
)

// ActionAborted tags the result of a brain run that ended with an error.
const ActionAborted = "aborted"

var (
	//go:embed prompts/brain.md
	brainPrompt string
	//go:embed prompts/navigator.md
	navigatorPrompt string
	//go:embed prompts/extractor.md
	extractorPrompt string
)

// Options configures the roles of one run.
type Options struct {
	BrainSteps     int
	NavigatorSteps int
	ExtractorSteps int
	// Format of extracted tables.
	Format extraction.Format
	// Screenshots attaches a screenshot to every navigator observation.
	Screenshots bool
	// Tokens, when set, logs prompt size estimates.
	Tokens *model.TokenCounter
	// DisablePersistence skips transcript writes for every role.
	DisablePersistence bool
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		BrainSteps:     BrainSteps,
		NavigatorSteps: NavigatorSteps,
		ExtractorSteps: ExtractorSteps,
		Format:         extraction.FormatCSV,
		Screenshots:    true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

func (o Options) apply(a *agent.Options) {
	a.Tokens = o.Tokens
	a.DisablePersistence = o.DisablePersistence
}

// navigatorOutput is the shape of a navigator's text answer.
var navigatorOutput = &model.OutputSchema{
	Name: "navigator_state",
	Schema: tool.Schema([]tool.Param{
		tool.String("evaluation_previous_goal", "Did the previous action work"),
		tool.String("memory", "What to remember for the rest of the task"),
		tool.String("next_goal", "The next immediate goal"),
	}),
	Strict: true,
}

// NewNavigator creates a navigator for task.
func NewNavigator(task string, optFns ...func(o *Options)) (*agent.Agent, error) {
	opts := defaultOptions(optFns...)

	tools, err := tool.NewRegistry(navigation.Tools()...)
	if err != nil {
		return nil, err
	}

	return agent.New("navigator", tools, func(a *agent.Options) {
		opts.apply(a)
		a.Instruction = agent.NewInstructionFromTemplate(navigatorPrompt, nil)
		a.Task = task
		a.MaxSteps = opts.NavigatorSteps
		a.Observers = []agent.Observer{BrowserState(opts.Screenshots)}
		a.TerminalActions = []string{core.ActionNavigationDone}
		a.OutputSchema = navigatorOutput
	}), nil
}

// NewExtractor creates an extractor for goal producing rows of schema.
func NewExtractor(goal string, schema *extraction.RowSchema, optFns ...func(o *Options)) (*agent.Agent, error) {
	opts := defaultOptions(optFns...)
	kit := extraction.New(schema, func(o *extraction.Options) { o.Format = opts.Format })

	tools, err := tool.NewRegistry(kit.Tools()...)
	if err != nil {
		return nil, err
	}

	rowSchema, err := json.MarshalIndent(schema.JSONSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode row schema: %w", err)
	}

	task := fmt.Sprintf("You are tasked with extracting structured data from a webpage.\n"+
		"Extraction goal: %s\n\n"+
		"The JSON schema of a single row that every row must adhere to:\n```json\n%s\n```", goal, rowSchema)

	return agent.New("extractor", tools, func(a *agent.Options) {
		opts.apply(a)
		a.Instruction = agent.NewInstructionFromTemplate(extractorPrompt, nil)
		a.Task = task
		a.MaxSteps = opts.ExtractorSteps
		a.Observers = []agent.Observer{PageText()}
		a.TerminalActions = []string{core.ActionExtractionDone}
		a.OutputSchema = schema.OutputSchema()
		a.TextHandler = kit.HandleText
	}), nil
}

// NewBrain creates the top-level agent for goal.
func NewBrain(goal string, optFns ...func(o *Options)) (*agent.Agent, error) {
	opts := defaultOptions(optFns...)

	tools, err := tool.NewRegistry(append(planning.Tools(),
		InvokeNavigator(optFns...),
		InvokeExtractor(optFns...),
	)...)
	if err != nil {
		return nil, err
	}

	return agent.New("brain", tools, func(a *agent.Options) {
		opts.apply(a)
		a.Instruction = agent.NewInstructionFromTemplate(brainPrompt, nil)
		a.Task = goal
		a.MaxSteps = opts.BrainSteps
		a.Observers = []agent.Observer{CurrentPlan()}
		a.TerminalActions = []string{core.ActionDone}
	}), nil
}

// InvokeNavigator delegates a navigation task to a forked navigator.
func InvokeNavigator(optFns ...func(o *Options)) tool.Tool {
	return tool.NewDelegateTool("invoke_navigator",
		"Run a navigator agent that operates the browser until the task is done. Blocks until it finishes.",
		[]tool.Param{tool.String("task", "A concrete navigation task")},
		func(_ *core.RunContext, args tool.Args) (core.Runner, error) {
			return NewNavigator(args.String("task"), optFns...)
		})
}

// InvokeExtractor delegates extraction of the current page to a forked
// extractor. The row schema is given by the caller.
func InvokeExtractor(optFns ...func(o *Options)) tool.Tool {
	field := tool.ObjectOf("", "One column of the row",
		tool.String("name", "Column name in snake_case"),
		tool.Param{
			Name:        "type",
			Type:        tool.TypeString,
			Description: "Column type",
			Enum:        []string{"string", "integer", "number", "boolean"},
		},
		tool.String("description", "What the column holds"),
	)

	return tool.NewDelegateTool("invoke_extractor",
		"Run an extractor agent that extracts rows from the current page into a table file. Blocks until it finishes.",
		[]tool.Param{
			tool.String("goal", "What to extract"),
			tool.ArrayOf("row_schema", "Ordered columns of a single row", field),
		},
		func(_ *core.RunContext, args tool.Args) (core.Runner, error) {
			var fields []extraction.Field
			if err := args.Decode("row_schema", &fields); err != nil {
				return nil, err
			}

			schema, err := extraction.NewRowSchema(fields...)
			if err != nil {
				return nil, err
			}

			return NewExtractor(args.String("goal"), schema, optFns...)
		})
}

// RunBrain runs a brain for goal on rc and always returns a well-formed
// result: protocol violations and model failures become failing results.
func RunBrain(rc *core.RunContext, goal string, optFns ...func(o *Options)) core.ActionResult {
	brain, err := NewBrain(goal, optFns...)
	if err != nil {
		return core.Finish(ActionAborted, false, err.Error(), nil)
	}

	res, err := brain.Run(rc)
	if err == nil {
		return res
	}

	rc.LogError("brain.run.error", "error", err.Error())

	action := ActionAborted
	if errors.Is(err, agent.ErrProtocolViolation) {
		action = core.ActionProtocolViolation
	}

	return core.Finish(action, false, fmt.Sprintf("Run aborted: %v", err), nil)
}
