package planning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/tool"
)

// MaxPrintBytes caps the file content echoed back by print_file.
const MaxPrintBytes = 20000

// Tools returns save_plan, complete_plan_step, print_file and done.
func Tools() []tool.Tool {
	return []tool.Tool{SavePlan(), CompletePlanStep(), PrintFile(), Done()}
}

// SavePlan replaces the plan in memory. Step ids are assigned 1..n.
func SavePlan() tool.Tool {
	return tool.NewFunctionTool("save_plan",
		"Save the plan to reach the goal as an ordered list of steps. Replaces any previous plan.",
		[]tool.Param{
			tool.ArrayOf("steps", "Ordered plan steps", tool.ObjectOf("", "",
				tool.String("goal", "What the step achieves"),
				tool.String("success_criteria", "How to tell the step is complete"),
			)),
		},
		func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			var steps []PlanStep
			if err := args.Decode("steps", &steps); err != nil {
				return core.ActionResult{}, err
			}

			if len(steps) == 0 {
				return core.Fail("save_plan", "A plan needs at least one step"), nil
			}

			for i := range steps {
				steps[i].ID = i + 1
				steps[i].Completed = false
			}

			Store(tc.Memory(), &Plan{Steps: steps})

			return core.Succeedf("save_plan", "Saved plan with %d steps", len(steps)).
				WithContent("steps", len(steps)), nil
		})
}

// CompletePlanStep marks one step of the saved plan completed.
func CompletePlanStep() tool.Tool {
	return tool.NewFunctionTool("complete_plan_step",
		"Mark a step of the saved plan as completed.",
		[]tool.Param{tool.Integer("step_id", "Id of the completed step")},
		func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			p, ok := Load(tc.Memory())
			if !ok {
				return core.Fail("complete_plan_step", "No plan saved yet"), nil
			}

			id := args.Int("step_id")
			if err := p.Complete(id); err != nil {
				return core.Fail("complete_plan_step", err.Error()), nil
			}

			Store(tc.Memory(), p)

			return core.Succeedf("complete_plan_step", "Completed step %d, %d remaining", id, p.Remaining()), nil
		})
}

// PrintFile echoes a file produced in this run back into the conversation.
// Paths are resolved relative to the run's save directory and may not
// leave it.
func PrintFile() tool.Tool {
	return tool.NewFunctionTool("print_file",
		"Print the content of a file produced in this run, e.g. an extracted table.",
		[]tool.Param{tool.String("path", "Path of the file as reported by the tool that wrote it")},
		func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			path, err := resolve(tc.SaveDir(), args.String("path"))
			if err != nil {
				return core.Fail("print_file", err.Error()), nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return core.Failf("print_file", "Cannot read %s: %v", args.String("path"), err), nil
			}

			content := string(data)
			if len(content) > MaxPrintBytes {
				cut := MaxPrintBytes
				for cut > 0 && !utf8.RuneStart(content[cut]) {
					cut--
				}
				content = content[:cut] + "\n... (truncated)"
			}

			return core.Succeedf("print_file", "Content of %s:\n%s", args.String("path"), content), nil
		})
}

// Done terminates the owning agent.
func Done() tool.Tool {
	return tool.NewFunctionTool(core.ActionDone,
		"Finish the task. Set success to false when the goal could not be reached.",
		[]tool.Param{
			tool.Boolean("success", "Whether the goal was reached"),
			tool.String("message", "Final answer or summary for the user"),
		},
		func(_ *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			return core.Finish(core.ActionDone, args.Bool("success"), args.String("message"), nil), nil
		})
}

func resolve(root, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path must not be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	candidate := p
	if !filepath.IsAbs(candidate) {
		// Tools report paths including the save dir; accept both forms.
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			candidate = filepath.Join(root, rel)
		} else {
			candidate = filepath.Join(root, p)
		}
	}

	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", err
	}

	if abs != absRoot && !strings.HasPrefix(abs, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the run directory", p)
	}

	return abs, nil
}
