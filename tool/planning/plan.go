// Package planning provides the bookkeeping tools of the top-level agent:
// a structured plan kept in run memory, completion of plan steps, printing
// of produced files and the terminal done tool.
package planning

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/webscout/core"
)

// MemoryKey is the memory key holding the current *Plan.
const MemoryKey = "plan"

// PlanStep is one step of a plan.
type PlanStep struct {
	ID              int    `json:"id"`
	Goal            string `json:"goal"`
	SuccessCriteria string `json:"success_criteria"`
	Completed       bool   `json:"completed"`
}

// Plan is the ordered step list of the brain agent.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// Complete marks the step id completed.
func (p *Plan) Complete(id int) error {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			p.Steps[i].Completed = true
			return nil
		}
	}
	return fmt.Errorf("plan has no step %d", id)
}

// Remaining returns the number of open steps.
func (p *Plan) Remaining() int {
	n := 0
	for _, s := range p.Steps {
		if !s.Completed {
			n++
		}
	}
	return n
}

func (p *Plan) clone() *Plan {
	cp := &Plan{Steps: make([]PlanStep, len(p.Steps))}
	copy(cp.Steps, p.Steps)
	return cp
}

// Load returns a copy of the plan stored in mem.
func Load(mem core.MemoryStore) (*Plan, bool) {
	v, ok := mem.Get(MemoryKey)
	if !ok {
		return nil, false
	}

	p, ok := v.(*Plan)
	if !ok || p == nil {
		return nil, false
	}

	return p.clone(), true
}

// Store replaces the plan in mem.
func Store(mem core.MemoryStore, p *Plan) {
	mem.Set(MemoryKey, p.clone())
}

// CurrentPlanText renders the plan the way it is shown to the model each
// step. It returns false when no plan has been saved yet.
func CurrentPlanText(mem core.MemoryStore) (string, bool) {
	p, ok := Load(mem)
	if !ok {
		return "", false
	}

	b, err := json.Marshal(p)
	if err != nil {
		return "", false
	}

	return "Current plan: " + string(b), true
}
