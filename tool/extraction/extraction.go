// Package extraction provides the row accumulation tools of the extraction
// agent. Rows are appended to run memory in batches and serialized to a
// tabular file by a terminal finalize call, so the model never has to emit
// the whole dataset at once.
package extraction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/tool"
)

// RowsKey is the memory key holding the accumulated []map[string]any.
const RowsKey = "rows"

// Options configures a Toolkit.
type Options struct {
	// Role names the agent directory the table is written to.
	Role string
	// Format of the finalized table.
	Format Format
	// FileName without extension.
	FileName string
}

// Toolkit binds the extraction tools to one row schema.
type Toolkit struct {
	schema *RowSchema
	opts   Options
}

// New creates a toolkit for schema.
func New(schema *RowSchema, optFns ...func(o *Options)) *Toolkit {
	opts := Options{
		Role:     "extractor",
		Format:   FormatCSV,
		FileName: "rows",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Format == "" {
		opts.Format = FormatCSV
	}

	return &Toolkit{schema: schema, opts: opts}
}

// Schema returns the row schema.
func (k *Toolkit) Schema() *RowSchema { return k.schema }

// Tools returns persist_rows and finalize_extraction.
func (k *Toolkit) Tools() []tool.Tool {
	return []tool.Tool{k.PersistRows(), k.Finalize()}
}

// PersistRows appends a validated batch to memory.
func (k *Toolkit) PersistRows() tool.Tool {
	return tool.NewFunctionTool("persist_rows",
		"Persist a batch of extracted rows. Call it repeatedly while extracting, then call finalize_extraction once.",
		[]tool.Param{tool.ArrayOf("rows", "Rows to append", k.schema.RowParam())},
		func(tc *core.ToolContext, args tool.Args) (core.ActionResult, error) {
			var rows []map[string]any
			if err := args.Decode("rows", &rows); err != nil {
				return core.ActionResult{}, err
			}

			total, err := k.appendRows(tc.Memory(), rows)
			if err != nil {
				return core.Fail("persist_rows", err.Error()), nil
			}

			tc.LogInfo("extraction.rows.persisted", "batch", len(rows), "total", total)

			return core.Succeedf("persist_rows", "Persisted %d rows, %d in total", len(rows), total).
				WithContent("total", total), nil
		})
}

// Finalize writes every accumulated row to the table file and terminates
// the extraction agent.
func (k *Toolkit) Finalize() tool.Tool {
	return tool.NewFunctionTool("finalize_extraction",
		"Finish the extraction: write all persisted rows to a table file.",
		nil,
		func(tc *core.ToolContext, _ tool.Args) (core.ActionResult, error) {
			return k.finalize(tc.RunContext())
		})
}

// HandleText interprets a text answer of the extractor as structured output
// {"rows": [...]}: the rows are appended and the extraction is finalized.
// Text that does not parse is reported back as a failed, non-terminal step.
func (k *Toolkit) HandleText(rc *core.RunContext, text string) core.ActionResult {
	var payload struct {
		Rows []map[string]any `json:"rows"`
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return core.Failf(core.ActionNoAction, "Output is neither a tool call nor valid rows JSON: %v", err)
	}

	if payload.Rows == nil {
		return core.Fail(core.ActionNoAction, `Output JSON has no "rows" array`)
	}

	if _, err := k.appendRows(rc.Memory, payload.Rows); err != nil {
		return core.Fail(core.ActionNoAction, err.Error())
	}

	res, err := k.finalize(rc)
	if err != nil {
		return core.Fail(core.ActionExtractionDone, err.Error())
	}

	return res
}

// Rows returns a copy of the accumulated rows.
func Rows(mem core.MemoryStore) []map[string]any {
	v, ok := mem.Get(RowsKey)
	if !ok {
		return nil
	}

	rows, _ := v.([]map[string]any)

	return append([]map[string]any(nil), rows...)
}

func (k *Toolkit) appendRows(mem core.MemoryStore, batch []map[string]any) (int, error) {
	for i, row := range batch {
		if err := k.schema.Validate(row); err != nil {
			return 0, fmt.Errorf("row %d rejected, nothing persisted: %w", i, err)
		}
	}

	total := 0
	mem.Update(RowsKey, func(old any, _ bool) any {
		rows, _ := old.([]map[string]any)
		next := make([]map[string]any, 0, len(rows)+len(batch))
		next = append(next, rows...)
		next = append(next, batch...)
		total = len(next)
		return next
	})

	return total, nil
}

func (k *Toolkit) finalize(rc *core.RunContext) (core.ActionResult, error) {
	rows := Rows(rc.Memory)

	var header []string
	if len(rows) > 0 {
		header = k.schema.Header(rows[0])
	}

	name := k.opts.FileName + "." + string(k.opts.Format)
	path := filepath.Join(rc.AgentDir(k.opts.Role), name)

	if err := WriteTable(path, k.opts.Format, header, rows); err != nil {
		return core.ActionResult{}, fmt.Errorf("write table: %w", err)
	}

	rc.LogInfo("extraction.finalized", "rows", len(rows), "path", path)

	if rc.Artifacts != nil {
		data, err := os.ReadFile(path)
		if err == nil {
			err = rc.SaveArtifact(filepath.Join(filepath.Base(filepath.Dir(path)), name), data)
		}
		if err != nil {
			rc.LogWarn("extraction.artifact.error", "path", path, "error", err.Error())
		}
	}

	msg := fmt.Sprintf("Extracted %d rows into %s", len(rows), path)
	if len(rows) == 0 {
		msg = fmt.Sprintf("No rows extracted; wrote empty table %s", path)
	}

	return core.Finish(core.ActionExtractionDone, true, msg, map[string]any{
		"rows":   rows,
		"path":   path,
		"header": header,
		"format": string(k.opts.Format),
	}), nil
}
