package extraction

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Format selects the tabular output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Sheet1"

// WriteTable writes rows to path in format, creating the parent directory.
func WriteTable(path string, format Format, header []string, rows []map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	switch format {
	case FormatXLSX:
		return writeXLSX(path, header, rows)
	case FormatCSV, "":
		return writeCSV(path, header, rows)
	default:
		return fmt.Errorf("unsupported table format %q", format)
	}
}

func writeCSV(path string, header []string, rows []map[string]any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)

	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = cell(row[col])
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func writeXLSX(path string, header []string, rows []map[string]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(header) > 0 {
		values := make([]any, len(header))
		for i, h := range header {
			values[i] = h
		}

		if err := f.SetSheetRow(sheetName, "A1", &values); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, row := range rows {
		values := make([]any, len(header))
		for i, col := range header {
			values[i] = row[col]
		}

		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheetName, axis, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	return nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
