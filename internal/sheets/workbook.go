package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/utkabotron/vibe/internal/model"
)

// Workbook is a Client backed by a single xlsx file on disk. Every
// operation opens the file fresh so edits made between calls are
// picked up; a mutex serializes file access within the process.
type Workbook struct {
	path string
	mu   sync.Mutex
}

// NewWorkbook creates a Workbook client for the given file path.
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path}
}

// FetchTable reads one worksheet and returns its data rows in source
// order, keyed by the header row. Header names are trimmed; cells past
// the header width are ignored.
func (w *Workbook) FetchTable(ctx context.Context, table string) ([]model.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	result := make([]model.Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(model.Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		result = append(result, row)
	}
	return result, nil
}

// AppendRows appends all rows after the last used row of the worksheet
// in one open/save cycle, so one report submission lands as one block.
func (w *Workbook) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	existing, err := f.GetRows(table)
	if err != nil {
		return fmt.Errorf("read table %s: %w", table, err)
	}

	next := len(existing) + 1
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(table, cell, &values); err != nil {
			return fmt.Errorf("append to %s: %w", table, err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
