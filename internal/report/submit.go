// Package report turns an accumulated report into Reports-sheet rows
// and renders the confirmation summaries shown to the user.
package report

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/utkabotron/vibe/internal/model"
	"github.com/utkabotron/vibe/internal/sheets"
)

// ErrEmptyReport is returned for a report with no actions; such a
// report is not submittable.
var ErrEmptyReport = errors.New("report has no actions")

// subcategoryLabour is the fixed subcategory column value for labour
// rows, matching what the reporting sheet's pivots expect.
const subcategoryLabour = "Трудозатраты"

// Submitter persists completed reports through the spreadsheet client.
type Submitter struct {
	client sheets.Client
}

// NewSubmitter creates a Submitter over the given client.
func NewSubmitter(client sheets.Client) *Submitter {
	return &Submitter{client: client}
}

// Submit appends one row per action in a single batched write, so a
// report never interleaves with another submission. It returns the
// submission id that tags the log line and the mini-app response. On
// error the caller keeps the accumulated report and may retry.
func (s *Submitter) Submit(ctx context.Context, r *model.Report) (string, error) {
	if r == nil || len(r.Actions) == 0 {
		return "", ErrEmptyReport
	}

	id := uuid.New().String()
	rows := BuildRows(r)
	if err := s.client.AppendRows(ctx, sheets.TableReports, rows); err != nil {
		return "", err
	}

	log.Printf("report: submission %s saved %d rows for %s",
		id[:8], len(rows), r.EmployeeName)
	return id, nil
}

// BuildRows translates a report into Reports-sheet rows with the fixed
// column order: timestamp, employee id/name, project id/name, product
// id/name, category label, subcategory, name, quantity, unit, comment.
// All rows share the header columns; only action columns vary.
func BuildRows(r *model.Report) [][]string {
	rows := make([][]string, 0, len(r.Actions))
	for _, a := range r.Actions {
		rows = append(rows, []string{
			r.Timestamp,
			r.EmployeeID,
			r.EmployeeName,
			r.ProjectID,
			r.ProjectName,
			r.ProductID,
			r.ProductName,
			a.Category.Label(),
			subcategoryColumn(a),
			a.ItemName,
			a.Quantity,
			a.Unit,
			a.Comment,
		})
	}
	return rows
}

// subcategoryColumn is category-dependent: a fixed constant for
// labour, the stored type name (material group or category label)
// for everything else.
func subcategoryColumn(a model.Action) string {
	if a.Category == model.CategoryLabour {
		return subcategoryLabour
	}
	return a.TypeName
}
