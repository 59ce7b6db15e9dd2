// Package sheets is the spreadsheet collaborator: a thin row-store
// client over the xlsx workbook holding reference data and reports.
package sheets

import (
	"context"

	"github.com/utkabotron/vibe/internal/model"
)

// Fixed worksheet names inside the workbook.
const (
	TableProjects           = "Projects"
	TableProducts           = "Products"
	TableLabourTypes        = "Operations"
	TablePaintMaterialTypes = "PaintMaterialTypes"
	TablePaintMaterials     = "PaintMaterials"
	TableMaterialTypes      = "MaterialTypes"
	TableMaterials          = "Materials"
	TableEmployees          = "Users"
	TableReports            = "Reports"
)

// Client is the narrow interface the core depends on: tabular fetch
// and batched row append. Both may block on I/O and honor ctx.
type Client interface {
	FetchTable(ctx context.Context, table string) ([]model.Row, error)
	AppendRows(ctx context.Context, table string, rows [][]string) error
}
