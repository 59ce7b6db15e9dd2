package model

// Category is the closed set of action categories.
type Category string

const (
	CategoryLabour   Category = "labour"
	CategoryPaint    Category = "paint"
	CategoryMaterial Category = "material"
	CategoryDefect   Category = "defect"
)

// categoryLabels maps categories to their localized display labels.
// These labels are what ends up in the Reports sheet and in chat.
var categoryLabels = map[Category]string{
	CategoryLabour:   "Работы",
	CategoryPaint:    "ЛКМ",
	CategoryMaterial: "Плита",
	CategoryDefect:   "Брак",
}

// Label returns the localized display label of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// CategoryFromLabel resolves a display label back to a Category.
func CategoryFromLabel(label string) (Category, bool) {
	for c, l := range categoryLabels {
		if l == label {
			return c, true
		}
	}
	return "", false
}

// Project is one row of the Projects sheet.
type Project struct {
	ID     string
	Name   string
	Active bool
}

// Product is one row of the Products sheet, owned by a project.
type Product struct {
	ID        string
	Name      string
	ProjectID string
}

// LabourType is one row of the Operations sheet.
type LabourType struct {
	ID   string
	Name string
	Unit string
}

// PaintMaterialType is one row of the PaintMaterialTypes sheet.
type PaintMaterialType struct {
	ID   string
	Name string
}

// PaintMaterial is one row of the PaintMaterials sheet, owned by a type.
type PaintMaterial struct {
	ID     string
	Name   string
	Unit   string
	TypeID string
}

// MaterialType is one row of the MaterialTypes sheet.
type MaterialType struct {
	ID   string
	Name string
}

// Material is one row of the Materials sheet, owned by a type.
type Material struct {
	ID     string
	Name   string
	Unit   string
	TypeID string
}

// Employee is one row of the Users sheet. TelegramID is the primary
// lookup key; ID is the internal employee id used for attribution.
type Employee struct {
	TelegramID string
	ID         string
	Name       string
	Role       string
	Active     bool
}

// Action is one line item inside a report. The meaning of TypeID and
// TypeName depends on the category: labour-type id/name for labour,
// the owning type id/name for paint and material, category label for
// defect. ItemName is the specific labour operation or material chosen.
type Action struct {
	Category Category
	TypeID   string
	TypeName string
	ItemID   string
	ItemName string
	Quantity string
	Unit     string
	Comment  string
}

// Report is one report transaction: header fields plus an ordered list
// of actions. Actions keep insertion order; they are never reordered.
type Report struct {
	Timestamp    string
	EmployeeID   string
	EmployeeName string
	ProjectID    string
	ProjectName  string
	ProductID    string
	ProductName  string
	Actions      []Action
}
