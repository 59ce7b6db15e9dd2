package model

import "strings"

// Row is one spreadsheet row keyed by column header.
type Row map[string]string

// Deployed workbooks disagree on column names (project_id vs project vs id,
// work_id vs type_id, and so on). Each mapper below reconciles the known
// aliases into one canonical record shape so the rest of the code never
// sees the variance.

func pick(row Row, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseActiveFlag treats an absent flag as active and compares
// case-insensitively, so "TRUE", "true" and "" all mean active.
func parseActiveFlag(v string) bool {
	return !strings.EqualFold(strings.TrimSpace(v), "false")
}

// NormalizeProject maps a Projects row to a Project.
func NormalizeProject(row Row) Project {
	return Project{
		ID:     pick(row, "project_id", "id"),
		Name:   pick(row, "project_name", "name"),
		Active: parseActiveFlag(pick(row, "active")),
	}
}

// NormalizeProduct maps a Products row to a Product.
func NormalizeProduct(row Row) Product {
	return Product{
		ID:        pick(row, "product_id", "id"),
		Name:      pick(row, "product_name", "name"),
		ProjectID: pick(row, "project_id", "project"),
	}
}

// NormalizeLabourType maps an Operations row to a LabourType.
// Older workbooks use work_id/work_name, newer ones type_id/type_name.
func NormalizeLabourType(row Row) LabourType {
	unit := pick(row, "unit")
	if unit == "" {
		unit = "ч"
	}
	return LabourType{
		ID:   pick(row, "work_id", "type_id", "id"),
		Name: pick(row, "work_name", "type_name", "name"),
		Unit: unit,
	}
}

// NormalizePaintMaterialType maps a PaintMaterialTypes row.
func NormalizePaintMaterialType(row Row) PaintMaterialType {
	return PaintMaterialType{
		ID:   pick(row, "type_id", "id"),
		Name: pick(row, "type_name", "name"),
	}
}

// NormalizePaintMaterial maps a PaintMaterials row.
func NormalizePaintMaterial(row Row) PaintMaterial {
	return PaintMaterial{
		ID:     pick(row, "material_id", "id"),
		Name:   pick(row, "material_name", "name"),
		Unit:   pick(row, "unit"),
		TypeID: pick(row, "type_id", "type"),
	}
}

// NormalizeMaterialType maps a MaterialTypes row.
func NormalizeMaterialType(row Row) MaterialType {
	return MaterialType{
		ID:   pick(row, "type_id", "id"),
		Name: pick(row, "type_name", "name"),
	}
}

// NormalizeMaterial maps a Materials row.
func NormalizeMaterial(row Row) Material {
	return Material{
		ID:     pick(row, "material_id", "id"),
		Name:   pick(row, "material_name", "name"),
		Unit:   pick(row, "unit"),
		TypeID: pick(row, "type_id", "type"),
	}
}

// NormalizeEmployee maps a Users row to an Employee. The active flag is
// kept strict here: only an explicit "false" marks the employee inactive.
func NormalizeEmployee(row Row) Employee {
	return Employee{
		TelegramID: pick(row, "telegram_id", "tg_id"),
		ID:         pick(row, "id", "employee_id"),
		Name:       pick(row, "name", "employee_name"),
		Role:       pick(row, "role"),
		Active:     parseActiveFlag(pick(row, "active")),
	}
}
