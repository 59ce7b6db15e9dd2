// Package cache keeps an in-memory snapshot of all reference tables.
// The snapshot is replaced wholesale on refresh, never patched table by
// table, so readers always see one consistent generation.
package cache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/utkabotron/vibe/internal/model"
	"github.com/utkabotron/vibe/internal/sheets"
)

// snapshot is one generation of reference data plus derived indexes.
type snapshot struct {
	projects           []model.Project
	productsByProject  map[string][]model.Product
	labourTypes        []model.LabourType
	paintTypes         []model.PaintMaterialType
	paintMaterials     map[string][]model.PaintMaterial
	materialTypes      []model.MaterialType
	materials          map[string][]model.Material
	employees          map[string]model.Employee
	employeeList       []model.Employee
	loadedAt           time.Time
}

// Cache serves reference data to all conversations. Refresh holds the
// write lock for the swap only; reads are concurrent among themselves.
type Cache struct {
	client sheets.Client

	// refreshMu serializes refreshes with each other; a refresh that
	// arrives mid-flight waits instead of fetching concurrently.
	refreshMu sync.Mutex

	mu   sync.RWMutex
	snap *snapshot
}

// New creates an empty cache over the given spreadsheet client.
// Refresh must succeed at least once before the cache serves data.
func New(client sheets.Client) *Cache {
	return &Cache{client: client}
}

// Refresh fetches every reference table, normalizes the rows and swaps
// in the new snapshot atomically. On any fetch error the previous
// snapshot stays authoritative and the error is returned to the caller
// (the periodic refresher logs it; initial load treats it as fatal).
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()

	projectRows, err := c.client.FetchTable(ctx, sheets.TableProjects)
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}
	productRows, err := c.client.FetchTable(ctx, sheets.TableProducts)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	labourRows, err := c.client.FetchTable(ctx, sheets.TableLabourTypes)
	if err != nil {
		return fmt.Errorf("fetch labour types: %w", err)
	}
	paintTypeRows, err := c.client.FetchTable(ctx, sheets.TablePaintMaterialTypes)
	if err != nil {
		return fmt.Errorf("fetch paint material types: %w", err)
	}
	paintRows, err := c.client.FetchTable(ctx, sheets.TablePaintMaterials)
	if err != nil {
		return fmt.Errorf("fetch paint materials: %w", err)
	}
	materialTypeRows, err := c.client.FetchTable(ctx, sheets.TableMaterialTypes)
	if err != nil {
		return fmt.Errorf("fetch material types: %w", err)
	}
	materialRows, err := c.client.FetchTable(ctx, sheets.TableMaterials)
	if err != nil {
		return fmt.Errorf("fetch materials: %w", err)
	}
	employeeRows, err := c.client.FetchTable(ctx, sheets.TableEmployees)
	if err != nil {
		return fmt.Errorf("fetch employees: %w", err)
	}

	snap := buildSnapshot(projectRows, productRows, labourRows, paintTypeRows,
		paintRows, materialTypeRows, materialRows, employeeRows)

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	log.Printf("cache: refresh completed in %s (%d projects, %d employees)",
		time.Since(start).Round(time.Millisecond), len(snap.projects), len(snap.employeeList))
	return nil
}

func buildSnapshot(projectRows, productRows, labourRows, paintTypeRows,
	paintRows, materialTypeRows, materialRows, employeeRows []model.Row) *snapshot {

	snap := &snapshot{
		productsByProject: make(map[string][]model.Product),
		paintMaterials:    make(map[string][]model.PaintMaterial),
		materials:         make(map[string][]model.Material),
		employees:         make(map[string]model.Employee),
		loadedAt:          time.Now(),
	}

	for _, row := range projectRows {
		snap.projects = append(snap.projects, model.NormalizeProject(row))
	}
	for _, row := range productRows {
		p := model.NormalizeProduct(row)
		if p.ProjectID == "" {
			continue
		}
		key := normKey(p.ProjectID)
		snap.productsByProject[key] = append(snap.productsByProject[key], p)
	}
	for _, row := range labourRows {
		snap.labourTypes = append(snap.labourTypes, model.NormalizeLabourType(row))
	}
	for _, row := range paintTypeRows {
		snap.paintTypes = append(snap.paintTypes, model.NormalizePaintMaterialType(row))
	}
	for _, row := range paintRows {
		m := model.NormalizePaintMaterial(row)
		if m.TypeID == "" {
			continue
		}
		key := normKey(m.TypeID)
		snap.paintMaterials[key] = append(snap.paintMaterials[key], m)
	}
	for _, row := range materialTypeRows {
		snap.materialTypes = append(snap.materialTypes, model.NormalizeMaterialType(row))
	}
	for _, row := range materialRows {
		m := model.NormalizeMaterial(row)
		if m.TypeID == "" {
			continue
		}
		key := normKey(m.TypeID)
		snap.materials[key] = append(snap.materials[key], m)
	}
	for _, row := range employeeRows {
		e := model.NormalizeEmployee(row)
		snap.employeeList = append(snap.employeeList, e)
		key := e.TelegramID
		if key == "" {
			key = e.ID
		}
		if key != "" {
			snap.employees[normKey(key)] = e
		}
	}

	return snap
}

// normKey compares all identifiers as strings regardless of how the
// source sheet typed them. Numeric and text ids that stringify the
// same are deliberately treated as equal; cross-sheet joins rely on it.
func normKey(id string) string {
	return strings.TrimSpace(id)
}

// Ready reports whether an initial snapshot has been loaded.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap != nil
}

// Projects returns active projects in source row order.
func (c *Cache) Projects() []model.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	result := make([]model.Project, 0, len(c.snap.projects))
	for _, p := range c.snap.projects {
		if p.Active {
			result = append(result, p)
		}
	}
	return result
}

// Products returns the products of one project in source row order.
func (c *Cache) Products(projectID string) []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	return c.snap.productsByProject[normKey(projectID)]
}

// LabourTypes returns all labour types in source row order.
func (c *Cache) LabourTypes() []model.LabourType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	return c.snap.labourTypes
}

// PaintMaterialTypes returns all paint material types.
func (c *Cache) PaintMaterialTypes() []model.PaintMaterialType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	return c.snap.paintTypes
}

// PaintMaterials returns the paint materials of one type.
func (c *Cache) PaintMaterials(typeID string) []model.PaintMaterial {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	return c.snap.paintMaterials[normKey(typeID)]
}

// MaterialTypes returns all material types.
func (c *Cache) MaterialTypes() []model.MaterialType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	return c.snap.materialTypes
}

// Materials returns the materials of one type.
func (c *Cache) Materials(typeID string) []model.Material {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	return c.snap.materials[normKey(typeID)]
}

// Employee resolves an employee by external (Telegram) id. A direct
// index miss falls back to scanning all entries by internal id, which
// tolerates workbooks that keyed Users differently. An employee whose
// active flag is explicitly "false" is reported as not found.
func (c *Cache) Employee(externalID string) (model.Employee, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return model.Employee{}, false
	}

	key := normKey(externalID)
	if e, ok := c.snap.employees[key]; ok {
		if !e.Active {
			log.Printf("cache: employee %s found but inactive", externalID)
			return model.Employee{}, false
		}
		return e, true
	}

	for _, e := range c.snap.employeeList {
		if normKey(e.ID) == key {
			if !e.Active {
				log.Printf("cache: employee %s found but inactive", externalID)
				return model.Employee{}, false
			}
			return e, true
		}
	}
	return model.Employee{}, false
}

// EmployeeAny resolves an employee regardless of the active flag. The
// wizard uses it to distinguish "unknown user" from "deactivated user".
func (c *Cache) EmployeeAny(externalID string) (model.Employee, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return model.Employee{}, false
	}

	key := normKey(externalID)
	if e, ok := c.snap.employees[key]; ok {
		return e, true
	}
	for _, e := range c.snap.employeeList {
		if normKey(e.ID) == key {
			return e, true
		}
	}
	return model.Employee{}, false
}

// RegisterEmployee appends a new Users row and patches the employee
// index of the current snapshot so the new user can proceed without
// waiting for the next full refresh.
func (c *Cache) RegisterEmployee(ctx context.Context, telegramID, name string) error {
	if _, ok := c.EmployeeAny(telegramID); ok {
		return fmt.Errorf("employee %s already registered", telegramID)
	}

	row := []string{telegramID, name, "user", "true"}
	if err := c.client.AppendRows(ctx, sheets.TableEmployees, [][]string{row}); err != nil {
		return fmt.Errorf("append employee: %w", err)
	}

	e := model.Employee{
		TelegramID: telegramID,
		ID:         telegramID,
		Name:       name,
		Role:       "user",
		Active:     true,
	}

	c.mu.Lock()
	if c.snap != nil {
		c.snap.employees[normKey(telegramID)] = e
		c.snap.employeeList = append(c.snap.employeeList, e)
	}
	c.mu.Unlock()

	log.Printf("cache: registered new employee %s (%s)", name, telegramID)
	return nil
}
