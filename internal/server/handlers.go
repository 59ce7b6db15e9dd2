package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/utkabotron/vibe/internal/cache"
	"github.com/utkabotron/vibe/internal/model"
	"github.com/utkabotron/vibe/internal/report"
)

// Notifier posts a plain-text message into a user's chat. The bot
// implements it; a nil notifier just skips the chat confirmation.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Handlers serves the mini-app endpoints.
type Handlers struct {
	refs     *cache.Cache
	reports  *report.Submitter
	notifier Notifier
	botToken string
}

// NewHandlers wires the handlers over the shared cache and submitter.
func NewHandlers(refs *cache.Cache, reports *report.Submitter, notifier Notifier, botToken string) *Handlers {
	return &Handlers{refs: refs, reports: reports, notifier: notifier, botToken: botToken}
}

// Response is the uniform endpoint envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

const ctxUserKey = "miniapp_user"

// RequireInitData validates the X-Telegram-Init-Data header and puts
// the authenticated user on the request context. Requests without a
// valid signature never reach a handler.
func (h *Handlers) RequireInitData() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := ValidateInitData(c.GetHeader("X-Telegram-Init-Data"), h.botToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Code:    4001,
				Message: "init data validation failed",
			})
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) MiniAppUser {
	u, _ := c.Get(ctxUserKey)
	user, _ := u.(MiniAppUser)
	return user
}

// ==================== Endpoints ====================

// Init returns the caller's employee record plus the full reference
// tree the form needs. Unregistered users get code 4003 so the app
// can point them at the bot's registration flow.
func (h *Handlers) Init(c *gin.Context) {
	user := currentUser(c)

	emp, ok := h.refs.Employee(strconv.FormatInt(user.ID, 10))
	if !ok {
		errorResponse(c, 4003, "employee is not registered or deactivated")
		return
	}

	success(c, gin.H{
		"employee": gin.H{
			"id":   emp.ID,
			"name": emp.Name,
			"role": emp.Role,
		},
		"references": h.references(),
	})
}

// Sync returns the reference tree alone, for cheap periodic refresh
// of an already-open form.
func (h *Handlers) Sync(c *gin.Context) {
	success(c, gin.H{"references": h.references()})
}

type submitAction struct {
	Category string `json:"category" binding:"required"`
	TypeID   string `json:"type_id"`
	ItemID   string `json:"item_id"`
	Quantity string `json:"quantity"`
	Comment  string `json:"comment"`
}

type submitRequest struct {
	ProjectID string         `json:"project_id" binding:"required"`
	ProductID string         `json:"product_id" binding:"required"`
	Actions   []submitAction `json:"actions" binding:"required"`
}

// Submit validates a mini-app report against the cache and appends it
// to the same Reports sheet the bot writes.
func (h *Handlers) Submit(c *gin.Context) {
	user := currentUser(c)

	emp, ok := h.refs.Employee(strconv.FormatInt(user.ID, 10))
	if !ok {
		errorResponse(c, 4003, "employee is not registered or deactivated")
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 4000, "invalid request body: "+err.Error())
		return
	}
	if len(req.Actions) == 0 {
		errorResponse(c, 4000, "report has no actions")
		return
	}

	r, err := h.buildReport(emp, req)
	if err != nil {
		errorResponse(c, 4004, err.Error())
		return
	}

	submissionID, err := h.reports.Submit(c.Request.Context(), r)
	if err != nil {
		errorResponse(c, 5000, "failed to store report")
		return
	}

	// The chat gets the same confirmation card a bot submission shows.
	if h.notifier != nil {
		if err := h.notifier.Notify(user.ID, report.Summary(r)); err != nil {
			log.Printf("miniapp: chat notification for %d: %v", user.ID, err)
		}
	}

	success(c, gin.H{
		"submitted":     true,
		"submission_id": submissionID,
		"actions":       len(r.Actions),
		"timestamp":     r.Timestamp,
	})
}

// buildReport resolves every id in the request against the cache, so
// submitted names always match current reference data.
func (h *Handlers) buildReport(emp model.Employee, req submitRequest) (*model.Report, error) {
	r := &model.Report{
		Timestamp:    report.Stamp(time.Now()),
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
	}

	project, ok := h.findProject(req.ProjectID)
	if !ok {
		return nil, errUnknownRef("project", req.ProjectID)
	}
	r.ProjectID, r.ProjectName = project.ID, project.Name

	product, ok := h.findProduct(project.ID, req.ProductID)
	if !ok {
		return nil, errUnknownRef("product", req.ProductID)
	}
	r.ProductID, r.ProductName = product.ID, product.Name

	for _, in := range req.Actions {
		a, err := h.resolveAction(in)
		if err != nil {
			return nil, err
		}
		r.Actions = append(r.Actions, a)
	}
	return r, nil
}

func (h *Handlers) resolveAction(in submitAction) (model.Action, error) {
	a := model.Action{
		Category: model.Category(in.Category),
		Quantity: in.Quantity,
		Comment:  in.Comment,
	}

	switch a.Category {
	case model.CategoryLabour:
		for _, t := range h.refs.LabourTypes() {
			if t.ID == in.ItemID {
				a.TypeID, a.TypeName = t.ID, t.Name
				a.ItemID, a.ItemName = t.ID, t.Name
				a.Unit = "ч." // labour rows always carry hours
				return a, nil
			}
		}
		return a, errUnknownRef("labour type", in.ItemID)
	case model.CategoryPaint:
		for _, m := range h.refs.PaintMaterials(in.TypeID) {
			if m.ID == in.ItemID {
				a.ItemID, a.ItemName = m.ID, m.Name
				a.Unit = m.Unit
				a.TypeID = in.TypeID
				a.TypeName = h.paintTypeName(in.TypeID)
				return a, nil
			}
		}
		return a, errUnknownRef("paint material", in.ItemID)
	case model.CategoryMaterial:
		for _, m := range h.refs.Materials(in.TypeID) {
			if m.ID == in.ItemID {
				a.ItemID, a.ItemName = m.ID, m.Name
				a.Unit = m.Unit
				a.TypeID = in.TypeID
				a.TypeName = h.materialTypeName(in.TypeID)
				return a, nil
			}
		}
		return a, errUnknownRef("material", in.ItemID)
	case model.CategoryDefect:
		a.TypeName = model.CategoryDefect.Label()
		a.ItemName = model.CategoryDefect.Label()
		a.Quantity, a.Unit = "", ""
		return a, nil
	}
	return a, errUnknownRef("category", in.Category)
}

func (h *Handlers) findProject(id string) (model.Project, bool) {
	for _, p := range h.refs.Projects() {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

func (h *Handlers) findProduct(projectID, id string) (model.Product, bool) {
	for _, p := range h.refs.Products(projectID) {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

func (h *Handlers) paintTypeName(id string) string {
	for _, t := range h.refs.PaintMaterialTypes() {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

func (h *Handlers) materialTypeName(id string) string {
	for _, t := range h.refs.MaterialTypes() {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

// references renders the cache snapshot as the nested tree the form
// renders its pickers from.
func (h *Handlers) references() gin.H {
	projects := make([]gin.H, 0)
	for _, p := range h.refs.Projects() {
		products := make([]gin.H, 0)
		for _, prod := range h.refs.Products(p.ID) {
			products = append(products, gin.H{"id": prod.ID, "name": prod.Name})
		}
		projects = append(projects, gin.H{"id": p.ID, "name": p.Name, "products": products})
	}

	labour := make([]gin.H, 0)
	for _, t := range h.refs.LabourTypes() {
		labour = append(labour, gin.H{"id": t.ID, "name": t.Name, "unit": t.Unit})
	}

	paintTypes := make([]gin.H, 0)
	for _, t := range h.refs.PaintMaterialTypes() {
		materials := make([]gin.H, 0)
		for _, m := range h.refs.PaintMaterials(t.ID) {
			materials = append(materials, gin.H{"id": m.ID, "name": m.Name, "unit": m.Unit})
		}
		paintTypes = append(paintTypes, gin.H{"id": t.ID, "name": t.Name, "materials": materials})
	}

	materialTypes := make([]gin.H, 0)
	for _, t := range h.refs.MaterialTypes() {
		materials := make([]gin.H, 0)
		for _, m := range h.refs.Materials(t.ID) {
			materials = append(materials, gin.H{"id": m.ID, "name": m.Name, "unit": m.Unit})
		}
		materialTypes = append(materialTypes, gin.H{"id": t.ID, "name": t.Name, "materials": materials})
	}

	return gin.H{
		"projects":             projects,
		"labour_types":         labour,
		"paint_material_types": paintTypes,
		"material_types":       materialTypes,
	}
}

type refError struct {
	kind string
	id   string
}

func (e refError) Error() string {
	return "unknown " + e.kind + ": " + e.id
}

func errUnknownRef(kind, id string) error {
	return refError{kind: kind, id: id}
}
