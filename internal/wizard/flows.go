package wizard

import (
	"strings"

	"github.com/utkabotron/vibe/internal/model"
	"github.com/utkabotron/vibe/internal/session"
)

func editReply(text string, kb [][]Button) Response {
	return reply(Message{Text: text, Keyboard: kb, Edit: true})
}

// flowHeader names the project and product every category screen
// repeats, so the user always sees what the actions attach to.
func flowHeader(s *session.Session) string {
	r := s.CurrentReport()
	return "Проект: " + r.ProjectName + "\nИзделие: " + r.ProductName
}

func (e *Engine) handleProjectChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback || !strings.HasPrefix(ev.Callback, cbProjectPrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbProjectPrefix)

	var project *model.Project
	for _, p := range e.refs.Projects() {
		if p.ID == id {
			project = &p
			break
		}
	}
	if project == nil {
		// The project vanished in a refresh between screens.
		return e.endStale(ev)
	}

	r := s.CurrentReport()
	r.ProjectID = project.ID
	r.ProjectName = project.Name

	products := e.refs.Products(project.ID)
	if len(products) == 0 {
		return editReply(
			"В проекте «"+project.Name+"» нет изделий. Выберите другой проект:",
			projectsKeyboard(e.refs.Projects()),
		)
	}
	s.State = session.StateChoosingProduct
	return editReply("Проект: "+project.Name+"\n\nВыберите изделие:", productsKeyboard(products))
}

func (e *Engine) handleProductChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	if ev.Callback == cbBack {
		return e.backToProjects(s)
	}
	if !strings.HasPrefix(ev.Callback, cbProductPrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbProductPrefix)

	r := s.CurrentReport()
	var product *model.Product
	for _, p := range e.refs.Products(r.ProjectID) {
		if p.ID == id {
			product = &p
			break
		}
	}
	if product == nil {
		return e.endStale(ev)
	}

	r.ProductID = product.ID
	r.ProductName = product.Name
	return e.promptCategory(s)
}

func (e *Engine) handleCategoryChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	if ev.Callback == cbBack {
		return e.backToProducts(s)
	}
	if !strings.HasPrefix(ev.Callback, cbCategoryPrefix) {
		return e.endStale(ev)
	}
	cat, ok := model.CategoryFromLabel(strings.TrimPrefix(ev.Callback, cbCategoryPrefix))
	if !ok {
		return e.endStale(ev)
	}

	a := s.CurrentAction()
	*a = model.Action{Category: cat}

	switch cat {
	case model.CategoryLabour:
		s.State = session.StateChoosingLabourType
		return editReply(flowHeader(s)+"\n\nВыберите вид работ:", labourTypesKeyboard(e.refs.LabourTypes()))
	case model.CategoryPaint:
		s.State = session.StateChoosingPaintType
		return editReply(flowHeader(s)+"\n\nВыберите тип ЛКМ:", paintTypesKeyboard(e.refs.PaintMaterialTypes()))
	case model.CategoryMaterial:
		s.State = session.StateChoosingMaterialType
		return editReply(flowHeader(s)+"\n\nВыберите тип плиты:", materialTypesKeyboard(e.refs.MaterialTypes()))
	case model.CategoryDefect:
		a.TypeName = model.CategoryDefect.Label()
		a.ItemName = model.CategoryDefect.Label()
		s.State = session.StateEnteringComment
		return editReply("Опишите брак (или пропустите):", skipKeyboard())
	}
	return e.endStale(ev)
}

func (e *Engine) handleLabourTypeChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	if ev.Callback == cbBack {
		return e.promptCategory(s)
	}
	if !strings.HasPrefix(ev.Callback, cbLabourTypePrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbLabourTypePrefix)

	var lt *model.LabourType
	for _, t := range e.refs.LabourTypes() {
		if t.ID == id {
			lt = &t
			break
		}
	}
	if lt == nil {
		return e.endStale(ev)
	}

	a := s.CurrentAction()
	a.TypeID, a.TypeName = lt.ID, lt.Name
	a.ItemID, a.ItemName = lt.ID, lt.Name

	s.State = session.StateEnteringHours
	return editReply(
		flowHeader(s)+"\n\nРабота: "+lt.Name+"\nСколько времени затрачено? Выберите или введите в формате Ч:ММ:",
		timePresetKeyboard(),
	)
}

func (e *Engine) handleHours(s *session.Session, ev Event) Response {
	input := ev.Text
	if ev.IsCallback {
		switch {
		case ev.Callback == cbBack:
			s.ClearAction()
			a := s.CurrentAction()
			a.Category = model.CategoryLabour
			s.State = session.StateChoosingLabourType
			return editReply(flowHeader(s)+"\n\nВыберите вид работ:", labourTypesKeyboard(e.refs.LabourTypes()))
		case strings.HasPrefix(ev.Callback, cbTimePrefix):
			input = strings.TrimPrefix(ev.Callback, cbTimePrefix)
		default:
			return e.endStale(ev)
		}
	}

	hours, ok := ParseTimeInput(input)
	if !ok || hours == 0 {
		return reply(Message{
			Text:  "Неверный формат времени. Введите время в формате Ч:ММ (например 1:30) или числом часов:",
			Track: true,
		})
	}

	a := s.CurrentAction()
	a.Quantity = FormatQuantity(hours)
	// Labour rows always carry hours, whatever unit the Operations
	// sheet declares for the type.
	a.Unit = "ч."
	return e.promptActionSummary(s, ev.IsCallback)
}

func (e *Engine) handlePaintTypeChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	if ev.Callback == cbBack {
		return e.promptCategory(s)
	}
	if !strings.HasPrefix(ev.Callback, cbPaintTypePrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbPaintTypePrefix)

	var pt *model.PaintMaterialType
	for _, t := range e.refs.PaintMaterialTypes() {
		if t.ID == id {
			pt = &t
			break
		}
	}
	if pt == nil {
		return e.endStale(ev)
	}

	a := s.CurrentAction()
	a.TypeID, a.TypeName = pt.ID, pt.Name

	s.State = session.StateChoosingPaintMaterial
	return editReply(
		flowHeader(s)+"\n\nТип ЛКМ: "+pt.Name+"\nВыберите материал:",
		paintMaterialsKeyboard(e.refs.PaintMaterials(pt.ID)),
	)
}

func (e *Engine) handlePaintMaterialChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	a := s.CurrentAction()
	if ev.Callback == cbBack {
		s.State = session.StateChoosingPaintType
		return editReply(flowHeader(s)+"\n\nВыберите тип ЛКМ:", paintTypesKeyboard(e.refs.PaintMaterialTypes()))
	}
	if !strings.HasPrefix(ev.Callback, cbPaintMaterialPrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbPaintMaterialPrefix)

	var pm *model.PaintMaterial
	for _, m := range e.refs.PaintMaterials(a.TypeID) {
		if m.ID == id {
			pm = &m
			break
		}
	}
	if pm == nil {
		return e.endStale(ev)
	}

	a.ItemID, a.ItemName = pm.ID, pm.Name
	a.Unit = pm.Unit

	s.State = session.StateEnteringPaintQuantity
	return editReply(
		flowHeader(s)+"\n\nМатериал: "+pm.Name+"\nУкажите количество ("+unitOr(pm.Unit, "ед.")+"):",
		volumePresetKeyboard(pm.Unit, false),
	)
}

func (e *Engine) handlePaintQuantity(s *session.Session, ev Event) Response {
	a := s.CurrentAction()
	input := ev.Text
	if ev.IsCallback {
		switch {
		case ev.Callback == cbBack:
			s.State = session.StateChoosingPaintMaterial
			return editReply(
				flowHeader(s)+"\n\nВыберите материал:",
				paintMaterialsKeyboard(e.refs.PaintMaterials(a.TypeID)),
			)
		case strings.HasPrefix(ev.Callback, cbVolumePrefix):
			input = strings.TrimPrefix(ev.Callback, cbVolumePrefix)
		default:
			return e.endStale(ev)
		}
	}

	v, ok := ParseQuantity(input)
	if !ok || v == 0 {
		return reply(Message{Text: "Неверное количество. Введите число, например 2.5:", Track: true})
	}
	a.Quantity = FormatQuantity(v)
	return e.promptActionSummary(s, ev.IsCallback)
}

func (e *Engine) handleMaterialTypeChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	if ev.Callback == cbBack {
		return e.promptCategory(s)
	}
	if !strings.HasPrefix(ev.Callback, cbMaterialTypePrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbMaterialTypePrefix)

	var mt *model.MaterialType
	for _, t := range e.refs.MaterialTypes() {
		if t.ID == id {
			mt = &t
			break
		}
	}
	if mt == nil {
		return e.endStale(ev)
	}

	a := s.CurrentAction()
	a.TypeID, a.TypeName = mt.ID, mt.Name

	s.State = session.StateChoosingMaterial
	return editReply(
		flowHeader(s)+"\n\nТип плиты: "+mt.Name+"\nВыберите материал:",
		materialsKeyboard(e.refs.Materials(mt.ID)),
	)
}

func (e *Engine) handleMaterialChoice(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	a := s.CurrentAction()
	if ev.Callback == cbBack {
		s.State = session.StateChoosingMaterialType
		return editReply(flowHeader(s)+"\n\nВыберите тип плиты:", materialTypesKeyboard(e.refs.MaterialTypes()))
	}
	if !strings.HasPrefix(ev.Callback, cbMaterialPrefix) {
		return e.endStale(ev)
	}
	id := strings.TrimPrefix(ev.Callback, cbMaterialPrefix)

	var m *model.Material
	for _, cand := range e.refs.Materials(a.TypeID) {
		if cand.ID == id {
			m = &cand
			break
		}
	}
	if m == nil {
		return e.endStale(ev)
	}

	a.ItemID, a.ItemName = m.ID, m.Name
	a.Unit = m.Unit

	s.State = session.StateEnteringMaterialQuantity
	return editReply(
		flowHeader(s)+"\n\nМатериал: "+m.Name+"\nУкажите количество ("+unitOr(m.Unit, "ед.")+") или пропустите:",
		volumePresetKeyboard(m.Unit, true),
	)
}

func (e *Engine) handleMaterialQuantity(s *session.Session, ev Event) Response {
	a := s.CurrentAction()
	input := ev.Text
	if ev.IsCallback {
		switch {
		case ev.Callback == cbBack:
			s.State = session.StateChoosingMaterial
			return editReply(
				flowHeader(s)+"\n\nВыберите материал:",
				materialsKeyboard(e.refs.Materials(a.TypeID)),
			)
		case ev.Callback == cbSkipQuantity:
			// Quantity is optional for sheet material.
			a.Quantity = ""
			a.Unit = ""
			return e.promptActionSummary(s, true)
		case strings.HasPrefix(ev.Callback, cbVolumePrefix):
			input = strings.TrimPrefix(ev.Callback, cbVolumePrefix)
		default:
			return e.endStale(ev)
		}
	}

	v, ok := ParseQuantity(input)
	if !ok || v == 0 {
		return reply(Message{Text: "Неверное количество. Введите число, например 2.5:", Track: true})
	}
	a.Quantity = FormatQuantity(v)
	return e.promptActionSummary(s, ev.IsCallback)
}

func (e *Engine) backToProjects(s *session.Session) Response {
	r := s.CurrentReport()
	r.ProjectID, r.ProjectName = "", ""
	r.ProductID, r.ProductName = "", ""
	s.State = session.StateChoosingProject
	return editReply("Выберите проект:", projectsKeyboard(e.refs.Projects()))
}

func (e *Engine) backToProducts(s *session.Session) Response {
	r := s.CurrentReport()
	r.ProductID, r.ProductName = "", ""
	products := e.refs.Products(r.ProjectID)
	if len(products) == 0 {
		return e.backToProjects(s)
	}
	s.State = session.StateChoosingProduct
	return editReply("Проект: "+r.ProjectName+"\n\nВыберите изделие:", productsKeyboard(products))
}

func (e *Engine) promptCategory(s *session.Session) Response {
	s.ClearAction()
	s.State = session.StateChoosingCategory
	return editReply(flowHeader(s)+"\n\nВыберите категорию:", categoryKeyboard())
}

func unitOr(unit, fallback string) string {
	if unit != "" {
		return unit
	}
	return fallback
}
