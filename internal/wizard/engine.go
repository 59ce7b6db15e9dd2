package wizard

import (
	"context"
	"strconv"
	"time"

	"github.com/utkabotron/vibe/internal/cache"
	"github.com/utkabotron/vibe/internal/report"
	"github.com/utkabotron/vibe/internal/session"
)

const cancelledText = "Создание отчёта отменено. Используйте /start для создания нового отчёта."

// Engine turns inbound conversation events into state transitions and
// outbound prompts. It owns no transport; the host delivers Messages
// and feeds back the ids of tracked ones.
type Engine struct {
	refs     *cache.Cache
	sessions *session.Store
	reports  *report.Submitter
	regCode  string
	now      func() time.Time
}

// NewEngine wires the wizard over the reference cache, the session
// store and the report submitter.
func NewEngine(refs *cache.Cache, sessions *session.Store, reports *report.Submitter, regCode string) *Engine {
	return &Engine{
		refs:     refs,
		sessions: sessions,
		reports:  reports,
		regCode:  regCode,
		now:      time.Now,
	}
}

// HandleEvent processes one event for its chat and returns everything
// the host must do in response. Safe to call from a single update loop;
// per-chat state lives in the session store.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) Response {
	if ev.Command == "start" {
		return e.handleStart(ev)
	}
	if ev.Command == "cancel" || (ev.IsCallback && ev.Callback == cbCancel) {
		return e.cancel(ev)
	}

	s := e.sessions.Get(ev.ChatID)
	if s.State == session.StateIdle {
		// No conversation in flight: a leftover button press from a
		// finished dialog, or free text outside any flow.
		return e.endStale(ev)
	}

	// Inbound text is part of the dialog and gets cleaned up with it.
	if !ev.IsCallback && ev.MessageID != 0 {
		s.Track(ev.MessageID)
	}

	switch s.State {
	case session.StateEnteringCode:
		return e.handleCode(s, ev)
	case session.StateEnteringName:
		return e.handleName(s, ev)
	case session.StateConfirmRegistration:
		return e.handleConfirmRegistration(ctx, s, ev)
	case session.StateChoosingProject:
		return e.handleProjectChoice(s, ev)
	case session.StateChoosingProduct:
		return e.handleProductChoice(s, ev)
	case session.StateChoosingCategory:
		return e.handleCategoryChoice(s, ev)
	case session.StateChoosingLabourType:
		return e.handleLabourTypeChoice(s, ev)
	case session.StateEnteringHours:
		return e.handleHours(s, ev)
	case session.StateChoosingPaintType:
		return e.handlePaintTypeChoice(s, ev)
	case session.StateChoosingPaintMaterial:
		return e.handlePaintMaterialChoice(s, ev)
	case session.StateEnteringPaintQuantity:
		return e.handlePaintQuantity(s, ev)
	case session.StateChoosingMaterialType:
		return e.handleMaterialTypeChoice(s, ev)
	case session.StateChoosingMaterial:
		return e.handleMaterialChoice(s, ev)
	case session.StateEnteringMaterialQuantity:
		return e.handleMaterialQuantity(s, ev)
	case session.StateEnteringComment:
		return e.handleComment(s, ev)
	case session.StateConfirmAction:
		return e.handleConfirmAction(s, ev)
	case session.StateAddAnotherAction:
		return e.handleAddAnother(s, ev)
	case session.StateConfirmReport:
		return e.handleConfirmReport(ctx, s, ev)
	}
	return e.endStale(ev)
}

// handleStart restarts the chat's dialog from scratch: any in-flight
// report is discarded and its prompts deleted.
func (e *Engine) handleStart(ev Event) Response {
	stale := e.sessions.Clear(ev.ChatID)
	s := e.sessions.Get(ev.ChatID)

	key := strconv.FormatInt(ev.UserID, 10)
	emp, ok := e.refs.Employee(key)
	if !ok {
		if _, existed := e.refs.EmployeeAny(key); existed {
			r := end(Message{Text: "Ваш аккаунт деактивирован. Обратитесь к администратору."})
			r.Delete = stale
			return r
		}
		s.State = session.StateEnteringCode
		s.RegTelegramID = key
		r := reply(Message{Text: "Для доступа к боту введите код регистрации:", Track: true})
		r.Delete = stale
		return r
	}

	s.Employee = emp
	resp := e.promptProjects(s, "Привет, "+emp.Name+"! Выберите проект:")
	resp.Delete = stale
	return resp
}

// cancel tears the dialog down and deletes every tracked prompt.
func (e *Engine) cancel(ev Event) Response {
	tracked := e.sessions.Clear(ev.ChatID)
	r := end(Message{Text: cancelledText})
	r.Delete = tracked
	return r
}

// endStale handles events the current state cannot accept: a button
// from a screen that no longer matches the session, or reference data
// that changed underneath a selection. The dialog ends; the user
// starts over.
func (e *Engine) endStale(ev Event) Response {
	return e.cancel(ev)
}

// promptProjects shows the project list or explains why it cannot.
func (e *Engine) promptProjects(s *session.Session, header string) Response {
	projects := e.refs.Projects()
	if len(projects) == 0 {
		e.sessions.Clear(s.ChatID)
		return end(Message{Text: "Справочник проектов пуст или недоступен. Попробуйте позже."})
	}
	s.State = session.StateChoosingProject
	return reply(Message{
		Text:     header,
		Keyboard: projectsKeyboard(projects),
		Track:    true,
	})
}
