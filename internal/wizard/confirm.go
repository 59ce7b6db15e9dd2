package wizard

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/utkabotron/vibe/internal/model"
	"github.com/utkabotron/vibe/internal/report"
	"github.com/utkabotron/vibe/internal/session"
)

const maxCommentLength = 500

// promptActionSummary shows the filled-in action for review. Reached
// from quantity entry, so the triggering message may be either a
// button press (edit it) or typed text (send fresh).
func (e *Engine) promptActionSummary(s *session.Session, viaCallback bool) Response {
	s.State = session.StateConfirmAction
	return reply(Message{
		Text:     actionSummaryText(s),
		Keyboard: actionSummaryKeyboard(),
		Edit:     viaCallback,
		Track:    !viaCallback,
	})
}

func (e *Engine) handleConfirmAction(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	switch ev.Callback {
	case cbSendReport:
		s.CommitAction()
		return e.promptAddAnother(s)
	case cbAddComment:
		s.State = session.StateEnteringComment
		return editReply("Введите комментарий:", skipKeyboard())
	case cbBack:
		return e.backToQuantity(s)
	}
	return e.endStale(ev)
}

// handleComment stores the comment (or its absence) and returns to
// the action summary, which now shows it. The defect flow lands here
// directly, everything else via the action summary.
func (e *Engine) handleComment(s *session.Session, ev Event) Response {
	if ev.IsCallback {
		switch ev.Callback {
		case cbSkip:
			s.CurrentAction().Comment = ""
			return e.promptActionSummary(s, true)
		case cbBack:
			// Defect has no screen between category and comment.
			if s.CurrentAction().Category == model.CategoryDefect {
				return e.promptCategory(s)
			}
			return e.promptActionSummary(s, true)
		}
		return e.endStale(ev)
	}

	comment := strings.TrimSpace(ev.Text)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return reply(Message{
			Text:  "Комментарий слишком длинный (максимум 500 символов). Сократите его:",
			Track: true,
		})
	}
	s.CurrentAction().Comment = comment
	return e.promptActionSummary(s, false)
}

func (e *Engine) promptAddAnother(s *session.Session) Response {
	s.State = session.StateAddAnotherAction
	return editReply("Действие добавлено. Добавить ещё одно?", addAnotherKeyboard())
}

func (e *Engine) handleAddAnother(s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	switch ev.Callback {
	case cbAddMore, cbBack:
		return e.promptCategory(s)
	case cbFinish:
		s.State = session.StateConfirmReport
		return editReply(reportPreviewText(s), confirmKeyboard())
	}
	return e.endStale(ev)
}

func (e *Engine) handleConfirmReport(ctx context.Context, s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	switch ev.Callback {
	case cbBack:
		return e.promptAddAnother(s)
	case cbConfirm:
		r := s.CurrentReport()
		r.Timestamp = report.Stamp(e.now())
		r.EmployeeID = s.Employee.ID
		r.EmployeeName = s.Employee.Name

		if _, err := e.reports.Submit(ctx, r); err != nil {
			// The report stays in the session; the user can retry.
			return editReply("Не удалось отправить отчёт. Попробуйте ещё раз.", retryKeyboard())
		}

		card := report.Summary(r)
		tracked := e.sessions.Clear(s.ChatID)
		resp := end(Message{Text: card, Exempt: true})
		resp.Delete = tracked
		return resp
	}
	return e.endStale(ev)
}

// backToQuantity reopens the quantity screen of the current action.
func (e *Engine) backToQuantity(s *session.Session) Response {
	a := s.CurrentAction()
	switch a.Category {
	case model.CategoryLabour:
		s.State = session.StateEnteringHours
		return editReply(
			flowHeader(s)+"\n\nРабота: "+a.ItemName+"\nСколько времени затрачено? Выберите или введите в формате Ч:ММ:",
			timePresetKeyboard(),
		)
	case model.CategoryPaint:
		s.State = session.StateEnteringPaintQuantity
		return editReply(
			flowHeader(s)+"\n\nМатериал: "+a.ItemName+"\nУкажите количество ("+unitOr(a.Unit, "ед.")+"):",
			volumePresetKeyboard(a.Unit, false),
		)
	case model.CategoryMaterial:
		s.State = session.StateEnteringMaterialQuantity
		return editReply(
			flowHeader(s)+"\n\nМатериал: "+a.ItemName+"\nУкажите количество ("+unitOr(a.Unit, "ед.")+") или пропустите:",
			volumePresetKeyboard(a.Unit, true),
		)
	}
	// Defect has no quantity screen; go back to the category choice.
	return e.promptCategory(s)
}

// actionSummaryText renders the review card of the action scratch.
func actionSummaryText(s *session.Session) string {
	a := s.CurrentAction()

	var b strings.Builder
	b.WriteString("Проверьте действие:\n\n")
	b.WriteString(flowHeader(s))
	b.WriteString("\nКатегория: ")
	b.WriteString(a.Category.Label())

	switch a.Category {
	case model.CategoryLabour:
		b.WriteString("\nРабота: " + a.ItemName)
		b.WriteString("\nВремя: " + FormatHoursAsHHMM(a.Quantity) + " ч.")
	case model.CategoryPaint, model.CategoryMaterial:
		b.WriteString("\nМатериал: " + a.ItemName)
		if a.Quantity != "" {
			b.WriteString("\nКоличество: " + a.Quantity + " " + unitOr(a.Unit, "ед."))
		}
	}
	if a.Comment != "" {
		b.WriteString("\nКомментарий: " + a.Comment)
	}
	return b.String()
}

// reportPreviewText lists every committed action before submission.
func reportPreviewText(s *session.Session) string {
	r := s.CurrentReport()

	var b strings.Builder
	b.WriteString("Отправить отчёт?\n\n")
	b.WriteString(flowHeader(s))
	b.WriteString("\nДействия:\n")
	for _, a := range r.Actions {
		if a.Category == model.CategoryDefect {
			b.WriteString("  • " + a.Category.Label())
			if a.Comment != "" {
				b.WriteString(" (" + a.Comment + ")")
			}
			b.WriteString("\n")
			continue
		}
		b.WriteString("  • " + a.Category.Label() + ": " + a.ItemName)
		switch {
		case a.Category == model.CategoryLabour:
			b.WriteString(", " + FormatHoursAsHHMM(a.Quantity) + " ч.")
		case a.Quantity != "":
			b.WriteString(", " + a.Quantity + " " + unitOr(a.Unit, "ед."))
		}
		b.WriteString("\n")
	}
	return b.String()
}
