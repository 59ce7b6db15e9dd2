package wizard

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/utkabotron/vibe/internal/session"
)

const minNameLength = 3

// handleCode checks the shared registration code. Wrong codes just
// re-prompt; there is no attempt limit.
func (e *Engine) handleCode(s *session.Session, ev Event) Response {
	if ev.IsCallback {
		return e.endStale(ev)
	}
	if !strings.EqualFold(strings.TrimSpace(ev.Text), e.regCode) {
		return reply(Message{Text: "Неверный код. Попробуйте ещё раз:", Track: true})
	}
	s.State = session.StateEnteringName

	// The sender's profile name is offered as a one-tap prefill.
	suggestion := strings.TrimSpace(ev.FullName)
	if utf8.RuneCountInString(suggestion) >= minNameLength {
		s.RegName = suggestion
		return reply(Message{
			Text:     "Введите ваше имя и фамилию или выберите имя из Telegram:",
			Keyboard: telegramNameKeyboard(suggestion),
			Track:    true,
		})
	}
	return reply(Message{Text: "Введите ваше имя и фамилию:", Track: true})
}

func (e *Engine) handleName(s *session.Session, ev Event) Response {
	if ev.IsCallback {
		if ev.Callback == cbUseTelegramName && utf8.RuneCountInString(s.RegName) >= minNameLength {
			s.State = session.StateConfirmRegistration
			return reply(Message{
				Text:     "Ваше имя: " + s.RegName + "\nВсё верно?",
				Keyboard: registrationConfirmKeyboard(),
				Edit:     true,
			})
		}
		return e.endStale(ev)
	}
	name := strings.TrimSpace(ev.Text)
	if utf8.RuneCountInString(name) < minNameLength {
		return reply(Message{Text: "Имя слишком короткое. Введите имя и фамилию:", Track: true})
	}
	s.RegName = name
	s.State = session.StateConfirmRegistration
	return reply(Message{
		Text:     "Ваше имя: " + name + "\nВсё верно?",
		Keyboard: registrationConfirmKeyboard(),
		Track:    true,
	})
}

func (e *Engine) handleConfirmRegistration(ctx context.Context, s *session.Session, ev Event) Response {
	if !ev.IsCallback {
		return e.endStale(ev)
	}
	switch ev.Callback {
	case cbChangeName:
		s.State = session.StateEnteringName
		return reply(Message{Text: "Введите ваше имя и фамилию:", Edit: true})
	case cbConfirmRegister:
		if err := e.refs.RegisterEmployee(ctx, s.RegTelegramID, s.RegName); err != nil {
			return e.failRegistration(s)
		}
		emp, ok := e.refs.Employee(s.RegTelegramID)
		if !ok {
			return e.failRegistration(s)
		}
		s.Employee = emp
		resp := e.promptProjects(s, "Регистрация завершена, "+emp.Name+"! Выберите проект:")
		if len(resp.Messages) > 0 {
			resp.Messages[0].Edit = true
			resp.Messages[0].Track = false
		}
		return resp
	}
	return e.endStale(ev)
}

// failRegistration ends the dialog after a registration write failure,
// removing its prompts so the error stands alone.
func (e *Engine) failRegistration(s *session.Session) Response {
	tracked := e.sessions.Clear(s.ChatID)
	r := end(Message{Text: "Не удалось завершить регистрацию. Попробуйте позже."})
	r.Delete = tracked
	return r
}
