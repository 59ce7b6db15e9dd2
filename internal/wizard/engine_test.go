package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/utkabotron/vibe/internal/cache"
	"github.com/utkabotron/vibe/internal/model"
	"github.com/utkabotron/vibe/internal/report"
	"github.com/utkabotron/vibe/internal/session"
	"github.com/utkabotron/vibe/internal/sheets"
)

// fakeSheets serves canned reference rows and records appends.
type fakeSheets struct {
	mu       sync.Mutex
	tables   map[string][]model.Row
	failing  map[string]error
	appended map[string][][]string
}

func newFakeSheets() *fakeSheets {
	f := &fakeSheets{
		tables:   make(map[string][]model.Row),
		failing:  make(map[string]error),
		appended: make(map[string][][]string),
	}
	f.tables[sheets.TableProjects] = []model.Row{
		{"project_id": "1", "project_name": "Альфа"},
		{"project_id": "2", "project_name": "Бета"},
	}
	f.tables[sheets.TableProducts] = []model.Row{
		{"product_id": "p1", "product_name": "Шкаф", "project_id": "1"},
		{"product_id": "p2", "product_name": "Стол", "project_id": "2"},
	}
	f.tables[sheets.TableLabourTypes] = []model.Row{
		{"work_id": "w1", "work_name": "Шлифовка"},
		{"work_id": "w2", "work_name": "Сборка"},
	}
	f.tables[sheets.TablePaintMaterialTypes] = []model.Row{
		{"type_id": "pt1", "type_name": "Грунт"},
	}
	f.tables[sheets.TablePaintMaterials] = []model.Row{
		{"material_id": "pm1", "material_name": "Грунт белый", "unit": "л", "type_id": "pt1"},
	}
	f.tables[sheets.TableMaterialTypes] = []model.Row{
		{"type_id": "mt1", "type_name": "МДФ"},
	}
	f.tables[sheets.TableMaterials] = []model.Row{
		{"material_id": "m1", "material_name": "МДФ 16мм", "unit": "лист", "type_id": "mt1"},
	}
	f.tables[sheets.TableEmployees] = []model.Row{
		{"telegram_id": "100", "id": "e1", "name": "Иван", "role": "user", "active": "true"},
		{"telegram_id": "200", "id": "e2", "name": "Пётр", "role": "user", "active": "false"},
	}
	return f
}

func (f *fakeSheets) FetchTable(_ context.Context, table string) ([]model.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing[table]; err != nil {
		return nil, err
	}
	return f.tables[table], nil
}

func (f *fakeSheets) AppendRows(_ context.Context, table string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing[table]; err != nil {
		return err
	}
	f.appended[table] = append(f.appended[table], rows...)
	return nil
}

func (f *fakeSheets) appendedRows(table string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appended[table]
}

func (f *fakeSheets) failTable(table string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[table] = err
}

func newTestWizard(t *testing.T) (*Engine, *session.Store, *fakeSheets) {
	t.Helper()
	f := newFakeSheets()
	refs := cache.New(f)
	if err := refs.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	sessions := session.NewStore()
	return NewEngine(refs, sessions, report.NewSubmitter(f), "kod123"), sessions, f
}

func press(chatID, userID int64, data string) Event {
	return Event{ChatID: chatID, UserID: userID, MessageID: 50, Callback: data, IsCallback: true}
}

func typed(chatID, userID int64, text string) Event {
	return Event{ChatID: chatID, UserID: userID, MessageID: 51, Text: text}
}

func firstText(t *testing.T, resp Response) string {
	t.Helper()
	if len(resp.Messages) == 0 {
		t.Fatalf("response has no messages")
	}
	return resp.Messages[0].Text
}

func mustContain(t *testing.T, resp Response, substr string) {
	t.Helper()
	if got := firstText(t, resp); !strings.Contains(got, substr) {
		t.Fatalf("message %q does not contain %q", got, substr)
	}
}

func TestStart_RegisteredUser(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	resp := eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	mustContain(t, resp, "Иван")
	mustContain(t, resp, "Выберите проект")
	if resp.Ended {
		t.Fatalf("start must open a dialog")
	}

	s, ok := sessions.Peek(1)
	if !ok || s.State != session.StateChoosingProject {
		t.Fatalf("unexpected session state: %+v ok=%v", s, ok)
	}

	// Both projects plus the cancel footer.
	kb := resp.Messages[0].Keyboard
	if len(kb) != 3 {
		t.Fatalf("want 3 keyboard rows, got %d", len(kb))
	}
	if kb[0][0].Data != "project:1" {
		t.Fatalf("unexpected first button: %+v", kb[0][0])
	}
}

func TestStart_DeactivatedUser(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	resp := eng.HandleEvent(context.Background(), Event{ChatID: 2, UserID: 200, Command: "start"})
	mustContain(t, resp, "деактивирован")
	if !resp.Ended {
		t.Fatalf("deactivated user must not get a dialog")
	}
	if s, ok := sessions.Peek(2); ok && s.State != session.StateIdle {
		t.Fatalf("no conversation state expected, got %+v", s)
	}
}

func TestLabourFlow_EndToEnd(t *testing.T) {
	t.Parallel()

	eng, sessions, f := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	resp := eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	mustContain(t, resp, "Выберите вид работ")

	resp = eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))
	mustContain(t, resp, "Шлифовка")

	resp = eng.HandleEvent(ctx, press(1, 100, "time:2:30"))
	mustContain(t, resp, "2:30")
	s, _ := sessions.Peek(1)
	if s.State != session.StateConfirmAction {
		t.Fatalf("want confirm-action state, got %v", s.State)
	}

	resp = eng.HandleEvent(ctx, press(1, 100, "send_report"))
	mustContain(t, resp, "Добавить ещё")

	resp = eng.HandleEvent(ctx, press(1, 100, "finish"))
	mustContain(t, resp, "Отправить отчёт?")

	resp = eng.HandleEvent(ctx, press(1, 100, "confirm"))
	if !resp.Ended {
		t.Fatalf("submission must end the dialog")
	}
	mustContain(t, resp, "Отчёт")
	if !resp.Messages[0].Exempt {
		t.Fatalf("the report card must be exempt from cleanup")
	}
	if _, ok := sessions.Peek(1); ok {
		t.Fatalf("session must be gone after submission")
	}

	rows := f.appendedRows(sheets.TableReports)
	if len(rows) != 1 {
		t.Fatalf("want 1 report row, got %d", len(rows))
	}
	row := rows[0]
	if row[1] != "e1" || row[2] != "Иван" {
		t.Fatalf("employee columns wrong: %v", row)
	}
	if row[3] != "1" || row[4] != "Альфа" || row[5] != "p1" || row[6] != "Шкаф" {
		t.Fatalf("project/product columns wrong: %v", row)
	}
	if row[7] != "Работы" || row[8] != "Трудозатраты" || row[9] != "Шлифовка" {
		t.Fatalf("category columns wrong: %v", row)
	}
	if row[10] != "2.5" {
		t.Fatalf("labour time must be stored as decimal hours, got %q", row[10])
	}
	if row[11] != "ч." {
		t.Fatalf("labour unit must be hours, got %q", row[11])
	}
}

func TestLabourFlow_TypedDecimalTime(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))

	resp := eng.HandleEvent(ctx, typed(1, 100, "ерунда"))
	mustContain(t, resp, "Неверный формат времени")
	s, _ := sessions.Peek(1)
	if s.State != session.StateEnteringHours {
		t.Fatalf("invalid input must keep the state, got %v", s.State)
	}

	eng.HandleEvent(ctx, typed(1, 100, "2,5"))
	s, _ = sessions.Peek(1)
	if s.State != session.StateConfirmAction {
		t.Fatalf("want confirm-action after valid input, got %v", s.State)
	}
	if got := s.CurrentReport(); len(got.Actions) != 0 {
		t.Fatalf("action must not be committed before confirmation")
	}
}

func TestDefectFlow(t *testing.T) {
	t.Parallel()

	eng, _, f := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	resp := eng.HandleEvent(ctx, press(1, 100, "category:Брак"))
	mustContain(t, resp, "Опишите брак")

	resp = eng.HandleEvent(ctx, typed(1, 100, "скол на кромке"))
	mustContain(t, resp, "скол на кромке")

	eng.HandleEvent(ctx, press(1, 100, "send_report"))
	eng.HandleEvent(ctx, press(1, 100, "finish"))
	resp = eng.HandleEvent(ctx, press(1, 100, "confirm"))
	if !resp.Ended {
		t.Fatalf("submission must end the dialog")
	}

	rows := f.appendedRows(sheets.TableReports)
	if len(rows) != 1 {
		t.Fatalf("want 1 report row, got %d", len(rows))
	}
	row := rows[0]
	if row[7] != "Брак" || row[8] != "Брак" || row[9] != "Брак" {
		t.Fatalf("defect columns wrong: %v", row)
	}
	if row[10] != "" || row[11] != "" {
		t.Fatalf("defect rows carry no quantity: %v", row)
	}
	if row[12] != "скол на кромке" {
		t.Fatalf("comment lost: %v", row)
	}
}

func TestPaintFlow_RequiresQuantity(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:ЛКМ"))
	eng.HandleEvent(ctx, press(1, 100, "paint_type:pt1"))
	resp := eng.HandleEvent(ctx, press(1, 100, "paint_material:pm1"))
	mustContain(t, resp, "Грунт белый")

	// Paint has no skip-quantity button; zero is also rejected.
	resp = eng.HandleEvent(ctx, typed(1, 100, "0"))
	mustContain(t, resp, "Неверное количество")

	eng.HandleEvent(ctx, typed(1, 100, "1,5"))
	s, _ := sessions.Peek(1)
	if s.State != session.StateConfirmAction {
		t.Fatalf("want confirm-action, got %v", s.State)
	}
	if got := s.CurrentAction().Quantity; got != "1.5" {
		t.Fatalf("quantity stored as %q", got)
	}
}

func TestMaterialFlow_SkipQuantity(t *testing.T) {
	t.Parallel()

	eng, _, f := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Плита"))
	eng.HandleEvent(ctx, press(1, 100, "material_type:mt1"))
	eng.HandleEvent(ctx, press(1, 100, "material:m1"))
	eng.HandleEvent(ctx, press(1, 100, "skip_quantity"))
	eng.HandleEvent(ctx, press(1, 100, "send_report"))
	eng.HandleEvent(ctx, press(1, 100, "finish"))
	resp := eng.HandleEvent(ctx, press(1, 100, "confirm"))
	if !resp.Ended {
		t.Fatalf("submission must end the dialog")
	}

	rows := f.appendedRows(sheets.TableReports)
	if len(rows) != 1 {
		t.Fatalf("want 1 report row, got %d", len(rows))
	}
	row := rows[0]
	if row[7] != "Плита" || row[8] != "МДФ" || row[9] != "МДФ 16мм" {
		t.Fatalf("material columns wrong: %v", row)
	}
	if row[10] != "" {
		t.Fatalf("skipped quantity must stay empty, got %q", row[10])
	}
}

func TestBackNavigation_ProductToProject(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	resp := eng.HandleEvent(ctx, press(1, 100, "back"))
	mustContain(t, resp, "Выберите проект")

	s, _ := sessions.Peek(1)
	if s.State != session.StateChoosingProject {
		t.Fatalf("want project-choice state, got %v", s.State)
	}
	if r := s.CurrentReport(); r.ProjectID != "" {
		t.Fatalf("going back must drop the project choice, got %q", r.ProjectID)
	}
}

func TestCommentLimit(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))
	eng.HandleEvent(ctx, press(1, 100, "time:1:00"))
	eng.HandleEvent(ctx, press(1, 100, "add_comment"))

	long := strings.Repeat("ы", 501)
	resp := eng.HandleEvent(ctx, typed(1, 100, long))
	mustContain(t, resp, "слишком длинный")
	s, _ := sessions.Peek(1)
	if s.State != session.StateEnteringComment {
		t.Fatalf("over-limit comment must keep the state, got %v", s.State)
	}

	limit := strings.Repeat("ы", 500)
	eng.HandleEvent(ctx, typed(1, 100, limit))
	s, _ = sessions.Peek(1)
	if s.State != session.StateConfirmAction {
		t.Fatalf("500-rune comment must return to the action summary, got state %v", s.State)
	}
	if got := s.CurrentAction().Comment; got != limit {
		t.Fatalf("comment not stored verbatim")
	}

	eng.HandleEvent(ctx, press(1, 100, "send_report"))
	s, _ = sessions.Peek(1)
	if got := s.CurrentReport().Actions[0].Comment; got != limit {
		t.Fatalf("committed comment not stored verbatim")
	}
}

func TestStaleCallback_EndsDialog(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestWizard(t)
	resp := eng.HandleEvent(context.Background(), press(9, 100, "project:1"))
	if !resp.Ended {
		t.Fatalf("callback without a session must end")
	}
	mustContain(t, resp, "отменено")
}

func TestUnknownCallbackInState_EndsDialog(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	resp := eng.HandleEvent(ctx, press(1, 100, "time:1:00"))
	if !resp.Ended {
		t.Fatalf("a button from another screen must end the dialog")
	}
	if _, ok := sessions.Peek(1); ok {
		t.Fatalf("session must be cleared")
	}
}

func TestVanishedProject_EndsDialog(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	resp := eng.HandleEvent(ctx, press(1, 100, "project:99"))
	if !resp.Ended {
		t.Fatalf("selecting a project missing from the cache must end the dialog")
	}
}

func TestSubmitFailure_KeepsReportForRetry(t *testing.T) {
	t.Parallel()

	eng, sessions, f := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))
	eng.HandleEvent(ctx, press(1, 100, "time:1:00"))
	eng.HandleEvent(ctx, press(1, 100, "send_report"))
	eng.HandleEvent(ctx, press(1, 100, "finish"))

	f.failTable(sheets.TableReports, errors.New("workbook busy"))
	resp := eng.HandleEvent(ctx, press(1, 100, "confirm"))
	if resp.Ended {
		t.Fatalf("a failed submission must not end the dialog")
	}
	mustContain(t, resp, "Не удалось отправить")

	s, ok := sessions.Peek(1)
	if !ok || s.State != session.StateConfirmReport {
		t.Fatalf("retry state lost: %+v ok=%v", s, ok)
	}
	if len(s.CurrentReport().Actions) != 1 {
		t.Fatalf("accumulated report lost on failure")
	}

	f.failTable(sheets.TableReports, nil)
	resp = eng.HandleEvent(ctx, press(1, 100, "confirm"))
	if !resp.Ended {
		t.Fatalf("retry must succeed")
	}
	if rows := f.appendedRows(sheets.TableReports); len(rows) != 1 {
		t.Fatalf("want exactly 1 row after retry, got %d", len(rows))
	}
}

func TestRegistrationFlow(t *testing.T) {
	t.Parallel()

	eng, sessions, f := newTestWizard(t)
	ctx := context.Background()

	resp := eng.HandleEvent(ctx, Event{ChatID: 3, UserID: 999, Command: "start"})
	mustContain(t, resp, "код регистрации")

	resp = eng.HandleEvent(ctx, typed(3, 999, "не тот код"))
	mustContain(t, resp, "Неверный код")

	resp = eng.HandleEvent(ctx, typed(3, 999, "kod123"))
	mustContain(t, resp, "имя и фамилию")

	resp = eng.HandleEvent(ctx, typed(3, 999, "Ян"))
	mustContain(t, resp, "слишком короткое")

	resp = eng.HandleEvent(ctx, typed(3, 999, "Ян Новак"))
	mustContain(t, resp, "Ян Новак")
	s, _ := sessions.Peek(3)
	if s.State != session.StateConfirmRegistration {
		t.Fatalf("want confirm-registration state, got %v", s.State)
	}

	resp = eng.HandleEvent(ctx, press(3, 999, "confirm_registration"))
	mustContain(t, resp, "Регистрация завершена")
	mustContain(t, resp, "Выберите проект")

	rows := f.appendedRows(sheets.TableEmployees)
	if len(rows) != 1 {
		t.Fatalf("want 1 Users row, got %d", len(rows))
	}
	if rows[0][0] != "999" || rows[0][1] != "Ян Новак" || rows[0][3] != "true" {
		t.Fatalf("unexpected Users row: %v", rows[0])
	}

	s, _ = sessions.Peek(3)
	if s.State != session.StateChoosingProject {
		t.Fatalf("registered user must land in project choice, got %v", s.State)
	}
	if s.Employee.Name != "Ян Новак" {
		t.Fatalf("employee not attached to the session: %+v", s.Employee)
	}
}

func TestCancel_DeletesTrackedPrompts(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	s, _ := sessions.Peek(1)
	s.Track(70)
	s.Track(71)

	resp := eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "cancel"})
	if !resp.Ended {
		t.Fatalf("cancel must end the dialog")
	}
	if len(resp.Delete) != 2 {
		t.Fatalf("tracked prompts must be scheduled for deletion, got %v", resp.Delete)
	}
	if _, ok := sessions.Peek(1); ok {
		t.Fatalf("session must be gone after cancel")
	}
}

func TestAddSecondAction_SharesHeader(t *testing.T) {
	t.Parallel()

	eng, _, f := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))
	eng.HandleEvent(ctx, press(1, 100, "time:1:00"))
	eng.HandleEvent(ctx, press(1, 100, "send_report"))

	resp := eng.HandleEvent(ctx, press(1, 100, "add_more"))
	mustContain(t, resp, "Выберите категорию")

	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w2"))
	eng.HandleEvent(ctx, press(1, 100, "time:0:30"))
	eng.HandleEvent(ctx, press(1, 100, "send_report"))
	eng.HandleEvent(ctx, press(1, 100, "finish"))
	eng.HandleEvent(ctx, press(1, 100, "confirm"))

	rows := f.appendedRows(sheets.TableReports)
	if len(rows) != 2 {
		t.Fatalf("want 2 report rows, got %d", len(rows))
	}
	// Shared header columns, per-action payload columns.
	for i := 0; i < 7; i++ {
		if rows[0][i] != rows[1][i] {
			t.Fatalf("header column %d differs: %q vs %q", i, rows[0][i], rows[1][i])
		}
	}
	if rows[0][9] != "Шлифовка" || rows[1][9] != "Сборка" {
		t.Fatalf("action order broken: %q %q", rows[0][9], rows[1][9])
	}
	if rows[1][10] != "0.5" {
		t.Fatalf("want 0.5 stored for 0:30, got %q", rows[1][10])
	}
}

func TestDefectComment_BackReturnsToCategory(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	resp := eng.HandleEvent(ctx, press(1, 100, "category:Брак"))
	mustContain(t, resp, "Опишите брак")

	resp = eng.HandleEvent(ctx, press(1, 100, "back"))
	if resp.Ended {
		t.Fatalf("back on the defect description must not end the dialog")
	}
	mustContain(t, resp, "Выберите категорию")

	s, ok := sessions.Peek(1)
	if !ok || s.State != session.StateChoosingCategory {
		t.Fatalf("want category-choice state, got %v ok=%v", s.State, ok)
	}
}

func TestCommentScreen_BackReturnsToSummary(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))
	eng.HandleEvent(ctx, press(1, 100, "time:1:00"))
	resp := eng.HandleEvent(ctx, press(1, 100, "add_comment"))
	mustContain(t, resp, "Введите комментарий")

	resp = eng.HandleEvent(ctx, press(1, 100, "back"))
	if resp.Ended {
		t.Fatalf("back on the comment prompt must not end the dialog")
	}
	mustContain(t, resp, "Проверьте действие")

	s, ok := sessions.Peek(1)
	if !ok || s.State != session.StateConfirmAction {
		t.Fatalf("want confirm-action state, got %v ok=%v", s.State, ok)
	}
}

func TestEnteredComment_ReviewedBeforeCommit(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 1, UserID: 100, Command: "start"})
	eng.HandleEvent(ctx, press(1, 100, "project:1"))
	eng.HandleEvent(ctx, press(1, 100, "product:p1"))
	eng.HandleEvent(ctx, press(1, 100, "category:Работы"))
	eng.HandleEvent(ctx, press(1, 100, "labour_type:w1"))
	eng.HandleEvent(ctx, press(1, 100, "time:1:00"))
	eng.HandleEvent(ctx, press(1, 100, "add_comment"))

	resp := eng.HandleEvent(ctx, typed(1, 100, "до обеда"))
	mustContain(t, resp, "Комментарий: до обеда")

	s, _ := sessions.Peek(1)
	if s.State != session.StateConfirmAction {
		t.Fatalf("entered comment must return to the action summary, got %v", s.State)
	}
	if len(s.CurrentReport().Actions) != 0 {
		t.Fatalf("action must not be committed before confirmation")
	}

	eng.HandleEvent(ctx, press(1, 100, "send_report"))
	s, _ = sessions.Peek(1)
	if got := s.CurrentReport().Actions[0].Comment; got != "до обеда" {
		t.Fatalf("comment lost on commit, got %q", got)
	}
}

func TestRegistration_TelegramNamePrefill(t *testing.T) {
	t.Parallel()

	eng, sessions, f := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 4, UserID: 888, Command: "start"})
	resp := eng.HandleEvent(ctx, Event{ChatID: 4, UserID: 888, MessageID: 51, Text: "kod123", FullName: "Анна Смирнова"})
	mustContain(t, resp, "выберите имя из Telegram")
	kb := resp.Messages[0].Keyboard
	if len(kb) != 1 || kb[0][0].Data != "use_telegram_name" || kb[0][0].Label != "Анна Смирнова" {
		t.Fatalf("profile-name button missing: %v", kb)
	}

	resp = eng.HandleEvent(ctx, press(4, 888, "use_telegram_name"))
	mustContain(t, resp, "Анна Смирнова")
	s, _ := sessions.Peek(4)
	if s.State != session.StateConfirmRegistration {
		t.Fatalf("want confirm-registration state, got %v", s.State)
	}

	eng.HandleEvent(ctx, press(4, 888, "confirm_registration"))
	rows := f.appendedRows(sheets.TableEmployees)
	if len(rows) != 1 || rows[0][1] != "Анна Смирнова" {
		t.Fatalf("unexpected Users rows: %v", rows)
	}
}

func TestRegistration_TypedNameOverridesPrefill(t *testing.T) {
	t.Parallel()

	eng, sessions, _ := newTestWizard(t)
	ctx := context.Background()

	eng.HandleEvent(ctx, Event{ChatID: 5, UserID: 777, Command: "start"})
	eng.HandleEvent(ctx, Event{ChatID: 5, UserID: 777, MessageID: 51, Text: "kod123", FullName: "Анна Смирнова"})

	resp := eng.HandleEvent(ctx, typed(5, 777, "Мария Кузнецова"))
	mustContain(t, resp, "Мария Кузнецова")

	s, _ := sessions.Peek(5)
	if s.State != session.StateConfirmRegistration || s.RegName != "Мария Кузнецова" {
		t.Fatalf("typed name must win over the profile name, got %q state %v", s.RegName, s.State)
	}
}
