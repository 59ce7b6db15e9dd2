package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/utkabotron/vibe/internal/model"
)

// timestampLayout is the format reports are stamped and stored with.
const timestampLayout = "2006-01-02 15:04:05"

// Stamp renders a submission timestamp.
func Stamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Summary renders the full report as the localized text card shown to
// the user after submission. Actions appear in insertion order.
func Summary(r *model.Report) string {
	var b strings.Builder

	date := r.Timestamp
	clock := ""
	if t, err := time.Parse(timestampLayout, r.Timestamp); err == nil {
		date = t.Format("02.01.2006")
		clock = t.Format("15:04")
	}

	fmt.Fprintf(&b, "📊 Отчёт – %s %s\n", date, clock)
	fmt.Fprintf(&b, "👤 Сотрудник: %s\n", r.EmployeeName)
	fmt.Fprintf(&b, "🏗️ Проект: %s\n", r.ProjectName)
	fmt.Fprintf(&b, "📦 Изделие: %s\n", r.ProductName)
	b.WriteString("📋 Выполненные действия:\n")

	for _, a := range r.Actions {
		switch a.Category {
		case model.CategoryLabour:
			fmt.Fprintf(&b, "  • Работы: %s, %s ч.", a.ItemName, formatHours(a.Quantity))
		case model.CategoryPaint:
			fmt.Fprintf(&b, "  • ЛКМ: %s, %s %s", a.ItemName, a.Quantity, a.Unit)
		case model.CategoryMaterial:
			if a.Quantity != "" {
				fmt.Fprintf(&b, "  • Плита: %s, %s %s", a.ItemName, a.Quantity, a.Unit)
			} else {
				fmt.Fprintf(&b, "  • Плита: %s", a.ItemName)
			}
		case model.CategoryDefect:
			b.WriteString("  • Брак")
		}
		if a.Comment != "" {
			fmt.Fprintf(&b, " (Комментарий: %s)", a.Comment)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatHours renders stored decimal hours as H:MM.
func formatHours(stored string) string {
	v, err := strconv.ParseFloat(strings.ReplaceAll(stored, ",", "."), 64)
	if err != nil {
		return stored
	}
	hours := int(v)
	minutes := int((v-float64(hours))*60 + 0.5)
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", hours, minutes)
}
