package wizard

import (
	"fmt"

	"github.com/utkabotron/vibe/internal/model"
)

func backButton() Button {
	return Button{Label: "« Назад", Data: cbBack}
}

func backRow() []Button {
	return []Button{backButton()}
}

// projectsKeyboard lists active projects one per row with a cancel
// button in the footer (project choice is the first screen, there is
// nothing to go back to).
func projectsKeyboard(projects []model.Project) [][]Button {
	var kb [][]Button
	for _, p := range projects {
		if p.ID == "" || p.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: p.Name, Data: cbProjectPrefix + p.ID}})
	}
	kb = append(kb, []Button{{Label: "Отмена", Data: cbCancel}})
	return kb
}

func productsKeyboard(products []model.Product) [][]Button {
	var kb [][]Button
	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: p.Name, Data: cbProductPrefix + p.ID}})
	}
	kb = append(kb, backRow())
	return kb
}

func categoryKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Работы", Data: cbCategoryPrefix + model.CategoryLabour.Label()}},
		{{Label: "ЛКМ", Data: cbCategoryPrefix + model.CategoryPaint.Label()}},
		{{Label: "Плита", Data: cbCategoryPrefix + model.CategoryMaterial.Label()}},
		{{Label: "Брак", Data: cbCategoryPrefix + model.CategoryDefect.Label()}},
		backRow(),
	}
}

func labourTypesKeyboard(types []model.LabourType) [][]Button {
	var kb [][]Button
	for _, t := range types {
		if t.ID == "" || t.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: t.Name, Data: cbLabourTypePrefix + t.ID}})
	}
	kb = append(kb, backRow())
	return kb
}

func paintTypesKeyboard(types []model.PaintMaterialType) [][]Button {
	var kb [][]Button
	for _, t := range types {
		if t.ID == "" || t.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: t.Name, Data: cbPaintTypePrefix + t.ID}})
	}
	kb = append(kb, backRow())
	return kb
}

func paintMaterialsKeyboard(materials []model.PaintMaterial) [][]Button {
	var kb [][]Button
	for _, m := range materials {
		if m.ID == "" || m.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: m.Name, Data: cbPaintMaterialPrefix + m.ID}})
	}
	kb = append(kb, backRow())
	return kb
}

func materialTypesKeyboard(types []model.MaterialType) [][]Button {
	var kb [][]Button
	for _, t := range types {
		if t.ID == "" || t.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: t.Name, Data: cbMaterialTypePrefix + t.ID}})
	}
	kb = append(kb, backRow())
	return kb
}

func materialsKeyboard(materials []model.Material) [][]Button {
	var kb [][]Button
	for _, m := range materials {
		if m.ID == "" || m.Name == "" {
			continue
		}
		kb = append(kb, []Button{{Label: m.Name, Data: cbMaterialPrefix + m.ID}})
	}
	kb = append(kb, backRow())
	return kb
}

// timePresetKeyboard gives the standard labour durations, four per row.
func timePresetKeyboard() [][]Button {
	presets := []string{
		"0:30", "1:00", "1:30", "2:00",
		"2:30", "3:00", "3:30", "4:00",
		"4:30", "5:00", "6:00", "7:00",
	}
	var kb [][]Button
	var row []Button
	for _, p := range presets {
		row = append(row, Button{Label: p, Data: cbTimePrefix + p})
		if len(row) == 4 {
			kb = append(kb, row)
			row = nil
		}
	}
	kb = append(kb, backRow())
	return kb
}

// volumePresetKeyboard gives 0.5 .. 6.0 in 0.5 steps, three per row.
// withSkip adds the "skip quantity" button material entry offers.
func volumePresetKeyboard(unit string, withSkip bool) [][]Button {
	var kb [][]Button
	var row []Button
	for i := 1; i <= 12; i++ {
		volume := float64(i) * 0.5
		label := FormatQuantity(volume)
		if unit != "" {
			label = fmt.Sprintf("%s %s", label, unit)
		}
		row = append(row, Button{Label: label, Data: cbVolumePrefix + FormatQuantity(volume)})
		if len(row) == 3 {
			kb = append(kb, row)
			row = nil
		}
	}
	if withSkip {
		kb = append(kb, []Button{{Label: "Пропустить количество", Data: cbSkipQuantity}})
	}
	kb = append(kb, backRow())
	return kb
}

// actionSummaryKeyboard offers the three ways out of the action
// summary: commit as final, add a comment first, or go back.
func actionSummaryKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Отправить отчет", Data: cbSendReport}},
		{{Label: "Добавить комментарий", Data: cbAddComment}},
		backRow(),
	}
}

func skipKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Пропустить", Data: cbSkip}},
		backRow(),
	}
}

func confirmKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Отправить", Data: cbConfirm}},
		backRow(),
	}
}

func addAnotherKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Да", Data: cbAddMore}, {Label: "Нет", Data: cbFinish}},
		backRow(),
	}
}

func retryKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Повторить", Data: cbConfirm}},
		{{Label: "Отмена", Data: cbCancel}},
	}
}

// telegramNameKeyboard offers the sender's profile name as a one-tap
// alternative to typing the name out.
func telegramNameKeyboard(name string) [][]Button {
	return [][]Button{
		{{Label: name, Data: cbUseTelegramName}},
	}
}

func registrationConfirmKeyboard() [][]Button {
	return [][]Button{
		{{Label: "Подтвердить", Data: cbConfirmRegister}},
		{{Label: "Изменить имя", Data: cbChangeName}},
	}
}
