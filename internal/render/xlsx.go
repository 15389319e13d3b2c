package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Woche"

// XLSX writes the week as a spreadsheet with one row per slot.
func XLSX(w io.Writer, week Week) error {
	file := excelize.NewFile()
	defer file.Close()
	file.SetSheetName("Sheet1", sheetName)

	styles, err := newSheetStyles(file)
	if err != nil {
		return err
	}

	set := func(col, row int, value any, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, value); err != nil {
			return err
		}
		return file.SetCellStyle(sheetName, cell, cell, style)
	}

	days := len(week.Days)
	if days == 0 {
		days = len(DayNames)
	}

	if err := set(1, 1, week.RoomID, styles.title); err != nil {
		return fmt.Errorf("render: xlsx: %w", err)
	}
	if err := set(1, 2, "", styles.header); err != nil {
		return fmt.Errorf("render: xlsx: %w", err)
	}
	for day := 0; day < days; day++ {
		label := week.DayLabel(day)
		if day < len(week.Days) {
			label += " " + week.Days[day].Format("2006-01-02")
		}
		if err := set(day+2, 2, label, styles.header); err != nil {
			return fmt.Errorf("render: xlsx: %w", err)
		}
	}

	for slot, label := range week.Slots {
		row := slot + 3
		if err := set(1, row, label, styles.header); err != nil {
			return fmt.Errorf("render: xlsx: %w", err)
		}
		for day := 0; day < days; day++ {
			cell := week.Cell(slot, day)
			value, style := "", styles.open
			if cell.Booked {
				value, style = cell.Title(), styles.booked
				if cell.Instructor != "" {
					value += "\n" + cell.Instructor
				}
			}
			if err := set(day+2, row, value, style); err != nil {
				return fmt.Errorf("render: xlsx: %w", err)
			}
		}
		if err := file.SetRowHeight(sheetName, row, 30); err != nil {
			return fmt.Errorf("render: xlsx: %w", err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(days + 1)
	if err := file.SetColWidth(sheetName, "A", "A", 14); err != nil {
		return fmt.Errorf("render: xlsx: %w", err)
	}
	if err := file.SetColWidth(sheetName, "B", lastCol, 20); err != nil {
		return fmt.Errorf("render: xlsx: %w", err)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("render: xlsx: %w", err)
	}
	return nil
}

type sheetStyles struct {
	title, header, booked, open int
}

func newSheetStyles(file *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "606060", Style: 1},
		{Type: "top", Color: "606060", Style: 1},
		{Type: "right", Color: "606060", Style: 1},
		{Type: "bottom", Color: "606060", Style: 1},
	}
	centered := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	definitions := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 14}},
		{Font: &excelize.Font{Bold: true}, Alignment: centered, Border: border},
		{Alignment: centered, Border: border, Fill: excelize.Fill{Type: "pattern", Color: []string{"FF7373"}, Pattern: 1}},
		{Alignment: centered, Border: border, Fill: excelize.Fill{Type: "pattern", Color: []string{"C3FCAB"}, Pattern: 1}},
	}
	ids := make([]int, len(definitions))
	for i, def := range definitions {
		id, err := file.NewStyle(def)
		if err != nil {
			return sheetStyles{}, fmt.Errorf("render: xlsx style: %w", err)
		}
		ids[i] = id
	}
	return sheetStyles{title: ids[0], header: ids[1], booked: ids[2], open: ids[3]}, nil
}
