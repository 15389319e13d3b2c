package render

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"
)

// PDF layout in millimetres on landscape A4.
const (
	pdfMargin      = 10.0
	pdfTitleHeight = 12.0
	pdfHeadHeight  = 9.0
	pdfRowHeight   = 12.0
	pdfLabelWidth  = 37.0
)

// PDF writes the week as a printable landscape A4 sheet.
func PDF(w io.Writer, week Week) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(week.RoomID, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	days := len(week.Days)
	if days == 0 {
		days = len(DayNames)
	}
	colWidth := (pageWidth - 2*pdfMargin - pdfLabelWidth) / float64(days)

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, pdfTitleHeight, tr(week.RoomID), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(pdfLabelWidth, pdfHeadHeight, "", "1", 0, "C", true, 0, "")
	for day := 0; day < days; day++ {
		label := week.DayLabel(day)
		if day < len(week.Days) {
			label += " " + week.Days[day].Format("02.01.")
		}
		pdf.CellFormat(colWidth, pdfHeadHeight, tr(label), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for slot, label := range week.Slots {
		y := pdf.GetY()
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(pdfLabelWidth, pdfRowHeight, label, "1", 0, "C", true, 0, "")

		for day := 0; day < days; day++ {
			x := pdfMargin + pdfLabelWidth + float64(day)*colWidth
			cell := week.Cell(slot, day)
			if cell.Booked {
				pdf.SetFillColor(0xff, 0x73, 0x73)
			} else {
				pdf.SetFillColor(0xc3, 0xfc, 0xab)
			}
			pdf.Rect(x, y, colWidth, pdfRowHeight, "FD")
			if !cell.Booked {
				continue
			}

			pdf.SetFont("Arial", "", 8)
			lines := []string{cell.Title()}
			if cell.Instructor != "" {
				lines = append(lines, cell.Instructor)
			}
			lineHeight := pdfRowHeight / float64(len(lines))
			for i, line := range lines {
				pdf.SetXY(x, y+float64(i)*lineHeight)
				pdf.CellFormat(colWidth, lineHeight, fitText(pdf, tr(line), colWidth-2), "", 0, "C", false, 0, "")
			}
		}
		pdf.SetXY(pdfMargin, y+pdfRowHeight)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render: pdf: %w", err)
	}
	return nil
}

// fitText shortens text until it fits into width at the current font. Text is
// already translated to the single-byte font encoding, so cutting bytes is safe.
func fitText(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"..") > width {
		text = text[:len(text)-1]
	}
	return text + ".."
}
