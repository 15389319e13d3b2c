// Package render draws the weekly occupancy grid of a room as HTML, a door
// display image, a PDF sheet or a spreadsheet.
package render

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// DayNames are the column headers of the grid, Monday through Friday.
var DayNames = [5]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag"}

// AnonymousTitle is shown in cells booked without class metadata.
const AnonymousTitle = "------"

// Cell is one slot on one day.
type Cell struct {
	Booked     bool
	ClassName  string
	Instructor string
}

// Title returns the first line shown for a booked cell.
func (c Cell) Title() string {
	if !c.Booked {
		return ""
	}
	if c.ClassName == "" {
		return AnonymousTitle
	}
	return c.ClassName
}

// Week is the occupancy of one room from Monday to Friday.
type Week struct {
	RoomID string
	Days   []time.Time
	Slots  []string
	// Cells is indexed by slot, then by day.
	Cells [][]Cell
}

// Cell returns the cell at slot and day, or an empty cell when out of range.
func (w Week) Cell(slot, day int) Cell {
	if slot < 0 || slot >= len(w.Cells) || day < 0 || day >= len(w.Cells[slot]) {
		return Cell{}
	}
	return w.Cells[slot][day]
}

// DayLabel returns the German weekday name of column i.
func (w Week) DayLabel(i int) string {
	if i >= 0 && i < len(DayNames) {
		return DayNames[i]
	}
	if i >= 0 && i < len(w.Days) {
		return w.Days[i].Weekday().String()
	}
	return ""
}

// Format identifies an output encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for unsupported format names and extensions.
var ErrUnknownFormat = errors.New("render: unknown format")

// ParseFormat resolves a format name such as "jpg" or "PDF".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "html", "htm":
		return FormatHTML, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Extension returns the canonical file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case "":
		return ""
	}
	return "." + string(f)
}

// Options tunes rendering.
type Options struct {
	// QRCodeURL, when set, is encoded as a QR code on the door display image.
	QRCodeURL string
}

// Render writes week to w in the requested format.
func Render(w io.Writer, week Week, format Format, opts Options) error {
	switch format {
	case FormatHTML:
		return HTML(w, week)
	case FormatJPEG, FormatPNG:
		return Image(w, week, format, opts)
	case FormatPDF:
		return PDF(w, week)
	case FormatXLSX:
		return XLSX(w, week)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}
