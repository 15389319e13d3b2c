package render

import (
	"fmt"
	"html/template"
	"io"
)

const (
	bookedColor = "#ff7373"
	openColor   = "#c3fcab"
)

var weekTemplate = template.Must(template.New("week").Parse(`<style>
	th { width: 85px; }
	table { height: 450px; text-align: center; }
</style>
<div style="width: 800px">
<table style="margin: 0 auto">
	<caption><h3>{{.RoomID}}</h3></caption>
	<tr>
		<th scope="col"></th>
		{{- range .Days}}
		<th scope="col">{{.}}</th>
		{{- end}}
	</tr>
	{{- range .Rows}}
	<tr><th scope="row">{{.Label}}</th>
		{{- range .Cells}}
		{{- if .Booked}}<td style="background-color:{{$.Booked}}">{{.Title}}{{if .Instructor}}<br>{{.Instructor}}{{end}}</td>
		{{- else}}<td style="background-color:{{$.Open}}"></td>
		{{- end}}
		{{- end}}
	</tr>
	{{- end}}
</table>
</div>
`))

type htmlRow struct {
	Label string
	Cells []Cell
}

type htmlView struct {
	RoomID string
	Days   []string
	Rows   []htmlRow
	Booked template.CSS
	Open   template.CSS
}

// HTML writes the week as a table sized for an 800 pixel wide display.
func HTML(w io.Writer, week Week) error {
	view := htmlView{
		RoomID: week.RoomID,
		Booked: template.CSS(bookedColor),
		Open:   template.CSS(openColor),
	}
	for i := range week.Days {
		view.Days = append(view.Days, week.DayLabel(i))
	}
	for slot, label := range week.Slots {
		row := htmlRow{Label: label}
		for day := range week.Days {
			row.Cells = append(row.Cells, week.Cell(slot, day))
		}
		view.Rows = append(view.Rows, row)
	}

	if err := weekTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render: html: %w", err)
	}
	return nil
}
