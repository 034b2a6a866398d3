package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"earcheck/chart"
	"earcheck/engine"
)

//go:embed report.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("report").Parse(htmlSource))

type earView struct {
	Title   string
	Average string
	Status  string // css class
	Label   string
}

type cellView struct {
	Value      string
	Status     string
	NoResponse bool
}

type rowView struct {
	FrequencyHz int
	Left, Right cellView
}

type pageView struct {
	Date        string
	Completed   string
	Ears        []earView
	Rows        []rowView
	Chart       template.HTML
	Frequencies string
	MaxVolume   string
	Step        string
	TickMs      int64
}

func newPage(rs engine.ResultSet, at time.Time) pageView {
	s := engine.Summarize(rs)
	p := pageView{
		Date:      at.Format("2006-01-02"),
		Completed: at.Format("January 2, 2006 15:04 MST"),
		// The SVG is generated from numeric data only.
		Chart:     template.HTML(chart.SVG(rs, chart.DefaultLayout)),
		MaxVolume: fmt.Sprintf("%.0f%%", engine.MaxVolume*100),
		Step:      fmt.Sprintf("%.1f%%", engine.VolumeStep*100),
		TickMs:    engine.TickInterval.Milliseconds(),
	}
	for _, e := range s.Ears() {
		p.Ears = append(p.Ears, earView{
			Title:   e.Ear.Title(),
			Average: engine.FormatDB(e.AverageDB),
			Status:  e.Status.String(),
			Label:   e.Status.Label(),
		})
	}
	freqs := make([]string, 0, len(engine.Frequencies))
	for _, f := range engine.Frequencies {
		freqs = append(freqs, fmt.Sprint(f))
		l, _ := s.Left.Result(f)
		r, _ := s.Right.Result(f)
		p.Rows = append(p.Rows, rowView{FrequencyHz: f, Left: cell(l), Right: cell(r)})
	}
	p.Frequencies = strings.Join(freqs, ", ")
	return p
}

func cell(r engine.TrialResult) cellView {
	return cellView{
		Value:      engine.FormatDB(r.HearingLevelDB),
		Status:     engine.Classify(r.HearingLevelDB).String(),
		NoResponse: r.NoResponse,
	}
}

// WriteHTML renders a self-contained HTML report with an inline SVG audiogram.
func WriteHTML(w io.Writer, rs engine.ResultSet, at time.Time) error {
	return htmlTemplate.Execute(w, newPage(rs, at))
}
