package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"earcheck/engine"
	"earcheck/tone"
)

// Audiogram symbols: X for the left ear, O for the right.
const (
	leftMark  = "X"
	rightMark = "O"
	cellWidth = 7
)

var (
	leftStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(LeftColor)).Bold(true)
	rightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(RightColor)).Bold(true)
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// DefaultRows gives one row per 10 dB.
const DefaultRows = 11

// Row returns the row a hearing level falls in for a chart of rows rows.
func Row(db float64, rows int) int {
	return int(math.Round(clampDB(db) / MaxDB * float64(rows-1)))
}

// Terminal renders a character-cell audiogram with rows dB rows.
func Terminal(rs engine.ResultSet, rows int) string {
	if rows < 2 {
		rows = DefaultRows
	}
	nf := len(engine.Frequencies)
	grid := make([][2]bool, rows*nf) // [left, right] per cell
	for _, s := range FromResults(rs) {
		side := 0
		if s.Ear == tone.Right {
			side = 1
		}
		for _, p := range s.Points {
			grid[Row(p.DB, rows)*nf+p.Index][side] = true
		}
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		db := float64(r) / float64(rows-1) * MaxDB
		b.WriteString(axisStyle.Render(fmt.Sprintf("%4.0f dB │", db)))
		for c := 0; c < nf; c++ {
			b.WriteString(cell(grid[r*nf+c]))
		}
		b.WriteByte('\n')
	}
	b.WriteString(axisStyle.Render("        └" + strings.Repeat("─", cellWidth*nf)))
	b.WriteByte('\n')
	b.WriteString("         ")
	for _, f := range engine.Frequencies {
		b.WriteString(axisStyle.Render(centre(freqLabel(f), cellWidth)))
	}
	b.WriteString("\n\n")
	b.WriteString("  " + leftStyle.Render(leftMark) + " " + tone.Left.Title() + "    " + rightStyle.Render(rightMark) + " " + tone.Right.Title())
	b.WriteByte('\n')
	return b.String()
}

func cell(marks [2]bool) string {
	l, r := " ", " "
	if marks[0] {
		l = leftStyle.Render(leftMark)
	}
	if marks[1] {
		r = rightStyle.Render(rightMark)
	}
	return "  " + l + " " + r + "  "
}

func freqLabel(f int) string {
	if f >= 1000 {
		return fmt.Sprintf("%dk", f/1000)
	}
	return fmt.Sprintf("%d", f)
}

func centre(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
