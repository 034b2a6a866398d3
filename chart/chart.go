// Package chart lays out and renders the audiogram: hearing level per
// frequency for each ear on fixed axes.
package chart

import (
	"math"

	"earcheck/engine"
	"earcheck/tone"
)

// Axis range in dB HL. Levels grow downward as on a clinical audiogram.
const (
	MinDB    = 0
	MaxDB    = 100
	GridStep = 20
)

const (
	LeftColor  = "#2196F3"
	RightColor = "#F44336"
	GridColor  = "#dddddd"
	LabelColor = "#666666"
)

func EarColor(ear tone.Ear) string {
	if ear == tone.Right {
		return RightColor
	}
	return LeftColor
}

// Point is one plotted threshold.
type Point struct {
	Index       int // position on the frequency axis
	FrequencyHz int
	DB          float64
	NoResponse  bool
}

type Series struct {
	Ear    tone.Ear
	Color  string
	Points []Point
}

// FromResults builds the left and right series. Missing frequencies are skipped.
func FromResults(rs engine.ResultSet) []Series {
	var out []Series
	for _, ear := range []tone.Ear{tone.Left, tone.Right} {
		s := Series{Ear: ear, Color: EarColor(ear)}
		for i, f := range engine.Frequencies {
			r, ok := rs.Get(ear, f)
			if !ok {
				continue
			}
			s.Points = append(s.Points, Point{Index: i, FrequencyHz: f, DB: r.HearingLevelDB, NoResponse: r.NoResponse})
		}
		out = append(out, s)
	}
	return out
}

// GridLevels returns the labelled dB rows, top to bottom.
func GridLevels() []int {
	var levels []int
	for db := MinDB; db <= MaxDB; db += GridStep {
		levels = append(levels, db)
	}
	return levels
}

// Layout maps axis values onto a plot area of Width x Height with Padding on
// every side.
type Layout struct {
	Width, Height float64
	Padding       float64
}

var DefaultLayout = Layout{Width: 600, Height: 400, Padding: 60}

func (l Layout) plotWidth() float64  { return l.Width - 2*l.Padding }
func (l Layout) plotHeight() float64 { return l.Height - 2*l.Padding }

// X places the i-th test frequency; frequencies are evenly spaced.
func (l Layout) X(i int) float64 {
	n := len(engine.Frequencies) - 1
	return l.Padding + float64(i)/float64(n)*l.plotWidth()
}

// Y places a hearing level, clamped to the axis range.
func (l Layout) Y(db float64) float64 {
	return l.Padding + clampDB(db)/MaxDB*l.plotHeight()
}

func clampDB(db float64) float64 {
	if math.IsNaN(db) || db < MinDB {
		return MinDB
	}
	return math.Min(db, MaxDB)
}
