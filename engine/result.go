package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"earcheck/tone"
)

// TrialResult is one threshold measurement. ResponseTimeMs is meaningful
// only when NoResponse is false.
type TrialResult struct {
	FrequencyHz    int
	Ear            tone.Ear
	Volume         float64
	ResponseTimeMs int64
	HearingLevelDB float64
	NoResponse     bool
}

// ResponseTime returns the reaction time, or false if the ceiling was reached.
func (r TrialResult) ResponseTime() (time.Duration, bool) {
	if r.NoResponse {
		return 0, false
	}
	return time.Duration(r.ResponseTimeMs) * time.Millisecond, true
}

// ResultSet maps ear to frequency to result.
type ResultSet map[tone.Ear]map[int]TrialResult

func NewResultSet() ResultSet {
	return ResultSet{
		tone.Left:  {},
		tone.Right: {},
	}
}

func (rs ResultSet) Get(ear tone.Ear, freqHz int) (TrialResult, bool) {
	r, ok := rs[ear][freqHz]
	return r, ok
}

func (rs ResultSet) add(r TrialResult) {
	m := rs[r.Ear]
	if m == nil {
		m = make(map[int]TrialResult)
		rs[r.Ear] = m
	}
	m[r.FrequencyHz] = r
}

// Len counts results across both ears.
func (rs ResultSet) Len() int {
	return len(rs[tone.Left]) + len(rs[tone.Right])
}

// Ear returns the ear's results in test-frequency order, skipping missing ones.
func (rs ResultSet) Ear(ear tone.Ear) []TrialResult {
	var out []TrialResult
	for _, f := range Frequencies {
		if r, ok := rs[ear][f]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Complete reports whether every ear/frequency pair has a result.
func (rs ResultSet) Complete() bool {
	return len(rs.Ear(tone.Left)) == len(Frequencies) && len(rs.Ear(tone.Right)) == len(Frequencies)
}

func (rs ResultSet) Clone() ResultSet {
	out := NewResultSet()
	for ear, m := range rs {
		c := make(map[int]TrialResult, len(m))
		for f, r := range m {
			c[f] = r
		}
		out[ear] = c
	}
	return out
}

// HearingLevel maps gain in [0, MaxVolume] linearly onto 0–90 dB HL.
// This is a screening approximation, not calibrated audiometry.
func HearingLevel(volume float64) float64 {
	if volume <= 0 {
		return math.Inf(-1)
	}
	return volume / MaxVolume * maxDB
}

// AverageDB is the mean hearing level of the ear's results; NaN if none.
func AverageDB(rs ResultSet, ear tone.Ear) float64 {
	results := rs.Ear(ear)
	if len(results) == 0 {
		return math.NaN()
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.HearingLevelDB
	}
	return stat.Mean(values, nil)
}

// Status is a hearing-loss severity band.
type Status int

const (
	Normal Status = iota
	Mild
	Moderate
	Severe
	Profound
)

// Classify uses inclusive upper bounds of 25, 40, 55 and 70 dB.
func Classify(avgDB float64) Status {
	switch {
	case avgDB <= 25:
		return Normal
	case avgDB <= 40:
		return Mild
	case avgDB <= 55:
		return Moderate
	case avgDB <= 70:
		return Severe
	default:
		return Profound
	}
}

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case Mild:
		return "mild"
	case Moderate:
		return "moderate"
	case Severe:
		return "severe"
	case Profound:
		return "profound"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) Label() string {
	switch s {
	case Normal:
		return "Normal Hearing"
	case Mild:
		return "Mild Hearing Loss"
	case Moderate:
		return "Moderate Hearing Loss"
	case Severe:
		return "Severe Hearing Loss"
	case Profound:
		return "Profound Hearing Loss"
	}
	return s.String()
}

type EarSummary struct {
	Ear       tone.Ear
	AverageDB float64
	Status    Status
	Results   []TrialResult
}

type Summary struct {
	Left  EarSummary
	Right EarSummary
}

// Summarize computes per-ear averages and severity. Only meaningful for a
// complete ResultSet.
func Summarize(rs ResultSet) Summary {
	ear := func(e tone.Ear) EarSummary {
		avg := AverageDB(rs, e)
		return EarSummary{
			Ear:       e,
			AverageDB: avg,
			Status:    Classify(avg),
			Results:   rs.Ear(e),
		}
	}
	return Summary{Left: ear(tone.Left), Right: ear(tone.Right)}
}

func (s Summary) Ears() []EarSummary {
	return []EarSummary{s.Left, s.Right}
}

// FormatDB renders a hearing level with one decimal.
func FormatDB(db float64) string {
	return fmt.Sprintf("%.1f", db)
}

// Text is the plain-text summary used for the clipboard and results log.
func (s Summary) Text() string {
	var b strings.Builder
	for _, e := range s.Ears() {
		fmt.Fprintf(&b, "%s: %s dB HL (%s)\n", e.Ear.Title(), FormatDB(e.AverageDB), e.Status.Label())
	}
	b.WriteString("Hz      Left    Right\n")
	for _, f := range Frequencies {
		l, _ := s.Left.result(f)
		r, _ := s.Right.result(f)
		fmt.Fprintf(&b, "%-6d %6s%s %6s%s\n", f,
			FormatDB(l.HearingLevelDB), marker(l), FormatDB(r.HearingLevelDB), marker(r))
	}
	b.WriteString("* no response at maximum safe volume\n")
	return b.String()
}

func (e EarSummary) result(freqHz int) (TrialResult, bool) {
	for _, r := range e.Results {
		if r.FrequencyHz == freqHz {
			return r, true
		}
	}
	return TrialResult{}, false
}

// Result returns the ear's result at freqHz.
func (e EarSummary) Result(freqHz int) (TrialResult, bool) {
	return e.result(freqHz)
}

func marker(r TrialResult) string {
	if r.NoResponse {
		return "*"
	}
	return " "
}
