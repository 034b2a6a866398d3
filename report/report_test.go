package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"earcheck/engine"
	"earcheck/tone"
)

var completedAt = time.Date(2025, 3, 1, 14, 7, 0, 0, time.FixedZone("CET", 3600))

// fullResults gives the left ear 15 dB everywhere and the right ear no
// response at 8000 Hz.
func fullResults() engine.ResultSet {
	rs := engine.NewResultSet()
	for _, f := range engine.Frequencies {
		rs[tone.Left][f] = engine.TrialResult{FrequencyHz: f, Ear: tone.Left, Volume: 0.05, HearingLevelDB: 15, ResponseTimeMs: 500}
		r := engine.TrialResult{FrequencyHz: f, Ear: tone.Right, Volume: 0.1, HearingLevelDB: 30, ResponseTimeMs: 1000}
		if f == 8000 {
			r = engine.TrialResult{FrequencyHz: f, Ear: tone.Right, Volume: engine.MaxVolume, HearingLevelDB: 90, NoResponse: true}
		}
		rs[tone.Right][f] = r
	}
	return rs
}

func TestFilenameUsesUTC(t *testing.T) {
	if got, want := Filename(completedAt, HTML), "hearing_test_results_2025-03-01_13-07.html"; got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
	if got := Filename(completedAt, JSON); !strings.HasSuffix(got, ".json") {
		t.Errorf("Filename = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != JSON {
		t.Errorf("ParseFormat(JSON) = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, fullResults(), completedAt); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{
		"Average Threshold: 15.0 dB HL",
		"Normal Hearing",
		"Average Threshold: 38.6 dB HL",
		"Mild Hearing Loss",
		`<td class="profound">90.0*</td>`,
		`<td class="normal">15.0</td>`,
		"* No response at maximum safe volume",
		"Test frequencies: 125, 250, 500, 1000, 2000, 4000, 8000 Hz",
		"Maximum test volume: 30% of system maximum",
		"Volume increment: 0.1% per 10ms",
		"Important Disclaimer",
		"<svg",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if n := strings.Count(html, "*</td>"); n != 1 {
		t.Errorf("%d no-response markers, want 1", n)
	}
}

func TestWriteJSON(t *testing.T) {
	rs := fullResults()
	rs[tone.Left][125] = engine.TrialResult{FrequencyHz: 125, Ear: tone.Left, Volume: 0, HearingLevelDB: engine.HearingLevel(0)}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, rs, completedAt); err != nil {
		t.Fatal(err)
	}
	var got jsonReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if len(got.Ears) != 2 {
		t.Fatalf("%d ears", len(got.Ears))
	}
	left, right := got.Ears[0], got.Ears[1]
	if left.Results[0].HearingLevelDB != nil {
		t.Errorf("-Inf level should encode as null, got %v", *left.Results[0].HearingLevelDB)
	}
	if left.AverageDB != nil {
		t.Errorf("average including -Inf should encode as null")
	}
	last := right.Results[len(right.Results)-1]
	if !last.NoResponse || last.ResponseTimeMs != nil {
		t.Errorf("8000 Hz right = %+v", last)
	}
	if right.Label != "Mild Hearing Loss" {
		t.Errorf("right label = %q", right.Label)
	}
	if len(got.Parameters.FrequenciesHz) != len(engine.Frequencies) {
		t.Errorf("parameters = %+v", got.Parameters)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := Save(dir, fullResults(), completedAt, HTML)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != Filename(completedAt, HTML) {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("<!DOCTYPE html>")) {
		t.Error("saved file is not an HTML document")
	}
}

func TestSaveRejectsIncomplete(t *testing.T) {
	if _, err := Save(t.TempDir(), engine.NewResultSet(), completedAt, JSON); err == nil {
		t.Error("expected error for incomplete results")
	}
}
