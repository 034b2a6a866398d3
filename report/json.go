package report

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"earcheck/engine"
	"earcheck/tone"
)

type jsonReport struct {
	CompletedAt time.Time  `json:"completed_at"`
	Ears        []jsonEar  `json:"ears"`
	Parameters  jsonParams `json:"parameters"`
}

type jsonEar struct {
	Ear       tone.Ear    `json:"ear"`
	AverageDB *float64    `json:"average_db"`
	Status    string      `json:"status"`
	Label     string      `json:"label"`
	Results   []jsonTrial `json:"results"`
}

type jsonTrial struct {
	FrequencyHz    int      `json:"frequency_hz"`
	Volume         float64  `json:"volume"`
	HearingLevelDB *float64 `json:"hearing_level_db"`
	ResponseTimeMs *int64   `json:"response_time_ms"`
	NoResponse     bool     `json:"no_response"`
}

type jsonParams struct {
	FrequenciesHz []int   `json:"frequencies_hz"`
	MaxVolume     float64 `json:"max_volume"`
	VolumeStep    float64 `json:"volume_step"`
	TickMs        int64   `json:"tick_ms"`
}

// finite returns nil for values JSON cannot represent (-Inf for a response
// at zero volume, NaN for an empty ear).
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func WriteJSON(w io.Writer, rs engine.ResultSet, at time.Time) error {
	s := engine.Summarize(rs)
	out := jsonReport{
		CompletedAt: at.UTC(),
		Parameters: jsonParams{
			FrequenciesHz: engine.Frequencies[:],
			MaxVolume:     engine.MaxVolume,
			VolumeStep:    engine.VolumeStep,
			TickMs:        engine.TickInterval.Milliseconds(),
		},
	}
	for _, e := range s.Ears() {
		ear := jsonEar{
			Ear:       e.Ear,
			AverageDB: finite(e.AverageDB),
			Status:    e.Status.String(),
			Label:     e.Status.Label(),
		}
		for _, r := range e.Results {
			t := jsonTrial{
				FrequencyHz:    r.FrequencyHz,
				Volume:         r.Volume,
				HearingLevelDB: finite(r.HearingLevelDB),
				NoResponse:     r.NoResponse,
			}
			if !r.NoResponse {
				ms := r.ResponseTimeMs
				t.ResponseTimeMs = &ms
			}
			ear.Results = append(ear.Results, t)
		}
		out.Ears = append(out.Ears, ear)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
