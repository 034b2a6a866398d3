package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"earcheck/engine"
	"earcheck/tone"
)

const renderDuration = 2 * time.Second

// renderTones writes every test tone for each ear, plus the calibration tone,
// as stereo FLAC at the calibration gain.
func renderTones(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create render dir: %w", err)
	}
	type job struct {
		freq int
		ear  tone.Ear
	}
	var jobs []job
	for _, ear := range []tone.Ear{tone.Left, tone.Right} {
		for _, f := range engine.Frequencies {
			jobs = append(jobs, job{f, ear})
		}
	}
	jobs = append(jobs, job{engine.CalibrationFrequency, tone.Both})

	for _, j := range jobs {
		path := filepath.Join(dir, toneFilename(j.freq, j.ear))
		samples := tone.Render(j.freq, j.ear, engine.CalibrationGain, renderDuration, tone.SampleRate)
		if err := writeFLACFile(path, samples); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func toneFilename(freqHz int, ear tone.Ear) string {
	return fmt.Sprintf("tone_%dhz_%s.flac", freqHz, ear)
}

func writeFLACFile(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := tone.WriteFLAC(f, samples, tone.SampleRate); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
