package engine

import (
	"math"
	"time"
)

// Frequencies are tested in this order, left ear first.
var Frequencies = [...]int{125, 250, 500, 1000, 2000, 4000, 8000}

// TotalTrials is one trial per ear per frequency.
const TotalTrials = len(Frequencies) * 2

// Ramp
const (
	// MaxVolume is the safety ceiling as a fraction of full-scale gain.
	MaxVolume    = 0.3
	VolumeStep   = 0.001
	TickInterval = 10 * time.Millisecond
)

// Sequencing delays
const (
	InitialDelay   = 1000 * time.Millisecond
	PreTrialDelay  = 2000 * time.Millisecond
	ResponseSettle = 1500 * time.Millisecond
	TimeoutSettle  = 2000 * time.Millisecond
)

// Calibration tone
const (
	CalibrationFrequency = 1000
	CalibrationGain      = 0.1
	CalibrationDuration  = 2000 * time.Millisecond
)

// maxDB is the hearing level assigned to MaxVolume.
const maxDB = 90

// rampTicks is the number of ticks from silence to MaxVolume.
var rampTicks = int(math.Round(MaxVolume / VolumeStep))

// Status messages shown while a run progresses.
const (
	StatusGetReady    = "Get ready... Test will begin shortly"
	StatusListen      = "Listen carefully and click when you hear the tone..."
	StatusRespond     = "Click \"I Can Hear It\" as soon as you detect the sound"
	StatusRecorded    = "Response recorded! Preparing next test..."
	StatusNoResponse  = "No response detected. Moving to next test..."
	StatusComplete    = "Test complete"
	StatusCalibrating = "Playing calibration tone... adjust your system volume to a comfortable level"
	StatusCalibrated  = "Calibration tone finished"
)
