package tone

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// DominantFrequency returns the frequency in Hz of the strongest FFT bin.
func DominantFrequency(wave []float64, sampleRate int) float64 {
	if len(wave) < 2 {
		return 0
	}
	spectrum := fft.FFTReal(wave)

	best := 0
	bestPower := 0.0
	// Skip DC, only the lower half is meaningful for real input.
	for i := 1; i < len(spectrum)/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		if p := mag * mag; p > bestPower {
			bestPower = p
			best = i
		}
	}
	return float64(best) * float64(sampleRate) / float64(len(wave))
}

// RMS returns the root mean square of a normalized signal.
func RMS(wave []float64) float64 {
	if len(wave) == 0 {
		return 0
	}
	return floats.Norm(wave, 2) / math.Sqrt(float64(len(wave)))
}
