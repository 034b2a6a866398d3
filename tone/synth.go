package tone

import (
	"math"
	"sync/atomic"
	"time"
)

// oscillator produces an interleaved stereo sine. Gain is read once per
// buffer so SetGain from another goroutine takes effect on the next fill.
type oscillator struct {
	freq    float64
	ear     Ear
	rate    float64
	phase   float64
	gain    atomic.Uint64 // math.Float64bits
	stopped atomic.Bool
}

func newOscillator(freqHz int, ear Ear, sampleRate int) *oscillator {
	return &oscillator{
		freq: float64(freqHz),
		ear:  ear,
		rate: float64(sampleRate),
	}
}

func (o *oscillator) SetGain(level float64) {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	o.gain.Store(math.Float64bits(level))
}

func (o *oscillator) Gain() float64 {
	return math.Float64frombits(o.gain.Load())
}

func (o *oscillator) stop() bool {
	return o.stopped.CompareAndSwap(false, true)
}

// fill writes len(buf)/2 stereo frames.
func (o *oscillator) fill(buf []int16) {
	if o.stopped.Load() {
		clear(buf)
		return
	}
	gain := o.Gain()
	step := 2 * math.Pi * o.freq / o.rate
	left := o.ear == Left || o.ear == Both
	right := o.ear == Right || o.ear == Both
	for i := 0; i+1 < len(buf); i += 2 {
		s := int16(math.Sin(o.phase) * 32767 * gain)
		buf[i], buf[i+1] = 0, 0
		if left {
			buf[i] = s
		}
		if right {
			buf[i+1] = s
		}
		o.phase += step
		if o.phase >= 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
}

// Render synthesizes dur of a constant-gain tone as interleaved stereo int16.
func Render(freqHz int, ear Ear, gain float64, dur time.Duration, sampleRate int) []int16 {
	o := newOscillator(freqHz, ear, sampleRate)
	o.SetGain(gain)
	n := int(float64(sampleRate) * dur.Seconds())
	buf := make([]int16, n*Channels)
	o.fill(buf)
	return buf
}

// Channel extracts one channel (0 = left, 1 = right) of interleaved stereo.
func Channel(samples []int16, ch int) []float64 {
	out := make([]float64, 0, len(samples)/Channels)
	for i := ch; i < len(samples); i += Channels {
		out = append(out, float64(samples[i])/32768.0)
	}
	return out
}
