package tone

import (
	"sync"
)

// FakePlayer records calls instead of producing sound.
type FakePlayer struct {
	// OpenErr, when set, is returned (wrapped in ErrUnavailable) by Open.
	OpenErr error
	// StartErr, when set, is returned by Start.
	StartErr error

	mu     sync.Mutex
	opened bool
	starts []FakeStart
	tones  []*FakeTone
	active map[*FakeTone]bool
	stops  int
}

type FakeStart struct {
	FreqHz int
	Ear    Ear
}

type FakeTone struct {
	FreqHz int
	Ear    Ear

	mu      sync.Mutex
	gain    float64
	history []float64
	stopped bool
}

func NewFake() *FakePlayer {
	return &FakePlayer{active: make(map[*FakeTone]bool)}
}

func (f *FakePlayer) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return &openError{err: f.OpenErr}
	}
	f.opened = true
	return nil
}

type openError struct{ err error }

func (e *openError) Error() string   { return ErrUnavailable.Error() + ": " + e.err.Error() }
func (e *openError) Unwrap() []error { return []error{ErrUnavailable, e.err} }

func (f *FakePlayer) Start(freqHz int, ear Ear) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.opened {
		return nil, ErrUnavailable
	}
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	t := &FakeTone{FreqHz: freqHz, Ear: ear}
	f.starts = append(f.starts, FakeStart{FreqHz: freqHz, Ear: ear})
	f.tones = append(f.tones, t)
	f.active[t] = true
	return t, nil
}

func (f *FakePlayer) Stop(h Handle) {
	t, ok := h.(*FakeTone)
	if !ok || t == nil {
		return
	}
	t.mu.Lock()
	already := t.stopped
	t.stopped = true
	t.mu.Unlock()
	if already {
		return
	}
	f.mu.Lock()
	delete(f.active, t)
	f.stops++
	f.mu.Unlock()
}

func (f *FakePlayer) Close() {
	f.mu.Lock()
	f.opened = false
	f.mu.Unlock()
}

// Starts returns every Start call in order.
func (f *FakePlayer) Starts() []FakeStart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeStart(nil), f.starts...)
}

// Last returns the most recently started tone, or nil.
func (f *FakePlayer) Last() *FakeTone {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tones) == 0 {
		return nil
	}
	return f.tones[len(f.tones)-1]
}

// Playing returns the number of tones started and not yet stopped.
func (f *FakePlayer) Playing() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func (f *FakePlayer) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (t *FakeTone) SetGain(level float64) {
	t.mu.Lock()
	t.gain = level
	t.history = append(t.history, level)
	t.mu.Unlock()
}

func (t *FakeTone) Gain() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gain
}

// GainHistory returns every level passed to SetGain.
func (t *FakeTone) GainHistory() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.history...)
}

func (t *FakeTone) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
