// Package engine runs the pure-tone threshold test: a fixed sequence of
// ascending-volume trials per ear, with timing driven by an injectable Clock.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"earcheck/log"
	"earcheck/tone"
)

var (
	// ErrAudioInit wraps a failure to open the audio output.
	ErrAudioInit = errors.New("audio output could not be initialized")
	// ErrBusy is returned by Calibrate while a run is in progress.
	ErrBusy = errors.New("test in progress")
)

// Presenter receives engine notifications. Methods are called with the
// engine's lock held, so they must not call back into the Engine
// synchronously.
type Presenter interface {
	Progress(p Progress)
	Complete(rs ResultSet)
	Failed(err error)
}

// Progress is the observable state after each transition or ramp tick.
type Progress struct {
	State       State
	Ear         tone.Ear
	FrequencyHz int
	Trial       int // 1-based, 0 when idle
	Percent     float64
	Volume      float64
	Status      string
	CanRespond  bool
	Calibrating bool
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	State          State
	Ear            tone.Ear
	FrequencyIndex int
	Volume         float64
	TrialActive    bool
	Complete       bool
	Generation     uint64
	Calibrating    bool
	Status         string
	Results        ResultSet
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithPresenter(p Presenter) Option {
	return func(e *Engine) { e.presenter = p }
}

type Engine struct {
	player    tone.Player
	presenter Presenter
	clock     Clock

	mu      sync.Mutex
	gen     uint64
	timerID uint64
	timer   Timer
	active  tone.Handle

	state     State
	ear       tone.Ear
	freqIndex int
	ticks     int
	volume    float64
	toneStart time.Time
	status    string
	results   ResultSet

	calID    uint64
	calTimer Timer
	calTone  tone.Handle
}

func New(player tone.Player, opts ...Option) *Engine {
	e := &Engine{
		player:    player,
		presenter: nopPresenter{},
		clock:     realClock{},
		ear:       tone.Left,
		results:   NewResultSet(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start begins a new run from the first left-ear frequency, discarding any
// run in progress. It fails with ErrAudioInit if the output cannot be opened.
func (e *Engine) Start() error {
	if err := e.player.Open(); err != nil {
		log.Errorf("audio init failed: %v", err)
		return fmt.Errorf("%w: %w", ErrAudioInit, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopCalibrationLocked()
	e.resetLocked()
	e.state = AwaitingTrialStart
	log.RunStart(e.gen)
	e.notifyLocked(StatusGetReady)
	e.scheduleLocked(InitialDelay, e.beginTrialLocked)
	return nil
}

// Respond records the current ramp volume as the threshold. It returns false
// and does nothing unless a tone is ramping.
func (e *Engine) Respond() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != RampingVolume {
		return false
	}
	rt := e.clock.Now().Sub(e.toneStart).Milliseconds()
	e.recordLocked(TrialResult{
		FrequencyHz:    Frequencies[e.freqIndex],
		Ear:            e.ear,
		Volume:         e.volume,
		ResponseTimeMs: rt,
		HearingLevelDB: HearingLevel(e.volume),
	})
	e.stopToneLocked()
	e.state = Recorded
	e.notifyLocked(StatusRecorded)
	e.scheduleLocked(ResponseSettle, e.advanceLocked)
	return true
}

// Restart abandons the run, silences output and returns to Idle.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopCalibrationLocked()
	e.resetLocked()
	log.Info("restart")
	e.notifyLocked("")
}

// Calibrate plays a fixed reference tone in both ears. It is refused with
// ErrBusy during a run.
func (e *Engine) Calibrate() error {
	if e.State().Running() {
		return ErrBusy
	}
	if err := e.player.Open(); err != nil {
		log.Errorf("audio init failed: %v", err)
		return fmt.Errorf("%w: %w", ErrAudioInit, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Running() {
		return ErrBusy
	}
	e.stopCalibrationLocked()
	h, err := e.player.Start(CalibrationFrequency, tone.Both)
	if err != nil {
		return fmt.Errorf("calibration tone: %w", err)
	}
	h.SetGain(CalibrationGain)
	e.calTone = h
	e.calID++
	id := e.calID
	e.calTimer = e.clock.AfterFunc(CalibrationDuration, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if id != e.calID {
			return
		}
		e.stopCalibrationLocked()
		e.notifyLocked(StatusCalibrated)
	})
	log.Calibration(CalibrationFrequency, CalibrationGain)
	e.notifyLocked(StatusCalibrating)
	return nil
}

// Close stops everything and releases the audio output.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopCalibrationLocked()
	e.resetLocked()
	e.mu.Unlock()
	e.player.Close()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Results returns a copy of the results recorded so far.
func (e *Engine) Results() ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results.Clone()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:          e.state,
		Ear:            e.ear,
		FrequencyIndex: e.freqIndex,
		Volume:         e.volume,
		TrialActive:    e.state == RampingVolume,
		Complete:       e.state == Complete,
		Generation:     e.gen,
		Calibrating:    e.calTone != nil,
		Status:         e.status,
		Results:        e.results.Clone(),
	}
}

// resetLocked cancels pending work, silences the active tone and invalidates
// callbacks from the previous generation.
func (e *Engine) resetLocked() {
	e.stopToneLocked()
	e.gen++
	e.state = Idle
	e.ear = tone.Left
	e.freqIndex = 0
	e.ticks = 0
	e.volume = 0
	e.status = ""
	e.results = NewResultSet()
}

// scheduleLocked replaces the pending timer. The callback runs under the
// lock and is dropped if the generation or timer has been superseded.
func (e *Engine) scheduleLocked(d time.Duration, fn func()) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timerID++
	gen, id := e.gen, e.timerID
	e.timer = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.gen || id != e.timerID {
			log.StaleCallback(gen, e.gen)
			return
		}
		e.timer = nil
		fn()
	})
}

func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerID++
}

func (e *Engine) stopToneLocked() {
	e.cancelTimerLocked()
	if e.active != nil {
		e.player.Stop(e.active)
		e.active = nil
	}
}

func (e *Engine) stopCalibrationLocked() {
	e.calID++
	if e.calTimer != nil {
		e.calTimer.Stop()
		e.calTimer = nil
	}
	if e.calTone != nil {
		e.player.Stop(e.calTone)
		e.calTone = nil
	}
}

func (e *Engine) beginTrialLocked() {
	e.state = AwaitingTrialStart
	e.ticks = 0
	e.volume = 0
	e.notifyLocked(StatusListen)
	e.scheduleLocked(PreTrialDelay, e.startToneLocked)
}

func (e *Engine) startToneLocked() {
	e.stopToneLocked()
	e.stopCalibrationLocked()

	freq := Frequencies[e.freqIndex]
	h, err := e.player.Start(freq, e.ear)
	if err != nil {
		log.Errorf("tone start failed: freq=%d ear=%s: %v", freq, e.ear, err)
		e.resetLocked()
		e.notifyLocked("")
		e.presenter.Failed(fmt.Errorf("starting %d Hz tone: %w", freq, err))
		return
	}
	h.SetGain(0)
	e.active = h
	e.state = RampingVolume
	e.ticks = 0
	e.volume = 0
	e.toneStart = e.clock.Now()
	e.notifyLocked(StatusRespond)
	e.scheduleLocked(TickInterval, e.tickLocked)
}

func (e *Engine) tickLocked() {
	if e.state != RampingVolume {
		return
	}
	e.ticks++
	if e.ticks >= rampTicks {
		e.volume = MaxVolume
		e.active.SetGain(MaxVolume)
		e.timeoutLocked()
		return
	}
	e.volume = float64(e.ticks) * VolumeStep
	e.active.SetGain(e.volume)
	e.notifyLocked(e.status)
	e.scheduleLocked(TickInterval, e.tickLocked)
}

func (e *Engine) timeoutLocked() {
	e.recordLocked(TrialResult{
		FrequencyHz:    Frequencies[e.freqIndex],
		Ear:            e.ear,
		Volume:         MaxVolume,
		HearingLevelDB: HearingLevel(MaxVolume),
		NoResponse:     true,
	})
	e.stopToneLocked()
	e.state = TimedOut
	e.notifyLocked(StatusNoResponse)
	e.scheduleLocked(TimeoutSettle, e.advanceLocked)
}

func (e *Engine) recordLocked(r TrialResult) {
	e.results.add(r)
	rt := r.ResponseTimeMs
	if r.NoResponse {
		rt = -1
	}
	log.Trial(r.Ear.String(), r.FrequencyHz, r.Volume, r.HearingLevelDB, rt)
}

func (e *Engine) advanceLocked() {
	if e.freqIndex+1 < len(Frequencies) {
		e.freqIndex++
		e.beginTrialLocked()
		return
	}
	if e.ear == tone.Left {
		e.ear = tone.Right
		e.freqIndex = 0
		e.beginTrialLocked()
		return
	}
	e.completeLocked()
}

func (e *Engine) completeLocked() {
	e.state = Complete
	e.volume = 0
	s := Summarize(e.results)
	log.RunComplete(s.Left.AverageDB, s.Right.AverageDB, s.Left.Status.String(), s.Right.Status.String())
	log.Results(s.Text())
	e.notifyLocked(StatusComplete)
	e.presenter.Complete(e.results.Clone())
}

func (e *Engine) notifyLocked(status string) {
	e.status = status
	e.presenter.Progress(e.progressLocked())
}

func (e *Engine) progressLocked() Progress {
	p := Progress{
		State:       e.state,
		Ear:         e.ear,
		FrequencyHz: Frequencies[e.freqIndex],
		Volume:      e.volume,
		Status:      e.status,
		CanRespond:  e.state == RampingVolume,
		Calibrating: e.calTone != nil,
	}
	switch e.state {
	case Idle:
	case Complete:
		p.Trial = TotalTrials
		p.Percent = 100
	default:
		p.Trial = e.trialNumberLocked()
		p.Percent = float64(p.Trial-1) / float64(TotalTrials) * 100
	}
	return p
}

func (e *Engine) trialNumberLocked() int {
	n := e.freqIndex + 1
	if e.ear == tone.Right {
		n += len(Frequencies)
	}
	return n
}

type nopPresenter struct{}

func (nopPresenter) Progress(Progress)  {}
func (nopPresenter) Complete(ResultSet) {}
func (nopPresenter) Failed(error)       {}
