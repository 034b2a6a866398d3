package engine

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"earcheck/tone"
)

type recorder struct {
	mu       sync.Mutex
	progress []Progress
	complete []ResultSet
	failed   []error
}

func (r *recorder) Progress(p Progress) {
	r.mu.Lock()
	r.progress = append(r.progress, p)
	r.mu.Unlock()
}

func (r *recorder) Complete(rs ResultSet) {
	r.mu.Lock()
	r.complete = append(r.complete, rs)
	r.mu.Unlock()
}

func (r *recorder) Failed(err error) {
	r.mu.Lock()
	r.failed = append(r.failed, err)
	r.mu.Unlock()
}

func (r *recorder) last() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.progress) == 0 {
		return Progress{}
	}
	return r.progress[len(r.progress)-1]
}

type harness struct {
	t      *testing.T
	clock  *ManualClock
	player *tone.FakePlayer
	pres   *recorder
	eng    *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  NewManualClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		player: tone.NewFake(),
		pres:   &recorder{},
	}
	h.eng = New(h.player, WithClock(h.clock), WithPresenter(h.pres))
	return h
}

func (h *harness) start() {
	h.t.Helper()
	if err := h.eng.Start(); err != nil {
		h.t.Fatalf("Start: %v", err)
	}
	h.clock.Advance(InitialDelay)
	h.expectState(AwaitingTrialStart)
}

// toTone advances through the pre-trial delay to the start of the ramp.
func (h *harness) toTone() {
	h.t.Helper()
	h.clock.Advance(PreTrialDelay)
	h.expectState(RampingVolume)
}

func (h *harness) ticks(n int) {
	h.clock.Advance(time.Duration(n) * TickInterval)
}

func (h *harness) expectState(want State) {
	h.t.Helper()
	if got := h.eng.State(); got != want {
		h.t.Fatalf("state = %v, want %v", got, want)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFullRunWithResponses(t *testing.T) {
	h := newHarness(t)
	h.start()

	for i := 0; i < TotalTrials; i++ {
		h.toTone()
		h.ticks(50)
		if !h.eng.Respond() {
			t.Fatalf("trial %d: Respond returned false while ramping", i+1)
		}
		h.expectState(Recorded)
		h.clock.Advance(ResponseSettle)
	}

	h.expectState(Complete)
	if len(h.pres.complete) != 1 {
		t.Fatalf("Complete called %d times, want 1", len(h.pres.complete))
	}
	rs := h.pres.complete[0]
	if !rs.Complete() {
		t.Fatalf("result set incomplete: %d results", rs.Len())
	}
	for _, ear := range []tone.Ear{tone.Left, tone.Right} {
		for _, f := range Frequencies {
			r, ok := rs.Get(ear, f)
			if !ok {
				t.Fatalf("missing %s %d Hz", ear, f)
			}
			if !approx(r.Volume, 0.05) {
				t.Errorf("%s %d Hz volume = %v, want 0.05", ear, f, r.Volume)
			}
			if !approx(r.HearingLevelDB, 15) {
				t.Errorf("%s %d Hz dB = %v, want 15", ear, f, r.HearingLevelDB)
			}
			if d, ok := r.ResponseTime(); !ok || d != 500*time.Millisecond {
				t.Errorf("%s %d Hz response time = %v, %v", ear, f, d, ok)
			}
		}
		if avg := AverageDB(rs, ear); !approx(avg, 15) {
			t.Errorf("%s average = %v, want 15", ear, avg)
		}
	}
	s := Summarize(rs)
	if s.Left.Status != Normal || s.Right.Status != Normal {
		t.Errorf("status = %v/%v, want normal", s.Left.Status, s.Right.Status)
	}
	if last := h.pres.last(); last.Percent != 100 || last.Status != StatusComplete {
		t.Errorf("last progress = %+v", last)
	}
	if h.player.Playing() != 0 {
		t.Errorf("%d tones still playing", h.player.Playing())
	}
}

func TestFrequencyOrder(t *testing.T) {
	h := newHarness(t)
	h.start()
	for i := 0; i < TotalTrials; i++ {
		h.toTone()
		h.eng.Respond()
		h.clock.Advance(ResponseSettle)
	}

	starts := h.player.Starts()
	if len(starts) != TotalTrials {
		t.Fatalf("%d tones started, want %d", len(starts), TotalTrials)
	}
	for i, s := range starts {
		wantEar := tone.Left
		if i >= len(Frequencies) {
			wantEar = tone.Right
		}
		wantFreq := Frequencies[i%len(Frequencies)]
		if s.Ear != wantEar || s.FreqHz != wantFreq {
			t.Errorf("tone %d = %s %d Hz, want %s %d Hz", i, s.Ear, s.FreqHz, wantEar, wantFreq)
		}
	}
}

func TestNoResponseReachesCeiling(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.toTone()
	h.ticks(rampTicks - 1)
	h.expectState(RampingVolume)
	if snap := h.eng.Snapshot(); !approx(snap.Volume, 0.299) {
		t.Fatalf("volume after %d ticks = %v", rampTicks-1, snap.Volume)
	}
	h.ticks(1)
	h.expectState(TimedOut)
	if got := h.pres.last().Status; got != StatusNoResponse {
		t.Errorf("status = %q", got)
	}

	gains := h.player.Last().GainHistory()
	for _, g := range gains {
		if g > MaxVolume {
			t.Fatalf("gain %v exceeds ceiling", g)
		}
	}
	if top := gains[len(gains)-1]; top != MaxVolume {
		t.Errorf("final gain = %v, want %v", top, MaxVolume)
	}
	if !h.player.Last().Stopped() {
		t.Error("tone not stopped at ceiling")
	}

	if h.eng.Respond() {
		t.Error("Respond after timeout should be ignored")
	}
	r, ok := h.eng.Results().Get(tone.Left, Frequencies[0])
	if !ok || !r.NoResponse || r.Volume != MaxVolume || r.HearingLevelDB != 90 {
		t.Fatalf("result = %+v, %v", r, ok)
	}
	if _, ok := r.ResponseTime(); ok {
		t.Error("no-response result should have no response time")
	}
}

func TestNeverRespondingIsProfound(t *testing.T) {
	h := newHarness(t)
	h.start()
	for i := 0; i < TotalTrials; i++ {
		h.toTone()
		h.ticks(rampTicks)
		h.expectState(TimedOut)
		h.clock.Advance(TimeoutSettle)
	}
	h.expectState(Complete)

	s := Summarize(h.eng.Results())
	for _, e := range s.Ears() {
		if e.AverageDB != 90 || e.Status != Profound {
			t.Errorf("%s: avg %v status %v, want 90 profound", e.Ear, e.AverageDB, e.Status)
		}
		if len(e.Results) != len(Frequencies) {
			t.Errorf("%s: %d results", e.Ear, len(e.Results))
		}
	}
}

func TestRespondOutsideRampIgnored(t *testing.T) {
	h := newHarness(t)
	if h.eng.Respond() {
		t.Error("Respond while idle should return false")
	}
	h.start()
	if h.eng.Respond() {
		t.Error("Respond before tone should return false")
	}
	h.toTone()
	h.eng.Respond()
	if h.eng.Respond() {
		t.Error("second Respond in the same trial should return false")
	}
	if n := h.eng.Results().Len(); n != 1 {
		t.Errorf("%d results, want 1", n)
	}
}

func TestRestartMidRamp(t *testing.T) {
	h := newHarness(t)
	h.start()
	h.toTone()
	h.ticks(20)

	h.eng.Restart()
	h.expectState(Idle)
	if h.player.Playing() != 0 {
		t.Fatal("tone still playing after restart")
	}
	if n := h.eng.Results().Len(); n != 0 {
		t.Fatalf("%d results after restart", n)
	}

	h.clock.Advance(10 * time.Second)
	h.expectState(Idle)
	if n := len(h.player.Starts()); n != 1 {
		t.Errorf("%d tones started, want 1", n)
	}
}

func TestRestartDuringRightEar(t *testing.T) {
	h := newHarness(t)
	h.start()
	for i := 0; i < len(Frequencies)+2; i++ {
		h.toTone()
		h.ticks(40)
		if !h.eng.Respond() {
			t.Fatalf("trial %d: response not accepted", i+1)
		}
		h.clock.Advance(ResponseSettle)
	}
	h.toTone()
	h.ticks(15)
	if snap := h.eng.Snapshot(); snap.Ear != tone.Right || snap.FrequencyIndex != 2 {
		t.Fatalf("before restart: ear=%v index=%d", snap.Ear, snap.FrequencyIndex)
	}

	h.eng.Restart()
	snap := h.eng.Snapshot()
	if snap.State != Idle || snap.Ear != tone.Left || snap.FrequencyIndex != 0 {
		t.Fatalf("after restart: state=%v ear=%v index=%d", snap.State, snap.Ear, snap.FrequencyIndex)
	}
	if snap.Results.Len() != 0 || snap.Volume != 0 {
		t.Fatalf("after restart: %d results, volume %v", snap.Results.Len(), snap.Volume)
	}
	if n := h.clock.Pending(); n != 0 {
		t.Fatalf("%d timers pending after restart", n)
	}
	if h.player.Playing() != 0 {
		t.Fatal("tone still playing after restart")
	}

	h.clock.Advance(time.Minute)
	h.expectState(Idle)
}

// leakyClock never cancels timers, so every superseded callback still fires.
type leakyClock struct{ *ManualClock }

type noStop struct{}

func (noStop) Stop() bool { return false }

func (c leakyClock) AfterFunc(d time.Duration, f func()) Timer {
	c.ManualClock.AfterFunc(d, f)
	return noStop{}
}

func TestStaleCallbacksIgnored(t *testing.T) {
	mc := NewManualClock(time.Unix(0, 0))
	player := tone.NewFake()
	eng := New(player, WithClock(leakyClock{mc}))

	if err := eng.Start(); err != nil {
		t.Fatal(err)
	}
	mc.Advance(InitialDelay + PreTrialDelay + 20*TickInterval)
	first := eng.Snapshot()
	if first.State != RampingVolume || !approx(first.Volume, 0.02) {
		t.Fatalf("first run: %v at %v", first.State, first.Volume)
	}

	eng.Restart()
	if err := eng.Start(); err != nil {
		t.Fatal(err)
	}
	if eng.Snapshot().Generation <= first.Generation {
		t.Fatal("generation did not advance")
	}

	mc.Advance(InitialDelay + PreTrialDelay)
	if n := len(player.Starts()); n != 2 {
		t.Fatalf("%d tones started, want 2", n)
	}
	mc.Advance(10 * TickInterval)
	snap := eng.Snapshot()
	if snap.State != RampingVolume || !approx(snap.Volume, 0.01) {
		t.Fatalf("second run: %v at %v, want ramping at 0.01", snap.State, snap.Volume)
	}

	eng.Respond()
	mc.Advance(5 * TickInterval)
	if eng.State() != Recorded {
		t.Fatalf("tick after response changed state to %v", eng.State())
	}
	r, _ := eng.Results().Get(tone.Left, Frequencies[0])
	if !approx(r.Volume, 0.01) {
		t.Errorf("recorded volume = %v, want 0.01", r.Volume)
	}
}

func TestStartFailsWhenAudioUnavailable(t *testing.T) {
	h := newHarness(t)
	h.player.OpenErr = errors.New("no such device")

	err := h.eng.Start()
	if !errors.Is(err, ErrAudioInit) {
		t.Fatalf("err = %v, want ErrAudioInit", err)
	}
	if !errors.Is(err, tone.ErrUnavailable) {
		t.Errorf("cause lost: %v", err)
	}
	h.expectState(Idle)
	if h.clock.Pending() != 0 {
		t.Error("timers scheduled after failed start")
	}
}

func TestToneFailureAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.player.StartErr = errors.New("stream refused")
	h.start()
	h.clock.Advance(PreTrialDelay)

	h.expectState(Idle)
	if len(h.pres.failed) != 1 {
		t.Fatalf("Failed called %d times", len(h.pres.failed))
	}
	if !errors.Is(h.pres.failed[0], h.player.StartErr) {
		t.Errorf("failure does not wrap cause: %v", h.pres.failed[0])
	}
}

func TestCalibration(t *testing.T) {
	h := newHarness(t)
	if err := h.eng.Calibrate(); err != nil {
		t.Fatal(err)
	}
	starts := h.player.Starts()
	if len(starts) != 1 || starts[0].FreqHz != CalibrationFrequency || starts[0].Ear != tone.Both {
		t.Fatalf("starts = %+v", starts)
	}
	if g := h.player.Last().Gain(); g != CalibrationGain {
		t.Errorf("gain = %v, want %v", g, CalibrationGain)
	}
	if !h.eng.Snapshot().Calibrating {
		t.Error("snapshot not calibrating")
	}

	h.clock.Advance(CalibrationDuration)
	if h.player.Playing() != 0 {
		t.Error("calibration tone still playing")
	}
	if got := h.pres.last(); got.Status != StatusCalibrated || got.Calibrating {
		t.Errorf("last progress = %+v", got)
	}
}

func TestCalibrationRefusedDuringRun(t *testing.T) {
	h := newHarness(t)
	h.start()
	if err := h.eng.Calibrate(); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestStartStopsCalibration(t *testing.T) {
	h := newHarness(t)
	if err := h.eng.Calibrate(); err != nil {
		t.Fatal(err)
	}
	cal := h.player.Last()
	if err := h.eng.Start(); err != nil {
		t.Fatal(err)
	}
	if !cal.Stopped() {
		t.Error("calibration tone not stopped by Start")
	}
	h.clock.Advance(InitialDelay + PreTrialDelay)
	if h.player.Playing() != 1 {
		t.Errorf("%d tones playing, want 1", h.player.Playing())
	}
}

func TestProgress(t *testing.T) {
	h := newHarness(t)
	h.start()
	h.toTone()
	p := h.pres.last()
	if p.Trial != 1 || p.Percent != 0 || !p.CanRespond || p.Status != StatusRespond {
		t.Fatalf("first trial progress = %+v", p)
	}

	for i := 0; i < len(Frequencies); i++ {
		if i > 0 {
			h.toTone()
		}
		h.eng.Respond()
		h.clock.Advance(ResponseSettle)
	}
	p = h.pres.last()
	if p.Ear != tone.Right || p.Trial != 8 || p.Percent != 50 || p.Status != StatusListen {
		t.Errorf("first right-ear progress = %+v", p)
	}
}

func TestTickUpdatesGain(t *testing.T) {
	h := newHarness(t)
	h.start()
	h.toTone()
	h.ticks(3)
	hist := h.player.Last().GainHistory()
	want := []float64{0, 0.001, 0.002, 0.003}
	if len(hist) != len(want) {
		t.Fatalf("gain history = %v", hist)
	}
	for i := range want {
		if !approx(hist[i], want[i]) {
			t.Errorf("gain[%d] = %v, want %v", i, hist[i], want[i])
		}
	}
}
