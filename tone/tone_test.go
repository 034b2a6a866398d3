package tone

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mewkiz/flac"
)

func TestRenderRouting(t *testing.T) {
	tests := []struct {
		ear         Ear
		left, right bool
	}{
		{Left, true, false},
		{Right, false, true},
		{Both, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.ear.String(), func(t *testing.T) {
			samples := Render(1000, tt.ear, 0.5, 50*time.Millisecond, SampleRate)
			l := RMS(Channel(samples, 0))
			r := RMS(Channel(samples, 1))
			if (l > 0) != tt.left {
				t.Errorf("left RMS = %f, want audible=%v", l, tt.left)
			}
			if (r > 0) != tt.right {
				t.Errorf("right RMS = %f, want audible=%v", r, tt.right)
			}
		})
	}
}

func TestRenderGainScalesAmplitude(t *testing.T) {
	quiet := RMS(Channel(Render(500, Left, 0.1, 100*time.Millisecond, SampleRate), 0))
	loud := RMS(Channel(Render(500, Left, 0.3, 100*time.Millisecond, SampleRate), 0))
	if ratio := loud / quiet; math.Abs(ratio-3) > 0.05 {
		t.Errorf("gain ratio = %.3f, want ~3", ratio)
	}
	// Sine RMS is peak/sqrt2.
	if want := 0.3 / math.Sqrt2; math.Abs(loud-want) > 0.01 {
		t.Errorf("RMS = %.4f, want ~%.4f", loud, want)
	}
}

func TestOscillatorGainClamp(t *testing.T) {
	o := newOscillator(1000, Both, SampleRate)
	o.SetGain(2)
	if g := o.Gain(); g != 1 {
		t.Errorf("Gain() = %v, want 1", g)
	}
	o.SetGain(-1)
	if g := o.Gain(); g != 0 {
		t.Errorf("Gain() = %v, want 0", g)
	}
}

func TestOscillatorSilentAfterStop(t *testing.T) {
	o := newOscillator(1000, Both, SampleRate)
	o.SetGain(0.5)
	if !o.stop() {
		t.Fatal("first stop should report true")
	}
	if o.stop() {
		t.Fatal("second stop should report false")
	}
	buf := make([]int16, 512)
	for i := range buf {
		buf[i] = 1
	}
	o.fill(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %d after stop", i, s)
		}
	}
}

func TestDominantFrequency(t *testing.T) {
	for _, freq := range []int{250, 1000, 4000} {
		samples := Render(freq, Left, 0.3, 200*time.Millisecond, SampleRate)
		got := DominantFrequency(Channel(samples, 0), SampleRate)
		if math.Abs(got-float64(freq)) > 10 {
			t.Errorf("DominantFrequency(%d Hz tone) = %.1f", freq, got)
		}
	}
}

func TestWriteFLAC(t *testing.T) {
	samples := Render(1000, Right, 0.1, 250*time.Millisecond, SampleRate)
	var buf bytes.Buffer
	if err := WriteFLAC(&buf, samples, SampleRate); err != nil {
		t.Fatalf("WriteFLAC: %v", err)
	}
	data := buf.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("flac.New: %v", err)
	}
	defer stream.Close()
	if stream.Info.NChannels != 2 {
		t.Errorf("NChannels = %d, want 2", stream.Info.NChannels)
	}
	if stream.Info.SampleRate != SampleRate {
		t.Errorf("SampleRate = %d, want %d", stream.Info.SampleRate, SampleRate)
	}
}

func TestFakePlayerStopIdempotent(t *testing.T) {
	p := NewFake()
	if _, err := p.Start(1000, Left); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Start before Open: err = %v, want ErrUnavailable", err)
	}
	if err := p.Open(); err != nil {
		t.Fatal(err)
	}
	h, err := p.Start(1000, Left)
	if err != nil {
		t.Fatal(err)
	}
	p.Stop(h)
	p.Stop(h)
	p.Stop(nil)
	if p.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", p.Stops())
	}
	if p.Playing() != 0 {
		t.Errorf("Playing() = %d, want 0", p.Playing())
	}
}

func TestFakePlayerOpenError(t *testing.T) {
	p := NewFake()
	p.OpenErr = errors.New("permission denied")
	err := p.Open()
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("errors.Is(err, ErrUnavailable) = false for %v", err)
	}
	if !errors.Is(err, p.OpenErr) {
		t.Errorf("cause not wrapped: %v", err)
	}
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("Sony WH-1000XM4") {
		t.Error("expected Sony WH-1000XM4 to be bluetooth")
	}
	if IsBluetooth("Built-in Audio Analog Stereo") {
		t.Error("expected built-in output not to be bluetooth")
	}
}

func TestEarTitle(t *testing.T) {
	if got := Left.Title(); got != "Left Ear" {
		t.Errorf("Left.Title() = %q", got)
	}
	if got := Right.Title(); got != "Right Ear" {
		t.Errorf("Right.Title() = %q", got)
	}
}

func TestFindDevice(t *testing.T) {
	devices := []DeviceInfo{
		{ID: "alsa_output.usb", Name: "USB Headphones"},
		{ID: "alsa_output.pci", Name: "Built-in Audio"},
	}
	if d, ok := FindDevice(devices, "Built-in Audio"); !ok || d.ID != "alsa_output.pci" {
		t.Errorf("by name: %v, %v", d, ok)
	}
	if d, ok := FindDevice(devices, "alsa_output.usb"); !ok || d.Name != "USB Headphones" {
		t.Errorf("by id: %v, %v", d, ok)
	}
	if _, ok := FindDevice(devices, "missing"); ok {
		t.Error("found a missing device")
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v", got)
	}
	if got := RMS([]float64{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("RMS(square) = %v, want 0.5", got)
	}
	if got := RMS([]float64{3, 4}); math.Abs(got-math.Sqrt(12.5)) > 1e-12 {
		t.Errorf("RMS(3,4) = %v", got)
	}
}
