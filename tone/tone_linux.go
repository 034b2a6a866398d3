//go:build linux

package tone

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Short enough that a gain change lands within one ramp tick.
const playbackLatency = 0.01

type pulsePlayer struct {
	device string

	mu     sync.Mutex
	client *pulse.Client
}

// New returns a PulseAudio player. device is a sink ID; empty means the
// server default.
func New(device string) Player {
	return &pulsePlayer{device: device}
}

func (p *pulsePlayer) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return nil
	}
	c, err := pulse.NewClient(pulse.ClientApplicationName("earcheck"))
	if err != nil {
		return fmt.Errorf("%w: pulse: %v", ErrUnavailable, err)
	}
	p.client = c
	return nil
}

type pulseTone struct {
	*oscillator
	stream *pulse.PlaybackStream
	once   sync.Once
}

func (p *pulsePlayer) Start(freqHz int, ear Ear) (Handle, error) {
	p.mu.Lock()
	c := p.client
	p.mu.Unlock()
	if c == nil {
		return nil, ErrUnavailable
	}

	osc := newOscillator(freqHz, ear, SampleRate)
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if osc.stopped.Load() {
			return 0, pulse.EndOfData
		}
		osc.fill(buf)
		return len(buf), nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(SampleRate),
		pulse.PlaybackLatency(playbackLatency),
		pulse.PlaybackRawOption(func(cp *proto.CreatePlaybackStream) {
			cp.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	}
	if p.device != "" {
		sink, err := c.SinkByID(p.device)
		if err == nil && sink != nil {
			opts = append(opts, pulse.PlaybackSink(sink))
		}
	}

	stream, err := c.NewPlayback(reader, opts...)
	if err != nil {
		return nil, fmt.Errorf("pulse playback: %w", err)
	}
	stream.Start()
	return &pulseTone{oscillator: osc, stream: stream}, nil
}

func (p *pulsePlayer) Stop(h Handle) {
	t, ok := h.(*pulseTone)
	if !ok || t == nil {
		return
	}
	t.once.Do(func() {
		t.oscillator.stop()
		t.stream.Stop()
		t.stream.Close()
	})
}

func (p *pulsePlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// Devices lists PulseAudio sinks.
func Devices() ([]DeviceInfo, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("%w: pulse: %v", ErrUnavailable, err)
	}
	defer c.Close()

	sinks, err := c.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("pulse list sinks: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sinks {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}
