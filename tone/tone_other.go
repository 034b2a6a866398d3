//go:build !linux

package tone

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoPlayer struct {
	device string

	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

// New returns a miniaudio player. device is a hex device ID as reported by
// Devices; empty means the system default.
func New(device string) Player {
	return &malgoPlayer{device: device}
}

func (p *malgoPlayer) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: malgo: %v", ErrUnavailable, err)
	}
	p.ctx = ctx
	return nil
}

type malgoTone struct {
	*oscillator
	device  *malgo.Device
	scratch []int16
	once    sync.Once
}

func (p *malgoPlayer) Start(freqHz int, ear Ear) (Handle, error) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		return nil, ErrUnavailable
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = Channels
	config.SampleRate = SampleRate
	if p.device != "" {
		idBytes, err := hex.DecodeString(p.device)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		config.Playback.DeviceID = devID.Pointer()
	}

	t := &malgoTone{oscillator: newOscillator(freqHz, ear, SampleRate)}
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			n := int(frameCount) * Channels
			if cap(t.scratch) < n {
				t.scratch = make([]int16, n)
			}
			buf := t.scratch[:n]
			t.fill(buf)
			for i, s := range buf {
				binary.LittleEndian.PutUint16(pOutput[i*2:], uint16(s))
			}
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("malgo start: %w", err)
	}
	t.device = dev
	return t, nil
}

func (p *malgoPlayer) Stop(h Handle) {
	t, ok := h.(*malgoTone)
	if !ok || t == nil {
		return
	}
	t.once.Do(func() {
		t.oscillator.stop()
		t.device.Stop()
		t.device.Uninit()
	})
}

func (p *malgoPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}

// Devices lists playback devices.
func Devices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: malgo: %v", ErrUnavailable, err)
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	devices, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}
