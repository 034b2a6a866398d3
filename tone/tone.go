package tone

import (
	"errors"
	"fmt"
	"strings"
)

const (
	SampleRate = 44100
	Channels   = 2
)

var (
	ErrUnavailable = errors.New("audio output unavailable")
	ErrNoDevices   = errors.New("no playback devices found")
)

// Ear selects which output channel(s) a tone is routed to.
type Ear int

const (
	Left Ear = iota
	Right
	Both
)

func (e Ear) String() string {
	switch e {
	case Left:
		return "left"
	case Right:
		return "right"
	case Both:
		return "both"
	}
	return "unknown"
}

// Title returns the display form used on screens and reports ("Left Ear").
func (e Ear) Title() string {
	s := e.String()
	return strings.ToUpper(s[:1]) + s[1:] + " Ear"
}

func (e Ear) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Ear) UnmarshalText(b []byte) error {
	switch string(b) {
	case "left":
		*e = Left
	case "right":
		*e = Right
	case "both":
		*e = Both
	default:
		return fmt.Errorf("unknown ear %q", b)
	}
	return nil
}

// Handle is a playing tone. Gain starts at zero.
type Handle interface {
	SetGain(level float64)
	Gain() float64
}

// Player synthesizes continuous sine tones.
//
// Open is idempotent and must succeed before Start. Stop is safe to call on
// nil, already-stopped, or foreign handles.
type Player interface {
	Open() error
	Start(freqHz int, ear Ear) (Handle, error)
	Stop(h Handle)
	Close()
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether output goes over Bluetooth.
// Wireless headsets add latency and often apply their own loudness processing.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
