// Package clipboard copies result summaries to the system clipboard.
package clipboard

import (
	"errors"

	cb "github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available
// (for example xclip/xsel/wl-copy missing on Linux).
var ErrUnsupported = errors.New("clipboard not available on this system")

func Available() bool {
	return !cb.Unsupported
}

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnsupported
	}
	return cb.WriteAll(text)
}

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnsupported
	}
	return cb.ReadAll()
}
