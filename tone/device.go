package tone

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const bluetoothWarning = "wireless, levels less reliable"

// picker holds the cursor over the playback devices offered by SelectDevice.
type picker struct {
	devices []DeviceInfo
	cursor  int
}

// newPicker places the cursor on the first wired device, since Bluetooth
// headsets apply their own loudness processing to quiet tones.
func newPicker(devices []DeviceInfo) *picker {
	p := &picker{devices: devices}
	for i, d := range devices {
		if !IsBluetooth(d.Name) {
			p.cursor = i
			break
		}
	}
	return p
}

type pickerAction int

const (
	pickerMove pickerAction = iota
	pickerConfirm
	pickerCancel
)

// key applies one read from a raw-mode terminal.
func (p *picker) key(in []byte) pickerAction {
	switch {
	case len(in) == 1:
		switch in[0] {
		case '\r', '\n':
			return pickerConfirm
		case 3, 'q': // Ctrl+C
			return pickerCancel
		case 'j':
			p.down()
		case 'k':
			p.up()
		}
	case len(in) == 3 && in[0] == 0x1b && in[1] == '[':
		switch in[2] {
		case 'A':
			p.up()
		case 'B':
			p.down()
		}
	}
	return pickerMove
}

func (p *picker) up() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *picker) down() {
	if p.cursor < len(p.devices)-1 {
		p.cursor++
	}
}

func (p *picker) selected() *DeviceInfo {
	return &p.devices[p.cursor]
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select your headphones (↑/↓, Enter to confirm):\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if IsBluetooth(d.Name) {
			tag = " \x1b[33m[⚠ " + bluetoothWarning + "]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", d.Name, tag)
		}
	}
}

// SelectDevice asks the user which output to test through. A single device
// is used without prompting.
func SelectDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	if len(devices) == 1 {
		d := &devices[0]
		fmt.Printf("Using output: %s\n", d.Name)
		if IsBluetooth(d.Name) {
			fmt.Println("Warning: " + bluetoothWarning + "; wired headphones give steadier results")
		}
		return d, nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p := newPicker(devices)
	p.render(os.Stdout)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch p.key(buf[:n]) {
		case pickerConfirm:
			fmt.Print("\r\n")
			return p.selected(), nil
		case pickerCancel:
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			os.Exit(130)
		}
		fmt.Printf("\x1b[%dA", len(devices)+2)
		p.render(os.Stdout)
	}
}

// FindDevice returns the device whose name or ID matches.
func FindDevice(devices []DeviceInfo, nameOrID string) (*DeviceInfo, bool) {
	for i := range devices {
		if devices[i].Name == nameOrID || devices[i].ID == nameOrID {
			return &devices[i], true
		}
	}
	return nil, false
}
