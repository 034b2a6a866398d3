package doctor

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"earcheck/clipboard"
	"earcheck/engine"
	"earcheck/tone"
)

const (
	routingGain     = 0.1
	routingDuration = 1500 * time.Millisecond
	freqTolerance   = 10.0 // Hz
)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(player tone.Player) int {
	resetTerminal()
	setupInterruptHandler(player.Close)

	fmt.Println("earcheck doctor - interactive audio diagnostics")
	fmt.Println("===============================================")

	allPass := true

	if !checkOutput(player) {
		allPass = false
	}
	if !checkSynthesizer(os.Stdout) {
		allPass = false
	}
	if allPass && !checkRouting(player, bufio.NewReader(os.Stdin)) {
		allPass = false
	}
	checkClipboard()
	player.Close()

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkOutput(player tone.Player) bool {
	fmt.Println()
	fmt.Println("[1/4] Audio output")

	if err := player.Open(); err != nil {
		fmt.Printf("  FAIL: cannot open audio output: %v\n", err)
		return false
	}
	devices, err := tone.Devices()
	switch {
	case err != nil:
		fmt.Printf("  Warning: cannot list devices: %v\n", err)
	case len(devices) == 0:
		fmt.Println("  Warning: no playback devices reported")
	default:
		for _, d := range devices {
			suffix := ""
			if tone.IsBluetooth(d.Name) {
				suffix = " (bluetooth: latency may skew response times)"
			}
			fmt.Printf("  device: %s%s\n", d.Name, suffix)
		}
	}
	fmt.Println("  PASS: audio output opened")
	return true
}

// checkSynthesizer renders every test frequency offline and verifies pitch
// and channel isolation.
func checkSynthesizer(out io.Writer) bool {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[2/4] Tone synthesizer")

	ok := true
	for _, f := range engine.Frequencies {
		for _, ear := range []tone.Ear{tone.Left, tone.Right} {
			samples := tone.Render(f, ear, engine.MaxVolume, 200*time.Millisecond, tone.SampleRate)
			on, off := 0, 1
			if ear == tone.Right {
				on, off = 1, 0
			}
			got := tone.DominantFrequency(tone.Channel(samples, on), tone.SampleRate)
			if math.Abs(got-float64(f)) > freqTolerance {
				fmt.Fprintf(out, "  FAIL: %d Hz %s rendered at %.1f Hz\n", f, ear, got)
				ok = false
			}
			if leak := tone.RMS(tone.Channel(samples, off)); leak != 0 {
				fmt.Fprintf(out, "  FAIL: %d Hz %s leaks into the other channel (rms %.4f)\n", f, ear, leak)
				ok = false
			}
		}
	}
	if ok {
		fmt.Fprintf(out, "  PASS: %d frequencies, both channels isolated\n", len(engine.Frequencies))
	}
	return ok
}

func checkRouting(player tone.Player, reader *bufio.Reader) bool {
	fmt.Println()
	fmt.Println("[3/4] Left/right routing")
	fmt.Println("Put on your headphones.")

	for _, ear := range []tone.Ear{tone.Left, tone.Right} {
		fmt.Printf("Press Enter to play a tone in your %s ear...", strings.ToUpper(ear.String()))
		reader.ReadString('\n')

		h, err := player.Start(engine.CalibrationFrequency, ear)
		if err != nil {
			fmt.Printf("  FAIL: cannot start tone: %v\n", err)
			return false
		}
		h.SetGain(routingGain)
		time.Sleep(routingDuration)
		player.Stop(h)

		resetTerminal()
		fmt.Printf("Did you hear it only in your %s ear? [y/n]: ", ear)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Printf("  FAIL: %s channel not confirmed (check headphone orientation)\n", ear)
			return false
		}
	}
	fmt.Println("  PASS: channels confirmed by user")
	return true
}

// checkClipboard is informational: copying results is optional.
func checkClipboard() {
	fmt.Println()
	fmt.Println("[4/4] Clipboard")

	if !clipboard.Available() {
		fmt.Println("  Warning: no clipboard utility found, result copy disabled")
		return
	}
	sentinel := "earcheck-doctor-test"
	if err := clipboard.Copy(sentinel); err != nil {
		fmt.Printf("  Warning: clipboard copy failed: %v\n", err)
		return
	}
	got, err := clipboard.Read()
	if err != nil || got != sentinel {
		fmt.Printf("  Warning: clipboard read back %q (%v)\n", got, err)
		return
	}
	fmt.Println("  PASS: clipboard round-trip")
}
