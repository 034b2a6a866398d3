package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"earcheck/doctor"
	"earcheck/engine"
	"earcheck/log"
	"earcheck/report"
	"earcheck/shutdown"
	"earcheck/tone"
)

var version = "dev"

var guiMode bool

var (
	activeEngine *engine.Engine
	engineMu     sync.Mutex
)

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		engineMu.Lock()
		eng := activeEngine
		engineMu.Unlock()
		if eng != nil {
			eng.Close()
		}
		log.Info("session_end")
		log.Close()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		guiQuit()
		os.Exit(0)
	})
}

func deviceLineText(dev *tone.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if tone.IsBluetooth(dev.Name) {
			suffix = " (BT! latency may delay responses)"
		}
	}
	return "output: " + name + suffix
}

func resolveOutDir(flagDir string) string {
	if flagDir != "" {
		return flagDir
	}
	if env := os.Getenv("EARCHECK_OUT"); env != "" {
		return env
	}
	return "."
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select output device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named output device")
	outFlag := flag.String("out", "", "Report directory (default: $EARCHECK_OUT or current dir)")
	formatFlag := flag.String("format", "html", "Report format: html or json")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run audio diagnostics and exit")
	renderFlag := flag.String("render", "", "Write reference tones as FLAC files into this directory and exit")
	expertFlag := flag.Bool("expert", false, "Write diagnostics log while running the TUI")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	flag.Bool("gui", false, "Run with desktop GUI (requires -tags gui)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *versionFlag {
		fmt.Printf("earcheck %s\n", version)
		os.Exit(0)
	}

	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	outDir := resolveOutDir(*outFlag)

	if *renderFlag != "" {
		if err := renderTones(*renderFlag); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *testFlag {
		runTestMode(outDir, format)
		return
	}

	var selectedDevice *tone.DeviceInfo
	if *deviceFlag != "" || *setupFlag {
		devices, err := tone.Devices()
		if err != nil {
			fmt.Printf("Warning: cannot list output devices: %v\n", err)
		}
		switch {
		case *deviceFlag != "":
			if dev, ok := tone.FindDevice(devices, *deviceFlag); ok {
				selectedDevice = dev
			} else {
				fmt.Printf("Warning: output device %q not found, using default\n", *deviceFlag)
			}
		case err == nil:
			selectedDevice, err = tone.SelectDevice(devices)
			if err != nil {
				log.Warnf("device selection failed: %v", err)
				fmt.Printf("Warning: device selection failed: %v\n", err)
				fmt.Println("Falling back to default device")
				selectedDevice = nil
			}
		}
	}
	deviceID := ""
	if selectedDevice != nil {
		deviceID = selectedDevice.ID
	}
	player := tone.New(deviceID)

	if *doctorFlag {
		os.Exit(doctor.Run(player))
	}

	// Diagnostic logging in GUI mode (always) or expert TUI mode
	if guiMode || *expertFlag {
		if err := log.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
		} else {
			mode := "tui"
			if guiMode {
				mode = "gui"
			}
			log.SessionStart(deviceLineText(selectedDevice), mode)
		}
	}

	var presenter engine.Presenter = tuiPresenter{}
	if guiMode {
		presenter = guiPresenter()
	}
	eng := engine.New(player, engine.WithPresenter(presenter))
	engineMu.Lock()
	activeEngine = eng
	engineMu.Unlock()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)

	if guiMode {
		guiAttach(eng, outDir, format)
		<-sigChan
		gracefulShutdown()
		return
	}

	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(eng, outDir, format)
	tuiMu.Unlock()

	go tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	gracefulShutdown()
}
