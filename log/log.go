package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog     zerolog.Logger
	diagFile    *os.File
	resultsFile *os.File
	logMu       sync.Mutex
	logReady    bool
	pid         int
	dir         string
)

const (
	diagName    = "diagnostics_log.txt"
	resultsName = "results_log.txt"
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absPath(flagPath)
	}

	// Priority 2: EARCHECK_LOG_PATH environment variable
	if envPath := os.Getenv("EARCHECK_LOG_PATH"); envPath != "" {
		return absPath(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, diagName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	resultsFile, err = os.OpenFile(filepath.Join(dir, resultsName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if resultsFile != nil {
		resultsFile.Close()
		resultsFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(device, mode string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", device).
		Str("mode", mode).
		Msg("session_start")
}

func RunStart(generation uint64) {
	if !logReady {
		return
	}
	diagLog.Info().Uint64("gen", generation).Msg("run_start")
}

// Trial records one finished measurement. responseMs is negative when the
// ramp reached the ceiling without a response.
func Trial(ear string, freqHz int, volume, hearingDB float64, responseMs int64) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Str("ear", ear).
		Int("freq_hz", freqHz).
		Float64("volume", volume).
		Float64("db_hl", hearingDB)
	if responseMs >= 0 {
		ev = ev.Int64("response_ms", responseMs)
	} else {
		ev = ev.Bool("no_response", true)
	}
	ev.Msg("trial")
}

func RunComplete(leftDB, rightDB float64, leftStatus, rightStatus string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("left_avg_db", leftDB).
		Float64("right_avg_db", rightDB).
		Str("left", leftStatus).
		Str("right", rightStatus).
		Msg("run_complete")
}

func StaleCallback(generation, current uint64) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Uint64("gen", generation).
		Uint64("current", current).
		Msg("stale_callback")
}

func Calibration(freqHz int, gain float64) {
	if !logReady {
		return
	}
	diagLog.Info().Int("freq_hz", freqHz).Float64("gain", gain).Msg("calibration")
}

func ReportSaved(path, format string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("path", path).Str("format", format).Msg("report_saved")
}

// Results appends a completed run's text summary to results_log.txt.
func Results(summary string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	header := fmt.Sprintf("%s\t[%d]\n", time.Now().Format("2006-01-02 15:04:05"), pid)
	resultsFile.WriteString(header + summary + "\n")
}
