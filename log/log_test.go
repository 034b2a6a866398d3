package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("EARCHECK_LOG_PATH", "/tmp/earcheck-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/earcheck-env-log" {
		t.Errorf("got %q, want /tmp/earcheck-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("EARCHECK_LOG_PATH", "/tmp/earcheck-env-log")
	got, err := ResolveDir("/tmp/flag-log")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/flag-log" {
		t.Errorf("got %q, want /tmp/flag-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("EARCHECK_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "earcheck") {
		t.Errorf("default dir %q does not mention earcheck", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{diagName, resultsName} {
		path := filepath.Join(tmp, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestTrialWritesDiagnostics(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Trial("left", 1000, 0.05, 15, 500)
	Trial("right", 8000, 0.3, 90, -1)

	data, err := os.ReadFile(filepath.Join(tmp, diagName))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"trial", "freq_hz=1000", "response_ms=500", "no_response=true"} {
		if !strings.Contains(text, want) {
			t.Errorf("diagnostics missing %q, got: %q", want, text)
		}
	}
}

func TestResults(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Results("Left Ear: 15.0 dB HL (Normal Hearing)\n")

	data, err := os.ReadFile(filepath.Join(tmp, resultsName))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "Normal Hearing") {
		t.Errorf("results_log.txt missing summary, got: %q", text)
	}
	// header: "2006-01-02 15:04:05\t[pid]\n"
	if !strings.Contains(text, "\t[") {
		t.Errorf("expected timestamped header, got: %q", text)
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	Close()
	Info("ignored")
	Trial("left", 125, 0.1, 30, 10)
	Results("ignored")
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
