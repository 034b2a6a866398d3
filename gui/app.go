//go:build gui

package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"earcheck/clipboard"
	"earcheck/engine"
	"earcheck/log"
	"earcheck/report"
)

const savedNotice = 3 * time.Second

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	onReady func()

	mu     sync.Mutex
	eng    *engine.Engine
	outDir string
	format report.Format
	result engine.ResultSet

	setup   fyne.CanvasObject
	test    fyne.CanvasObject
	results fyne.CanvasObject

	calibrateBtn *widget.Button
	startBtn     *widget.Button
	earLabel     *widget.Label
	freqLabel    *widget.Label
	trialLabel   *widget.Label
	progress     *widget.ProgressBar
	volume       *widget.ProgressBar
	status       *widget.Label
	hearBtn      *widget.Button
	leftSummary  *widget.Label
	rightSummary *widget.Label
	table        *widget.Label
	saveBtn      *widget.Button
	audiogram    *AudiogramWidget
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

// Attach connects the engine once it has been created by onReady.
func (a *App) Attach(eng *engine.Engine, outDir string, format report.Format) {
	a.mu.Lock()
	a.eng, a.outDir, a.format = eng, outDir, format
	a.mu.Unlock()
}

func (a *App) currentEngine() *engine.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eng
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.earcheck.gui")
	a.fyneApp.Settings().SetTheme(&lightTheme{})
	icon := appIcon()
	a.fyneApp.SetIcon(icon)

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("earcheck",
			fyne.NewMenuItem("Quit", func() {
				a.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	}

	a.window = a.fyneApp.NewWindow("Hearing Test")
	a.build()
	a.window.SetContent(a.setup)
	a.window.Resize(fyne.NewSize(720, 640))
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeySpace {
			a.respond()
		}
	})
	a.window.Show()

	go a.onReady()

	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

func (a *App) build() {
	a.calibrateBtn = widget.NewButton("🔊 Test Volume", func() {
		go a.call(func(e *engine.Engine) error { return e.Calibrate() })
	})
	a.startBtn = widget.NewButton("Start Hearing Test", func() {
		go a.call(func(e *engine.Engine) error { return e.Start() })
	})
	a.startBtn.Importance = widget.HighImportance

	a.setup = container.NewVScroll(container.NewVBox(
		widget.NewRichTextFromMarkdown(setupText),
		a.calibrateBtn,
		a.startBtn,
	))

	a.earLabel = widget.NewLabel("")
	a.freqLabel = widget.NewLabel("")
	a.trialLabel = widget.NewLabel("")
	a.progress = widget.NewProgressBar()
	a.volume = widget.NewProgressBar()
	a.volume.TextFormatter = func() string { return "" }
	a.status = widget.NewLabel("")
	a.status.Wrapping = fyne.TextWrapWord
	a.hearBtn = widget.NewButton("I Can Hear It!", a.respond)
	a.hearBtn.Importance = widget.SuccessImportance
	a.hearBtn.Disable()
	restart := widget.NewButton("Restart", func() {
		go a.call(func(e *engine.Engine) error { e.Restart(); return nil })
	})

	a.test = container.NewVBox(
		container.NewGridWithColumns(3, a.earLabel, a.freqLabel, a.trialLabel),
		a.progress,
		widget.NewLabel("Volume Level"),
		a.volume,
		a.status,
		a.hearBtn,
		restart,
	)

	a.leftSummary = widget.NewLabel("")
	a.rightSummary = widget.NewLabel("")
	a.table = widget.NewLabel("")
	a.table.TextStyle = fyne.TextStyle{Monospace: true}
	a.audiogram = NewAudiogramWidget()
	a.saveBtn = widget.NewButton("💾 Save Results", a.save)
	copyBtn := widget.NewButton("Copy Summary", a.copySummary)
	again := widget.NewButton("Take Test Again", func() {
		a.window.SetContent(a.setup)
		go a.call(func(e *engine.Engine) error { e.Restart(); return nil })
	})

	a.results = container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Your Hearing Test Results", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2, a.leftSummary, a.rightSummary),
		widget.NewLabelWithStyle("Hearing Threshold Chart", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.audiogram,
		widget.NewLabelWithStyle("Detailed Results", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.table,
		container.NewHBox(a.saveBtn, copyBtn, again),
	))
}

const setupText = `## ⚠️ Important Setup Instructions

**Please wear headphones before starting this test.** Headphones are essential to:

- Block ambient noise interference
- Ensure accurate left/right ear testing
- Provide precise frequency control

### How the test works:

- You'll hear tones at different frequencies
- Each tone starts very quietly and gradually increases
- Click "I can hear it" (or press space) as soon as you detect the sound
- We'll test both ears separately
- The test takes about 5-10 minutes

### Volume Check

First, let's calibrate your volume level:
`

// call runs an engine operation off the UI goroutine; engine callbacks
// re-enter the UI via fyne.Do.
func (a *App) call(fn func(e *engine.Engine) error) {
	eng := a.currentEngine()
	if eng == nil {
		return
	}
	if err := fn(eng); err != nil {
		log.Warnf("gui action failed: %v", err)
		fyne.Do(func() { dialog.ShowError(err, a.window) })
	}
}

func (a *App) respond() {
	go a.call(func(e *engine.Engine) error { e.Respond(); return nil })
}

func (a *App) save() {
	a.mu.Lock()
	rs, dir, format := a.result, a.outDir, a.format
	a.mu.Unlock()
	if rs == nil {
		return
	}
	a.saveBtn.Disable()
	go func() {
		path, err := report.Save(dir, rs, time.Now(), format)
		if err != nil {
			log.Errorf("report save failed: %v", err)
			fyne.Do(func() {
				a.saveBtn.Enable()
				dialog.ShowError(err, a.window)
			})
			return
		}
		log.ReportSaved(path, string(format))
		fyne.Do(func() { a.saveBtn.SetText("✅ Results Saved!") })
		time.AfterFunc(savedNotice, func() {
			fyne.Do(func() {
				a.saveBtn.SetText("💾 Save Results")
				a.saveBtn.Enable()
			})
		})
	}()
}

func (a *App) copySummary() {
	a.mu.Lock()
	rs := a.result
	a.mu.Unlock()
	if rs == nil {
		return
	}
	if err := clipboard.Copy(engine.Summarize(rs).Text()); err != nil {
		dialog.ShowError(err, a.window)
	}
}

// Presenter implementation. The engine holds its lock while calling these,
// so all widget work is deferred with fyne.Do.

func (a *App) Progress(p engine.Progress) {
	fyne.Do(func() {
		switch {
		case p.State.Running():
			if a.window.Content() != a.test {
				a.window.SetContent(a.test)
			}
			a.earLabel.SetText("Testing: " + p.Ear.Title())
			a.freqLabel.SetText(fmt.Sprintf("Frequency: %d Hz", p.FrequencyHz))
			a.trialLabel.SetText(fmt.Sprintf("Test %d of %d", p.Trial, engine.TotalTrials))
			a.progress.SetValue(p.Percent / 100)
			a.volume.SetValue(p.Volume / engine.MaxVolume)
			a.status.SetText(p.Status)
			if p.CanRespond {
				a.hearBtn.Enable()
			} else {
				a.hearBtn.Disable()
			}
		case p.State == engine.Idle:
			if a.window.Content() == a.test {
				a.window.SetContent(a.setup)
			}
			if p.Calibrating {
				a.calibrateBtn.Disable()
			} else {
				a.calibrateBtn.Enable()
			}
		}
	})
}

func (a *App) Complete(rs engine.ResultSet) {
	a.mu.Lock()
	a.result = rs
	a.mu.Unlock()

	s := engine.Summarize(rs)
	earText := func(e engine.EarSummary) string {
		return fmt.Sprintf("%s\nAverage Threshold: %s dB HL\n%s",
			e.Ear.Title(), engine.FormatDB(e.AverageDB), strings.ToUpper(e.Status.Label()))
	}
	var table strings.Builder
	fmt.Fprintf(&table, "%-15s %-17s %-17s\n", "Frequency (Hz)", "Left Ear (dB HL)", "Right Ear (dB HL)")
	for _, f := range engine.Frequencies {
		l, _ := s.Left.Result(f)
		r, _ := s.Right.Result(f)
		fmt.Fprintf(&table, "%-15d %-17s %-17s\n", f, cellText(l), cellText(r))
	}
	table.WriteString("* No response at maximum safe volume")

	fyne.Do(func() {
		a.leftSummary.SetText(earText(s.Left))
		a.rightSummary.SetText(earText(s.Right))
		a.table.SetText(table.String())
		a.audiogram.SetResults(rs)
		a.window.SetContent(a.results)
	})
}

func (a *App) Failed(err error) {
	fyne.Do(func() {
		a.window.SetContent(a.setup)
		dialog.ShowError(err, a.window)
	})
}

func cellText(r engine.TrialResult) string {
	v := engine.FormatDB(r.HearingLevelDB)
	if r.NoResponse {
		v += "*"
	}
	return v
}
