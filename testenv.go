package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"earcheck/clipboard"
	"earcheck/engine"
	"earcheck/log"
	"earcheck/report"
	"earcheck/tone"
)

// linePresenter prints engine events as single lines for the integration
// harness. Per-tick progress with an unchanged status is suppressed.
type linePresenter struct {
	mu      sync.Mutex
	last    string
	results engine.ResultSet
}

func (p *linePresenter) Progress(pr engine.Progress) {
	line := fmt.Sprintf("PROGRESS state=%s ear=%s freq=%d trial=%d status=%q",
		pr.State, pr.Ear, pr.FrequencyHz, pr.Trial, pr.Status)
	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.last {
		return
	}
	p.last = line
	fmt.Println(line)
}

func (p *linePresenter) Complete(rs engine.ResultSet) {
	s := engine.Summarize(rs)
	p.mu.Lock()
	p.results = rs
	p.mu.Unlock()
	fmt.Printf("COMPLETE left=%s (%s) right=%s (%s)\n",
		engine.FormatDB(s.Left.AverageDB), s.Left.Status.Label(),
		engine.FormatDB(s.Right.AverageDB), s.Right.Status.Label())
}

func (p *linePresenter) Failed(err error) {
	fmt.Printf("FAILED %v\n", err)
}

func (p *linePresenter) lastResults() engine.ResultSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// runTestMode drives the engine from stdin against a silent player and a
// manual clock so a whole run completes in milliseconds.
func runTestMode(outDir string, format report.Format) {
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.SessionStart("fake", "test")

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := engine.NewManualClock(start)
	player := tone.NewFake()
	presenter := &linePresenter{}
	eng := engine.New(player, engine.WithClock(clock), engine.WithPresenter(presenter))
	defer eng.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "START":
			if err := eng.Start(); err != nil {
				fmt.Printf("ERROR %v\n", err)
			}
		case "CALIBRATE":
			if err := eng.Calibrate(); err != nil {
				fmt.Printf("ERROR %v\n", err)
			}
		case "HEAR":
			fmt.Printf("HEAR accepted=%t\n", eng.Respond())
		case "ADVANCE":
			if len(fields) < 2 {
				fmt.Println("ERROR ADVANCE needs milliseconds")
				continue
			}
			ms, err := strconv.Atoi(fields[1])
			if err != nil || ms < 0 {
				fmt.Printf("ERROR bad duration %q\n", fields[1])
				continue
			}
			clock.Advance(time.Duration(ms) * time.Millisecond)
		case "RESTART":
			eng.Restart()
		case "SAVE":
			rs := presenter.lastResults()
			if rs == nil {
				fmt.Println("ERROR no completed run")
				continue
			}
			path, err := report.Save(outDir, rs, clock.Now(), format)
			if err != nil {
				fmt.Printf("ERROR %v\n", err)
				continue
			}
			log.ReportSaved(path, string(format))
			fmt.Printf("SAVED %s\n", path)
		case "COPY":
			rs := presenter.lastResults()
			if rs == nil {
				fmt.Println("ERROR no completed run")
				continue
			}
			if err := clipboard.Copy(engine.Summarize(rs).Text()); err != nil {
				fmt.Printf("ERROR %v\n", err)
				continue
			}
			fmt.Println("COPIED")
		case "STATUS":
			s := eng.Snapshot()
			fmt.Printf("STATUS state=%s ear=%s index=%d volume=%.3f results=%d\n",
				s.State, s.Ear, s.FrequencyIndex, s.Volume, s.Results.Len())
		case "QUIT":
			return
		default:
			fmt.Printf("ERROR unknown command %q\n", fields[0])
		}
	}
}
