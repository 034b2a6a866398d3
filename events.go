package main

import "earcheck/engine"

// tuiPresenter forwards engine events into the Bubble Tea program.
type tuiPresenter struct{}

func (tuiPresenter) Progress(p engine.Progress) {
	tuiSend(ProgressMsg{p})
}

func (tuiPresenter) Complete(rs engine.ResultSet) {
	tuiSend(CompleteMsg{Results: rs})
}

func (tuiPresenter) Failed(err error) {
	tuiSend(FailedMsg{Err: err})
}
