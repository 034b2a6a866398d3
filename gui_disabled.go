//go:build !gui

package main

import (
	"earcheck/engine"
	"earcheck/report"
)

// Stubs for non-GUI builds (these are never used since guiMode is false)
func initGUI() {
	panic("earcheck: built without GUI support (rebuild with -tags gui)")
}

func guiPresenter() engine.Presenter { return nil }

func guiAttach(*engine.Engine, string, report.Format) {}

func guiQuit() {}
