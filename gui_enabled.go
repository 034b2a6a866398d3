//go:build gui

package main

import (
	"runtime"

	"earcheck/engine"
	"earcheck/gui"
	"earcheck/report"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
	gracefulShutdown()
}

func guiPresenter() engine.Presenter {
	return guiApp
}

func guiAttach(eng *engine.Engine, outDir string, format report.Format) {
	guiApp.Attach(eng, outDir, format)
}

func guiQuit() {
	if guiApp != nil {
		guiApp.Quit()
	}
}
