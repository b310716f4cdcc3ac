package main

import (
	"flag"
	"fmt"
	"os"
	"sync/atomic"

	"curve-digitizer/internal/algorithms/catalog"
	"curve-digitizer/internal/gui"
	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/shutdown"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const AppVersion = "1.0.0"

func main() {
	logLevel := flag.String("log-level", "", "debug, info, warn, error or disabled")
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "curve-digitizer-gui: %v\n", err)
		os.Exit(2)
	}
	log := logger.NewConsoleLogger(logger.LevelFromEnv(level))

	shutdownManager := shutdown.NewManager(log)
	shutdownManager.Listen()

	fyneApp := app.NewWithID(gui.AppID)
	fyneApp.SetMetadata(&fyne.AppMetadata{
		ID:      gui.AppID,
		Name:    gui.AppName,
		Version: AppVersion,
	})

	application, err := gui.NewApplication(shutdownManager.Context(), fyneApp, catalog.NewManager(), log)
	if err != nil {
		log.Error("Main", err, nil)
		os.Exit(1)
	}
	// Components stop in reverse order: cancel work first, then close the UI.
	var running atomic.Bool
	running.Store(true)
	shutdownManager.Register(shutdown.Func(func() {
		if running.Load() {
			fyne.Do(fyneApp.Quit)
		}
	}))
	shutdownManager.Register(application)

	log.Info("Main", "starting", map[string]interface{}{
		"version": AppVersion,
	})

	application.Show()
	fyneApp.Run()
	running.Store(false)

	shutdownManager.Shutdown()
}
