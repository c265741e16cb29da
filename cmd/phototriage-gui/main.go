// phototriage-gui is the graphical review surface for the triage engine.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"phototriage/cmd/phototriage-gui/internal/theme"
	"phototriage/cmd/phototriage-gui/internal/ui"
	"phototriage/internal/config"
	"phototriage/internal/journal"
	"phototriage/internal/library"
	"phototriage/internal/logging"
	"phototriage/internal/notify"
	"phototriage/internal/tagstore"
	"phototriage/internal/triage"
)

var (
	configPath  = flag.String("config", "", "path to config file")
	libraryRoot = flag.String("library", "", "override the library root directory")
)

func main() {
	flag.Parse()

	cfg, _, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *libraryRoot != "" {
		cfg.Library.Root = *libraryRoot
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing data directories: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(&logging.Config{
		Level:    level,
		Format:   format,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	defer logging.DefaultCrashHandler().RecoverAndLog()

	store := tagstore.Open(cfg.Store.Path, tagstore.Options{
		QuietPeriod: time.Duration(cfg.Store.QuietPeriodMs) * time.Millisecond,
		Logger:      logger.Logger,
	})
	<-store.Ready()

	lib := library.NewDirLibrary(cfg.Library.Root, store, logger.Logger)
	if err := lib.Scan(); err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning library %s: %v\n", cfg.Library.Root, err)
		os.Exit(1)
	}

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		jrnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		defer jrnl.Close()
	}

	coord := triage.New(lib, store, triage.Options{
		Journal: jrnl,
		Logger:  logger.Logger,
	})
	defer coord.Close()

	if cfg.Notify.Enabled {
		notifier := notify.New("phototriage", logger.Logger)
		defer notifier.Close()
		coord.SetNotify(notifier.Send)
	}

	watcher, err := library.NewWatcher(cfg.Library.Root,
		time.Duration(cfg.Library.WatchDebounceMs)*time.Millisecond)
	if err != nil {
		logger.Warn("library watcher unavailable", "err", err)
	} else if err := watcher.Start(); err != nil {
		logger.Warn("library watcher failed to start", "err", err)
		watcher = nil
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("Phototriage"))
		w.Option(app.Size(unit.Dp(1100), unit.Dp(800)))

		if err := loop(w, cfg, lib, coord, watcher); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, cfg *config.Config, lib *library.DirLibrary, coord *triage.Coordinator, watcher *library.Watcher) error {
	// uiCalls marshals timer callbacks onto the frame loop; each enqueue
	// also requests a frame so the call runs promptly.
	uiCalls := make(chan func(), 16)
	execute := func(f func()) {
		uiCalls <- f
		w.Invalidate()
	}

	t := theme.NewTheme(material.NewTheme())
	a := ui.NewApp(t, cfg, lib, coord, execute, w.Invalidate)

	if watcher != nil {
		go func() {
			for range watcher.Changes() {
				execute(a.Refresh)
			}
		}()
	}

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			for {
				select {
				case f := <-uiCalls:
					f()
					continue
				default:
				}
				break
			}

			gtx := app.NewContext(&ops, e)
			a.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
