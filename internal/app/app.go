package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andrewrjohn/clipboard-plus/internal/clipboard"
	"github.com/andrewrjohn/clipboard-plus/internal/config"
	"github.com/andrewrjohn/clipboard-plus/internal/contentstore"
	"github.com/andrewrjohn/clipboard-plus/internal/database"
	"github.com/andrewrjohn/clipboard-plus/internal/history"
)

// Build-time variables (set by GoReleaser)
var (
	Version   = "0.0.0-dev" // Will be replaced by -ldflags
	BuildDate = "unknown"   // Will be replaced by -ldflags
	GitCommit = "unknown"   // Will be replaced by -ldflags
)

const (
	AppName = "Clipboard Plus"

	updateCheckDelay = 5 * time.Second
)

type Options struct {
	// Clipboard attaches the OS clipboard. Commands that only read or delete
	// history can run without it, e.g. on a headless machine.
	Clipboard bool
}

type ClipboardApp struct {
	config     *config.Config
	repository *database.Repository
	images     contentstore.Store
	system     *clipboard.System
	history    *history.Service
	monitor    *clipboard.Monitor

	updateChecker *UpdateChecker
}

func New(cfg *config.Config, opts Options) (*ClipboardApp, error) {
	a := &ClipboardApp{config: cfg}

	if err := a.initialize(opts); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, nil
}

func (a *ClipboardApp) initialize(opts Options) error {
	if err := a.initDatabase(); err != nil {
		return err
	}
	if err := a.initImageStore(); err != nil {
		return err
	}
	if opts.Clipboard {
		system, err := clipboard.NewSystem()
		if err != nil {
			return err
		}
		a.system = system
	}
	a.initServices()
	return nil
}

func (a *ClipboardApp) initDatabase() error {
	repo, err := database.NewRepository(a.config.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.repository = repo
	return nil
}

func (a *ClipboardApp) initImageStore() error {
	switch a.config.ImageStore {
	case config.ImageStoreBolt:
		store, err := contentstore.NewBoltStore(a.config.ImagesDBPath())
		if err != nil {
			return fmt.Errorf("failed to initialize image store: %w", err)
		}
		a.images = store
	default:
		a.images = contentstore.NewFileStore(a.config.ImagesDir())
	}
	return nil
}

func (a *ClipboardApp) initServices() {
	opts := history.Options{PruneImages: a.config.PruneImages}
	if a.system != nil {
		opts.Clipboard = a.system
	}
	a.history = history.NewService(a.repository, a.images, opts)

	if a.system != nil {
		watcher := clipboard.NewSystemWatcher(a.system, time.Duration(a.config.MonitorInterval)*time.Millisecond)
		apps := clipboard.NewAppLocator(a.config.SourceAppCommand)
		a.monitor = clipboard.NewMonitor(a.system, apps, watcher, a.history, a.config.Verbose)
	}
}

// Run starts background services and blocks until ctx is done.
func (a *ClipboardApp) Run(ctx context.Context) error {
	if a.monitor == nil {
		return fmt.Errorf("clipboard monitoring requires the OS clipboard")
	}

	cancel := a.history.Subscribe(func() {
		if a.config.Verbose {
			log.Println("History changed")
		}
	})
	defer cancel()

	if err := a.monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start clipboard monitor: %w", err)
	}

	if a.config.RetentionDays > 0 {
		go a.startCleanupRoutine(ctx)
	}

	if a.config.CheckUpdatesOnStartup {
		a.updateChecker = NewUpdateChecker()
		go func() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(updateCheckDelay):
			}
			a.updateChecker.LogAvailableUpdate(ctx)
		}()
	}

	log.Printf("%s %s started, data in %s", AppName, Version, a.config.DataDir)

	<-ctx.Done()
	a.monitor.Wait()
	log.Printf("%s shutdown complete", AppName)
	return nil
}

func (a *ClipboardApp) startCleanupRoutine(ctx context.Context) {
	a.purgeExpired(ctx)

	ticker := time.NewTicker(time.Duration(a.config.CleanupIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.purgeExpired(ctx)
		}
	}
}

func (a *ClipboardApp) purgeExpired(ctx context.Context) {
	removed, err := a.history.PurgeOlderThan(ctx, a.config.RetentionDays)
	if err != nil {
		log.Printf("Cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Removed %d clipboard items older than %d days", removed, a.config.RetentionDays)
	}
}

func (a *ClipboardApp) History() *history.Service {
	return a.history
}

// Clipboard is nil unless the app was created with Options.Clipboard.
func (a *ClipboardApp) Clipboard() *clipboard.System {
	return a.system
}

func (a *ClipboardApp) Config() *config.Config {
	return a.config
}

func (a *ClipboardApp) Close() error {
	var firstErr error
	if a.images != nil {
		if err := a.images.Close(); err != nil {
			firstErr = err
		}
	}
	if a.repository != nil {
		if err := a.repository.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
