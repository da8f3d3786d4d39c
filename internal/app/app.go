package app

import (
	"context"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"charsheet/internal/config"
	"charsheet/internal/logging"
	"charsheet/internal/service"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfgPath string
	log     *zap.Logger

	core    *core
	window  *service.WindowSettingsService
	watcher *sheetWatcher
}

// New creates a new App that reads its settings from cfgPath.
func New(cfgPath string) *App {
	return &App{cfgPath: cfgPath, log: zap.NewNop()}
}

// wailsEmitter implements service.EventEmitter by forwarding to the Wails
// runtime. It is not a method on App so Wails does not bind it.
type wailsEmitter struct{ app *App }

// Emit drops events raised before the window exists.
func (e wailsEmitter) Emit(_ context.Context, event string, data any) {
	if e.app.ctx == nil {
		return
	}
	wailsRuntime.EventsEmit(e.app.ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to load config %s: %v, using defaults", a.cfgPath, err)
		cfg = config.Defaults()
	}
	a.log = logging.Must(cfg.Logging)

	c, err := openCore(cfg, a.log, wailsEmitter{a})
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open sheet storage: %v", err)
		return
	}
	a.core = c

	a.window = service.NewWindowSettingsService(c.db)
	size := a.window.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	if cfg.BackupsEnabled() {
		if err := c.backups.Start(a.ctx, cfg.Backup.Schedule); err != nil {
			a.log.Warn("backups disabled", zap.Error(err))
		}
	}

	a.watcher = newSheetWatcher(a.ctx, a.log, func(event string, data any) {
		wailsEmitter{a}.Emit(a.ctx, event, data)
	})
	a.watcher.reload = c.store.Reload
	a.watcher.approvals = c.approvals
	if c.fileSlot != nil {
		if err := c.fileSlot.Watch(a.ctx, cfg.Storage.SlotKey, a.watcher.onFileChange); err != nil {
			a.log.Warn("file watch unavailable", zap.Error(err))
		}
	} else {
		a.watcher.fingerprint = c.fingerprint
	}
	a.watcher.Start()

	a.log.Info("editor started", zap.String("config", a.cfgPath))
}

// BeforeClose saves the window size. Returning false lets the window close.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.window == nil {
		return false
	}
	w, h := wailsRuntime.WindowGetSize(ctx)
	if err := a.window.SaveWindowSize(w, h); err != nil {
		a.log.Debug("save window size", zap.Error(err))
	}
	return false
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.core != nil {
		a.core.Close()
	}
}
