package app

import (
	"context"

	"charsheet/internal/config"
	"charsheet/internal/logging"
	"charsheet/internal/service"
)

// OpenHeadless opens the sheet storage without a window, for command line
// use. The returned App serves the same bindings the frontend calls, except
// the file dialogs. Call closeFn when done; it flushes the last write.
func OpenHeadless(ctx context.Context, cfgPath string) (a *App, closeFn func(), err error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	c, err := openCore(cfg, logger, service.NoopEmitter{})
	if err != nil {
		return nil, nil, err
	}
	a = &App{ctx: ctx, cfgPath: cfgPath, log: logger, core: c}
	return a, c.Close, nil
}
