package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"charsheet/internal/config"
	"charsheet/internal/logging"
	mcpserver "charsheet/internal/mcp"
	"charsheet/internal/service"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It shares the editor's storage; destructive tools wait for the editor
// window to approve them unless auto_approve is set.
func ServeMCP(cfgPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	c, err := openCore(cfg, logger, service.NoopEmitter{})
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(ctx, mcpserver.Deps{
		Store:       c.store,
		Engine:      c.engine,
		Emitter:     service.NoopEmitter{},
		Logger:      logger,
		Approvals:   c.approvals, // Enable SQLite-based approval IPC
		AutoApprove: cfg.MCP.AutoApprove,
	})

	logger.Info("standalone mcp server", zap.String("config", cfgPath), zap.Bool("autoApprove", cfg.MCP.AutoApprove))
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
