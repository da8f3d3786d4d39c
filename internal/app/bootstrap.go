package app

import (
	"fmt"

	"go.uber.org/zap"

	"charsheet/internal/config"
	"charsheet/internal/domain"
	"charsheet/internal/layout"
	"charsheet/internal/persistence"
	"charsheet/internal/service"
	"charsheet/internal/storage"
)

// core is what the editor window and the standalone MCP process share:
// storage, the sheet store and its satellites.
type core struct {
	cfg *config.Config
	log *zap.Logger

	db         *storage.DB
	slot       domain.SlotStore
	sqliteSlot *storage.SQLiteSlot // set for the sqlite backend
	fileSlot   *storage.FileSlot   // set for the file backend

	persist   *persistence.Adapter
	store     *service.SheetStore
	backups   *service.BackupService
	approvals *storage.ApprovalStore
	engine    *layout.Engine
}

// openCore opens the database and slot named by cfg and loads the sheet.
// The database is opened for both backends: backups, approvals and window
// settings always live there.
func openCore(cfg *config.Config, logger *zap.Logger, emitter service.EventEmitter) (*core, error) {
	db, err := storage.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	c := &core{
		cfg:       cfg,
		log:       logger,
		db:        db,
		approvals: storage.NewApprovalStore(db),
		engine:    layout.NewEngine(cfg.Grid.Cols),
	}

	switch cfg.Storage.Backend {
	case config.BackendFile:
		fs, err := storage.NewFileSlot(cfg.SlotDir())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open slot directory: %w", err)
		}
		c.fileSlot = fs
		c.slot = fs
	default:
		c.sqliteSlot = storage.NewSQLiteSlot(db)
		c.slot = c.sqliteSlot
	}

	c.persist = persistence.NewAdapter(c.slot, cfg.Storage.SlotKey, logger)
	c.store = service.NewSheetStore(c.persist, emitter, logger)
	c.backups = service.NewBackupService(storage.NewBackupStore(db), c.persist, c.store, cfg.Backup.Keep, emitter, logger)

	logger.Info("sheet storage ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("db", cfg.DBPath()),
		zap.String("slot", cfg.Storage.SlotKey),
	)
	return c, nil
}

// fingerprint changes whenever the slot is written, by any process.
func (c *core) fingerprint() (string, error) {
	if c.sqliteSlot != nil {
		return c.sqliteSlot.Fingerprint(c.cfg.Storage.SlotKey)
	}
	return "", nil
}

// Close stops background work, flushes the last snapshot and closes the
// database.
func (c *core) Close() {
	c.backups.Stop()
	c.store.Close()
	if err := c.db.Close(); err != nil {
		c.log.Warn("close database", zap.Error(err))
	}
	_ = c.log.Sync()
}
