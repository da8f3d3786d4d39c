package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"charsheet/internal/persistence"
	"charsheet/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Backup Service — scheduled snapshot copies and restore
// ─────────────────────────────────────────────────────────────

const (
	DefaultBackupSchedule = "@every 15m"
	DefaultBackupKeep     = 20

	jobSnapshot = "snapshot"
)

var ErrNoSnapshot = errors.New("no snapshot to back up")

// BackupService copies the persisted snapshot into the backup table on a
// cron schedule and restores old copies into the SheetStore.
type BackupService struct {
	backups *storage.BackupStore
	persist *persistence.Adapter
	store   *SheetStore
	emitter EventEmitter
	log     *zap.Logger
	keep    int

	guard jobGuard

	mu        sync.Mutex
	cronSched *cron.Cron
}

// NewBackupService creates a BackupService. keep <= 0 uses DefaultBackupKeep.
func NewBackupService(
	backups *storage.BackupStore,
	persist *persistence.Adapter,
	store *SheetStore,
	keep int,
	emitter EventEmitter,
	logger *zap.Logger,
) *BackupService {
	if keep <= 0 {
		keep = DefaultBackupKeep
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		backups: backups,
		persist: persist,
		store:   store,
		emitter: emitter,
		log:     logger.Named("backup"),
		keep:    keep,
	}
}

// Start schedules Snapshot with a cron expression (robfig syntax, so
// "@every 15m" and "@hourly" work). An empty schedule uses the default.
func (s *BackupService) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultBackupSchedule
	}
	s.Stop()

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		b, err := s.Snapshot(ctx)
		switch {
		case err != nil && !errors.Is(err, ErrNoSnapshot):
			s.log.Warn("scheduled backup failed", zap.Error(err))
		case b != nil:
			s.log.Debug("scheduled backup written", zap.String("id", b.ID), zap.Int("bytes", b.Size))
		}
	})
	if err != nil {
		return fmt.Errorf("backup schedule %q: %w", schedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cronSched = c
	s.mu.Unlock()
	s.log.Info("backups scheduled", zap.String("schedule", schedule), zap.Int("keep", s.keep))
	return nil
}

// Stop cancels the schedule and waits for a running backup to finish.
func (s *BackupService) Stop() {
	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.guard.Wait(ctx)
}

// Snapshot copies the slot's current bytes into a new backup, then prunes
// down to the retention count. It returns nil without error when the slot
// is unchanged since the newest backup, or when another run is in progress.
func (s *BackupService) Snapshot(ctx context.Context) (*storage.Backup, error) {
	if !s.guard.TryLock(jobSnapshot) {
		return nil, nil
	}
	defer s.guard.Unlock(jobSnapshot)

	s.store.Flush()
	raw, err := s.persist.Raw()
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	if raw == nil {
		return nil, ErrNoSnapshot
	}

	latest, err := s.backups.Latest(s.persist.Key())
	if err != nil {
		return nil, fmt.Errorf("latest backup: %w", err)
	}
	if bytes.Equal(latest, raw) {
		return nil, nil
	}

	b, err := s.backups.Put(s.persist.Key(), raw)
	if err != nil {
		return nil, err
	}
	pruned, err := s.backups.Prune(s.persist.Key(), s.keep)
	if err != nil {
		s.log.Warn("prune failed", zap.Error(err))
	} else if pruned > 0 {
		s.log.Debug("pruned backups", zap.Int("count", pruned))
	}

	s.emitter.Emit(ctx, EventBackupCreated, b)
	return b, nil
}

// List returns the backups of the sheet slot, newest first.
func (s *BackupService) List() ([]storage.Backup, error) {
	return s.backups.List(s.persist.Key())
}

// Restore decodes backup id (migrating it if it predates the current
// format) and commits it as the current sheet.
func (s *BackupService) Restore(id string) error {
	raw, err := s.backups.Get(id)
	if err != nil {
		return err
	}
	state, err := s.persist.Import(raw)
	if err != nil {
		return fmt.Errorf("restore backup %s: %w", id, err)
	}
	s.store.Replace(state)
	s.log.Info("backup restored", zap.String("id", id))
	return nil
}
