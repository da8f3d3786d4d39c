package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charsheet/internal/domain"
	"charsheet/internal/persistence"
	"charsheet/internal/service"
	"charsheet/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// JobGuard tests
// ─────────────────────────────────────────────────────────────

func TestJobGuard_TryLock(t *testing.T) {
	var g service.ExportedJobGuard

	if !g.TryLock("snapshot") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("snapshot") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("restore") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	g.Unlock("snapshot")
	g.Unlock("restore")
	g.Unlock("restore") // extra unlock is ignored

	if !g.TryLock("snapshot") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("snapshot")
}

func TestJobGuard_Wait(t *testing.T) {
	var g service.ExportedJobGuard
	if !g.TryLock("snapshot") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.Wait(ctx)
		close(done)
	}()
	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("snapshot")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventSheetChanged, map[string]string{"op": "reset"})
	m.Emit(ctx, service.EventPersistFailed, nil)
	m.Emit(ctx, service.EventSheetChanged, nil)

	if len(m.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.Events))
	}
	if got := len(m.Named(service.EventSheetChanged)); got != 2 {
		t.Errorf("expected 2 %s events, got %d", service.EventSheetChanged, got)
	}
	m.Reset()
	if len(m.Events) != 0 {
		t.Errorf("expected no events after Reset, got %d", len(m.Events))
	}
}

// ─────────────────────────────────────────────────────────────
// BackupService tests, backed by a real SQLite file
// ─────────────────────────────────────────────────────────────

type backupHarness struct {
	store   *service.SheetStore
	backups *service.BackupService
	emitter *service.MockEmitter
}

func newBackupHarness(t *testing.T, keep int) *backupHarness {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "charsheet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	adapter := persistence.NewAdapter(storage.NewSQLiteSlot(db), persistence.SlotKey, nil)
	store := service.NewSheetStore(adapter, emitter, nil)
	t.Cleanup(store.Close)

	svc := service.NewBackupService(storage.NewBackupStore(db), adapter, store, keep, emitter, nil)
	t.Cleanup(svc.Stop)
	return &backupHarness{store: store, backups: svc, emitter: emitter}
}

func TestBackupService_NothingToBackUp(t *testing.T) {
	h := newBackupHarness(t, 5)
	_, err := h.backups.Snapshot(context.Background())
	assert.ErrorIs(t, err, service.ErrNoSnapshot)
}

func TestBackupService_SnapshotSkipsUnchanged(t *testing.T) {
	h := newBackupHarness(t, 5)
	ctx := context.Background()
	h.store.SetSheetName("Aragorn")

	first, err := h.backups.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	again, err := h.backups.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, again, "identical slot is not backed up twice")

	list, err := h.backups.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, h.emitter.Named(service.EventBackupCreated), 1)
}

func TestBackupService_PrunesToKeep(t *testing.T) {
	h := newBackupHarness(t, 2)
	ctx := context.Background()
	for _, name := range []string{"one", "two", "three"} {
		h.store.SetSheetName(name)
		_, err := h.backups.Snapshot(ctx)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := h.backups.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBackupService_Restore(t *testing.T) {
	h := newBackupHarness(t, 5)
	ctx := context.Background()

	h.store.SetSheetName("Before")
	id := h.store.AddBlock(domain.BlockTypeShape, &domain.BlockConfig{ShapeType: domain.ShapeHeart})
	b, err := h.backups.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, b)

	h.store.Reset()
	require.NoError(t, h.backups.Restore(b.ID))

	got := h.store.Snapshot()
	assert.Equal(t, "Before", got.SheetName)
	blk, ok := got.Block(id)
	require.True(t, ok)
	assert.Equal(t, domain.ShapeHeart, blk.Config.ShapeType)
}

func TestBackupService_RestoreUnknown(t *testing.T) {
	h := newBackupHarness(t, 5)
	assert.Error(t, h.backups.Restore("missing"))
}

func TestBackupService_StartRejectsBadSchedule(t *testing.T) {
	h := newBackupHarness(t, 5)
	assert.Error(t, h.backups.Start(context.Background(), "every now and then"))
	require.NoError(t, h.backups.Start(context.Background(), ""))
	h.backups.Stop()
	h.backups.Stop()
}

// ─────────────────────────────────────────────────────────────
// WindowSettingsService tests
// ─────────────────────────────────────────────────────────────

func TestWindowSettings_DefaultsAndRoundTrip(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "charsheet.db"))
	require.NoError(t, err)
	defer db.Close()
	svc := service.NewWindowSettingsService(db)

	assert.Equal(t, service.WindowSize{Width: service.DefaultWindowWidth, Height: service.DefaultWindowHeight}, svc.LoadWindowSize())

	require.NoError(t, svc.SaveWindowSize(1600, 1000))
	assert.Equal(t, service.WindowSize{Width: 1600, Height: 1000}, svc.LoadWindowSize())

	require.NoError(t, svc.SaveWindowSize(300, 200))
	assert.Equal(t, service.WindowSize{Width: service.DefaultWindowWidth, Height: service.DefaultWindowHeight}, svc.LoadWindowSize(),
		"sizes below the minimum fall back to defaults")
}

func TestWindowSettings_NilDB(t *testing.T) {
	svc := service.NewWindowSettingsService(nil)
	assert.Equal(t, service.DefaultWindowWidth, svc.LoadWindowSize().Width)
	assert.Error(t, svc.SaveWindowSize(1, 1))
}
