package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"charsheet/internal/config"
	"charsheet/internal/domain"
	mcpserver "charsheet/internal/mcp"
	"charsheet/internal/service"
	"charsheet/internal/storage"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Backend = backend
	return cfg
}

func openTestCore(t *testing.T, cfg *config.Config) *core {
	t.Helper()
	c, err := openCore(cfg, zap.NewNop(), service.NoopEmitter{})
	require.NoError(t, err)
	return c
}

// testApp is an App with storage open but no Wails runtime behind it.
func testApp(t *testing.T) *App {
	t.Helper()
	c := openTestCore(t, testConfig(t, config.BackendSQLite))
	t.Cleanup(c.Close)
	return &App{log: zap.NewNop(), core: c}
}

// ─────────────────────────────────────────────────────────────
// Bootstrap
// ─────────────────────────────────────────────────────────────

func TestOpenCore_SharesSheetAcrossProcesses(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)

			editor := openTestCore(t, cfg)
			editor.store.SetSheetName("Gimli")
			editor.Close()

			agent := openTestCore(t, cfg)
			defer agent.Close()
			assert.Equal(t, "Gimli", agent.store.Snapshot().SheetName)
		})
	}
}

func TestOpenCore_SeedsEmptyStorage(t *testing.T) {
	c := openTestCore(t, testConfig(t, config.BackendSQLite))
	defer c.Close()
	assert.Equal(t, domain.DefaultSheetState().SheetName, c.store.Snapshot().SheetName)
	assert.Equal(t, 12, c.engine.Cols())
}

func TestCore_FingerprintFollowsWrites(t *testing.T) {
	c := openTestCore(t, testConfig(t, config.BackendSQLite))
	defer c.Close()

	c.store.SetSheetName("one")
	c.store.Flush()
	first, err := c.fingerprint()
	require.NoError(t, err)

	c.store.SetSheetName("two")
	c.store.Flush()
	second, err := c.fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

// ─────────────────────────────────────────────────────────────
// Watcher
// ─────────────────────────────────────────────────────────────

type recorder struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (r *recorder) emit(event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestSheetWatcher_ReloadsOnFingerprintChange(t *testing.T) {
	rec := &recorder{}
	w := newSheetWatcher(context.Background(), zap.NewNop(), rec.emit)

	fp := "a"
	reloads := 0
	w.fingerprint = func() (string, error) { return fp, nil }
	w.reload = func() bool { reloads++; return true }

	w.checkSlot() // first observation only records the fingerprint
	assert.Equal(t, 0, reloads)

	w.checkSlot()
	assert.Equal(t, 0, reloads, "unchanged fingerprint")

	fp = "b"
	w.checkSlot()
	assert.Equal(t, 1, reloads)
	assert.Equal(t, 1, rec.count(EventMCPActivity))
}

func TestSheetWatcher_NoActivityWhenReloadFindsNothing(t *testing.T) {
	rec := &recorder{}
	w := newSheetWatcher(context.Background(), zap.NewNop(), rec.emit)
	w.reload = func() bool { return false }
	w.onFileChange()
	assert.Equal(t, 0, rec.count(EventMCPActivity))
}

func TestSheetWatcher_PicksUpAgentEdits(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	editor := openTestCore(t, cfg)
	defer editor.Close()
	agent := openTestCore(t, cfg)
	defer agent.Close()

	rec := &recorder{}
	w := newSheetWatcher(context.Background(), zap.NewNop(), rec.emit)
	w.fingerprint = editor.fingerprint
	w.reload = editor.store.Reload
	w.checkSlot()

	agent.store.SetSheetName("Written by agent")
	agent.store.Flush()
	w.checkSlot()

	assert.Equal(t, "Written by agent", editor.store.Snapshot().SheetName)
	assert.Equal(t, 1, rec.count(EventMCPActivity))
}

func TestSheetWatcher_EmitsEachApprovalOnce(t *testing.T) {
	c := openTestCore(t, testConfig(t, config.BackendSQLite))
	defer c.Close()
	require.NoError(t, c.approvals.Insert("act-1", "reset_sheet", "Reset the sheet", "{}"))

	rec := &recorder{}
	w := newSheetWatcher(context.Background(), zap.NewNop(), rec.emit)
	w.approvals = c.approvals

	w.checkApprovals()
	w.checkApprovals()
	require.Equal(t, 1, rec.count(mcpserver.EventApprovalRequired))
	action, ok := rec.data[0].(mcpserver.PendingAction)
	require.True(t, ok)
	assert.Equal(t, "reset_sheet", action.Tool)

	require.NoError(t, c.approvals.Resolve("act-1", true))
	w.checkApprovals()
	assert.Equal(t, 1, rec.count(mcpserver.EventApprovalDismissed))
}

func TestSheetWatcher_StopEndsLoop(t *testing.T) {
	w := newSheetWatcher(context.Background(), zap.NewNop(), func(string, any) {})
	w.interval = time.Millisecond
	w.Start()
	w.Stop()
	w.Stop()
}

// ─────────────────────────────────────────────────────────────
// Bindings
// ─────────────────────────────────────────────────────────────

func TestApp_NotReady(t *testing.T) {
	a := New("unused.yaml")
	_, err := a.GetSheet()
	assert.ErrorIs(t, err, errNotReady)
	assert.ErrorIs(t, a.SetTheme("medieval"), errNotReady)
	wailsEmitter{a}.Emit(context.Background(), "ignored", nil)
}

func TestApp_AddBlockParsesInput(t *testing.T) {
	a := testApp(t)

	_, err := a.AddBlock("hologram", "")
	assert.ErrorIs(t, err, domain.ErrUnknownBlockType)

	_, err = a.AddBlock("shape", "{not json")
	assert.Error(t, err)

	_, err = a.AddBlock("shape", `{"zIndex": "sideways"}`)
	assert.Error(t, err)

	id, err := a.AddBlock("shape", `{"shapeType": "circle", "zIndex": "back"}`)
	require.NoError(t, err)
	b, ok := a.core.store.Block(id)
	require.True(t, ok)
	assert.Equal(t, domain.ShapeCircle, b.Config.ShapeType)
	assert.Equal(t, domain.TierBack, b.Config.ZIndex)
}

func TestApp_SheetSettings(t *testing.T) {
	a := testApp(t)

	assert.ErrorIs(t, a.SetTheme("vaporwave"), domain.ErrUnknownTheme)
	require.NoError(t, a.SetTheme("cyberpunk"))
	require.NoError(t, a.SetGlobalFont("h2", "Cinzel"))
	require.NoError(t, a.SetSheetName("Legolas"))
	require.NoError(t, a.ToggleCompact())

	s, err := a.GetSheet()
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeCyberpunk, s.GlobalStyle.Theme)
	assert.Equal(t, "Cinzel", s.GlobalStyle.Fonts.H2)
	assert.Equal(t, "Legolas", s.SheetName)
	assert.True(t, s.IsCompact)
}

func TestApp_ExportImportRoundTrip(t *testing.T) {
	a := testApp(t)
	require.NoError(t, a.SetSheetName("Exported"))
	data, err := a.ExportJSON()
	require.NoError(t, err)

	require.NoError(t, a.ResetSheet())
	require.NoError(t, a.ImportJSON(data))
	s, _ := a.GetSheet()
	assert.Equal(t, "Exported", s.SheetName)

	assert.Error(t, a.ImportJSON(`{"version": 2, "state": {"blocks": "nope"}}`))
	s, _ = a.GetSheet()
	assert.Equal(t, "Exported", s.SheetName, "failed import leaves the sheet alone")
}

func TestApp_Backups(t *testing.T) {
	a := testApp(t)
	a.ctx = context.Background()

	b, err := a.CreateBackup()
	require.NoError(t, err)
	assert.Nil(t, b, "nothing persisted yet")

	require.NoError(t, a.SetSheetName("Backed up"))
	b, err = a.CreateBackup()
	require.NoError(t, err)
	require.NotNil(t, b)

	require.NoError(t, a.SetSheetName("Changed"))
	require.NoError(t, a.RestoreBackup(b.ID))
	s, _ := a.GetSheet()
	assert.Equal(t, "Backed up", s.SheetName)

	list, err := a.ListBackups()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestApp_ResolveApprovals(t *testing.T) {
	a := testApp(t)
	require.NoError(t, a.core.approvals.Insert("act-2", "remove_block", "Remove block", `{"blockId":"x"}`))

	pending, err := a.ListPendingApprovals()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, `{"blockId":"x"}`, pending[0].Metadata)

	require.NoError(t, a.RejectAction("act-2"))
	status, err := a.core.approvals.Status("act-2")
	require.NoError(t, err)
	assert.Equal(t, storage.ApprovalRejected, status)

	pending, err = a.ListPendingApprovals()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
