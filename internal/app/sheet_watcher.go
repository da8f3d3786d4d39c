package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	mcpserver "charsheet/internal/mcp"
	"charsheet/internal/storage"
)

// EventMCPActivity tells the frontend the sheet was changed by an agent.
const EventMCPActivity = "mcp:activity"

// sheetWatcher polls for changes made by another process (the standalone
// MCP server) and forwards them: a rewritten sheet slot is reloaded into the
// store, and new pending approvals are shown to the user.
type sheetWatcher struct {
	ctx context.Context
	log *zap.Logger

	fingerprint func() (string, error) // nil when the slot is watched by fsnotify
	reload      func() bool
	approvals   *storage.ApprovalStore
	emit        func(event string, data any)
	interval    time.Duration

	mu        sync.Mutex
	lastPrint string
	primed    bool
	emitted   map[string]bool // approval ids already shown
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func newSheetWatcher(ctx context.Context, logger *zap.Logger, emit func(string, any)) *sheetWatcher {
	return &sheetWatcher{
		ctx:      ctx,
		log:      logger.Named("watcher"),
		emit:     emit,
		interval: 2 * time.Second,
		emitted:  map[string]bool{},
		stopCh:   make(chan struct{}),
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *sheetWatcher) Start() {
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *sheetWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *sheetWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *sheetWatcher) check() {
	w.checkSlot()
	w.checkApprovals()
}

// ── Sheet slot ─────────────────────────────────────────────

func (w *sheetWatcher) checkSlot() {
	if w.fingerprint == nil || w.reload == nil {
		return
	}
	fp, err := w.fingerprint()
	if err != nil {
		w.log.Debug("fingerprint failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := w.primed && w.lastPrint != fp
	w.lastPrint = fp
	w.primed = true
	w.mu.Unlock()

	// The store compares bytes and ignores its own writes.
	if changed && w.reload() {
		w.emit(EventMCPActivity, map[string]any{"changes": 1})
	}
}

// onFileChange is the fsnotify callback for the file backend.
func (w *sheetWatcher) onFileChange() {
	if w.reload != nil && w.reload() {
		w.emit(EventMCPActivity, map[string]any{"changes": 1})
	}
}

// ── Pending MCP approvals (cross-process IPC) ──────────────

func (w *sheetWatcher) checkApprovals() {
	if w.approvals == nil {
		return
	}
	pending, err := w.approvals.Pending()
	if err != nil {
		w.log.Debug("list approvals failed", zap.Error(err))
		return
	}

	live := make(map[string]bool, len(pending))
	for _, a := range pending {
		live[a.ID] = true

		w.mu.Lock()
		alreadySent := w.emitted[a.ID]
		w.emitted[a.ID] = true
		w.mu.Unlock()
		if alreadySent {
			continue
		}
		w.emit(mcpserver.EventApprovalRequired, mcpserver.PendingAction{
			ID:          a.ID,
			Tool:        a.Tool,
			Description: a.Description,
			CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    a.Metadata,
		})
	}

	// Approvals the MCP process resolved, withdrew or timed out.
	var gone []string
	w.mu.Lock()
	for id := range w.emitted {
		if !live[id] {
			delete(w.emitted, id)
			gone = append(gone, id)
		}
	}
	w.mu.Unlock()
	for _, id := range gone {
		w.emit(mcpserver.EventApprovalDismissed, map[string]string{"id": id})
	}
}
