package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"charsheet/internal/domain"
	"charsheet/internal/layout"
	"charsheet/internal/persistence"
)

// ─────────────────────────────────────────────────────────────
// SheetStore — the single authority over the current sheet
// ─────────────────────────────────────────────────────────────

// SheetStore holds the committed SheetState and applies every mutation to it.
//
// The committed state is never modified in place. Each mutation builds the
// next state from a copy of the block slice, replacing only the records it
// touches, and swaps it in under the lock. Untouched records keep sharing
// their data maps with the previous state, so those maps must be treated as
// read-only; callers only ever receive deep copies.
type SheetStore struct {
	mu    sync.Mutex
	state domain.SheetState

	persist *persistence.Adapter
	writer  *snapshotWriter
	emitter EventEmitter
	log     *zap.Logger
	newID   func() string

	subsMu  sync.Mutex
	subs    map[int]func(domain.SheetState)
	nextSub int
}

// NewSheetStore loads the persisted sheet (or the default seed) and returns
// a store that writes every committed change back through persist.
func NewSheetStore(persist *persistence.Adapter, emitter EventEmitter, logger *zap.Logger) *SheetStore {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SheetStore{
		persist: persist,
		emitter: emitter,
		log:     logger.Named("sheet"),
		newID:   uuid.NewString,
		subs:    make(map[int]func(domain.SheetState)),
	}
	s.state, _ = persist.Load()
	s.writer = newSnapshotWriter(persist, s.persistFailed)
	return s
}

// persistFailed is the writer's error sink. A failed write leaves the
// in-memory state authoritative; the next mutation writes a full snapshot
// again.
func (s *SheetStore) persistFailed(err error) {
	s.log.Warn("snapshot write failed", zap.Error(err))
	s.emitter.Emit(context.Background(), EventPersistFailed, map[string]any{"error": err.Error()})
}

// Flush waits until every committed state has been handed to the slot.
func (s *SheetStore) Flush() { s.writer.flush() }

// Close flushes pending writes and stops the background writer.
func (s *SheetStore) Close() { s.writer.close() }

// Snapshot returns a deep copy of the committed state.
func (s *SheetStore) Snapshot() domain.SheetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Layout returns the grid projection of the committed blocks.
func (s *SheetStore) Layout() []domain.LayoutItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layout.Project(s.state.Blocks)
}

// Block returns a copy of one block.
func (s *SheetStore) Block(id string) (domain.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Block(id)
}

// Subscribe registers fn to receive every committed state after it is
// swapped in. fn runs outside the store lock and may call back into the
// store. The returned func removes the subscription.
func (s *SheetStore) Subscribe(fn func(domain.SheetState)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// mutate runs fn against the committed state under the lock. When fn
// reports a change, the result is committed, queued for persistence and
// published.
func (s *SheetStore) mutate(op string, fn func(cur domain.SheetState) (domain.SheetState, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.state)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.writer.enqueue(next)
	s.mu.Unlock()

	s.log.Debug("committed", zap.String("op", op), zap.Int("blocks", len(next.Blocks)))
	s.publish(EventSheetChanged, op, next)
	return true
}

func (s *SheetStore) publish(event, op string, state domain.SheetState) {
	s.subsMu.Lock()
	fns := make([]func(domain.SheetState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
	s.emitter.Emit(context.Background(), event, map[string]any{"op": op, "state": state.Clone()})
}

// withBlocks returns cur with a fresh block slice of the given length whose
// leading records are copied from cur.
func withBlocks(cur domain.SheetState, n int) domain.SheetState {
	next := cur
	next.Blocks = make([]domain.Block, n)
	copy(next.Blocks, cur.Blocks)
	return next
}

// ── Blocks ──────────────────────────────────────────────────

// AddBlock appends a block of type t at the bottom of the sheet and returns
// its id. The block gets empty data, default geometry and cfg merged over
// the default config. An unknown type adds nothing and returns "".
func (s *SheetStore) AddBlock(t domain.BlockType, cfg *domain.BlockConfig) string {
	if !t.Valid() {
		s.log.Warn("add block: unknown type ignored", zap.String("type", string(t)))
		return ""
	}
	conf := domain.DefaultBlockConfig()
	if cfg != nil {
		conf = cfg.MergeOver(conf)
	}

	var id string
	s.mutate("add_block", func(cur domain.SheetState) (domain.SheetState, bool) {
		id = s.uniqueID(cur)
		next := withBlocks(cur, len(cur.Blocks)+1)
		next.Blocks[len(cur.Blocks)] = domain.Block{
			ID:     id,
			X:      0,
			Y:      domain.AppendY,
			W:      domain.DefaultBlockW,
			H:      domain.DefaultBlockH,
			Type:   t,
			Data:   map[string]any{},
			Config: conf,
		}
		return next, true
	})
	return id
}

func (s *SheetStore) uniqueID(cur domain.SheetState) string {
	for {
		id := s.newID()
		if id != "" && cur.IndexOf(id) < 0 {
			return id
		}
	}
}

// UpdateBlockData shallow-merges partial into the data of block id.
// Keys not in partial are kept; an unknown id is a no-op.
func (s *SheetStore) UpdateBlockData(id string, partial map[string]any) {
	s.mutate("update_block_data", func(cur domain.SheetState) (domain.SheetState, bool) {
		i := cur.IndexOf(id)
		if i < 0 {
			return cur, false
		}
		b, dropped := cur.Blocks[i].WithData(partial)
		if len(dropped) > 0 {
			s.log.Warn("update block data: values not representable as JSON were skipped",
				zap.String("block", id), zap.Strings("keys", dropped))
		}
		next := withBlocks(cur, len(cur.Blocks))
		next.Blocks[i] = b
		return next, true
	})
}

// RemoveBlock deletes block id. An unknown id is a no-op.
func (s *SheetStore) RemoveBlock(id string) {
	s.mutate("remove_block", func(cur domain.SheetState) (domain.SheetState, bool) {
		i := cur.IndexOf(id)
		if i < 0 {
			return cur, false
		}
		next := cur
		next.Blocks = make([]domain.Block, 0, len(cur.Blocks)-1)
		next.Blocks = append(next.Blocks, cur.Blocks[:i]...)
		next.Blocks = append(next.Blocks, cur.Blocks[i+1:]...)
		return next, true
	})
}

// UpdateLayout applies the grid engine's layout report. Items are matched
// by id; blocks the report omits keep their geometry and unknown ids are
// ignored. A report that changes nothing commits nothing.
func (s *SheetStore) UpdateLayout(items []domain.LayoutItem) {
	s.mutate("update_layout", func(cur domain.SheetState) (domain.SheetState, bool) {
		blocks, changed := layout.Apply(cur.Blocks, items)
		if !changed {
			return cur, false
		}
		next := cur
		next.Blocks = blocks
		return next, true
	})
}

// Relayout computes a new layout from the current one and applies it
// atomically. fn gets the current projection and compact flag and returns
// the layout to apply, or false to leave the sheet alone.
func (s *SheetStore) Relayout(op string, fn func(items []domain.LayoutItem, compact bool) ([]domain.LayoutItem, bool)) bool {
	return s.mutate(op, func(cur domain.SheetState) (domain.SheetState, bool) {
		items, ok := fn(layout.Project(cur.Blocks), cur.IsCompact)
		if !ok {
			return cur, false
		}
		blocks, changed := layout.Apply(cur.Blocks, items)
		if !changed {
			return cur, false
		}
		next := cur
		next.Blocks = blocks
		return next, true
	})
}

// ── Sheet settings ──────────────────────────────────────────

// SetTheme stores the theme key. Resolving it to tokens is the renderer's job.
func (s *SheetStore) SetTheme(key domain.ThemeKey) {
	s.mutate("set_theme", func(cur domain.SheetState) (domain.SheetState, bool) {
		if cur.GlobalStyle.Theme == key {
			return cur, false
		}
		next := cur
		next.GlobalStyle.Theme = key
		return next, true
	})
}

// SetGlobalFont replaces one font slot. An unknown slot is a no-op.
func (s *SheetStore) SetGlobalFont(slot domain.FontSlot, name string) {
	s.mutate("set_global_font", func(cur domain.SheetState) (domain.SheetState, bool) {
		fonts, ok := cur.GlobalStyle.Fonts.With(slot, name)
		if !ok {
			s.log.Warn("set font: unknown slot ignored", zap.String("slot", string(slot)))
			return cur, false
		}
		if fonts == cur.GlobalStyle.Fonts {
			return cur, false
		}
		next := cur
		next.GlobalStyle.Fonts = fonts
		return next, true
	})
}

// ToggleCompact flips vertical compaction.
func (s *SheetStore) ToggleCompact() {
	s.mutate("toggle_compact", func(cur domain.SheetState) (domain.SheetState, bool) {
		next := cur
		next.IsCompact = !cur.IsCompact
		return next, true
	})
}

// SetSheetName renames the sheet.
func (s *SheetStore) SetSheetName(name string) {
	s.mutate("set_sheet_name", func(cur domain.SheetState) (domain.SheetState, bool) {
		if cur.SheetName == name {
			return cur, false
		}
		next := cur
		next.SheetName = name
		return next, true
	})
}

// ── Whole-sheet operations ──────────────────────────────────

// Reset replaces the sheet with the default seed.
func (s *SheetStore) Reset() {
	s.mutate("reset", func(domain.SheetState) (domain.SheetState, bool) {
		return domain.DefaultSheetState(), true
	})
}

// Replace commits state wholesale. Used by import and backup restore; the
// caller is expected to have decoded and validated it.
func (s *SheetStore) Replace(state domain.SheetState) {
	state = state.Clone()
	s.mutate("replace", func(domain.SheetState) (domain.SheetState, bool) {
		return state, true
	})
}

// Reload adopts a snapshot another process wrote to the slot. It reports
// whether anything was picked up. The adopted state is not written back.
//
// The lock is held from the flush to the swap so no commit can land between
// reading the slot and replacing the in-memory state. The writer never takes
// s.mu, so flushing under it cannot deadlock.
func (s *SheetStore) Reload() bool {
	s.mu.Lock()
	s.writer.flush()
	state, changed := s.persist.Changed()
	if changed {
		s.state = state
	}
	s.mu.Unlock()
	if !changed {
		return false
	}

	s.log.Info("picked up external snapshot", zap.Int("blocks", len(state.Blocks)))
	s.publish(EventSheetReloaded, "reload", state)
	return true
}
