package persistence

import (
	"bytes"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"charsheet/internal/domain"
)

// Adapter makes SheetState durable in one slot of a SlotStore.
// Every Save fully replaces the previous snapshot.
type Adapter struct {
	slot  domain.SlotStore
	key   string
	codec Codec
	log   *zap.Logger

	mu   sync.Mutex
	last []byte // bytes most recently loaded from or written to the slot
}

// NewAdapter creates an Adapter on slot[key]. A nil logger discards output.
func NewAdapter(slot domain.SlotStore, key string, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		slot:  slot,
		key:   key,
		codec: DefaultCodec(),
		log:   logger.With(zap.String("slot", key)),
	}
}

// WithCodec replaces the codec. Used to install extra migrations.
func (a *Adapter) WithCodec(c Codec) *Adapter {
	a.codec = c
	return a
}

func (a *Adapter) Key() string { return a.key }

func (a *Adapter) Codec() Codec { return a.codec }

// Load returns the persisted state. When nothing was saved yet, or the
// snapshot cannot be read, parsed or migrated, it returns the default seed
// and false.
func (a *Adapter) Load() (domain.SheetState, bool) {
	data, err := a.slot.Load(a.key)
	if err != nil {
		a.log.Warn("snapshot read failed, using default sheet", zap.Error(err))
		return domain.DefaultSheetState(), false
	}
	if data == nil {
		a.log.Debug("no snapshot, using default sheet")
		return domain.DefaultSheetState(), false
	}

	state, err := a.codec.Decode(data)
	if err != nil {
		a.log.Warn("snapshot unreadable, using default sheet", zap.Error(err), zap.Int("bytes", len(data)))
		return domain.DefaultSheetState(), false
	}

	a.mu.Lock()
	a.last = data
	a.mu.Unlock()
	a.log.Debug("snapshot loaded", zap.Int("blocks", len(state.Blocks)))
	return state, true
}

// Save serializes state and writes it over the previous snapshot.
func (a *Adapter) Save(state domain.SheetState) error {
	data, err := a.codec.Encode(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := a.slot.Save(a.key, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	a.mu.Lock()
	a.last = data
	a.mu.Unlock()
	return nil
}

// Changed reads the slot and reports whether it holds a decodable snapshot
// other than the one this adapter last loaded or wrote. Used to pick up
// writes made by another process.
func (a *Adapter) Changed() (domain.SheetState, bool) {
	data, err := a.slot.Load(a.key)
	if err != nil || data == nil {
		return domain.SheetState{}, false
	}

	a.mu.Lock()
	same := bytes.Equal(data, a.last)
	a.mu.Unlock()
	if same {
		return domain.SheetState{}, false
	}

	state, err := a.codec.Decode(data)
	if err != nil {
		a.log.Warn("external snapshot unreadable, ignoring", zap.Error(err))
		return domain.SheetState{}, false
	}
	a.mu.Lock()
	a.last = data
	a.mu.Unlock()
	return state, true
}

// Raw returns the slot's current bytes, or nil if empty.
func (a *Adapter) Raw() ([]byte, error) {
	return a.slot.Load(a.key)
}

// Export renders state as an indented snapshot document.
func (a *Adapter) Export(state domain.SheetState) ([]byte, error) {
	return a.codec.EncodeIndent(state)
}

// Import parses a snapshot document, migrating it if needed.
func (a *Adapter) Import(data []byte) (domain.SheetState, error) {
	return a.codec.Decode(data)
}
