// Package persistence turns a SheetState into a durable, versioned snapshot
// and back.
//
// A snapshot is {"version": N, "state": {...}}. Payloads written before
// versioning existed (a bare state object, or one wrapped as
// {"state": ..., "version": 0}) are read as version 1. Decoding runs the
// migration chain from the payload's version up to the codec's version one
// step at a time, on the raw JSON object, before the typed decode.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	"charsheet/internal/domain"
)

// SlotKey is the durable slot the sheet lives in.
const SlotKey = "rpg-sheet-storage"

// CurrentVersion is the snapshot schema version this build writes.
const CurrentVersion = 2

var (
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrMalformedSnapshot  = errors.New("malformed snapshot")
)

// Migration rewrites a raw state object from version N to N+1 in place.
type Migration func(state map[string]any) error

// Codec encodes and decodes snapshots at a fixed version.
type Codec struct {
	Version int
	// Migrations is keyed by the version a step migrates from.
	Migrations map[int]Migration
}

// DefaultCodec writes CurrentVersion and knows every migration up to it.
func DefaultCodec() Codec {
	return Codec{
		Version: CurrentVersion,
		Migrations: map[int]Migration{
			1: migrateV1,
		},
	}
}

type envelope struct {
	Version int                `json:"version"`
	State   *domain.SheetState `json:"state"`
}

// Encode serializes the full state.
func (c Codec) Encode(state domain.SheetState) ([]byte, error) {
	return json.Marshal(envelope{Version: c.Version, State: &state})
}

// EncodeIndent is Encode with indentation, for files meant to be read by people.
func (c Codec) EncodeIndent(state domain.SheetState) ([]byte, error) {
	return json.MarshalIndent(envelope{Version: c.Version, State: &state}, "", "  ")
}

// Decode parses any snapshot this codec can migrate and validates the result.
// Out-of-range geometry is clamped rather than rejected, whatever the version.
func (c Codec) Decode(data []byte) (domain.SheetState, error) {
	var top map[string]any
	if err := json.Unmarshal(data, &top); err != nil {
		return domain.SheetState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if top == nil {
		return domain.SheetState{}, fmt.Errorf("%w: not an object", ErrMalformedSnapshot)
	}

	version, state, err := unwrap(top)
	if err != nil {
		return domain.SheetState{}, err
	}
	if version > c.Version {
		return domain.SheetState{}, fmt.Errorf("%w: %d (newest known %d)", ErrUnsupportedVersion, version, c.Version)
	}

	for v := version; v < c.Version; v++ {
		step, ok := c.Migrations[v]
		if !ok {
			return domain.SheetState{}, fmt.Errorf("%w: no migration from version %d", ErrUnsupportedVersion, v)
		}
		if err := step(state); err != nil {
			return domain.SheetState{}, fmt.Errorf("migrate v%d: %w", v, err)
		}
	}
	clampGeometry(state)

	raw, err := json.Marshal(state)
	if err != nil {
		return domain.SheetState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	var out domain.SheetState
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.SheetState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if err := validate(out); err != nil {
		return domain.SheetState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return out, nil
}

// unwrap finds the state object and its version inside a decoded payload.
func unwrap(top map[string]any) (int, map[string]any, error) {
	inner, wrapped := top["state"].(map[string]any)
	if !wrapped {
		if _, ok := top["blocks"]; !ok {
			return 0, nil, fmt.Errorf("%w: no state or blocks", ErrMalformedSnapshot)
		}
		return 1, top, nil
	}

	version := 1
	if v, ok := top["version"].(float64); ok && int(v) > 1 {
		version = int(v)
	}
	return version, inner, nil
}

func validate(s domain.SheetState) error {
	seen := make(map[string]struct{}, len(s.Blocks))
	for i, b := range s.Blocks {
		if b.ID == "" {
			return fmt.Errorf("block %d has no id", i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate block id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
		if !b.Type.Valid() {
			return fmt.Errorf("block %s: %w: %q", b.ID, domain.ErrUnknownBlockType, b.Type)
		}
	}
	return nil
}

// migrateV1 upgrades the unversioned layout: adds sheetName, fills style
// defaults, gives every block a tier and a data object, turns a null y
// (how an "append" y serializes) back into the append sentinel.
func migrateV1(state map[string]any) error {
	if name, _ := state["sheetName"].(string); name == "" {
		state["sheetName"] = domain.DefaultSheetName
	}

	def := domain.DefaultGlobalStyle()
	style, _ := state["globalStyle"].(map[string]any)
	if style == nil {
		style = map[string]any{}
		state["globalStyle"] = style
	}
	if theme, _ := style["theme"].(string); !domain.ThemeKey(theme).Valid() {
		style["theme"] = string(def.Theme)
	}
	fonts, _ := style["fonts"].(map[string]any)
	if fonts == nil {
		fonts = map[string]any{}
		style["fonts"] = fonts
	}
	for slot, name := range map[string]string{"h1": def.Fonts.H1, "h2": def.Fonts.H2, "h3": def.Fonts.H3, "body": def.Fonts.Body} {
		if s, _ := fonts[slot].(string); s == "" {
			fonts[slot] = name
		}
	}

	if _, ok := state["isCompact"].(bool); !ok {
		state["isCompact"] = false
	}

	blocks, _ := state["blocks"].([]any)
	if blocks == nil {
		blocks = []any{}
	}
	for i, raw := range blocks {
		b, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("block %d is not an object", i)
		}
		if b["y"] == nil {
			b["y"] = float64(domain.AppendY)
		}

		if _, ok := b["data"].(map[string]any); !ok {
			b["data"] = map[string]any{}
		}
		cfg, _ := b["config"].(map[string]any)
		if cfg == nil {
			cfg = map[string]any{}
			b["config"] = cfg
		}
		if tier, _ := cfg["zIndex"].(string); !domain.Tier(tier).Valid() {
			cfg["zIndex"] = string(domain.TierMiddle)
		}
	}
	state["blocks"] = blocks
	return nil
}

// clampGeometry raises x and y to 0 and w and h to 1 on every block. The
// layout engine may report spans the canvas cannot show; they load as the
// smallest valid cell instead of failing the whole snapshot.
func clampGeometry(state map[string]any) {
	blocks, _ := state["blocks"].([]any)
	for _, raw := range blocks {
		b, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		clampNumber(b, "x", 0)
		clampNumber(b, "y", 0)
		clampNumber(b, "w", 1)
		clampNumber(b, "h", 1)
	}
}

func clampNumber(m map[string]any, key string, min float64) {
	v, ok := m[key].(float64)
	if !ok || v < min {
		m[key] = min
		return
	}
	m[key] = float64(int64(v))
}
