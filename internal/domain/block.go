package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

type BlockType string

const (
	BlockTypeText      BlockType = "text"
	BlockTypeImage     BlockType = "image"
	BlockTypeHeader    BlockType = "header"
	BlockTypeFormBox   BlockType = "form-box"
	BlockTypeShape     BlockType = "shape"
	BlockTypeDivider   BlockType = "divider"
	BlockTypeList      BlockType = "list"
	BlockTypeContainer BlockType = "container"
)

// BlockTypes lists every block variant in toolbar order.
var BlockTypes = []BlockType{
	BlockTypeHeader,
	BlockTypeText,
	BlockTypeList,
	BlockTypeImage,
	BlockTypeFormBox,
	BlockTypeDivider,
	BlockTypeContainer,
	BlockTypeShape,
}

var ErrUnknownBlockType = errors.New("unknown block type")

// Valid reports whether t is one of the closed set of block variants.
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeText, BlockTypeImage, BlockTypeHeader, BlockTypeFormBox,
		BlockTypeShape, BlockTypeDivider, BlockTypeList, BlockTypeContainer:
		return true
	}
	return false
}

// ParseBlockType converts a wire string into a BlockType.
func ParseBlockType(s string) (BlockType, error) {
	t := BlockType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBlockType, s)
	}
	return t, nil
}

// Tier is the coarse stacking layer of a block, independent of grid position.
type Tier string

const (
	TierBack   Tier = "back"
	TierMiddle Tier = "middle"
	TierFront  Tier = "front"
)

func (t Tier) Valid() bool {
	return t == TierBack || t == TierMiddle || t == TierFront
}

type ShapeKind string

const (
	ShapeSquare  ShapeKind = "square"
	ShapeCircle  ShapeKind = "circle"
	ShapeRounded ShapeKind = "rounded"
	ShapeHeart   ShapeKind = "heart"
)

// AppendY is the y coordinate that asks the grid engine to place a block
// after all existing content.
const AppendY = math.MaxInt32

const (
	DefaultBlockW = 4
	DefaultBlockH = 2
)

// BlockConfig holds per-type parameters. Zero values mean "unset".
type BlockConfig struct {
	Level     int       `json:"level,omitempty"`     // header: 1..3
	ShapeType ShapeKind `json:"shapeType,omitempty"` // shape
	Label     string    `json:"label,omitempty"`
	ZIndex    Tier      `json:"zIndex,omitempty"`
}

// DefaultBlockConfig is the base every new block's config is merged over.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{ZIndex: TierMiddle}
}

// MergeOver returns base with every set field of c laid on top.
func (c BlockConfig) MergeOver(base BlockConfig) BlockConfig {
	out := base
	if c.Level != 0 {
		out.Level = c.Level
	}
	if c.ShapeType != "" {
		out.ShapeType = c.ShapeType
	}
	if c.Label != "" {
		out.Label = c.Label
	}
	if c.ZIndex != "" {
		out.ZIndex = c.ZIndex
	}
	return out
}

// Block is a positioned, typed unit on the sheet grid.
// The JSON id key is "i" because that is what the grid engine keys layout on.
type Block struct {
	ID     string         `json:"i"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	W      int            `json:"w"`
	H      int            `json:"h"`
	Type   BlockType      `json:"type"`
	Data   map[string]any `json:"data"`
	Config BlockConfig    `json:"config"`
}

// Clone returns a copy of b that shares no mutable state with it.
func (b Block) Clone() Block {
	out := b
	out.Data = cloneData(b.Data)
	return out
}

// EffectiveTier is the tier the block paints on. Containers always sit at the back.
func (b Block) EffectiveTier() Tier {
	if b.Type == BlockTypeContainer {
		return TierBack
	}
	if b.Config.ZIndex.Valid() {
		return b.Config.ZIndex
	}
	return TierMiddle
}

// Geometry returns the layout projection of the block.
func (b Block) Geometry() LayoutItem {
	return LayoutItem{ID: b.ID, X: b.X, Y: b.Y, W: b.W, H: b.H}
}

// WithData returns a copy of b whose data is b.Data with patch keys laid over it.
// Patch values are stored in their JSON shape (numbers as float64, slices as
// []any) so the in-memory state always equals its persisted form. Values that
// cannot be represented in JSON are skipped and reported in dropped.
func (b Block) WithData(patch map[string]any) (out Block, dropped []string) {
	out = b
	merged := make(map[string]any, len(b.Data)+len(patch))
	for k, v := range b.Data {
		merged[k] = cloneValue(v)
	}
	for k, v := range patch {
		jv, err := jsonShape(v)
		if err != nil {
			dropped = append(dropped, k)
			continue
		}
		merged[k] = jv
	}
	out.Data = merged
	return out, dropped
}

func jsonShape(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneData(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}
