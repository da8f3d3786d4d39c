package domain

import (
	"errors"
	"fmt"
)

// ThemeKey selects an entry in the frontend's theme registry.
// The core only stores the key; it never resolves tokens.
type ThemeKey string

const (
	ThemeSimple    ThemeKey = "simple"
	ThemeMedieval  ThemeKey = "medieval"
	ThemeCyberpunk ThemeKey = "cyberpunk"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Theme is a registry entry: the key plus its display name.
type Theme struct {
	Key  ThemeKey `json:"key"`
	Name string   `json:"name"`
}

// Themes is the closed theme registry in display order.
var Themes = []Theme{
	{Key: ThemeSimple, Name: "Modern Clean"},
	{Key: ThemeMedieval, Name: "Ancient Scroll"},
	{Key: ThemeCyberpunk, Name: "Neon Future"},
}

func (k ThemeKey) Valid() bool {
	for _, t := range Themes {
		if t.Key == k {
			return true
		}
	}
	return false
}

func ParseThemeKey(s string) (ThemeKey, error) {
	k := ThemeKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
	return k, nil
}

// FontSlot names one of the four global font settings.
type FontSlot string

const (
	FontH1   FontSlot = "h1"
	FontH2   FontSlot = "h2"
	FontH3   FontSlot = "h3"
	FontBody FontSlot = "body"
)

type Fonts struct {
	H1   string `json:"h1"`
	H2   string `json:"h2"`
	H3   string `json:"h3"`
	Body string `json:"body"`
}

// With returns f with slot set to name. ok is false for an unknown slot.
func (f Fonts) With(slot FontSlot, name string) (Fonts, bool) {
	switch slot {
	case FontH1:
		f.H1 = name
	case FontH2:
		f.H2 = name
	case FontH3:
		f.H3 = name
	case FontBody:
		f.Body = name
	default:
		return f, false
	}
	return f, true
}

type GlobalStyle struct {
	Theme ThemeKey `json:"theme"`
	Fonts Fonts    `json:"fonts"`
}

func DefaultGlobalStyle() GlobalStyle {
	return GlobalStyle{
		Theme: ThemeSimple,
		Fonts: Fonts{H1: "serif", H2: "serif", H3: "serif", Body: "sans-serif"},
	}
}

const DefaultSheetName = "Character Sheet"

// SheetState is the whole sheet: the aggregate every mutation produces anew.
// Blocks are in paint order within a tier.
type SheetState struct {
	Blocks      []Block     `json:"blocks"`
	GlobalStyle GlobalStyle `json:"globalStyle"`
	IsCompact   bool        `json:"isCompact"`
	SheetName   string      `json:"sheetName"`
}

// DefaultSheetState is the seed used when nothing has been persisted:
// one example text block.
func DefaultSheetState() SheetState {
	return SheetState{
		Blocks: []Block{{
			ID:     "1",
			X:      0,
			Y:      0,
			W:      DefaultBlockW,
			H:      DefaultBlockH,
			Type:   BlockTypeText,
			Data:   map[string]any{"text": "Character Name"},
			Config: DefaultBlockConfig(),
		}},
		GlobalStyle: DefaultGlobalStyle(),
		IsCompact:   false,
		SheetName:   DefaultSheetName,
	}
}

// Clone returns a deep copy of s.
func (s SheetState) Clone() SheetState {
	out := s
	out.Blocks = make([]Block, len(s.Blocks))
	for i, b := range s.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// IndexOf returns the position of the block with id, or -1.
func (s SheetState) IndexOf(id string) int {
	for i := range s.Blocks {
		if s.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Block returns a copy of the block with id.
func (s SheetState) Block(id string) (Block, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return Block{}, false
	}
	return s.Blocks[i].Clone(), true
}

// BlocksByTier returns the blocks in paint order: back, middle, front,
// keeping collection order inside each tier.
func (s SheetState) BlocksByTier() []Block {
	out := make([]Block, 0, len(s.Blocks))
	for _, tier := range []Tier{TierBack, TierMiddle, TierFront} {
		for _, b := range s.Blocks {
			if b.EffectiveTier() == tier {
				out = append(out, b.Clone())
			}
		}
	}
	return out
}
