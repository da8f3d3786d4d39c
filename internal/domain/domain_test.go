package domain_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charsheet/internal/domain"
)

func TestParseBlockType(t *testing.T) {
	for _, bt := range domain.BlockTypes {
		got, err := domain.ParseBlockType(string(bt))
		require.NoError(t, err)
		assert.Equal(t, bt, got)
	}
	_, err := domain.ParseBlockType("hologram")
	assert.True(t, errors.Is(err, domain.ErrUnknownBlockType))
}

func TestParseThemeKey(t *testing.T) {
	k, err := domain.ParseThemeKey("medieval")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeMedieval, k)

	_, err = domain.ParseThemeKey("vaporwave")
	assert.ErrorIs(t, err, domain.ErrUnknownTheme)
}

func TestFontsWith(t *testing.T) {
	f := domain.DefaultGlobalStyle().Fonts

	got, ok := f.With(domain.FontBody, "Inter")
	require.True(t, ok)
	assert.Equal(t, "Inter", got.Body)
	assert.Equal(t, "sans-serif", f.Body, "receiver is a value")

	same, ok := f.With("caption", "Inter")
	assert.False(t, ok)
	assert.Equal(t, f, same)
}

func TestBlockConfigMergeOver(t *testing.T) {
	base := domain.DefaultBlockConfig()
	got := domain.BlockConfig{ShapeType: domain.ShapeHeart}.MergeOver(base)
	assert.Equal(t, domain.BlockConfig{ShapeType: domain.ShapeHeart, ZIndex: domain.TierMiddle}, got)

	got = domain.BlockConfig{Level: 2, Label: "STR", ZIndex: domain.TierFront}.MergeOver(base)
	assert.Equal(t, domain.BlockConfig{Level: 2, Label: "STR", ZIndex: domain.TierFront}, got)
}

func TestEffectiveTier(t *testing.T) {
	tests := []struct {
		name string
		b    domain.Block
		want domain.Tier
	}{
		{"default", domain.Block{Type: domain.BlockTypeText}, domain.TierMiddle},
		{"explicit front", domain.Block{Type: domain.BlockTypeText, Config: domain.BlockConfig{ZIndex: domain.TierFront}}, domain.TierFront},
		{"garbage tier", domain.Block{Type: domain.BlockTypeText, Config: domain.BlockConfig{ZIndex: "sideways"}}, domain.TierMiddle},
		{"container ignores config", domain.Block{Type: domain.BlockTypeContainer, Config: domain.BlockConfig{ZIndex: domain.TierFront}}, domain.TierBack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.EffectiveTier())
		})
	}
}

func TestBlocksByTier(t *testing.T) {
	s := domain.SheetState{Blocks: []domain.Block{
		{ID: "a", Type: domain.BlockTypeText, Config: domain.BlockConfig{ZIndex: domain.TierFront}},
		{ID: "b", Type: domain.BlockTypeText},
		{ID: "c", Type: domain.BlockTypeContainer},
		{ID: "d", Type: domain.BlockTypeShape, Config: domain.BlockConfig{ZIndex: domain.TierBack}},
		{ID: "e", Type: domain.BlockTypeList, Config: domain.BlockConfig{ZIndex: domain.TierMiddle}},
	}}
	var ids []string
	for _, b := range s.BlocksByTier() {
		ids = append(ids, b.ID)
	}
	if diff := cmp.Diff([]string{"c", "d", "b", "e", "a"}, ids); diff != "" {
		t.Errorf("paint order (-want +got):\n%s", diff)
	}
}

func TestWithData(t *testing.T) {
	b := domain.Block{ID: "x", Type: domain.BlockTypeFormBox, Data: map[string]any{"label": "HP", "value": "10"}}

	got, dropped := b.WithData(map[string]any{
		"value": 12,
		"tags":  []string{"a", "b"},
		"bad":   func() {},
	})
	assert.Equal(t, []string{"bad"}, dropped)

	want := map[string]any{"label": "HP", "value": float64(12), "tags": []any{"a", "b"}}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
	assert.Equal(t, "10", b.Data["value"], "original data untouched")
}

func TestClone_NoSharedState(t *testing.T) {
	s := domain.SheetState{Blocks: []domain.Block{{
		ID:   "x",
		Type: domain.BlockTypeList,
		Data: map[string]any{"items": []any{"one"}, "nested": map[string]any{"k": "v"}},
	}}}
	c := s.Clone()
	c.Blocks[0].Data["items"].([]any)[0] = "changed"
	c.Blocks[0].Data["nested"].(map[string]any)["k"] = "changed"
	c.Blocks[0].X = 5

	assert.Equal(t, "one", s.Blocks[0].Data["items"].([]any)[0])
	assert.Equal(t, "v", s.Blocks[0].Data["nested"].(map[string]any)["k"])
	assert.Equal(t, 0, s.Blocks[0].X)
}

func TestContent(t *testing.T) {
	tests := []struct {
		name string
		b    domain.Block
		want domain.Content
	}{
		{"text", domain.Block{Type: domain.BlockTypeText, Data: map[string]any{"text": "hi"}}, domain.TextContent{Text: "hi"}},
		{"header level out of range", domain.Block{Type: domain.BlockTypeHeader, Config: domain.BlockConfig{Level: 7}}, domain.HeaderContent{Level: 1}},
		{"header level", domain.Block{Type: domain.BlockTypeHeader, Data: map[string]any{"text": "Skills"}, Config: domain.BlockConfig{Level: 3}}, domain.HeaderContent{Text: "Skills", Level: 3}},
		{"form box mistyped", domain.Block{Type: domain.BlockTypeFormBox, Data: map[string]any{"label": "AC", "value": 15.0}}, domain.FormBoxContent{Label: "AC"}},
		{"list default items", domain.Block{Type: domain.BlockTypeList}, domain.ListContent{Items: []string{"Item 1", "Item 2"}}},
		{"list items", domain.Block{Type: domain.BlockTypeList, Data: map[string]any{"items": []any{"Sword", 3.0}}}, domain.ListContent{Items: []string{"Sword", ""}}},
		{"image", domain.Block{Type: domain.BlockTypeImage, Data: map[string]any{"src": "data:image/png;base64,AA"}}, domain.ImageContent{Src: "data:image/png;base64,AA"}},
		{"shape default", domain.Block{Type: domain.BlockTypeShape}, domain.ShapeContent{Shape: domain.ShapeSquare}},
		{"shape", domain.Block{Type: domain.BlockTypeShape, Config: domain.BlockConfig{ShapeType: domain.ShapeCircle}}, domain.ShapeContent{Shape: domain.ShapeCircle}},
		{"divider", domain.Block{Type: domain.BlockTypeDivider}, domain.DividerContent{}},
		{"container", domain.Block{Type: domain.BlockTypeContainer}, domain.ContainerContent{}},
		{"unknown", domain.Block{Type: "hologram"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.Content())
		})
	}
}

func TestContentPatch_RoundTrip(t *testing.T) {
	b := domain.Block{Type: domain.BlockTypeList, Data: map[string]any{}}
	b, dropped := b.WithData(domain.ContentPatch(domain.ListContent{Items: []string{"Rope", "Torch"}}))
	require.Empty(t, dropped)
	assert.Equal(t, domain.ListContent{Items: []string{"Rope", "Torch"}}, b.Content())

	assert.Empty(t, domain.ContentPatch(domain.DividerContent{}))
}

func TestDefaultSheetState(t *testing.T) {
	s := domain.DefaultSheetState()
	require.Len(t, s.Blocks, 1)
	b := s.Blocks[0]
	assert.Equal(t, "1", b.ID)
	assert.Equal(t, domain.BlockTypeText, b.Type)
	assert.Equal(t, "Character Name", b.Data["text"])
	assert.Equal(t, domain.ThemeSimple, s.GlobalStyle.Theme)
	assert.Equal(t, domain.DefaultSheetName, s.SheetName)
	assert.False(t, s.IsCompact)

	s.Blocks[0].Data["text"] = "mutated"
	assert.Equal(t, "Character Name", domain.DefaultSheetState().Blocks[0].Data["text"], "each call builds a fresh seed")
}
