package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"charsheet/internal/domain"
)

func (s *Server) registerSheetTools() {
	// ── get_sheet ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_sheet",
		mcp.WithDescription("Get the whole character sheet: name, theme, fonts, compact flag and every block in paint order (back, middle, front)."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetSheet)

	// ── list_themes ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_themes",
		mcp.WithDescription("List the available visual themes"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListThemes)

	// ── set_theme ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_theme",
		mcp.WithDescription("Switch the sheet's visual theme"),
		mcp.WithString("theme",
			mcp.Description("Theme key: simple, medieval or cyberpunk"),
			mcp.Required(),
			mcp.Enum(themeKeys()...),
		),
	), s.handleSetTheme)

	// ── set_global_font ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_global_font",
		mcp.WithDescription("Set the font family used for one text level across the sheet"),
		mcp.WithString("slot",
			mcp.Description("Which text level: h1, h2, h3 or body"),
			mcp.Required(),
			mcp.Enum(string(domain.FontH1), string(domain.FontH2), string(domain.FontH3), string(domain.FontBody)),
		),
		mcp.WithString("font", mcp.Description("CSS font family name"), mcp.Required()),
	), s.handleSetGlobalFont)

	// ── toggle_compact ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_compact",
		mcp.WithDescription("Toggle vertical compaction. When on, blocks float up to fill gaps; when off, they stay where placed."),
	), s.handleToggleCompact)

	// ── set_sheet_name ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_sheet_name",
		mcp.WithDescription("Rename the sheet"),
		mcp.WithString("name", mcp.Description("New sheet name"), mcp.Required()),
	), s.handleSetSheetName)

	// ── reset_sheet (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("reset_sheet",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace the sheet with the default one-block sheet. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleResetSheet)
}

func boolPtr(v bool) *bool { return &v }

func themeKeys() []string {
	out := make([]string, len(domain.Themes))
	for i, t := range domain.Themes {
		out[i] = string(t.Key)
	}
	return out
}

// sheetView is what get_sheet and sheet://state return.
type sheetView struct {
	SheetName   string             `json:"sheetName"`
	GlobalStyle domain.GlobalStyle `json:"globalStyle"`
	IsCompact   bool               `json:"isCompact"`
	Blocks      []blockSummary     `json:"blocks"`
}

func (s *Server) sheetView() sheetView {
	state := s.store.Snapshot()
	v := sheetView{
		SheetName:   state.SheetName,
		GlobalStyle: state.GlobalStyle,
		IsCompact:   state.IsCompact,
		Blocks:      make([]blockSummary, 0, len(state.Blocks)),
	}
	for _, b := range state.BlocksByTier() {
		v.Blocks = append(v.Blocks, summarizeBlock(b))
	}
	return v
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetSheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sheetView())
}

func (s *Server) handleListThemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(domain.Themes)
}

func (s *Server) handleSetTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("theme")
	if err != nil {
		return nil, err
	}
	key, err := domain.ParseThemeKey(raw)
	if err != nil {
		return nil, err
	}
	s.store.SetTheme(key)
	return textResult(fmt.Sprintf("Theme set to %s", key)), nil
}

func (s *Server) handleSetGlobalFont(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slot, err := req.RequireString("slot")
	if err != nil {
		return nil, err
	}
	font, err := req.RequireString("font")
	if err != nil {
		return nil, err
	}
	if _, ok := (domain.Fonts{}).With(domain.FontSlot(slot), font); !ok {
		return nil, fmt.Errorf("unknown font slot %q (use h1, h2, h3 or body)", slot)
	}
	s.store.SetGlobalFont(domain.FontSlot(slot), font)
	return textResult(fmt.Sprintf("%s font set to %s", slot, font)), nil
}

func (s *Server) handleToggleCompact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store.ToggleCompact()
	if s.store.Snapshot().IsCompact {
		return textResult("Compact layout on"), nil
	}
	return textResult("Compact layout off"), nil
}

func (s *Server) handleSetSheetName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return nil, err
	}
	s.store.SetSheetName(name)
	return textResult(fmt.Sprintf("Sheet renamed to %q", name)), nil
}

func (s *Server) handleResetSheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := len(s.store.Snapshot().Blocks)
	if err := s.approval.Request("reset_sheet", fmt.Sprintf("Reset the sheet, discarding %d block(s)", n), nil); err != nil {
		return nil, err
	}
	s.store.Reset()
	return textResult("Sheet reset to the default"), nil
}
