package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"charsheet/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the block types and the data fields each one renders"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListBlockTypes)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a block to the sheet. It goes below all existing content unless x/y are given; w/h default to 4x2 grid cells on a 12-column grid."),
		mcp.WithString("type",
			mcp.Description("Block type: "+strings.Join(blockTypeNames(), ", ")),
			mcp.Required(),
			mcp.Enum(blockTypeNames()...),
		),
		mcp.WithString("config",
			mcp.Description(`Block config as JSON (optional), e.g. {"level": 2} for a header, {"shapeType": "circle"} for a shape, {"zIndex": "front"}`),
		),
		mcp.WithString("data",
			mcp.Description(`Initial data as JSON (optional), e.g. {"text": "Strength"} or {"label": "HP", "value": "12"}`),
		),
		mcp.WithNumber("x", mcp.Description("Column (optional)")),
		mcp.WithNumber("y", mcp.Description("Row (optional)")),
		mcp.WithNumber("w", mcp.Description("Width in columns (optional)")),
		mcp.WithNumber("h", mcp.Description("Height in rows (optional)")),
	), s.handleAddBlock)

	// ── update_block_data ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_data",
		mcp.WithDescription("Merge fields into a block's data. Fields not given are kept."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("data",
			mcp.Description(`JSON object of fields to set, e.g. {"items": ["Rope", "Torch"]}`),
			mcp.Required(),
		),
	), s.handleUpdateBlockData)

	// ── remove_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a block from the sheet. Requires user approval."),
		mcp.WithString("blockId", mcp.Description("Block ID to remove"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveBlock)
}

func blockTypeNames() []string {
	out := make([]string, len(domain.BlockTypes))
	for i, t := range domain.BlockTypes {
		out[i] = string(t)
	}
	return out
}

// blockTypeFields documents the data keys each renderer reads.
var blockTypeFields = map[domain.BlockType]string{
	domain.BlockTypeText:      `{"text": string}`,
	domain.BlockTypeHeader:    `{"text": string}; config.level 1..3`,
	domain.BlockTypeFormBox:   `{"label": string, "value": string}`,
	domain.BlockTypeList:      `{"items": [string]}`,
	domain.BlockTypeImage:     `{"src": data URI}`,
	domain.BlockTypeShape:     `no data; config.shapeType square|circle|rounded|heart`,
	domain.BlockTypeDivider:   `no data`,
	domain.BlockTypeContainer: `no data; always painted behind other blocks`,
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type typeInfo struct {
		Type   string `json:"type"`
		Fields string `json:"fields"`
	}
	out := make([]typeInfo, len(domain.BlockTypes))
	for i, t := range domain.BlockTypes {
		out[i] = typeInfo{Type: string(t), Fields: blockTypeFields[t]}
	}
	return jsonResult(out)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, err := req.RequireString("type")
	if err != nil {
		return nil, err
	}
	blockType, err := domain.ParseBlockType(raw)
	if err != nil {
		return nil, err
	}

	var cfg *domain.BlockConfig
	if c := req.GetString("config", ""); c != "" {
		cfg = &domain.BlockConfig{}
		if err := parseJSON(c, cfg); err != nil {
			return nil, fmt.Errorf("invalid config JSON: %w", err)
		}
	}
	var data map[string]any
	if d := req.GetString("data", ""); d != "" {
		if err := parseJSON(d, &data); err != nil {
			return nil, fmt.Errorf("invalid data JSON: %w", err)
		}
	}

	id := s.store.AddBlock(blockType, cfg)
	if len(data) > 0 {
		s.store.UpdateBlockData(id, data)
	}

	x, hasX := optionalInt(args, "x")
	y, hasY := optionalInt(args, "y")
	w, hasW := optionalInt(args, "w")
	h, hasH := optionalInt(args, "h")
	moved := true
	s.store.Relayout("place_block", func(items []domain.LayoutItem, compact bool) ([]domain.LayoutItem, bool) {
		out := s.engine.Resolve(items, compact)
		cur := findItem(out, id)
		if hasW || hasH {
			if !hasW {
				w = cur.W
			}
			if !hasH {
				h = cur.H
			}
			out, _ = s.engine.Resize(out, id, w, h, compact)
			cur = findItem(out, id)
		}
		if hasX || hasY {
			if !hasX {
				x = cur.X
			}
			if !hasY {
				y = cur.Y
			}
			out, moved = s.engine.Move(out, id, x, y, compact)
		}
		return out, true
	})

	b, _ := s.store.Block(id)
	result := map[string]any{"block": summarizeBlock(b)}
	if !moved {
		result["note"] = fmt.Sprintf("(%d,%d) is occupied; the block was placed at (%d,%d)", x, y, b.X, b.Y)
	}
	return jsonResult(result)
}

func (s *Server) handleUpdateBlockData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.requireBlock(req)
	if err != nil {
		return nil, err
	}
	raw, err := req.RequireString("data")
	if err != nil {
		return nil, err
	}
	var patch map[string]any
	if err := parseJSON(raw, &patch); err != nil {
		return nil, fmt.Errorf("invalid data JSON: %w", err)
	}
	s.store.UpdateBlockData(b.ID, patch)

	updated, _ := s.store.Block(b.ID)
	return jsonResult(summarizeBlock(updated))
}

func (s *Server) handleRemoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.requireBlock(req)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("Remove %s block %s", b.Type, b.ID)
	if err := s.approval.Request("remove_block", desc, map[string]string{"blockId": b.ID}); err != nil {
		return nil, err
	}
	s.store.RemoveBlock(b.ID)
	return textResult(fmt.Sprintf("Removed block %s", b.ID)), nil
}

func findItem(items []domain.LayoutItem, id string) domain.LayoutItem {
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	return domain.LayoutItem{}
}
