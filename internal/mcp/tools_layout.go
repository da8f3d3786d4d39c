package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"charsheet/internal/domain"
)

func (s *Server) registerLayoutTools() {
	// ── update_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_layout",
		mcp.WithDescription("Set the geometry of several blocks at once. Blocks not listed keep their position; unknown ids are ignored. Positions are applied as given, without collision checks."),
		mcp.WithString("items",
			mcp.Description(`JSON array of layout items [{"i": blockId, "x": col, "y": row, "w": cols, "h": rows}, ...]`),
			mcp.Required(),
		),
	), s.handleUpdateLayout)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a grid cell. With compact layout off, a move onto another block is refused; with it on, other blocks make room."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Target column"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Target row"), mcp.Required()),
	), s.handleMoveBlock)

	// ── resize_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Resize a block, in grid cells. Same collision rules as move_block."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("w", mcp.Description("Width in columns"), mcp.Required()),
		mcp.WithNumber("h", mcp.Description("Height in rows"), mcp.Required()),
	), s.handleResizeBlock)

	// ── settle_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("settle_layout",
		mcp.WithDescription("Resolve blocks still waiting to be placed at the bottom and, when compact layout is on, pull everything up to close gaps."),
	), s.handleSettleLayout)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleUpdateLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("items")
	if err != nil {
		return nil, err
	}
	var items []domain.LayoutItem
	if err := parseJSON(raw, &items); err != nil {
		return nil, fmt.Errorf("invalid items JSON: %w", err)
	}
	for _, it := range items {
		if it.W < 1 || it.H < 1 || it.X < 0 || it.Y < 0 {
			return nil, fmt.Errorf("block %s: geometry must have x,y >= 0 and w,h >= 1", it.ID)
		}
	}
	s.store.UpdateLayout(items)
	return jsonResult(s.store.Layout())
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.requireBlock(req)
	if err != nil {
		return nil, err
	}
	x, err := req.RequireInt("x")
	if err != nil {
		return nil, err
	}
	y, err := req.RequireInt("y")
	if err != nil {
		return nil, err
	}

	ok := true
	s.store.Relayout("move_block", func(items []domain.LayoutItem, compact bool) ([]domain.LayoutItem, bool) {
		var out []domain.LayoutItem
		out, ok = s.engine.Move(s.engine.Resolve(items, false), b.ID, x, y, compact)
		return out, ok
	})
	if !ok {
		return nil, fmt.Errorf("cannot move block %s to (%d,%d): the cell is occupied and compact layout is off", b.ID, x, y)
	}
	moved, _ := s.store.Block(b.ID)
	return jsonResult(moved.Geometry())
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.requireBlock(req)
	if err != nil {
		return nil, err
	}
	w, err := req.RequireInt("w")
	if err != nil {
		return nil, err
	}
	h, err := req.RequireInt("h")
	if err != nil {
		return nil, err
	}

	ok := true
	s.store.Relayout("resize_block", func(items []domain.LayoutItem, compact bool) ([]domain.LayoutItem, bool) {
		var out []domain.LayoutItem
		out, ok = s.engine.Resize(s.engine.Resolve(items, false), b.ID, w, h, compact)
		return out, ok
	})
	if !ok {
		return nil, fmt.Errorf("cannot resize block %s to %dx%d: it would overlap another block and compact layout is off", b.ID, w, h)
	}
	resized, _ := s.store.Block(b.ID)
	return jsonResult(resized.Geometry())
}

func (s *Server) handleSettleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store.Relayout("settle_layout", func(items []domain.LayoutItem, compact bool) ([]domain.LayoutItem, bool) {
		return s.engine.Resolve(items, compact), true
	})
	return jsonResult(s.store.Layout())
}
