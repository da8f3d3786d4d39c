package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	uriSheetState  = "sheet://state"
	uriSheetLayout = "sheet://layout"
	uriBlockPrefix = "sheet://block/"
)

func (s *Server) registerResources() {
	// ── sheet://state ──────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		uriSheetState,
		"Character Sheet",
		mcp.WithResourceDescription("The whole sheet with every block in paint order"),
		mcp.WithMIMEType("application/json"),
	), s.handleStateResource)

	// ── sheet://layout ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		uriSheetLayout,
		"Sheet Layout",
		mcp.WithResourceDescription("Grid geometry of every block"),
		mcp.WithMIMEType("application/json"),
	), s.handleLayoutResource)

	// ── sheet://block/{blockId} ────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriBlockPrefix+"{blockId}",
			"Sheet Block",
		),
		s.handleBlockResource,
	)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(uriSheetState, s.sheetView())
}

func (s *Server) handleLayoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(uriSheetLayout, s.store.Layout())
}

func (s *Server) handleBlockResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, uriBlockPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("could not extract blockId from URI: %s", uri)
	}
	b, ok := s.store.Block(id)
	if !ok {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return jsonContents(uri, summarizeBlock(b))
}
