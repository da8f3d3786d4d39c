package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_character_sheet",
		mcp.WithPromptDescription("Lay out a complete character sheet for a game system"),
		mcp.WithArgument("system",
			mcp.ArgumentDescription("Game system, e.g. D&D 5e, Call of Cthulhu, Cyberpunk RED"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("character",
			mcp.ArgumentDescription("Character name (optional)"),
		),
	), s.handleBuildSheetPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("restyle_sheet",
		mcp.WithPromptDescription("Pick a theme and fonts that match a mood"),
		mcp.WithArgument("mood",
			mcp.ArgumentDescription("The feel the sheet should have, e.g. grimdark, whimsical, high-tech"),
			mcp.RequiredArgument(),
		),
	), s.handleRestylePrompt)
}

func (s *Server) handleBuildSheetPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	system := req.Params.Arguments["system"]
	character := req.Params.Arguments["character"]
	if character == "" {
		character = "the character"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a %s character sheet", system),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a %s character sheet for %s. Follow these steps:

1. Call get_sheet to see what is already there, and list_block_types for the fields each block reads.
2. Use set_sheet_name, then add a header block (config {"level": 1}) with the character's name across the full 12 columns.
3. Add one form-box block per core attribute with {"label": ..., "value": ...}, laid out in a row of 2-column blocks.
4. Add list blocks for inventory, spells or skills, and text blocks for background notes.
5. Separate sections with divider blocks, and use a container block behind a group to frame it.
6. Finish with settle_layout so nothing overlaps.

Keep related fields next to each other and the most used numbers near the top.`, system, character),
				},
			},
		},
	}, nil
}

func (s *Server) handleRestylePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	mood := req.Params.Arguments["mood"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Restyle the sheet: %s", mood),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Restyle the character sheet to feel %s.

1. Call list_themes and choose the closest theme with set_theme.
2. Choose fonts for h1, h2, h3 and body with set_global_font. Prefer widely available families.
3. Do not change any block content.`, mood),
				},
			},
		},
	}, nil
}
