package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"charsheet/internal/domain"
)

// parseJSON parses a JSON string argument into target.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// requireBlock returns the block named by the blockId argument.
func (s *Server) requireBlock(req mcp.CallToolRequest) (domain.Block, error) {
	id, err := req.RequireString("blockId")
	if err != nil {
		return domain.Block{}, err
	}
	b, ok := s.store.Block(id)
	if !ok {
		return domain.Block{}, fmt.Errorf("block %s not found", id)
	}
	return b, nil
}

// optionalInt reads an integer argument, reporting whether it was given.
// JSON numbers arrive as float64.
func optionalInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// blockSummary is the agent-facing view of a block: geometry plus the
// typed content the renderer would show.
type blockSummary struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Tier    domain.Tier    `json:"tier"`
	X       int            `json:"x"`
	Y       int            `json:"y"`
	W       int            `json:"w"`
	H       int            `json:"h"`
	Content domain.Content `json:"content,omitempty"`
	Data    map[string]any `json:"data"`
}

func summarizeBlock(b domain.Block) blockSummary {
	return blockSummary{
		ID:      b.ID,
		Type:    string(b.Type),
		Tier:    b.EffectiveTier(),
		X:       b.X,
		Y:       b.Y,
		W:       b.W,
		H:       b.H,
		Content: b.Content(),
		Data:    b.Data,
	}
}
