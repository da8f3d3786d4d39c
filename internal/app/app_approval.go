package app

import (
	"time"

	"go.uber.org/zap"

	mcpserver "charsheet/internal/mcp"
)

// ============================================================
// MCP approvals
// ============================================================
//
// The standalone MCP process parks destructive tool calls in mcp_approvals
// and polls for the answer; these bindings give it.

// ListPendingApprovals returns the agent actions waiting on the user.
func (a *App) ListPendingApprovals() ([]mcpserver.PendingAction, error) {
	if a.core == nil {
		return nil, errNotReady
	}
	rows, err := a.core.approvals.Pending()
	if err != nil {
		return nil, err
	}
	out := make([]mcpserver.PendingAction, len(rows))
	for i, r := range rows {
		out[i] = mcpserver.PendingAction{
			ID:          r.ID,
			Tool:        r.Tool,
			Description: r.Description,
			CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    r.Metadata,
		}
	}
	return out, nil
}

func (a *App) ApproveAction(id string) error {
	return a.resolveAction(id, true)
}

func (a *App) RejectAction(id string) error {
	return a.resolveAction(id, false)
}

func (a *App) resolveAction(id string, approved bool) error {
	if a.core == nil {
		return errNotReady
	}
	if err := a.core.approvals.Resolve(id, approved); err != nil {
		return err
	}
	a.log.Info("mcp action resolved", zap.String("id", id), zap.Bool("approved", approved))
	return nil
}
