package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"charsheet/internal/service"
	"charsheet/internal/storage"
)

// Events the approval queue emits in in-process mode.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction is a destructive tool call awaiting the user.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. block ids to highlight)
}

// ApprovalQueue gates destructive MCP tool calls on the user's consent.
// It works in one of three modes:
//   - auto: every request is approved (headless use)
//   - in-process: the editor window gets an event and answers via Approve/Reject
//   - store-backed: the standalone MCP process writes mcp_approvals rows and
//     polls until the editor window resolves them
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool

	ctx     context.Context
	emitter service.EventEmitter
	store   *storage.ApprovalStore
	log     *zap.Logger
	auto    bool
	timeout time.Duration
	poll    time.Duration
}

func NewApprovalQueue(ctx context.Context, emitter service.EventEmitter, logger *zap.Logger) *ApprovalQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		ctx:     ctx,
		emitter: emitter,
		log:     logger,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetStore switches to store-backed mode for the standalone process.
func (q *ApprovalQueue) SetStore(store *storage.ApprovalStore) {
	q.store = store
}

// SetAutoApprove skips asking.
func (q *ApprovalQueue) SetAutoApprove(auto bool) {
	q.auto = auto
}

// Request asks for approval and blocks until it is given, refused or times out.
// metadata is serialized to JSON for the approval dialog.
func (q *ApprovalQueue) Request(tool, description string, metadata any) error {
	if q.auto {
		return nil
	}
	meta := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
	}
	id := uuid.New().String()
	q.log.Info("approval requested", zap.String("id", id), zap.String("tool", tool))

	if q.store != nil {
		return q.requestViaStore(id, tool, description, meta)
	}
	return q.requestViaChannel(id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(id, tool, description, metadata string) error {
	if err := q.store.Insert(id, tool, description, metadata); err != nil {
		return err
	}
	defer q.store.Delete(id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.Status(id)
			if err != nil {
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("action rejected by user: %s", tool)
			case "":
				return fmt.Errorf("approval for %s was withdrawn", tool)
			}
		case <-deadline.C:
			return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
		case <-q.ctx.Done():
			return fmt.Errorf("approval for %s: %w", tool, q.ctx.Err())
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(id, tool, description, metadata string) error {
	ch := make(chan bool, 1)
	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		return fmt.Errorf("approval for %s: %w", tool, q.ctx.Err())
	}
}

// Approve answers a pending in-process request.
func (q *ApprovalQueue) Approve(actionID string) { q.resolve(actionID, true) }

// Reject refuses a pending in-process request.
func (q *ApprovalQueue) Reject(actionID string) { q.resolve(actionID, false) }

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- approved:
	default:
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
