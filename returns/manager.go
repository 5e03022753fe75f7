package returns

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/transport"
)

// ReturnManager dispatches each Response variant to the appropriate
// transport.Client call, re-expressing mubble's implicit return-value
// handling (a handler's return value is inspected and sent) as an explicit
// registry keyed by concrete type, per Design Notes §9.
type ReturnManager struct {
	client transport.Client
}

// NewManager builds a ReturnManager bound to client.
func NewManager(client transport.Client) *ReturnManager {
	return &ReturnManager{client: client}
}

// Send dispatches resp by variant: Text and Formatted become sendMessage,
// Messages recurses over its items, Kwargs calls its own method, and a nil
// Response sends nothing. Any other variant is an error.
func (m *ReturnManager) Send(ctx context.Context, resp Response) error {
	switch r := resp.(type) {
	case nil:
		return nil
	case Text:
		return m.client.Call(ctx, "sendMessage", map[string]any{
			"chat_id": r.ChatID,
			"text":    r.Body,
		}, nil)
	case Formatted:
		return m.client.Call(ctx, "sendMessage", map[string]any{
			"chat_id":    r.ChatID,
			"text":       r.Body,
			"parse_mode": r.ParseMode,
		}, nil)
	case Messages:
		for _, item := range r.Items {
			if err := m.Send(ctx, item); err != nil {
				return err
			}
		}
		return nil
	case Kwargs:
		return m.client.Call(ctx, r.Method, r.Params, nil)
	default:
		return errors.Errorf("returns: unhandled Response variant %T", resp)
	}
}
