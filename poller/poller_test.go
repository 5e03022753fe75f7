package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/update"
)

// scriptedClient replays a fixed sequence of getUpdates responses, one per
// call, optionally erroring first to exercise the backoff-and-retry path.
type scriptedClient struct {
	mu        sync.Mutex
	calls     int
	failFirst bool
	batches   [][]update.Update
}

func (c *scriptedClient) Call(ctx context.Context, method string, params map[string]any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if method != "getUpdates" {
		return errors.Errorf("unexpected method %q", method)
	}

	call := c.calls
	c.calls++

	if c.failFirst && call == 0 {
		return errors.New("transient failure")
	}

	idx := call
	if c.failFirst {
		idx--
	}
	if idx >= len(c.batches) {
		return nil
	}

	dst := out.(*[]update.Update)
	*dst = c.batches[idx]
	return nil
}

func TestPollerAdvancesOffsetAndInvokesHandler(t *testing.T) {
	client := &scriptedClient{
		batches: [][]update.Update{
			{{UpdateID: 5, Kind: update.KindMessage, Message: &update.Message{MessageID: 1}}},
			{{UpdateID: 6, Kind: update.KindMessage, Message: &update.Message{MessageID: 2}}},
		},
	}
	p := New(client, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	var handled []int64
	var mu sync.Mutex

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(ctx context.Context, u *update.Update) error {
			mu.Lock()
			handled = append(handled, u.UpdateID)
			mu.Unlock()
			if len(handled) >= 2 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 2 || handled[0] != 5 || handled[1] != 6 {
		t.Fatalf("handled = %v, want [5 6]", handled)
	}
	if p.Offset() != 7 {
		t.Fatalf("offset = %d, want 7", p.Offset())
	}
}

func TestPollerRetriesAfterFetchFailure(t *testing.T) {
	client := &scriptedClient{
		failFirst: true,
		batches: [][]update.Update{
			{{UpdateID: 1, Kind: update.KindMessage, Message: &update.Message{MessageID: 1}}},
		},
	}
	p := New(client, Options{BackoffBase: time.Millisecond, BackoffMax: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	handled := make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(ctx context.Context, u *update.Update) error {
			handled <- struct{}{}
			return nil
		})
	}()

	select {
	case <-handled:
		cancel()
	case <-time.After(time.Second):
		t.Fatal("poller never recovered from the first fetch failure")
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPollerContinuesAfterHandlerError(t *testing.T) {
	client := &scriptedClient{
		batches: [][]update.Update{
			{{UpdateID: 1, Kind: update.KindMessage, Message: &update.Message{MessageID: 1}}},
			{{UpdateID: 2, Kind: update.KindMessage, Message: &update.Message{MessageID: 2}}},
		},
	}
	p := New(client, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	var seen []int64
	var mu sync.Mutex

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(ctx context.Context, u *update.Update) error {
			mu.Lock()
			seen = append(seen, u.UpdateID)
			n := len(seen)
			mu.Unlock()
			if n >= 2 {
				cancel()
			}
			if u.UpdateID == 1 {
				return errors.New("handler boom")
			}
			return nil
		})
	}()

	<-done
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("seen = %v, want 2 updates even though the first handler call errored", seen)
	}
}
