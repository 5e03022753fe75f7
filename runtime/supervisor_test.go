package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/halcyon-dev/telecore/dispatch"
	"github.com/halcyon-dev/telecore/internal/clipanel"
	"github.com/halcyon-dev/telecore/poller"
	"github.com/halcyon-dev/telecore/update"
	"github.com/halcyon-dev/telecore/waiter"
)

type fakeClient struct{}

func (fakeClient) Call(ctx context.Context, method string, params map[string]any, out any) error {
	return nil
}

func TestSupervisorStartsAndStopsPoller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := NewSupervisor(ctx)
	p := poller.New(fakeClient{}, poller.Options{})

	handled := make(chan struct{}, 1)
	if err := sup.RegisterPoller(p, func(ctx context.Context, u *update.Update) error {
		select {
		case handled <- struct{}{}:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("register poller: %v", err)
	}

	if err := sup.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sup.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSupervisorRegistersSweeperAndConsole(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := NewSupervisor(ctx)
	p := poller.New(fakeClient{}, poller.Options{})
	if err := sup.RegisterPoller(p, func(context.Context, *update.Update) error { return nil }); err != nil {
		t.Fatalf("register poller: %v", err)
	}

	m := waiter.NewMachine(0)
	defer m.Stop()
	if err := sup.RegisterSweeper(m, 10*time.Millisecond); err != nil {
		t.Fatalf("register sweeper: %v", err)
	}

	d := dispatch.New()
	console := clipanel.NewService(m, d, cancel)
	if err := sup.RegisterConsole(console); err != nil {
		t.Fatalf("register console: %v", err)
	}

	if err := sup.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := sup.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
