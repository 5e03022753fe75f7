package clipanel

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/halcyon-dev/telecore/dispatch"
	"github.com/halcyon-dev/telecore/returns"
	"github.com/halcyon-dev/telecore/view"
	"github.com/halcyon-dev/telecore/waiter"
)

type fakeClient struct{}

func (fakeClient) Call(ctx context.Context, method string, params map[string]any, out any) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	machine := waiter.NewMachine(0)
	d := dispatch.New()
	d.Load(view.New("greet", returns.NewManager(fakeClient{})))

	s := NewService(machine, d, nil)
	buf := &bytes.Buffer{}
	s.console.out = buf
	s.console.errW = buf
	return s, buf
}

func TestHandleCommandStats(t *testing.T) {
	s, buf := newTestService(t)
	if s.handleCommand("stats") {
		t.Fatal("stats should not stop the console")
	}
	if !strings.Contains(buf.String(), "greet") {
		t.Fatalf("expected view name in stats output, got %q", buf.String())
	}
}

func TestHandleCommandWaitersEmpty(t *testing.T) {
	s, buf := newTestService(t)
	s.handleCommand("waiters")
	if !strings.Contains(buf.String(), "no suspended waits") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestHandleCommandDropUnknown(t *testing.T) {
	s, buf := newTestService(t)
	s.handleCommand("drop chat 42")
	if !strings.Contains(buf.String(), "drop error") {
		t.Fatalf("expected drop error, got %q", buf.String())
	}
}

func TestHandleCommandDropKnown(t *testing.T) {
	s, buf := newTestService(t)

	go func() {
		_, _ = s.machine.Wait(context.Background(), waiter.ChatHasher, int64(42), nil, nil, time.Minute)
	}()
	time.Sleep(20 * time.Millisecond)

	s.handleCommand("drop chat 42")
	if !strings.Contains(buf.String(), "dropped chat 42") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestHandleCommandExitStopsApp(t *testing.T) {
	machine := waiter.NewMachine(0)
	d := dispatch.New()
	stopped := false
	s := NewService(machine, d, func() { stopped = true })
	s.console.out = &bytes.Buffer{}
	s.console.errW = &bytes.Buffer{}

	if !s.handleCommand("exit") {
		t.Fatal("exit should stop the console")
	}
	if !stopped {
		t.Fatal("expected stopApp to be invoked")
	}
}
