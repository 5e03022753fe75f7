package view

import (
	"context"
	"testing"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/handler"
	"github.com/halcyon-dev/telecore/returns"
	"github.com/halcyon-dev/telecore/rule"
	"github.com/halcyon-dev/telecore/update"
)

type fakeClient struct{ calls int }

func (f *fakeClient) Call(context.Context, string, map[string]any, any) error {
	f.calls++
	return nil
}

func messageUpdate(text string) *update.Update {
	return &update.Update{
		UpdateID: 1,
		Kind:     update.KindMessage,
		Message:  &update.Message{MessageID: 1, Chat: update.Chat{ID: 1, Type: "private"}, Text: text},
	}
}

func TestViewRunsFirstMatchingBlockingHandler(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	v := New("test", returns.NewManager(client))
	ran := []string{}

	v.Handlers = append(v.Handlers,
		handler.New(func(m *update.Message) (returns.Response, error) {
			ran = append(ran, "start")
			return returns.Text{ChatID: m.Chat.ID, Body: "hi"}, nil
		}, rule.HasPrefix("/start")),
		handler.New(func(m *update.Message) (returns.Response, error) {
			ran = append(ran, "catchall")
			return nil, nil
		}),
	)

	u := messageUpdate("/start")
	dc := dctx.New(u)
	handled, err := v.Process(context.Background(), dc, u)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !handled {
		t.Fatal("expected handled=true")
	}
	if len(ran) != 1 || ran[0] != "start" {
		t.Fatalf("ran = %v, want only [start]", ran)
	}
	if client.calls != 1 {
		t.Fatalf("client.calls = %d, want 1", client.calls)
	}
}

func TestViewAutoRuleGatesView(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	v := New("gated", returns.NewManager(client))
	v.AutoRules = append(v.AutoRules, rule.IsPrivate())
	v.Handlers = append(v.Handlers, handler.New(func(m *update.Message) (returns.Response, error) {
		return returns.Text{ChatID: m.Chat.ID, Body: "hi"}, nil
	}))

	u := &update.Update{
		UpdateID: 2,
		Kind:     update.KindMessage,
		Message:  &update.Message{MessageID: 2, Chat: update.Chat{ID: 1, Type: "supergroup"}, Text: "hi"},
	}
	dc := dctx.New(u)
	handled, err := v.Process(context.Background(), dc, u)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if handled {
		t.Fatal("expected view to be skipped by auto-rule")
	}
}

func TestViewRestoresContextBetweenNonBlockingHandlers(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	v := New("test", returns.NewManager(client))

	nonBlocking := handler.New(func(m *update.Message) (returns.Response, error) {
		return nil, nil
	}, rule.Command("sum", rule.Argument("x", rule.Int), rule.Argument("y", rule.Int)))
	nonBlocking.IsBlocking = false

	var sawX any
	var sawXPresent bool
	catchAll := handler.New(func(dc *dctx.Context) (returns.Response, error) {
		sawX, sawXPresent = dc.Get("x")
		return nil, nil
	})

	v.Handlers = append(v.Handlers, nonBlocking, catchAll)

	u := messageUpdate("/sum 2 3")
	dc := dctx.New(u)
	if _, err := v.Process(context.Background(), dc, u); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sawXPresent {
		t.Fatalf("expected x to be restored away before the next handler, got present=%v value=%v", sawXPresent, sawX)
	}
}

type consumingMiddleware struct {
	postCalled bool
}

func (m *consumingMiddleware) Pre(*dctx.Context, *update.Update) (bool, error) { return false, nil }
func (m *consumingMiddleware) Post(*dctx.Context, *update.Update, bool) error {
	m.postCalled = true
	return nil
}

func TestViewMiddlewareConsumesEvent(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	v := New("waiter-backed", returns.NewManager(client))
	mw := &consumingMiddleware{}
	v.Middlewares = append(v.Middlewares, mw)

	ran := false
	v.Handlers = append(v.Handlers, handler.New(func(m *update.Message) (returns.Response, error) {
		ran = true
		return nil, nil
	}))

	u := messageUpdate("anything")
	dc := dctx.New(u)
	handled, err := v.Process(context.Background(), dc, u)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !handled {
		t.Fatal("expected handled=true (middleware consumed)")
	}
	if ran {
		t.Fatal("handler should not have run once middleware consumed the event")
	}
	if !mw.postCalled {
		t.Fatal("Post must always run, even when Pre consumed the event")
	}
}
