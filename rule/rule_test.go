package rule

import (
	"testing"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/update"
)

func messageUpdate(text string) *update.Update {
	return &update.Update{
		UpdateID: 1,
		Kind:     update.KindMessage,
		Message:  &update.Message{MessageID: 1, Chat: update.Chat{ID: 1, Type: "private"}, Text: text},
	}
}

func TestFuncRuleMatch(t *testing.T) {
	t.Parallel()
	u := messageUpdate("/start")
	ctx := dctx.New(u)

	ok, err := HasPrefix("/start").Check(ctx, u)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected match")
	}
}

func TestFuncRuleShapeMismatchIsCleanMiss(t *testing.T) {
	t.Parallel()
	u := &update.Update{
		UpdateID:      2,
		Kind:          update.KindCallbackQuery,
		CallbackQuery: &update.CallbackQuery{ID: "1", From: update.User{ID: 1}, Data: "x"},
	}
	ctx := dctx.New(u)

	ok, err := HasPrefix("/start").Check(ctx, u)
	if err != nil {
		t.Fatalf("expected clean non-match, got error: %v", err)
	}
	if ok {
		t.Fatal("expected no match for non-message update")
	}
}

func TestAndShortCircuitsAndMerges(t *testing.T) {
	t.Parallel()
	u := messageUpdate("/start")
	ctx := dctx.New(u)

	setsKey := NewFunc("sets-key", func(c *dctx.Context) bool {
		c.Set("seen", true)
		return true
	})

	combined := And(HasPrefix("/start"), setsKey)
	ok, err := combined.Check(ctx, u)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected AND to succeed")
	}
	if v, _ := ctx.Get("seen"); v != true {
		t.Fatal("expected successful AND branch's context writes to merge")
	}
}

func TestAndFailsWithoutMergingPartialWrites(t *testing.T) {
	t.Parallel()
	u := messageUpdate("/other")
	ctx := dctx.New(u)

	setsKey := NewFunc("sets-key", func(c *dctx.Context) bool {
		c.Set("seen", true)
		return true
	})

	combined := And(setsKey, HasPrefix("/start"))
	ok, err := combined.Check(ctx, u)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatal("expected AND to fail")
	}
	if _, present := ctx.Get("seen"); present {
		t.Fatal("failed AND must not leak partial context writes")
	}
}

func TestOrTriesEachBranch(t *testing.T) {
	t.Parallel()
	u := messageUpdate("/help")
	ctx := dctx.New(u)

	combined := Or(HasPrefix("/start"), HasPrefix("/help"))
	ok, err := combined.Check(ctx, u)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected OR to match second branch")
	}
}

func TestNotInverts(t *testing.T) {
	t.Parallel()
	u := messageUpdate("/help")
	ctx := dctx.New(u)

	ok, err := Not(HasPrefix("/start")).Check(ctx, u)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected Not(HasPrefix) to match a non-/start message")
	}
}

func TestTranslationCache(t *testing.T) {
	t.Parallel()
	cache := NewTranslationCache()
	base := HasPrefix("/start")
	translated := HasPrefix("/empezar")

	if _, ok := cache.Get(base, "es"); ok {
		t.Fatal("expected empty cache miss")
	}
	cache.Put(base, "es", translated)
	got, ok := cache.Get(base, "es")
	if !ok || got != translated {
		t.Fatal("expected cached translation to round-trip")
	}
}
