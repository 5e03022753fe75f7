// Package waiter implements the Waiter Machine: a conversational state
// engine that lets a handler suspend on one update and resume processing
// on a correlated later one. Grounded directly on
// mubble/bot/dispatch/waiter_machine/{machine,short_state,middleware}.py
// and mubble/bot/dispatch/waiter_machine/hasher/state.py.
package waiter

import "github.com/halcyon-dev/telecore/update"

// Hasher derives a correlation key from an update — e.g. "the chat ID" or
// "the user ID" — used to match a later update against a suspended wait().
// Grounded on hasher/state.py's StateHasher family.
type Hasher interface {
	Name() string
	Hash(u *update.Update) (key any, ok bool)
}

type funcHasher struct {
	name string
	fn   func(u *update.Update) (any, bool)
}

func (h *funcHasher) Name() string { return h.name }
func (h *funcHasher) Hash(u *update.Update) (any, bool) { return h.fn(u) }

// NewHasher builds a Hasher from a name and a key-extraction function.
func NewHasher(name string, fn func(u *update.Update) (any, bool)) Hasher {
	return &funcHasher{name: name, fn: fn}
}

// ChatHasher correlates by the chat ID of whichever payload the update
// carries, covering Message/CallbackQuery alike.
var ChatHasher = NewHasher("chat", func(u *update.Update) (any, bool) {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID, true
	case u.EditedMessage != nil:
		return u.EditedMessage.Chat.ID, true
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID, true
	default:
		return nil, false
	}
})

// UserHasher correlates by the sending user's ID.
var UserHasher = NewHasher("user", func(u *update.Update) (any, bool) {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID, true
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID, true
	default:
		return nil, false
	}
})
