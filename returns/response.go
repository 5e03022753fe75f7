// Package returns implements the Response sum type handler actions produce
// and the ReturnManager that dispatches each variant to a Transport call,
// re-expressing mubble's implicit return-value processing as an explicit
// tagged variant per spec.md Design Notes §9.
package returns

// Response is the sum type a Handler action may return: exactly one
// concrete implementation below, chosen by the handler. A nil Response
// (the zero value returned alongside a non-nil error, or a handler that
// explicitly answers nothing) means "no reply to send."
type Response interface {
	isResponse()
}

// Text replies with plain text to the chat the update came from.
type Text struct {
	ChatID int64
	Body   string
}

func (Text) isResponse() {}

// Formatted replies with text plus a parse mode (e.g. "MarkdownV2", "HTML").
type Formatted struct {
	ChatID    int64
	Body      string
	ParseMode string
}

func (Formatted) isResponse() {}

// Messages replies with several Responses in sequence, e.g. a multi-part
// answer. Each element is sent in order; a failure mid-sequence stops it.
type Messages struct {
	Items []Response
}

func (Messages) isResponse() {}

// Kwargs is an escape hatch for a raw Bot API method call the other
// variants don't model directly (any method name plus its full parameter
// set), which ReturnManager.Send passes to the client as-is.
type Kwargs struct {
	Method string
	Params map[string]any
}

func (Kwargs) isResponse() {}
