package transport

import "context"

// Client is the minimal upstream contract spec.md §6 names: send a Bot API
// method call with JSON parameters and get back the decoded JSON result (or
// a classified error). Both the Poller's getUpdates loop and any handler
// action's outbound call go through this interface, so tests can swap in a
// fake.
type Client interface {
	// Call invokes method against the Bot API with the given JSON-encodable
	// params and decodes the envelope's "result" field into out (a pointer,
	// or nil to discard the result body).
	Call(ctx context.Context, method string, params map[string]any, out any) error
}

// TransportError wraps a failure at the HTTP/network layer, distinct from
// an APIError the upstream service itself reported (spec.md §7).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// APIError wraps a {ok:false} response from the Bot API, carrying its
// description, numeric error_code, and whether retrying is expected to help
// (spec.md §7: permanent 4xx vs retryable 429/5xx).
type APIError struct {
	Description string
	Code        int
	Permanent   bool
	RetryAfter  int // seconds, from parameters.retry_after when present
}

func (e *APIError) Error() string { return e.Description }
