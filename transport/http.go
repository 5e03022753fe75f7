package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/time/rate"
)

// HTTPClient is the default Client, grounded almost line for line on
// internal/adapters/botapi/notifier/bot_sender.go: a plain net/http.Client
// gated by a rate.Limiter, talking to the classic Bot HTTP API. Per
// SPEC_FULL.md's Non-goals, this is a minimal reference implementation for
// completeness and testing, not a hardened production client.
type HTTPClient struct {
	baseURL string
	fileURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures an HTTPClient at construction.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying *http.Client (default: a client
// with a 30s timeout, mirroring bot_sender.go's default).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithRateLimit overrides the outbound requests-per-second limit (default 30,
// matching Telegram's documented global rate guidance and
// NewBotSender's rate.NewLimiter(rate.Limit(rps), rps) shape).
func WithRateLimit(rps float64, burst int) Option {
	return func(h *HTTPClient) { h.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithFileBaseURL overrides the base URL used for file downloads
// (api_file_base_url in spec.md §6's Configuration Surface).
func WithFileBaseURL(url string) Option {
	return func(h *HTTPClient) { h.fileURL = url }
}

// NewHTTPClient builds an HTTPClient for token against apiBaseURL (default
// "https://api.telegram.org" if empty), mirroring NewBotSender's
// "<base>/bot<token>/<method>" URL construction.
func NewHTTPClient(token Token, apiBaseURL string, opts ...Option) *HTTPClient {
	if apiBaseURL == "" {
		apiBaseURL = "https://api.telegram.org"
	}
	h := &HTTPClient{
		baseURL: fmt.Sprintf("%s/bot%s", apiBaseURL, token),
		fileURL: fmt.Sprintf("%s/file/bot%s", apiBaseURL, token),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(30), 30),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// envelope mirrors bot_sender.go's handleJSONResponse's {ok, result,
// description, error_code, parameters.retry_after} shape.
type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// Call performs one Bot API method call, gated by the limiter exactly as
// bot_sender.go's Deliver does before performSend.
func (h *HTTPClient) Call(ctx context.Context, method string, params map[string]any, out any) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return &TransportError{Err: err}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "marshal params")
	}

	url := fmt.Sprintf("%s/%s", h.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	return handleResponse(resp.StatusCode, resp.Header.Get("Retry-After"), respBody, out)
}

// handleResponse mirrors bot_sender.go's handleHTTPError + handleJSONResponse
// pair: classify by status code first, then decode the JSON envelope.
func handleResponse(status int, retryAfterHeader string, body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &TransportError{Err: errors.Wrapf(err, "decode response (status %d)", status)}
	}

	if env.OK {
		if out != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, out); err != nil {
				return errors.Wrap(err, "decode result")
			}
		}
		return nil
	}

	apiErr := &APIError{
		Description: env.Description,
		Code:        env.ErrorCode,
		Permanent:   isPermanentBotError(status, env.ErrorCode),
	}
	if env.Parameters != nil && env.Parameters.RetryAfter > 0 {
		apiErr.RetryAfter = env.Parameters.RetryAfter
	} else if d, ok := parseRetryAfter(retryAfterHeader); ok {
		apiErr.RetryAfter = int(d.Seconds())
	}
	return apiErr
}

// isPermanentBotError classifies 429/5xx as retryable and every other 4xx as
// permanent, mirroring bot_sender.go's isPermanentBotError.
func isPermanentBotError(status, code int) bool {
	effective := code
	if effective == 0 {
		effective = status
	}
	if effective == http.StatusTooManyRequests {
		return false
	}
	if effective >= 500 {
		return false
	}
	return effective >= 400
}

// parseRetryAfter reads a Retry-After header as a fallback when the JSON
// body carries no parameters.retry_after, mirroring
// bot_sender.go's parseRetryAfterHeader.
func parseRetryAfter(header string) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
