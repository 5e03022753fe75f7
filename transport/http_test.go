package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPClientCallSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer srv.Close()

	token := MustParseToken("123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	client := NewHTTPClient(token, srv.URL, WithRateLimit(1000, 1000))

	var out struct {
		MessageID int64 `json:"message_id"`
	}
	err := client.Call(context.Background(), "sendMessage", map[string]any{"chat_id": 1, "text": "hi"}, &out)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.MessageID != 42 {
		t.Fatalf("message_id = %d, want 42", out.MessageID)
	}
}

func TestHTTPClientCallPermanentError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found","error_code":400}`))
	}))
	defer srv.Close()

	token := MustParseToken("123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	client := NewHTTPClient(token, srv.URL, WithRateLimit(1000, 1000))

	err := client.Call(context.Background(), "sendMessage", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !asAPIError(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if !apiErr.Permanent {
		t.Fatal("expected 400 to classify as permanent")
	}
}

func TestHTTPClientCallRetryableError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests","error_code":429,"parameters":{"retry_after":3}}`))
	}))
	defer srv.Close()

	token := MustParseToken("123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	client := NewHTTPClient(token, srv.URL, WithRateLimit(1000, 1000))

	err := client.Call(context.Background(), "sendMessage", nil, nil)
	var apiErr *APIError
	if !asAPIError(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Permanent {
		t.Fatal("expected 429 to classify as retryable")
	}
	if apiErr.RetryAfter != 3 {
		t.Fatalf("retry_after = %d, want 3", apiErr.RetryAfter)
	}
}

func asAPIError(err error, target **APIError) bool {
	ae, ok := err.(*APIError)
	if !ok {
		return false
	}
	*target = ae
	return true
}

func TestParseToken(t *testing.T) {
	t.Parallel()
	if _, err := ParseToken(""); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	tok, err := ParseToken("123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}
}
