package notify

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}
}

func TestWebhookNotify_PostsEnvelope(t *testing.T) {
	t.Parallel()

	var got webhookEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer hook-secret" {
			t.Errorf("unexpected authorization header: %s", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode envelope: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	hook, err := NewWebhook(WebhookConfig{
		Endpoint: srv.URL,
		Token:    "hook-secret",
		Retry:    fastRetry(1),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}

	err = hook.Notify(t.Context(), usecase.TeamAudience("team-aurora"), "proposal approved", "trade prop-001 was approved")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got.Audience != "team:team-aurora" {
		t.Fatalf("unexpected audience: %s", got.Audience)
	}
	if got.Subject != "proposal approved" {
		t.Fatalf("unexpected subject: %s", got.Subject)
	}
	if got.Body != "trade prop-001 was approved" {
		t.Fatalf("unexpected body: %s", got.Body)
	}
	if got.SentAt.IsZero() {
		t.Fatal("expected sent_at to be set")
	}
}

func TestWebhookNotify_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook, err := NewWebhook(WebhookConfig{
		Endpoint: srv.URL,
		Retry:    fastRetry(3),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}

	if err := hook.Notify(t.Context(), usecase.AudienceLeague, "market open", "trade window is open"); err != nil {
		t.Fatalf("notify after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 delivery attempts, got %d", got)
	}
}

func TestWebhookNotify_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	hook, err := NewWebhook(WebhookConfig{
		Endpoint: srv.URL,
		Retry:    fastRetry(3),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}

	if err := hook.Notify(t.Context(), usecase.AudienceLeague, "market open", "trade window is open"); err == nil {
		t.Fatal("expected delivery error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single delivery attempt, got %d", got)
	}
}

func TestWebhookNotify_CircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hook, err := NewWebhook(WebhookConfig{
		Endpoint: srv.URL,
		Retry:    fastRetry(1),
		Circuit: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := hook.Notify(t.Context(), usecase.AudienceLeague, "s", "b"); err == nil {
			t.Fatal("expected delivery error")
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 delivery attempts before circuit opened, got %d", got)
	}

	if err := hook.Notify(t.Context(), usecase.AudienceLeague, "s", "b"); err == nil {
		t.Fatal("expected circuit open error")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected circuit to block delivery, got %d attempts", got)
	}
}

func TestNewWebhook_RejectsBadEndpoint(t *testing.T) {
	t.Parallel()

	cases := []string{"", "   ", "ftp://hooks.example.com", "http://"}
	for _, endpoint := range cases {
		if _, err := NewWebhook(WebhookConfig{Endpoint: endpoint}, logging.NewNop()); err == nil {
			t.Fatalf("expected error for endpoint %q", endpoint)
		}
	}
}
