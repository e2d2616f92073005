// Package notify delivers league notifications to an external webhook
// endpoint. Delivery is best effort: callers treat failures as non-fatal.
package notify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

var errWebhookTransient = errors.New("webhook delivery transient failure")

type WebhookConfig struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	Retry    resilience.RetryConfig
	Circuit  resilience.CircuitBreakerConfig
}

// Webhook posts notification envelopes to a single configured endpoint. A
// circuit breaker sheds load when the endpoint is persistently down and a
// bounded retry loop absorbs transient failures.
type Webhook struct {
	client   *http.Client
	endpoint string
	token    string
	retryCfg resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
	logger   *logging.Logger
}

func NewWebhook(cfg WebhookConfig, logger *logging.Logger) (*Webhook, error) {
	endpoint, err := validateHTTPURL(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook endpoint")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Circuit.Enabled {
		breaker = resilience.NewCircuitBreaker(cfg.Circuit)
	}

	return &Webhook{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Token),
		retryCfg: resilience.NormalizeRetryConfig(cfg.Retry),
		breaker:  breaker,
		logger:   logger,
	}, nil
}

type webhookEnvelope struct {
	Audience string    `json:"audience"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

func (w *Webhook) Notify(ctx context.Context, audience usecase.Audience, subject, body string) error {
	envelope := webhookEnvelope{
		Audience: string(audience),
		Subject:  subject,
		Body:     body,
		SentAt:   time.Now().UTC(),
	}

	encoded, err := sonic.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, "marshal notification envelope")
	}

	err = resilience.Retry(ctx, w.retryCfg, w.isTransient, func(ctx context.Context) error {
		return w.post(ctx, encoded)
	})
	if err != nil {
		w.logger.WarnContext(ctx, "webhook notification failed",
			"audience", string(audience),
			"subject", subject,
			"error", err,
		)
		return err
	}

	w.logger.DebugContext(ctx, "webhook notification delivered",
		"audience", string(audience),
		"subject", subject,
	)
	return nil
}

func (w *Webhook) post(ctx context.Context, payload []byte) error {
	if w.breaker != nil {
		if err := w.breaker.Allow(); err != nil {
			return err
		}
	}

	err := w.doPost(ctx, payload)
	if w.breaker != nil {
		if err != nil && w.isTransient(err) {
			w.breaker.RecordFailure()
		} else if err == nil {
			w.breaker.RecordSuccess()
		}
	}

	return err
}

func (w *Webhook) doPost(ctx context.Context, payload []byte) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, strings.NewReader(buf.String()))
	if err != nil {
		return errors.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "post webhook"), errWebhookTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	deliveryErr := errors.Newf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return errors.Mark(deliveryErr, errWebhookTransient)
	}
	return deliveryErr
}

func (w *Webhook) isTransient(err error) bool {
	return errors.Is(err, errWebhookTransient)
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", errors.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.Newf("%q uses unsupported scheme %q", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", errors.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}
