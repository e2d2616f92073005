// Package memberauth verifies access tokens against the league's member
// directory and resolves them into principals.
package memberauth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

var errIntrospectTransient = errors.New("member directory transient failure")

type ClientConfig struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	Timeout        time.Duration
	Circuit        resilience.CircuitBreakerConfig
}

// Client calls the member directory's introspection endpoint. Directory
// outages trip a circuit breaker so request handling fails fast instead of
// stacking up on a dead dependency.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	breaker       *resilience.CircuitBreaker
	logger        *logging.Logger
}

func NewClient(httpClient *http.Client, cfg ClientConfig, logger *logging.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Circuit.Enabled {
		breaker = resilience.NewCircuitBreaker(cfg.Circuit)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		breaker:       breaker,
		logger:        logger,
	}
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active   bool   `json:"active"`
	MemberID string `json:"member_id"`
	TeamID   string `json:"team_id"`
	Admin    bool   `json:"admin"`
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (member.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return member.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return member.Principal{}, err
		}
	}

	principal, err := c.introspect(ctx, token)
	if c.breaker != nil {
		if err != nil && errors.Is(err, errIntrospectTransient) {
			c.breaker.RecordFailure()
		} else if err == nil {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return member.Principal{}, err
	}

	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (member.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return member.Principal{}, errors.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return member.Principal{}, errors.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return member.Principal{}, errors.Mark(errors.Wrap(err, "request member introspection"), errIntrospectTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.DebugContext(ctx, "member introspection denied", "token_hash", hashToken(token))
		return member.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return member.Principal{}, errors.Mark(errors.Wrap(err, "read introspect response"), errIntrospectTransient)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "member introspection non-200", "status_code", resp.StatusCode)
		introspectErr := errors.Newf("member introspection failed with status %d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return member.Principal{}, errors.Mark(introspectErr, errIntrospectTransient)
		}
		return member.Principal{}, introspectErr
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return member.Principal{}, errors.Wrap(err, "unmarshal introspect response")
	}

	if !decoded.Active {
		return member.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.MemberID) == "" {
		return member.Principal{}, errors.New("invalid introspect response: member_id is empty")
	}

	return member.Principal{
		MemberID: decoded.MemberID,
		TeamID:   decoded.TeamID,
		Admin:    decoded.Admin,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
