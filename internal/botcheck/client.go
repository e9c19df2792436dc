// Package botcheck verifies challenge tokens against an external
// verification service before an order is admitted.
package botcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codshopapp/codshop/internal/observability"
)

// ErrVerificationFailed covers rejected tokens and any transport or decode
// problem: the client fails closed.
var ErrVerificationFailed = errors.New("bot verification failed")

type Client struct {
	endpoint   string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(endpoint, secret string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		secret:     secret,
		httpClient: observability.NewHTTPClient(timeout),
		logger:     logger,
	}
}

// Enabled reports whether a verification secret is configured. When disabled,
// Verify is a pass-through.
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.secret) != ""
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the challenge token for the given caller IP. There is no
// retry: a failed token must be re-solved by the client.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return ErrVerificationFailed
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("bot verification request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("bot verification returned unexpected status", "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("bot verification response unreadable", "error", err)
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if !body.Success {
		c.logger.Info("bot verification rejected token", "error_codes", body.ErrorCodes)
		return ErrVerificationFailed
	}
	return nil
}
