// Package terra implements the outbound API client for the wearable data
// aggregation provider.
package terra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vitalbite/wearable-sync/internal/config"
)

// WidgetSession is a hosted-authorization session the user is redirected to
// when connecting a wearable provider
type WidgetSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
	ExpiresIn int    `json:"expires_in"`
}

// Client calls the aggregation provider API. All requests are authenticated
// with the developer id and API key header pair.
type Client struct {
	baseURL    string
	devID      string
	apiKey     string
	successURL string
	failureURL string
	http       *http.Client
}

// NewClient creates a new aggregation provider client
func NewClient(cfg config.TerraConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		devID:      cfg.DevID,
		apiKey:     cfg.APIKey,
		successURL: cfg.SuccessURL,
		failureURL: cfg.FailureURL,
		http:       &http.Client{Timeout: cfg.RequestTimeout.Duration},
	}
}

type widgetSessionRequest struct {
	ReferenceID            string `json:"reference_id"`
	Providers              string `json:"providers,omitempty"`
	Language               string `json:"language"`
	AuthSuccessRedirectURL string `json:"auth_success_redirect_url,omitempty"`
	AuthFailureRedirectURL string `json:"auth_failure_redirect_url,omitempty"`
}

// GenerateWidgetSession creates a hosted-authorization session for the given
// local user reference id, optionally restricted to specific providers
func (c *Client) GenerateWidgetSession(ctx context.Context, referenceID string, providers []string) (*WidgetSession, error) {
	body, err := json.Marshal(widgetSessionRequest{
		ReferenceID:            referenceID,
		Providers:              strings.Join(providers, ","),
		Language:               "en",
		AuthSuccessRedirectURL: c.successURL,
		AuthFailureRedirectURL: c.failureURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode widget session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/generateWidgetSession", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create widget session request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("widget session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("widget session request returned status %d: %s", resp.StatusCode, readBodyPrefix(resp.Body))
	}

	var session WidgetSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode widget session response: %w", err)
	}

	return &session, nil
}

// DeauthenticateUser revokes the provider-side authorization for the given
// provider-assigned user id
func (c *Client) DeauthenticateUser(ctx context.Context, externalUserID string) error {
	endpoint := fmt.Sprintf("%s/auth/deauthenticateUser?user_id=%s", c.baseURL, url.QueryEscape(externalUserID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create deauthentication request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deauthentication request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deauthentication returned status %d: %s", resp.StatusCode, readBodyPrefix(resp.Body))
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("dev-id", c.devID)
	req.Header.Set("x-api-key", c.apiKey)
}

func readBodyPrefix(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
