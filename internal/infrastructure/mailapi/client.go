// Package mailapi is the primary mail transport: a JSON-over-HTTP mail service.
package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xzajyb/MXacc-sub002/internal/config"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/pkg/validate"
)

type sendRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody"`
}

type sendResponse struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"providerMessageId"`
	Error             string `json:"error"`
}

// Client posts one message per call and never retries.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		url:     cfg.Mail.APIURL,
		apiKey:  cfg.Mail.APIKey,
		timeout: cfg.Mail.SendTimeout,
		http:    &http.Client{},
	}
}

func (c *Client) Name() string { return "mailapi" }

func (c *Client) Send(ctx context.Context, to, subject, html string) (string, error) {
	if !validate.Email(to) {
		return "", fmt.Errorf("mailapi: %q: %w", to, domain.ErrInvalidRecipient)
	}
	payload, err := json.Marshal(sendRequest{To: to, Subject: subject, HTMLBody: html})
	if err != nil {
		return "", fmt.Errorf("mailapi: marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("mailapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailapi: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out sendResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := out.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("mailapi: status %d: %s", resp.StatusCode, reason)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("mailapi: decode response: %w", decodeErr)
	}
	if !out.Success {
		return "", fmt.Errorf("mailapi: rejected: %s", out.Error)
	}
	return out.ProviderMessageID, nil
}
