// Package sms provides a client for an HTTP SMS gateway.
//
// Messages are posted as JSON to the gateway URL, authenticated with the
// account SID and auth token as basic auth credentials.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client sends text messages through the gateway.
type Client struct {
	url        string       // gateway messages endpoint
	accountSID string       // basic auth user
	authToken  string       // basic auth password
	from       string       // sender number
	client     *http.Client // HTTP client used to make requests
}

// NewClient creates a new gateway Client.
func NewClient(url, accountSID, authToken, from string) *Client {
	return &Client{
		url:        url,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// sendMessageRequest represents the payload of the gateway messages API.
type sendMessageRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send posts body for delivery to the phone number to.
//
// Any non-2xx response is reported as an error.
func (c *Client) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(sendMessageRequest{From: c.from, To: to, Body: body})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway error: %s", resp.Status)
	}

	return nil
}
