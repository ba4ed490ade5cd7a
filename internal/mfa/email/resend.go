// Package email delivers OTP codes through a transactional email API (Resend).
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.resend.com/emails"
	defaultTimeout = 10 * time.Second
	maxRetries     = 2
)

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender sends a Message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendClient sends email via the Resend HTTP API.
// Transport errors, 429 and 5xx responses are retried with exponential backoff under one
// Idempotency-Key, so a retry never produces a second email. The caller's context bounds the total time.
type ResendClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// newBackOff is overridden in tests to avoid real sleeps.
	newBackOff func() backoff.BackOff
}

// NewResendClient returns a client that uses the given API key and optional base URL.
func NewResendClient(apiKey, baseURL string) *ResendClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ResendClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return backoff.WithMaxRetries(b, maxRetries)
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Send posts msg to the email API and returns the message id. Does not log message bodies.
func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("email: API key not configured")
	}
	if len(msg.To) == 0 {
		return "", errors.New("email: no recipient")
	}
	raw, err := json.Marshal(sendRequest{From: msg.From, To: msg.To, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return "", err
	}
	idempotencyKey := uuid.New().String()

	var id string
	op := func() error {
		var err error
		id, err = c.post(ctx, raw, idempotencyKey)
		return err
	}
	b := backoff.WithContext(c.newBackOff(), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return id, nil
}

func (c *ResendClient) post(ctx context.Context, raw []byte, idempotencyKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var out sendResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := out.Message
		if detail == "" {
			detail = string(body)
		}
		err := fmt.Errorf("email: request failed status=%d: %s", resp.StatusCode, detail)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", err
		}
		return "", backoff.Permanent(err)
	}
	if out.ID == "" {
		return "", backoff.Permanent(errors.New("email: response missing message id"))
	}
	return out.ID, nil
}
