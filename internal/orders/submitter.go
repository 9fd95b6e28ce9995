// Package orders hands finished checkouts to the external order-creation API.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/checkout-shipping/internal/submission"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
)

const (
	ordersPath                  = "orders"
	responseBodyReadLimit int64 = 1024
	defaultTimeout              = 15 * time.Second
	idempotencyHeader           = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("orders api base url is required")

// Submitter creates orders from checkout submissions.
type Submitter interface {
	Submit(ctx context.Context, idempotencyKey string, order submission.OrderSubmission) (*SubmitResult, error)
}

// SubmitResult is the order API's acknowledgement.
type SubmitResult struct {
	OrderID            string  `json:"order_id"`
	OrderNumber        string  `json:"order_number"`
	PaymentRedirectURL *string `json:"payment_redirect_url,omitempty"`
}

// Client is the HTTP Submitter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the order API client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Submit posts the order. A 409 from the API is a replay of an already
// accepted idempotency key and still carries the original result.
func (c *Client) Submit(ctx context.Context, idempotencyKey string, order submission.OrderSubmission) (*SubmitResult, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order submission")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.baseURL, ordersPath), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order rejected").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": strings.TrimSpace(string(msg))})
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "order request failed")
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}
	if strings.TrimSpace(result.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order response missing order id")
	}
	return &result, nil
}
