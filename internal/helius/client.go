package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/blockpipe/solindexer/internal/logger"
)

// Client calls the provider's webhook-management REST API.
type Client interface {
	// CreateWebhook registers a webhook delivering the given transaction
	// types for the given accounts and returns the provider-side webhook ID
	CreateWebhook(ctx context.Context, webhookURL string, accountAddresses, transactionTypes []string) (string, error)
	// DeleteWebhook removes a provider-side webhook
	DeleteWebhook(ctx context.Context, webhookID string) error
	// ListWebhooks lists all provider-side webhooks for the API key
	ListWebhooks(ctx context.Context) ([]Webhook, error)
	// GetTokenMetadata fetches metadata for a mint address
	GetTokenMetadata(ctx context.Context, mint string) (*TokenMetadata, error)
}

type restClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates a provider API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &restClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type createWebhookRequest struct {
	Webhook          string   `json:"webhook"`
	AccountAddresses []string `json:"accountAddresses"`
	TransactionTypes []string `json:"transactionTypes"`
	WebhookType      string   `json:"webhookType"`
}

// CreateWebhook registers a webhook with the provider.
func (c *restClient) CreateWebhook(ctx context.Context, webhookURL string, accountAddresses, transactionTypes []string) (string, error) {
	body, err := json.Marshal(createWebhookRequest{
		Webhook:          webhookURL,
		AccountAddresses: accountAddresses,
		TransactionTypes: transactionTypes,
		WebhookType:      "enhanced",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := c.doWithRetry(ctx, http.MethodPost, "/v0/webhooks", body)
	if err != nil {
		return "", err
	}

	var created Webhook
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if created.WebhookID == "" {
		return "", fmt.Errorf("provider response missing webhook ID")
	}
	return created.WebhookID, nil
}

// DeleteWebhook removes a provider-side webhook.
func (c *restClient) DeleteWebhook(ctx context.Context, webhookID string) error {
	_, err := c.doWithRetry(ctx, http.MethodDelete, "/v0/webhooks/"+url.PathEscape(webhookID), nil)
	return err
}

// ListWebhooks lists all provider-side webhooks for the API key.
func (c *restClient) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	respBody, err := c.doWithRetry(ctx, http.MethodGet, "/v0/webhooks", nil)
	if err != nil {
		return nil, err
	}

	var webhooks []Webhook
	if err := json.Unmarshal(respBody, &webhooks); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return webhooks, nil
}

// GetTokenMetadata fetches metadata for a mint address.
func (c *restClient) GetTokenMetadata(ctx context.Context, mint string) (*TokenMetadata, error) {
	path := "/v0/token-metadata?mintAccounts=" + url.QueryEscape(mint)
	respBody, err := c.doWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var records []TokenMetadata
	if err := json.Unmarshal(respBody, &records); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// doWithRetry executes a request with exponential backoff retry for rate
// limiting and transient network failures. Non-429 HTTP errors are permanent.
func (c *restClient) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("path", path))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("provider rate limited, retrying with backoff", zap.String("path", path))
			return fmt.Errorf("rate limited (429), retrying")
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(b)))
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 1 * time.Minute
	b.Multiplier = 2.0

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	return respBody, nil
}
