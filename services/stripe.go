package services

import (
	"context"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// PaymentProvider is the card-payment authorization backend. The production
// implementation talks to the Stripe endpoints exposed by our edge functions;
// tests plug in a fake at composition time.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, req ProviderIntentRequest) (*ProviderIntent, error)
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID, reason string) error
	Reachable(ctx context.Context) bool
}

type ProviderIntentRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Capture  string            `json:"capture_method"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type ProviderIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// StripeClient calls the payment endpoints over HTTP.
type StripeClient struct {
	http       *resty.Client
	intentURL  string
	captureURL string
	cancelURL  string
}

// NewStripeClientFromEnv reads PAYMENT_INTENT_URL, CAPTURE_PAYMENT_URL and
// CANCEL_PAYMENT_URL.
func NewStripeClientFromEnv() *StripeClient {
	return NewStripeClient(
		os.Getenv("PAYMENT_INTENT_URL"),
		os.Getenv("CAPTURE_PAYMENT_URL"),
		os.Getenv("CANCEL_PAYMENT_URL"),
	)
}

func NewStripeClient(intentURL, captureURL, cancelURL string) *StripeClient {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &StripeClient{
		http:       client,
		intentURL:  intentURL,
		captureURL: captureURL,
		cancelURL:  cancelURL,
	}
}

func (c *StripeClient) CreateIntent(ctx context.Context, req ProviderIntentRequest) (*ProviderIntent, error) {
	if req.Capture == "" {
		req.Capture = "manual"
	}
	var out ProviderIntent
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(c.intentURL)
	if err != nil {
		return nil, NewNetworkError("payment intent request failed: %v", err)
	}
	if resp.IsError() {
		return nil, NewProviderError("payment intent endpoint returned %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return nil, NewProviderError("payment provider: %s", out.Error)
	}
	if out.ID == "" {
		return nil, NewProviderError("payment provider returned no intent id")
	}
	return &out, nil
}

func (c *StripeClient) Capture(ctx context.Context, paymentIntentID string) error {
	return c.post(ctx, c.captureURL, map[string]string{"payment_intent_id": paymentIntentID})
}

func (c *StripeClient) Cancel(ctx context.Context, paymentIntentID, reason string) error {
	return c.post(ctx, c.cancelURL, map[string]string{
		"payment_intent_id": paymentIntentID,
		"reason":            reason,
	})
}

func (c *StripeClient) post(ctx context.Context, url string, body map[string]string) error {
	var out struct {
		Error string `json:"error"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(url)
	if err != nil {
		return NewNetworkError("payment provider request failed: %v", err)
	}
	if resp.IsError() {
		return NewProviderError("payment provider returned %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return NewProviderError("payment provider: %s", out.Error)
	}
	return nil
}

// Reachable probes the intent endpoint. Any HTTP response counts as
// reachable; only a transport failure does not.
func (c *StripeClient) Reachable(ctx context.Context) bool {
	probe := resty.New().SetTimeout(5 * time.Second)
	_, err := probe.R().SetContext(ctx).Head(c.intentURL)
	return err == nil
}
