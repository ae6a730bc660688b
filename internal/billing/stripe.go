package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultStripeAPIURL = "https://api.stripe.com/v1"

// ErrCheckout wraps any Stripe transport or API failure.
var ErrCheckout = errors.New("checkout failed")

// StripeClient creates Checkout Sessions against the Stripe REST API.
type StripeClient struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewStripeClient constructs a StripeClient.
func NewStripeClient(secretKey string, timeout time.Duration) (*StripeClient, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StripeClient{
		secretKey: secretKey,
		apiURL:    defaultStripeAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CheckoutSession is the subset of a Stripe Checkout Session the API returns
// to the client.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCheckoutSession creates a subscription Checkout Session for the given
// price, tagging it with the purchasing user.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, userID, priceID, successURL, cancelURL string) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", userID)
	form.Set("metadata[userId]", userID)

	endpoint := c.apiURL + "/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: build request: %v", ErrCheckout, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrCheckout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: read response: %v", ErrCheckout, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr stripeError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return CheckoutSession{}, fmt.Errorf("%w: stripe error: %s (%s)", ErrCheckout, apiErr.Error.Message, apiErr.Error.Type)
		}
		return CheckoutSession{}, fmt.Errorf("%w: stripe status %d", ErrCheckout, resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: stripe response parse: %v", ErrCheckout, err)
	}
	if session.URL == "" {
		return CheckoutSession{}, fmt.Errorf("%w: stripe response missing url", ErrCheckout)
	}
	return session, nil
}
