package payments

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

	"github.com/nostrapizza/storefront-backend/pkg/config"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
)

var errStripeSecretRequired = errors.New("stripe secret is required")

// StripeClient creates hosted Checkout Sessions.
type StripeClient struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	logger     *logger.Logger
}

// NewStripeClient validates the credentials and builds the client.
func NewStripeClient(cfg config.StripeConfig, logg *logger.Logger) (*StripeClient, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errStripeSecretRequired
	}
	return &StripeClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secret:     secret,
		logger:     logg,
	}, nil
}

func (c *StripeClient) Name() string { return ProviderStripe }

type stripeSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePayment creates a Checkout Session and returns its hosted URL.
func (c *StripeClient) CreatePayment(ctx context.Context, charge Charge) (*InitResult, error) {
	// Stripe amounts are integer minor units.
	amountCents := charge.Amount.Mul(decimalHundred).Round(0).String()

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", charge.OrderID.String())
	form.Set("success_url", charge.ReturnURL)
	form.Set("cancel_url", charge.ReturnURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(charge.Currency))
	form.Set("line_items[0][price_data][unit_amount]", amountCents)
	form.Set("line_items[0][price_data][product_data][name]", charge.Description)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building session request: %w", err)
	}
	req.SetBasicAuth(c.secret, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if c.logger != nil {
		c.logger.Info(c.logger.WithField(ctx, "order_ref", charge.OrderID.String()), "creating stripe checkout session")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("stripe returned %d: %s", resp.StatusCode, snippet))
	}

	var parsed stripeSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding stripe response")
	}
	if parsed.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe response missing session url")
	}

	return &InitResult{
		Provider:    ProviderStripe,
		Reference:   parsed.ID,
		CheckoutURL: parsed.URL,
	}, nil
}
