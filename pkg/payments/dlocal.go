package payments

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

	"github.com/nostrapizza/storefront-backend/pkg/config"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
)

var errDLocalCredentialsRequired = errors.New("dlocal api key and secret key are required")

// DLocalClient starts hosted payments against the dLocal Go API.
type DLocalClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secretKey  string
	logger     *logger.Logger
}

// NewDLocalClient validates the credentials and builds the client.
func NewDLocalClient(cfg config.DLocalConfig, logg *logger.Logger) (*DLocalClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if apiKey == "" || secretKey == "" {
		return nil, errDLocalCredentialsRequired
	}
	return &DLocalClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		secretKey:  secretKey,
		logger:     logg,
	}, nil
}

func (c *DLocalClient) Name() string { return ProviderDLocal }

type dlocalPaymentRequest struct {
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	OrderID           string `json:"order_id"`
	Description       string `json:"description"`
	SuccessURL        string `json:"success_url"`
	BackURL           string `json:"back_url"`
	NotificationURL   string `json:"notification_url,omitempty"`
	DirectRedirection bool   `json:"direct_redirection"`
}

type dlocalPaymentResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

// CreatePayment starts a hosted payment and returns its redirect URL.
func (c *DLocalClient) CreatePayment(ctx context.Context, charge Charge) (*InitResult, error) {
	payload := dlocalPaymentRequest{
		Amount:            charge.Amount.StringFixed(2),
		Currency:          charge.Currency,
		OrderID:           charge.OrderID.String(),
		Description:       charge.Description,
		SuccessURL:        charge.ReturnURL,
		BackURL:           charge.ReturnURL,
		DirectRedirection: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building payment request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s:%s", c.apiKey, c.secretKey))
	req.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Info(c.logger.WithField(ctx, "order_ref", charge.OrderID.String()), "creating dlocal payment")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dlocal unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("dlocal returned %d: %s", resp.StatusCode, snippet))
	}

	var parsed dlocalPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding dlocal response")
	}
	if parsed.RedirectURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dlocal response missing redirect_url")
	}

	return &InitResult{
		Provider:    ProviderDLocal,
		Reference:   parsed.ID,
		CheckoutURL: parsed.RedirectURL,
	}, nil
}
