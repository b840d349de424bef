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

var errMPTokenRequired = errors.New("mercadopago access token is required")

// MercadoPagoClient creates checkout preferences against the MercadoPago API.
type MercadoPagoClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logger.Logger
}

// NewMercadoPagoClient validates the credentials and builds the client.
func NewMercadoPagoClient(cfg config.MercadoPagoConfig, logg *logger.Logger) (*MercadoPagoClient, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errMPTokenRequired
	}
	return &MercadoPagoClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      token,
		logger:     logg,
	}, nil
}

func (c *MercadoPagoClient) Name() string { return ProviderMercadoPago }

type mpPreferenceItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type mpPreferenceRequest struct {
	ExternalReference string             `json:"external_reference"`
	Items             []mpPreferenceItem `json:"items"`
	BackURLs          map[string]string  `json:"back_urls"`
	AutoReturn        string             `json:"auto_return"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePayment creates a checkout preference and returns its redirect URL.
func (c *MercadoPagoClient) CreatePayment(ctx context.Context, charge Charge) (*InitResult, error) {
	payload := mpPreferenceRequest{
		ExternalReference: charge.OrderID.String(),
		Items: []mpPreferenceItem{{
			Title:     charge.Description,
			Quantity:  1,
			UnitPrice: charge.Amount.StringFixed(2),
		}},
		BackURLs: map[string]string{
			"success": charge.ReturnURL,
			"failure": charge.ReturnURL,
			"pending": charge.ReturnURL,
		},
		AutoReturn: "approved",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding preference: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building preference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Info(c.logger.WithField(ctx, "order_ref", charge.OrderID.String()), "creating mercadopago preference")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mercadopago unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("mercadopago returned %d: %s", resp.StatusCode, snippet))
	}

	var parsed mpPreferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding mercadopago response")
	}
	if parsed.InitPoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercadopago response missing init_point")
	}

	return &InitResult{
		Provider:    ProviderMercadoPago,
		Reference:   parsed.ID,
		CheckoutURL: parsed.InitPoint,
	}, nil
}
