package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProviderMercadoPago = "mercadopago"
	ProviderDLocal      = "dlocal"
	ProviderStripe      = "stripe"
)

var decimalHundred = decimal.NewFromInt(100)

// Charge carries everything a provider needs to start a hosted checkout.
type Charge struct {
	OrderID     uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
}

// InitResult is the provider handoff returned to the storefront client.
type InitResult struct {
	Provider    string `json:"provider"`
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}

// Provider is implemented by each hosted-checkout integration.
type Provider interface {
	Name() string
	CreatePayment(ctx context.Context, charge Charge) (*InitResult, error)
}
