package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nostrapizza/storefront-backend/pkg/config"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

func testCharge() Charge {
	return Charge{
		OrderID:     uuid.New(),
		Amount:      decimal.RequireFromString("15700.00"),
		Currency:    "ARS",
		Description: "Pedido Nostra Pizza",
		ReturnURL:   "http://localhost:8081/order",
	}
}

func TestMercadoPagoCreatePayment(t *testing.T) {
	t.Parallel()

	var captured mpPreferenceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer mp-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(mpPreferenceResponse{ID: "pref-1", InitPoint: "https://mp.example/checkout"})
	}))
	defer server.Close()

	client, err := NewMercadoPagoClient(config.MercadoPagoConfig{
		AccessToken: "mp-token",
		BaseURL:     server.URL,
	}, nil)
	require.NoError(t, err)

	charge := testCharge()
	result, err := client.CreatePayment(context.Background(), charge)
	require.NoError(t, err)

	assert.Equal(t, ProviderMercadoPago, result.Provider)
	assert.Equal(t, "pref-1", result.Reference)
	assert.Equal(t, "https://mp.example/checkout", result.CheckoutURL)
	assert.Equal(t, charge.OrderID.String(), captured.ExternalReference)
	require.Len(t, captured.Items, 1)
	assert.Equal(t, "15700.00", captured.Items[0].UnitPrice)
}

func TestMercadoPagoCreatePaymentUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewMercadoPagoClient(config.MercadoPagoConfig{
		AccessToken: "mp-token",
		BaseURL:     server.URL,
	}, nil)
	require.NoError(t, err)

	_, err = client.CreatePayment(context.Background(), testCharge())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestDLocalCreatePayment(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer key:secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(dlocalPaymentResponse{ID: "pay-1", RedirectURL: "https://dlocal.example/pay"})
	}))
	defer server.Close()

	client, err := NewDLocalClient(config.DLocalConfig{
		APIKey:    "key",
		SecretKey: "secret",
		BaseURL:   server.URL,
	}, nil)
	require.NoError(t, err)

	result, err := client.CreatePayment(context.Background(), testCharge())
	require.NoError(t, err)
	assert.Equal(t, ProviderDLocal, result.Provider)
	assert.Equal(t, "https://dlocal.example/pay", result.CheckoutURL)
}

func TestStripeCreatePaymentSendsMinorUnits(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1570000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "ars", r.PostForm.Get("line_items[0][price_data][currency]"))
		_ = json.NewEncoder(w).Encode(stripeSessionResponse{ID: "cs_123", URL: "https://stripe.example/session"})
	}))
	defer server.Close()

	client, err := NewStripeClient(config.StripeConfig{
		Secret:  "sk_test_123",
		BaseURL: server.URL,
	}, nil)
	require.NoError(t, err)

	result, err := client.CreatePayment(context.Background(), testCharge())
	require.NoError(t, err)
	assert.Equal(t, ProviderStripe, result.Provider)
	assert.Equal(t, "cs_123", result.Reference)
}

func TestConstructorsRejectMissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewMercadoPagoClient(config.MercadoPagoConfig{}, nil)
	assert.Error(t, err)

	_, err = NewDLocalClient(config.DLocalConfig{APIKey: "key"}, nil)
	assert.Error(t, err)

	_, err = NewStripeClient(config.StripeConfig{}, nil)
	assert.Error(t, err)
}
