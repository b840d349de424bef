package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/internal/cart"
	"github.com/nostrapizza/storefront-backend/pkg/config"
	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
	"github.com/nostrapizza/storefront-backend/pkg/payments"
)

type cartGetter interface {
	Get(ctx context.Context, userID string) (*cart.State, error)
}

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	SetProviderRef(ctx context.Context, orderID uuid.UUID, ref string) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// ValidationResult is the outcome of a checkout validation pass.
type ValidationResult struct {
	Valid bool `json:"valid"`
}

// Service gates checkout, hands validated carts off to a payment provider
// and serves the resulting order history.
type Service interface {
	Validate(ctx context.Context, userID string, confirmations map[string]bool) (*ValidationResult, error)
	InitPayment(ctx context.Context, userID, providerName string, confirmations map[string]bool) (*payments.InitResult, error)
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error)
}

type service struct {
	carts     cartGetter
	source    flavourSource
	orders    orderRepository
	providers map[string]payments.Provider
	events    eventPublisher
	logg      *logger.Logger
	cfg       config.CheckoutConfig
}

// NewService builds the checkout service. The events publisher is optional;
// everything else is required.
func NewService(
	carts cartGetter,
	source flavourSource,
	orders orderRepository,
	providers map[string]payments.Provider,
	events eventPublisher,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if source == nil {
		return nil, fmt.Errorf("flavour source required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one payment provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:     carts,
		source:    source,
		orders:    orders,
		providers: providers,
		events:    events,
		logg:      logg,
		cfg:       cfg,
	}, nil
}

// Validate runs the flavour-completeness gate over the caller's cart.
func (s *service) Validate(ctx context.Context, userID string, confirmations map[string]bool) (*ValidationResult, error) {
	state, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	ok, err := Validate(ctx, state, s.source, MapConfirmer{Answers: confirmations})
	if err != nil {
		return nil, err
	}
	return &ValidationResult{Valid: ok}, nil
}

// InitPayment validates the cart, persists the order snapshot and starts a
// hosted checkout with the named provider.
func (s *service) InitPayment(ctx context.Context, userID, providerName string, confirmations map[string]bool) (*payments.InitResult, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment provider")
	}

	state, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	valid, err := Validate(ctx, state, s.source, MapConfirmer{Answers: confirmations})
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout confirmation declined")
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be a uuid")
	}

	order, err := s.orders.Create(ctx, buildOrder(uid, state, provider.Name(), s.cfg.Currency))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	result, err := provider.CreatePayment(ctx, payments.Charge{
		OrderID:     order.ID,
		Amount:      order.Total,
		Currency:    order.Currency,
		Description: fmt.Sprintf("Pedido %s", order.ID),
		ReturnURL:   s.cfg.ReturnBaseURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetProviderRef(ctx, order.ID, result.Reference); err != nil {
		s.logg.Error(ctx, "storing provider reference failed", err)
	}
	s.publishOrderCreated(ctx, order)

	return result, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be a uuid")
	}

	orders, err := s.orders.ListByUser(ctx, uid)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder loads one of the caller's orders with its lines. Orders of other
// users read as not found.
func (s *service) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be a uuid")
	}
	oid, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid")
	}

	order, err := s.orders.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != uid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) loadCart(ctx context.Context, userID string) (*cart.State, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	state, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(state.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return state, nil
}

func buildOrder(userID uuid.UUID, state *cart.State, provider, currency string) *models.Order {
	var lines []models.OrderLine
	for _, line := range state.Lines {
		for unit := 0; unit < line.Quantity; unit++ {
			picks := state.UnitFlavourIDs(line.ID, unit)
			lines = append(lines, models.OrderLine{
				MenuItemID: line.ID,
				Name:       line.Name,
				UnitPrice:  line.Price,
				UnitIndex:  unit,
				FlavourIDs: pq.Int64Array(picks),
			})
		}
	}
	return &models.Order{
		UserID:   userID,
		Status:   models.OrderStatusPending,
		Total:    state.Total,
		Currency: currency,
		Provider: provider,
		Lines:    lines,
	}
}

type orderCreatedEvent struct {
	OrderID  uuid.UUID       `json:"order_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Provider string          `json:"provider"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// publishOrderCreated is fire-and-forget: a publish failure is logged and
// never blocks the payment handoff.
func (s *service) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(orderCreatedEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Provider: order.Provider,
		Total:    order.Total,
		Currency: order.Currency,
	})
	if err != nil {
		s.logg.Error(ctx, "encoding order event failed", err)
		return
	}

	attrs := map[string]string{"event": "order.created", "provider": order.Provider}
	if _, err := s.events.Publish(ctx, payload, attrs); err != nil {
		s.logg.Error(ctx, "publishing order event failed", err)
	}
}
