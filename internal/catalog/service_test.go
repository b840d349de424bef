package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/internal/cart"
	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type stubRepo struct {
	items     map[int64]*models.MenuItem
	bindings  map[int64][]models.MenuFlavourGroup
	createErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		items: map[int64]*models.MenuItem{
			1: {ID: 1, Name: "Muzzarella", Price: price("7500.00"), Available: true},
			2: {ID: 2, Name: "Napolitana", Price: price("8200.00"), Available: true},
		},
		bindings: map[int64][]models.MenuFlavourGroup{},
	}
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	if item, ok := s.items[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, search string) ([]models.MenuItem, error) {
	out := []models.MenuItem{}
	for _, id := range []int64{1, 2} {
		if item, ok := s.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubRepo) Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	item.ID = int64(len(s.items) + 1)
	s.items[item.ID] = item
	return item, nil
}

func (s *stubRepo) Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	s.items[item.ID] = item
	return item, nil
}

func (s *stubRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := s.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *stubRepo) ReplaceGroupBindings(ctx context.Context, menuID int64, bindings []models.MenuFlavourGroup) error {
	s.bindings[menuID] = bindings
	return nil
}

func (s *stubRepo) ListGroupBindings(ctx context.Context, menuID int64) ([]models.MenuFlavourGroup, error) {
	return s.bindings[menuID], nil
}

type stubCarts struct {
	state *cart.State
}

func (s *stubCarts) Get(ctx context.Context, userID string) (*cart.State, error) {
	if s.state != nil {
		return s.state, nil
	}
	return cart.NewState(), nil
}

func newTestService(t *testing.T, carts cartLoader) (Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	if carts == nil {
		carts = &stubCarts{}
	}
	svc, err := NewService(repo, carts)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestListMenuMergesCartQuantities(t *testing.T) {
	t.Parallel()

	state := cart.NewState()
	if err := state.AddItem(2, "Napolitana", price("8200.00"), 3); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	svc, _ := newTestService(t, &stubCarts{state: state})
	entries, err := svc.ListMenu(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("list menu: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Quantity != 0 {
		t.Fatalf("expected no cart quantity for item 1, got %d", entries[0].Quantity)
	}
	if entries[1].Quantity != 3 {
		t.Fatalf("expected cart quantity 3 for item 2, got %d", entries[1].Quantity)
	}
}

func TestListMenuAnonymousSkipsCartLookup(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	entries, err := svc.ListMenu(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list menu: %v", err)
	}
	for _, entry := range entries {
		if entry.Quantity != 0 {
			t.Fatalf("expected zero quantity, got %d", entry.Quantity)
		}
	}
}

func TestCreateItemValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)

	_, err := svc.CreateItem(context.Background(), ItemInput{Name: "  ", Price: price("10.00")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	_, err = svc.CreateItem(context.Background(), ItemInput{Name: "Fugazzeta", Price: price("-1")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	_, err := svc.UpdateItem(context.Background(), 99, ItemInput{Name: "X", Price: price("1.00")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestSetGroupBindingsValidation(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t, nil)

	err := svc.SetGroupBindings(context.Background(), 1, []GroupBindingInput{
		{FlavourGroupID: 10, MaxQuantity: 0},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero cap, got %v", err)
	}

	err = svc.SetGroupBindings(context.Background(), 1, []GroupBindingInput{
		{FlavourGroupID: 10, MaxQuantity: 2},
		{FlavourGroupID: 10, MaxQuantity: 4},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate group, got %v", err)
	}

	if err := svc.SetGroupBindings(context.Background(), 1, []GroupBindingInput{
		{FlavourGroupID: 10, MaxQuantity: 12},
	}); err != nil {
		t.Fatalf("set bindings: %v", err)
	}
	if got := repo.bindings[1]; len(got) != 1 || got[0].MenuID != 0 && got[0].MenuID != 1 {
		t.Fatalf("unexpected bindings %+v", got)
	}
}

func TestDeleteItemNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	err := svc.DeleteItem(context.Background(), 42)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
