package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/internal/cart"
	"github.com/nostrapizza/storefront-backend/pkg/db"
	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

type menuRepository interface {
	GetByID(ctx context.Context, id int64) (*models.MenuItem, error)
	List(ctx context.Context, search string) ([]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	Delete(ctx context.Context, id int64) error
	ReplaceGroupBindings(ctx context.Context, menuID int64, bindings []models.MenuFlavourGroup) error
	ListGroupBindings(ctx context.Context, menuID int64) ([]models.MenuFlavourGroup, error)
}

type cartLoader interface {
	Get(ctx context.Context, userID string) (*cart.State, error)
}

// MenuEntry is a menu item merged with the caller's cart quantity.
type MenuEntry struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
}

// ItemInput carries the admin payload for creating or updating a menu item.
type ItemInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
	Image       string
}

// GroupBindingInput binds one flavour group with its selection cap.
type GroupBindingInput struct {
	FlavourGroupID int64
	MaxQuantity    int
}

// Service exposes menu browsing and admin management.
type Service interface {
	ListMenu(ctx context.Context, userID, search string) ([]MenuEntry, error)
	GetItem(ctx context.Context, id int64) (*models.MenuItem, error)
	CreateItem(ctx context.Context, input ItemInput) (*models.MenuItem, error)
	UpdateItem(ctx context.Context, id int64, input ItemInput) (*models.MenuItem, error)
	DeleteItem(ctx context.Context, id int64) error
	SetGroupBindings(ctx context.Context, menuID int64, bindings []GroupBindingInput) error
	ListGroupBindings(ctx context.Context, menuID int64) ([]models.MenuFlavourGroup, error)
}

type service struct {
	repo  menuRepository
	carts cartLoader
}

// NewService builds the catalog service.
func NewService(repo menuRepository, carts cartLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	return &service{repo: repo, carts: carts}, nil
}

// ListMenu returns the menu, each entry carrying the quantity already in the
// caller's cart. Anonymous callers get zero quantities.
func (s *service) ListMenu(ctx context.Context, userID, search string) ([]MenuEntry, error) {
	items, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu")
	}

	var state *cart.State
	if strings.TrimSpace(userID) != "" {
		state, err = s.carts.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]MenuEntry, 0, len(items))
	for _, item := range items {
		entry := MenuEntry{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Available:   item.Available,
			Image:       item.Image,
		}
		if state != nil {
			entry.Quantity = state.Quantity(item.ID)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *service) GetItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

func (s *service) CreateItem(ctx context.Context, input ItemInput) (*models.MenuItem, error) {
	if err := validateItemInput(input); err != nil {
		return nil, err
	}

	item := &models.MenuItem{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Available:   input.Available,
		Image:       strings.TrimSpace(input.Image),
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a menu item with that name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	return created, nil
}

func (s *service) UpdateItem(ctx context.Context, id int64, input ItemInput) (*models.MenuItem, error) {
	if err := validateItemInput(input); err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Description = strings.TrimSpace(input.Description)
	item.Price = input.Price
	item.Available = input.Available
	item.Image = strings.TrimSpace(input.Image)

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a menu item with that name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return updated, nil
}

func (s *service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}
	return nil
}

func (s *service) SetGroupBindings(ctx context.Context, menuID int64, inputs []GroupBindingInput) error {
	if _, err := s.GetItem(ctx, menuID); err != nil {
		return err
	}

	seen := map[int64]struct{}{}
	bindings := make([]models.MenuFlavourGroup, 0, len(inputs))
	for _, input := range inputs {
		if input.FlavourGroupID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "flavour group id is required")
		}
		if input.MaxQuantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "max quantity must be positive")
		}
		if _, dup := seen[input.FlavourGroupID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate flavour group binding")
		}
		seen[input.FlavourGroupID] = struct{}{}
		bindings = append(bindings, models.MenuFlavourGroup{
			FlavourGroupID: input.FlavourGroupID,
			MaxQuantity:    input.MaxQuantity,
		})
	}

	if err := s.repo.ReplaceGroupBindings(ctx, menuID, bindings); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace group bindings")
	}
	return nil
}

func (s *service) ListGroupBindings(ctx context.Context, menuID int64) ([]models.MenuFlavourGroup, error) {
	bindings, err := s.repo.ListGroupBindings(ctx, menuID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list group bindings")
	}
	return bindings, nil
}

func validateItemInput(input ItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}
