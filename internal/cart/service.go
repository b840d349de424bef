package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

type menuLoader interface {
	GetByID(ctx context.Context, id int64) (*models.MenuItem, error)
}

type cartStore interface {
	Load(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, userID string, state *State) error
	Delete(ctx context.Context, userID string) error
}

// Service exposes the cart mutations backed by the Redis snapshot store.
type Service interface {
	Get(ctx context.Context, userID string) (*State, error)
	AddItem(ctx context.Context, userID string, itemID int64, qty int) (*State, error)
	SetQuantity(ctx context.Context, userID string, itemID int64, qty int) (*State, error)
	UpdateUnitFlavours(ctx context.Context, userID string, itemID int64, unitIndex int, flavourIDs []int64) (*State, error)
	RemoveItem(ctx context.Context, userID string, itemID int64) (*State, error)
	Clear(ctx context.Context, userID string) (*State, error)
	ReplaceAll(ctx context.Context, userID string, lines []ReplaceLineInput) (*State, error)
}

type service struct {
	store cartStore
	menu  menuLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(store cartStore, menu menuLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if menu == nil {
		return nil, fmt.Errorf("menu loader required")
	}
	return &service{store: store, menu: menu}, nil
}

// ReplaceLineInput is one line of a full cart replacement. Prices and names
// are re-read from the menu, never trusted from the payload.
type ReplaceLineInput struct {
	ItemID       int64
	Quantity     int
	UnitFlavours [][]int64
}

func (s *service) Get(ctx context.Context, userID string) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, userID)
}

func (s *service) AddItem(ctx context.Context, userID string, itemID int64, qty int) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}

	item, err := s.loadMenuItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := state.AddItem(item.ID, item.Name, item.Price, qty); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) SetQuantity(ctx context.Context, userID string, itemID int64, qty int) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := state.SetQuantity(itemID, qty); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) UpdateUnitFlavours(ctx context.Context, userID string, itemID int64, unitIndex int, flavourIDs []int64) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := state.UpdateUnitFlavours(itemID, unitIndex, flavourIDs); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) RemoveItem(ctx context.Context, userID string, itemID int64) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	state.RemoveItem(itemID)
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) Clear(ctx context.Context, userID string) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return NewState(), nil
}

func (s *service) ReplaceAll(ctx context.Context, userID string, lines []ReplaceLineInput) (*State, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}

	replacement := make([]Line, 0, len(lines))
	for _, input := range lines {
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		item, err := s.loadMenuItem(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		replacement = append(replacement, Line{
			ID:           item.ID,
			Name:         item.Name,
			Price:        item.Price,
			Quantity:     input.Quantity,
			UnitFlavours: input.UnitFlavours,
		})
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := state.ReplaceAll(replacement); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) loadMenuItem(ctx context.Context, itemID int64) (*models.MenuItem, error) {
	item, err := s.menu.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item is not available")
	}
	return item, nil
}

func requireUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}
