package flavours

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/internal/cart"
	"github.com/nostrapizza/storefront-backend/pkg/db"
	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

type flavourRepository interface {
	ListForMenu(ctx context.Context, menuID int64) ([]MenuFlavourRow, error)
	GetGroup(ctx context.Context, id int64) (*models.FlavourGroup, error)
	ListGroups(ctx context.Context) ([]models.FlavourGroup, error)
	CreateGroup(ctx context.Context, group *models.FlavourGroup) (*models.FlavourGroup, error)
	UpdateGroup(ctx context.Context, group *models.FlavourGroup) (*models.FlavourGroup, error)
	DeleteGroup(ctx context.Context, id int64) error
	ListFlavours(ctx context.Context, search string) ([]models.Flavour, error)
	GetFlavour(ctx context.Context, id int64) (*models.Flavour, error)
	CreateFlavour(ctx context.Context, flavour *models.Flavour) (*models.Flavour, error)
	UpdateFlavour(ctx context.Context, flavour *models.Flavour) (*models.Flavour, error)
	DeleteFlavour(ctx context.Context, id int64) error
}

type unitCart interface {
	Get(ctx context.Context, userID string) (*cart.State, error)
	UpdateUnitFlavours(ctx context.Context, userID string, itemID int64, unitIndex int, flavourIDs []int64) (*cart.State, error)
}

// GroupInput carries the admin payload for a flavour group.
type GroupInput struct {
	Title string
}

// FlavourInput carries the admin payload for a flavour.
type FlavourInput struct {
	Name           string
	FlavourGroupID int64
	Available      bool
}

// Service exposes the flavour catalogue and the per-unit selection flow.
type Service interface {
	ListForMenu(ctx context.Context, menuID int64) ([]MenuFlavourRow, error)
	UnitSelection(ctx context.Context, userID string, itemID int64, unitIndex int) ([]Group, error)
	ToggleUnitFlavour(ctx context.Context, userID string, itemID int64, unitIndex int, flavourID int64) ([]Group, error)

	ListGroups(ctx context.Context) ([]models.FlavourGroup, error)
	ListFlavours(ctx context.Context, search string) ([]models.Flavour, error)
	CreateGroup(ctx context.Context, input GroupInput) (*models.FlavourGroup, error)
	UpdateGroup(ctx context.Context, id int64, input GroupInput) (*models.FlavourGroup, error)
	DeleteGroup(ctx context.Context, id int64) error
	CreateFlavour(ctx context.Context, input FlavourInput) (*models.Flavour, error)
	UpdateFlavour(ctx context.Context, id int64, input FlavourInput) (*models.Flavour, error)
	DeleteFlavour(ctx context.Context, id int64) error
}

type service struct {
	repo  flavourRepository
	carts unitCart
}

// NewService builds the flavour service.
func NewService(repo flavourRepository, carts unitCart) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("flavour repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{repo: repo, carts: carts}, nil
}

// ListForMenu returns the flat flavour tuples for a menu item.
func (s *service) ListForMenu(ctx context.Context, menuID int64) ([]MenuFlavourRow, error) {
	rows, err := s.repo.ListForMenu(ctx, menuID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu flavours")
	}
	if rows == nil {
		rows = []MenuFlavourRow{}
	}
	return rows, nil
}

// UnitSelection returns the grouped flavour options for one unit of a cart
// line, checked state taken from the stored picks.
func (s *service) UnitSelection(ctx context.Context, userID string, itemID int64, unitIndex int) ([]Group, error) {
	if unitIndex < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit index must be non-negative")
	}

	rows, err := s.ListForMenu(ctx, itemID)
	if err != nil {
		return nil, err
	}

	state, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildGroups(rows, state.UnitFlavourIDs(itemID, unitIndex)), nil
}

// ToggleUnitFlavour flips one flavour for a unit and persists the result.
// Toggles refused by the group rules return the unchanged selection.
func (s *service) ToggleUnitFlavour(ctx context.Context, userID string, itemID int64, unitIndex int, flavourID int64) ([]Group, error) {
	groups, err := s.UnitSelection(ctx, userID, itemID, unitIndex)
	if err != nil {
		return nil, err
	}
	if !knownFlavour(groups, flavourID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavour is not offered for this item")
	}

	if !Toggle(groups, flavourID) {
		return groups, nil
	}
	if _, err := s.carts.UpdateUnitFlavours(ctx, userID, itemID, unitIndex, SelectedIDs(groups)); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *service) ListGroups(ctx context.Context) ([]models.FlavourGroup, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list flavour groups")
	}
	return groups, nil
}

func (s *service) ListFlavours(ctx context.Context, search string) ([]models.Flavour, error) {
	flavoursList, err := s.repo.ListFlavours(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list flavours")
	}
	if flavoursList == nil {
		flavoursList = []models.Flavour{}
	}
	return flavoursList, nil
}

func (s *service) CreateGroup(ctx context.Context, input GroupInput) (*models.FlavourGroup, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	created, err := s.repo.CreateGroup(ctx, &models.FlavourGroup{Title: title})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a flavour group with that title already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create flavour group")
	}
	return created, nil
}

func (s *service) UpdateGroup(ctx context.Context, id int64, input GroupInput) (*models.FlavourGroup, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	group, err := s.loadGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	group.Title = title
	updated, err := s.repo.UpdateGroup(ctx, group)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a flavour group with that title already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update flavour group")
	}
	return updated, nil
}

func (s *service) DeleteGroup(ctx context.Context, id int64) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "flavour group not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete flavour group")
	}
	return nil
}

func (s *service) CreateFlavour(ctx context.Context, input FlavourInput) (*models.Flavour, error) {
	if err := validateFlavourInput(input); err != nil {
		return nil, err
	}
	if _, err := s.loadGroup(ctx, input.FlavourGroupID); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateFlavour(ctx, &models.Flavour{
		Name:           strings.TrimSpace(input.Name),
		FlavourGroupID: input.FlavourGroupID,
		Available:      input.Available,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create flavour")
	}
	return created, nil
}

func (s *service) UpdateFlavour(ctx context.Context, id int64, input FlavourInput) (*models.Flavour, error) {
	if err := validateFlavourInput(input); err != nil {
		return nil, err
	}

	flavour, err := s.repo.GetFlavour(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavour not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load flavour")
	}
	if flavour.FlavourGroupID != input.FlavourGroupID {
		if _, err := s.loadGroup(ctx, input.FlavourGroupID); err != nil {
			return nil, err
		}
	}

	flavour.Name = strings.TrimSpace(input.Name)
	flavour.FlavourGroupID = input.FlavourGroupID
	flavour.Available = input.Available

	updated, err := s.repo.UpdateFlavour(ctx, flavour)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update flavour")
	}
	return updated, nil
}

func (s *service) DeleteFlavour(ctx context.Context, id int64) error {
	if err := s.repo.DeleteFlavour(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "flavour not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete flavour")
	}
	return nil
}

func (s *service) loadGroup(ctx context.Context, id int64) (*models.FlavourGroup, error) {
	group, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavour group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load flavour group")
	}
	return group, nil
}

func validateFlavourInput(input FlavourInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.FlavourGroupID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "flavour group id is required")
	}
	return nil
}

func knownFlavour(groups []Group, flavourID int64) bool {
	for _, group := range groups {
		for _, option := range group.Options {
			if option.ID == flavourID {
				return true
			}
		}
	}
	return false
}
