package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error)
	CreateAddress(ctx context.Context, address *models.UserAddress) (*models.UserAddress, error)
}

// Profile is the public projection of a user, credential fields stripped.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	IsAdmin     bool       `json:"is_admin"`
	IsGuest     bool       `json:"is_guest"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// AddressInput carries the payload for saving a delivery address.
type AddressInput struct {
	UserID               uuid.UUID
	Title                string
	Address              string
	AdditionalReferences *string
	Latitude             float64
	Longitude            float64
}

// Service exposes user lookups and address management.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByGoogleID(ctx context.Context, googleID string) (*Profile, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error)
	CreateAddress(ctx context.Context, input AddressInput) (*models.UserAddress, error)
}

type service struct {
	repo userRepository
}

// NewService builds the users service.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

// NewProfile strips the credential fields off a user record.
func NewProfile(user *models.User) *Profile {
	return &Profile{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		IsAdmin:     user.IsAdmin,
		IsGuest:     user.IsGuest,
		LastLoginAt: user.LastLoginAt,
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return NewProfile(user), nil
}

func (s *service) GetByGoogleID(ctx context.Context, googleID string) (*Profile, error) {
	if strings.TrimSpace(googleID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google id is required")
	}

	user, err := s.repo.GetByGoogleID(ctx, googleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return NewProfile(user), nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	if addresses == nil {
		addresses = []models.UserAddress{}
	}
	return addresses, nil
}

func (s *service) CreateAddress(ctx context.Context, input AddressInput) (*models.UserAddress, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	title := strings.TrimSpace(input.Title)
	line := strings.TrimSpace(input.Address)
	if title == "" || line == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and address are required")
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	address, err := s.repo.CreateAddress(ctx, &models.UserAddress{
		UserID:               input.UserID,
		Title:                title,
		Address:              line,
		AdditionalReferences: input.AdditionalReferences,
		Latitude:             input.Latitude,
		Longitude:            input.Longitude,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
	}
	return address, nil
}
