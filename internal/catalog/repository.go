package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/pkg/db/models"
)

// Repository wires together menu item persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// GetByID loads the menu item without associations.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns menu items ordered by id, optionally filtered by a
// case-insensitive match on name or description.
func (r *Repository) List(ctx context.Context, search string) ([]models.MenuItem, error) {
	query := r.db.WithContext(ctx).Order("id ASC")
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var items []models.MenuItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a menu item.
func (r *Repository) Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Update saves all mutable columns of the item.
func (r *Repository) Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.db.WithContext(ctx).Model(item).
		Select("name", "description", "price", "available", "image").
		Updates(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a menu item; group bindings cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.MenuItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceGroupBindings swaps all flavour group bindings of the item. Delete
// and insert run in one transaction so a failed insert keeps the old set.
func (r *Repository) ReplaceGroupBindings(ctx context.Context, menuID int64, bindings []models.MenuFlavourGroup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := r.WithTx(tx)
		if err := repo.db.Where("menu_id = ?", menuID).Delete(&models.MenuFlavourGroup{}).Error; err != nil {
			return err
		}
		if len(bindings) == 0 {
			return nil
		}
		for i := range bindings {
			bindings[i].MenuID = menuID
		}
		return repo.db.Create(&bindings).Error
	})
}

// ListGroupBindings returns the flavour group bindings of the item.
func (r *Repository) ListGroupBindings(ctx context.Context, menuID int64) ([]models.MenuFlavourGroup, error) {
	var bindings []models.MenuFlavourGroup
	if err := r.db.WithContext(ctx).
		Where("menu_id = ?", menuID).
		Order("flavour_grp_id ASC").
		Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}
