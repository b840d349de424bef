package flavours

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/pkg/db/models"
)

// MenuFlavourRow is one row of the flattened menu/group/flavour join used by
// the storefront selection screen.
type MenuFlavourRow struct {
	Quantity  int    `gorm:"column:quantity" json:"quantity"`
	GrpTitle  string `gorm:"column:grp_title" json:"grp_title"`
	FlvID     int64  `gorm:"column:flv_id" json:"flv_id"`
	Name      string `gorm:"column:name" json:"name"`
	Available bool   `gorm:"column:available" json:"available"`
}

const menuFlavourQuery = `
SELECT mfg.max_quantity AS quantity,
       g.grp_title AS grp_title,
       f.id AS flv_id,
       f.flavour_name AS name,
       f.available AS available
FROM menu_flavour_groups mfg
JOIN flavour_groups g ON g.id = mfg.flavour_grp_id
JOIN flavours f ON f.flavour_group_id = g.id
WHERE mfg.menu_id = ?
ORDER BY mfg.flavour_grp_id ASC, f.id ASC
`

// Repository wires together flavour and flavour group persistence helpers.
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

// ListForMenu returns the flat flavour tuples bound to a menu item.
func (r *Repository) ListForMenu(ctx context.Context, menuID int64) ([]MenuFlavourRow, error) {
	var rows []MenuFlavourRow
	if err := r.db.WithContext(ctx).Raw(menuFlavourQuery, menuID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetGroup loads a flavour group with its flavours.
func (r *Repository) GetGroup(ctx context.Context, id int64) (*models.FlavourGroup, error) {
	var group models.FlavourGroup
	if err := r.db.WithContext(ctx).Preload("Flavours").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups returns all flavour groups with their flavours.
func (r *Repository) ListGroups(ctx context.Context) ([]models.FlavourGroup, error) {
	var groups []models.FlavourGroup
	if err := r.db.WithContext(ctx).Preload("Flavours").Order("id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup inserts a flavour group.
func (r *Repository) CreateGroup(ctx context.Context, group *models.FlavourGroup) (*models.FlavourGroup, error) {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup renames a flavour group.
func (r *Repository) UpdateGroup(ctx context.Context, group *models.FlavourGroup) (*models.FlavourGroup, error) {
	if err := r.db.WithContext(ctx).Model(group).Select("grp_title").Updates(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a flavour group; its flavours cascade.
func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.FlavourGroup{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFlavours returns flavours ordered by id, optionally filtered by a
// case-insensitive name match.
func (r *Repository) ListFlavours(ctx context.Context, search string) ([]models.Flavour, error) {
	query := r.db.WithContext(ctx).Order("id ASC")
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		query = query.Where("LOWER(flavour_name) LIKE ?", "%"+strings.ToLower(trimmed)+"%")
	}

	var flavoursList []models.Flavour
	if err := query.Find(&flavoursList).Error; err != nil {
		return nil, err
	}
	return flavoursList, nil
}

// GetFlavour loads a single flavour.
func (r *Repository) GetFlavour(ctx context.Context, id int64) (*models.Flavour, error) {
	var flavour models.Flavour
	if err := r.db.WithContext(ctx).First(&flavour, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flavour, nil
}

// CreateFlavour inserts a flavour into its group.
func (r *Repository) CreateFlavour(ctx context.Context, flavour *models.Flavour) (*models.Flavour, error) {
	if err := r.db.WithContext(ctx).Create(flavour).Error; err != nil {
		return nil, err
	}
	return flavour, nil
}

// UpdateFlavour saves the mutable columns of a flavour.
func (r *Repository) UpdateFlavour(ctx context.Context, flavour *models.Flavour) (*models.Flavour, error) {
	if err := r.db.WithContext(ctx).Model(flavour).
		Select("flavour_name", "available", "flavour_group_id").
		Updates(flavour).Error; err != nil {
		return nil, err
	}
	return flavour, nil
}

// DeleteFlavour removes a flavour.
func (r *Repository) DeleteFlavour(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Flavour{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
