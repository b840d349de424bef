package models

import "time"

// FlavourGroup is a named set of flavours (e.g. "Gustos clásicos").
type FlavourGroup struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Title string `gorm:"column:grp_title;not null;uniqueIndex"`

	Flavours []Flavour `gorm:"foreignKey:FlavourGroupID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (FlavourGroup) TableName() string { return "flavour_groups" }

// Flavour is a single selectable option inside a group.
type Flavour struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement"`
	FlavourGroupID int64  `gorm:"column:flavour_group_id;not null;index"`
	Name           string `gorm:"column:flavour_name;not null"`
	Available      bool   `gorm:"column:available;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Flavour) TableName() string { return "flavours" }

// MenuFlavourGroup binds a flavour group to a menu item with a selection cap.
type MenuFlavourGroup struct {
	MenuID         int64 `gorm:"column:menu_id;primaryKey"`
	FlavourGroupID int64 `gorm:"column:flavour_grp_id;primaryKey"`
	MaxQuantity    int   `gorm:"column:max_quantity;not null;default:1"`

	Group FlavourGroup `gorm:"foreignKey:FlavourGroupID"`
}

func (MenuFlavourGroup) TableName() string { return "menu_flavour_groups" }
