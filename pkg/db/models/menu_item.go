package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem represents a sellable product on the storefront menu.
type MenuItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Available   bool            `gorm:"column:available;not null;default:true"`
	Image       string          `gorm:"column:image;not null;default:''"`

	FlavourGroups []MenuFlavourGroup `gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (MenuItem) TableName() string { return "menu_items" }
