package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order is a checkout snapshot persisted before handing off to a payment
// provider.
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Status      string          `gorm:"column:status;not null;default:'pending'"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	Currency    string          `gorm:"column:currency;not null;default:'ARS'"`
	Provider    string          `gorm:"column:provider;not null"`
	ProviderRef *string         `gorm:"column:provider_ref"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderLine captures one unit of a cart line, flavour picks included.
type OrderLine struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID int64           `gorm:"column:menu_item_id;not null"`
	Name       string          `gorm:"column:name;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	UnitIndex  int             `gorm:"column:unit_index;not null"`
	FlavourIDs pq.Int64Array   `gorm:"column:flavour_ids;type:bigint[];not null;default:ARRAY[]::bigint[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLine) TableName() string { return "order_lines" }
