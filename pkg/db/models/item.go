package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DesumovJP/flowerpos/pkg/enums"
)

// Item is a catalog entry with its current on-hand quantity. The slug is the
// stable identifier the terminal journal references; the UUID is storage-only.
type Item struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug      string          `gorm:"column:slug;not null;uniqueIndex:items_slug_key"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
	OnHandQty int             `gorm:"column:on_hand_qty;not null;default:0"`
	Kind      enums.ItemKind  `gorm:"column:kind;not null;default:'flower'"`
	VarietyID *uuid.UUID      `gorm:"column:variety_id;type:uuid"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Item) TableName() string {
	return "items"
}

// BeforeCreate assigns the row ID client-side so drivers without a uuid
// default behave the same as Postgres.
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
