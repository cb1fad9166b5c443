package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShiftRecord is the authoritative closed-shift row, addressed by its natural
// key (shift_date, worker_slug). Reconciliation updates the existing row when
// the same shift is closed again.
type ShiftRecord struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShiftDate   string          `gorm:"column:shift_date;type:varchar(10);not null;uniqueIndex:shift_records_natural_key"`
	WorkerSlug  string          `gorm:"column:worker_slug;not null;uniqueIndex:shift_records_natural_key"`
	CashTotal   decimal.Decimal `gorm:"column:cash_total;type:decimal(12,2);not null"`
	CashByCash  decimal.Decimal `gorm:"column:cash_by_cash;type:decimal(12,2);not null"`
	CashByCard  decimal.Decimal `gorm:"column:cash_by_card;type:decimal(12,2);not null"`
	OrdersCount int             `gorm:"column:orders_count;not null;default:0"`
	Comment     *string         `gorm:"column:comment"`
	Items       []byte          `gorm:"column:items;type:jsonb;not null;default:'[]'"`
	RawLog      []byte          `gorm:"column:raw_log;type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (ShiftRecord) TableName() string {
	return "shift_records"
}

// BeforeCreate assigns the row ID client-side so drivers without a uuid
// default behave the same as Postgres.
func (s *ShiftRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
