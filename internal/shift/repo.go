package shift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DesumovJP/flowerpos/pkg/db/models"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
)

// Store is the persistence surface the coordinator reconciles against.
type Store interface {
	FindByNaturalKey(ctx context.Context, key Key) (*models.ShiftRecord, error)
	Create(ctx context.Context, snap Snapshot) (*models.ShiftRecord, error)
	Update(ctx context.Context, id string, snap Snapshot) (*models.ShiftRecord, error)
}

// Repository persists shift records in the backing store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByNaturalKey loads the record for (shift_date, worker_slug), or a
// NOT_FOUND error when the shift has never been closed.
func (r *Repository) FindByNaturalKey(ctx context.Context, key Key) (*models.ShiftRecord, error) {
	var row models.ShiftRecord
	err := r.db.WithContext(ctx).
		Where("shift_date = ? AND worker_slug = ?", key.Date, key.WorkerSlug).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("shift %s not found", key))
	}
	if err != nil {
		return nil, fmt.Errorf("loading shift %s: %w", key, err)
	}
	return &row, nil
}

// Create inserts a fresh record for the snapshot.
func (r *Repository) Create(ctx context.Context, snap Snapshot) (*models.ShiftRecord, error) {
	row, err := rowFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("creating shift %s: %w", snap.Key, err)
	}
	return row, nil
}

// Update overwrites an existing record with the snapshot's values. Re-closing
// a shift replaces the previous reconciliation wholesale.
func (r *Repository) Update(ctx context.Context, id string, snap Snapshot) (*models.ShiftRecord, error) {
	row, err := rowFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"cash_total":   row.CashTotal,
		"cash_by_cash": row.CashByCash,
		"cash_by_card": row.CashByCard,
		"orders_count": row.OrdersCount,
		"comment":      row.Comment,
		"items":        row.Items,
		"raw_log":      row.RawLog,
	}
	res := r.db.WithContext(ctx).Model(&models.ShiftRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("updating shift %s: %w", snap.Key, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("shift record %s not found", id))
	}

	var reloaded models.ShiftRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reloaded).Error; err != nil {
		return nil, fmt.Errorf("reloading shift %s: %w", snap.Key, err)
	}
	return &reloaded, nil
}

func rowFromSnapshot(snap Snapshot) (*models.ShiftRecord, error) {
	items, err := marshalArray(snap.Items)
	if err != nil {
		return nil, fmt.Errorf("encoding shift items: %w", err)
	}
	rawLog, err := marshalArray(snap.RawLog)
	if err != nil {
		return nil, fmt.Errorf("encoding shift raw log: %w", err)
	}
	var comment *string
	if snap.Comment != "" {
		comment = &snap.Comment
	}
	return &models.ShiftRecord{
		ShiftDate:   snap.Key.Date,
		WorkerSlug:  snap.Key.WorkerSlug,
		CashTotal:   snap.CashTotal,
		CashByCash:  snap.CashByCash,
		CashByCard:  snap.CashByCard,
		OrdersCount: snap.OrdersCount,
		Comment:     comment,
		Items:       items,
		RawLog:      rawLog,
	}, nil
}

// marshalArray keeps jsonb columns as arrays even for empty snapshots.
func marshalArray[T any](values []T) ([]byte, error) {
	if len(values) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(values)
}
