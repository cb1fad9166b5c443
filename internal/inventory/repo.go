package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/DesumovJP/flowerpos/pkg/db"
	"github.com/DesumovJP/flowerpos/pkg/db/models"
	"github.com/DesumovJP/flowerpos/pkg/enums"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
)

// Fetcher is the inventory read surface the cache depends on.
type Fetcher interface {
	FetchItems(ctx context.Context) ([]Item, error)
}

// CreateItemInput holds the validated payload to create a catalog item.
type CreateItemInput struct {
	Slug      string
	Name      string
	UnitPrice decimal.Decimal
	OnHand    int
	Kind      enums.ItemKind
}

// UpdateItemInput holds optional mutation values for a catalog item.
type UpdateItemInput struct {
	Name      *string
	UnitPrice *decimal.Decimal
	OnHand    *int
	Kind      *enums.ItemKind
}

// Repository persists catalog items in the backing store.
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

// FetchItems returns the whole catalog ordered by name. The cache treats this
// as authoritative on every successful call.
func (r *Repository) FetchItems(ctx context.Context) ([]Item, error) {
	var rows []models.Item
	if err := r.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromModel(row))
	}
	return items, nil
}

// FindBySlug loads one item row.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Item, error) {
	var row models.Item
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", slug))
	}
	if err != nil {
		return nil, fmt.Errorf("loading item %q: %w", slug, err)
	}
	return &row, nil
}

// Create inserts a new catalog item.
func (r *Repository) Create(ctx context.Context, input CreateItemInput) (Item, error) {
	row := models.Item{
		Slug:      input.Slug,
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		OnHandQty: input.OnHand,
		Kind:      input.Kind,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return Item{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("item %q already exists", input.Slug))
		}
		return Item{}, fmt.Errorf("creating item %q: %w", input.Slug, err)
	}
	return itemFromModel(row), nil
}

// Update applies the provided mutations to an existing item.
func (r *Repository) Update(ctx context.Context, slug string, input UpdateItemInput) (Item, error) {
	row, err := r.FindBySlug(ctx, slug)
	if err != nil {
		return Item{}, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.UnitPrice != nil {
		updates["unit_price"] = *input.UnitPrice
	}
	if input.OnHand != nil {
		updates["on_hand_qty"] = *input.OnHand
	}
	if input.Kind != nil {
		updates["kind"] = *input.Kind
	}
	if len(updates) == 0 {
		return itemFromModel(*row), nil
	}

	if err := r.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return Item{}, fmt.Errorf("updating item %q: %w", slug, err)
	}
	return r.reload(ctx, slug)
}

// Delete removes an item row.
func (r *Repository) Delete(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Item{})
	if res.Error != nil {
		return fmt.Errorf("deleting item %q: %w", slug, res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", slug))
	}
	return nil
}

// AdjustOnHand shifts an item's on-hand quantity by delta.
func (r *Repository) AdjustOnHand(ctx context.Context, slug string, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("slug = ?", slug).
		UpdateColumn("on_hand_qty", gorm.Expr("on_hand_qty + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("adjusting stock for %q: %w", slug, res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", slug))
	}
	return nil
}

// ApplySale decrements on-hand stock for every sold line. Lines are applied
// independently; failures are combined so one unknown item does not block the
// rest of the basket.
func (r *Repository) ApplySale(ctx context.Context, lines []SaleApplication) error {
	var errs []error
	for _, line := range lines {
		if line.ItemID == "" || line.Quantity <= 0 {
			continue
		}
		if err := r.AdjustOnHand(ctx, line.ItemID, -line.Quantity); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (r *Repository) reload(ctx context.Context, slug string) (Item, error) {
	row, err := r.FindBySlug(ctx, slug)
	if err != nil {
		return Item{}, err
	}
	return itemFromModel(*row), nil
}

