// Package pos wires the register flow: every counter action lands in the
// terminal journal first, then the backing store and the cached catalog are
// brought along best-effort.
package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/pkg/enums"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

// ItemStore is the backing-store surface the register needs.
type ItemStore interface {
	ApplySale(ctx context.Context, lines []inventory.SaleApplication) error
	AdjustOnHand(ctx context.Context, slug string, delta int) error
	Create(ctx context.Context, input inventory.CreateItemInput) (inventory.Item, error)
	Update(ctx context.Context, slug string, input inventory.UpdateItemInput) (inventory.Item, error)
	Delete(ctx context.Context, slug string) error
}

// Service drives the register operations for one terminal.
type Service struct {
	journal *activity.Log
	cache   *inventory.Cache
	store   ItemStore
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Journal *activity.Log
	Cache   *inventory.Cache
	Store   ItemStore
	Logger  *logger.Logger
}

// NewService constructs the register service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Journal == nil {
		return nil, fmt.Errorf("journal required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("inventory cache required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("item store required")
	}
	return &Service{
		journal: params.Journal,
		cache:   params.Cache,
		store:   params.Store,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// SaleLineInput is one basket position.
type SaleLineInput struct {
	ItemID    string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleInput describes a completed checkout.
type SaleInput struct {
	Lines         []SaleLineInput
	PaymentMethod enums.PaymentMethod
	DeliveryFee   *decimal.Decimal
	Comment       string
}

// Receipt reports a recorded register action. StockApplied is false when the
// journal accepted the activity but the backing store could not be updated;
// the activity stays logged either way.
type Receipt struct {
	Activity     activity.Activity
	Total        decimal.Decimal
	StockApplied bool
}

// RecordSale journals the sale, decrements stock, and updates the cached
// catalog. The journal write is the source of truth; a failed stock decrement
// is reported on the receipt, never rolled back.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (Receipt, error) {
	lines := make([]activity.SaleLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, activity.SaleLine{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	act := activity.Activity{
		ID:            uuid.NewString(),
		Kind:          enums.ActivityKindSale,
		Timestamp:     s.now(),
		Items:         lines,
		PaymentMethod: input.PaymentMethod,
		DeliveryFee:   input.DeliveryFee,
		Comment:       input.Comment,
	}
	if !act.Valid() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "sale must have at least one line with a positive quantity")
	}

	s.journal.Append(ctx, act)

	applications := make([]inventory.SaleApplication, 0, len(input.Lines))
	for _, line := range input.Lines {
		applications = append(applications, inventory.SaleApplication{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	applied := true
	if err := s.store.ApplySale(ctx, applications); err != nil {
		applied = false
		s.warn(ctx, "pos.sale.stock_apply_failed", err)
	}
	for _, line := range input.Lines {
		s.cache.AdjustOnHand(ctx, line.ItemID, -line.Quantity)
	}

	return Receipt{Activity: act, Total: act.SaleTotal(), StockApplied: applied}, nil
}

// WriteOffInput describes spoiled or damaged stock leaving the shop.
type WriteOffInput struct {
	ItemID   string
	Quantity int
}

// RecordWriteOff journals the write-off and removes the stock.
func (s *Service) RecordWriteOff(ctx context.Context, input WriteOffInput) (Receipt, error) {
	if input.Quantity <= 0 {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "write-off quantity must be positive")
	}
	qty := input.Quantity
	act := activity.Activity{
		ID:              uuid.NewString(),
		Kind:            enums.ActivityKindWriteOff,
		Timestamp:       s.now(),
		ItemID:          input.ItemID,
		QuantityRemoved: &qty,
	}
	if !act.Valid() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "write-off requires an item")
	}

	s.journal.Append(ctx, act)

	applied := true
	if err := s.store.AdjustOnHand(ctx, input.ItemID, -input.Quantity); err != nil {
		applied = false
		s.warn(ctx, "pos.writeoff.stock_apply_failed", err)
	}
	s.cache.AdjustOnHand(ctx, input.ItemID, -input.Quantity)

	return Receipt{Activity: act, StockApplied: applied}, nil
}

// DeliveryInput describes stock arriving at (or being corrected on) the shelf.
type DeliveryInput struct {
	ItemID        string
	QuantityDelta int
	IsNewItem     bool
}

// RecordDelivery journals the stock change and applies the delta. Negative
// deltas are corrections; they are journaled the same way but do not count as
// deliveries at reconciliation.
func (s *Service) RecordDelivery(ctx context.Context, input DeliveryInput) (Receipt, error) {
	if input.QuantityDelta == 0 {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "stock change requires a non-zero delta")
	}
	act := activity.Activity{
		ID:            uuid.NewString(),
		Kind:          enums.ActivityKindStockChange,
		Timestamp:     s.now(),
		ItemID:        input.ItemID,
		QuantityDelta: input.QuantityDelta,
		IsNewItem:     input.IsNewItem,
	}
	if !act.Valid() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "stock change requires an item")
	}

	s.journal.Append(ctx, act)

	applied := true
	if err := s.store.AdjustOnHand(ctx, input.ItemID, input.QuantityDelta); err != nil {
		applied = false
		s.warn(ctx, "pos.delivery.stock_apply_failed", err)
	}
	s.cache.AdjustOnHand(ctx, input.ItemID, input.QuantityDelta)

	return Receipt{Activity: act, StockApplied: applied}, nil
}

// Catalog returns the cached item list, refreshing it first when stale. A
// failed refresh falls back to whatever the cache already holds.
func (s *Service) Catalog(ctx context.Context) []inventory.Item {
	if err := s.cache.Fetch(ctx, false); err != nil {
		s.warn(ctx, "pos.catalog.refresh_failed", err)
	}
	return s.cache.Items()
}

// RefreshCatalog forces a catalog fetch, bypassing the TTL.
func (s *Service) RefreshCatalog(ctx context.Context) ([]inventory.Item, error) {
	if err := s.cache.Refresh(ctx); err != nil {
		return s.cache.Items(), err
	}
	return s.cache.Items(), nil
}

// Activities returns the journal newest-first.
func (s *Service) Activities(ctx context.Context) []activity.Activity {
	return s.journal.Read(ctx)
}

// ClearActivities drops the journal on explicit operator request.
func (s *Service) ClearActivities(ctx context.Context) {
	s.journal.Clear(ctx)
}

// CreateItem adds a catalog item, journals the initial stock, and surfaces it
// in the cached list immediately.
func (s *Service) CreateItem(ctx context.Context, input inventory.CreateItemInput) (inventory.Item, error) {
	item, err := s.store.Create(ctx, input)
	if err != nil {
		return inventory.Item{}, err
	}
	s.cache.Add(ctx, item)

	if item.OnHand > 0 {
		s.journal.Append(ctx, activity.Activity{
			ID:            uuid.NewString(),
			Kind:          enums.ActivityKindStockChange,
			Timestamp:     s.now(),
			ItemID:        item.ID,
			QuantityDelta: item.OnHand,
			IsNewItem:     true,
		})
	}
	return item, nil
}

// UpdateItem edits a catalog item and journals the variety change so the
// shift log shows who touched the catalog mid-shift.
func (s *Service) UpdateItem(ctx context.Context, slug string, input inventory.UpdateItemInput) (inventory.Item, error) {
	item, err := s.store.Update(ctx, slug, input)
	if err != nil {
		return inventory.Item{}, err
	}
	s.cache.Update(ctx, item)

	s.journal.Append(ctx, activity.Activity{
		ID:         uuid.NewString(),
		Kind:       enums.ActivityKindVarietyChange,
		Timestamp:  s.now(),
		VarietyID:  item.ID,
		ChangeKind: enums.VarietyChangeUpdated,
	})
	return item, nil
}

// DeleteItem removes a catalog item from the store and the cached list.
func (s *Service) DeleteItem(ctx context.Context, slug string) error {
	if err := s.store.Delete(ctx, slug); err != nil {
		return err
	}
	s.cache.Remove(ctx, slug)
	return nil
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
