package activity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/pkg/enums"
)

// SaleLine is one item position inside a sale activity.
type SaleLine struct {
	ItemID    string          `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Activity is one journal entry, discriminated by Kind. The flat layout mirrors
// the persisted JSON shape; only the fields of the discriminated variant are
// populated.
type Activity struct {
	ID        string             `json:"id"`
	Kind      enums.ActivityKind `json:"kind"`
	Timestamp time.Time          `json:"timestamp"`

	// sale
	Items         []SaleLine          `json:"items,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod,omitempty"`
	DeliveryFee   *decimal.Decimal    `json:"deliveryFee,omitempty"`
	Comment       string              `json:"comment,omitempty"`

	// write_off and stock_change
	ItemID string `json:"itemId,omitempty"`

	// write_off; RemainingAfter is the legacy shape, normalized away before
	// any arithmetic runs
	QuantityRemoved *int `json:"quantityRemoved,omitempty"`
	RemainingAfter  *int `json:"remainingAfter,omitempty"`

	// stock_change
	QuantityDelta int  `json:"quantityDelta,omitempty"`
	IsNewItem     bool `json:"isNewItem,omitempty"`

	// variety_change
	VarietyID  string                  `json:"varietyId,omitempty"`
	ChangeKind enums.VarietyChangeKind `json:"changeKind,omitempty"`
}

// SaleTotal returns the monetary total of a sale activity, delivery fee included.
func (a Activity) SaleTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range a.Items {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if a.DeliveryFee != nil {
		total = total.Add(*a.DeliveryFee)
	}
	return total
}

// Valid reports whether the activity is well-formed enough to enter the
// journal. Malformed activities are dropped, never surfaced as errors.
func (a Activity) Valid() bool {
	if a.ID == "" || !a.Kind.IsValid() {
		return false
	}
	switch a.Kind {
	case enums.ActivityKindSale:
		if len(a.Items) == 0 {
			return false
		}
		for _, line := range a.Items {
			if line.ItemID == "" || line.Quantity <= 0 {
				return false
			}
		}
		return true
	case enums.ActivityKindWriteOff:
		return a.ItemID != "" && (a.QuantityRemoved != nil || a.RemainingAfter != nil)
	case enums.ActivityKindStockChange:
		return a.ItemID != ""
	case enums.ActivityKindVarietyChange:
		return a.VarietyID != "" && a.ChangeKind.IsValid()
	}
	return false
}

// Normalize maps every legacy payload shape to the canonical one. Today that
// is the write-off events that carry only remainingAfter: the value is treated
// as the removed quantity, matching how historic records were produced.
func (a Activity) Normalize() Activity {
	if a.Kind == enums.ActivityKindWriteOff && a.QuantityRemoved == nil && a.RemainingAfter != nil {
		removed := *a.RemainingAfter
		a.QuantityRemoved = &removed
		a.RemainingAfter = nil
	}
	return a
}

// RemovedQuantity returns the canonical removed amount of a write-off.
func (a Activity) RemovedQuantity() int {
	norm := a.Normalize()
	if norm.QuantityRemoved == nil {
		return 0
	}
	return *norm.QuantityRemoved
}
