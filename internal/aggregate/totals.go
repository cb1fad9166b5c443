// Package aggregate folds a journal of terminal activities into per-item
// movement counters and monetary totals. Everything here is pure; callers
// feed it a snapshot of the journal and the current catalog.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/pkg/enums"
)

// Counters holds the per-item movement totals accumulated over a shift.
type Counters struct {
	Sold       int `json:"sold"`
	WrittenOff int `json:"writtenOff"`
	Delivered  int `json:"delivered"`
}

// Totals folds the activities into per-item counters keyed by item slug.
//
// Sales accumulate each line's quantity under sold. Write-offs accumulate the
// canonical removed quantity. Stock changes count only positive deltas as
// deliveries; corrections downward are not a delivery and contribute nothing.
// Variety changes carry no quantities and are skipped.
func Totals(activities []activity.Activity) map[string]Counters {
	totals := make(map[string]Counters)
	for _, act := range activities {
		switch act.Kind {
		case enums.ActivityKindSale:
			for _, line := range act.Items {
				c := totals[line.ItemID]
				c.Sold += line.Quantity
				totals[line.ItemID] = c
			}
		case enums.ActivityKindWriteOff:
			c := totals[act.ItemID]
			c.WrittenOff += act.RemovedQuantity()
			totals[act.ItemID] = c
		case enums.ActivityKindStockChange:
			if act.QuantityDelta > 0 {
				c := totals[act.ItemID]
				c.Delivered += act.QuantityDelta
				totals[act.ItemID] = c
			}
		}
	}
	return totals
}

// SalesValue prices the sold counters against the catalog. Items missing from
// the catalog are skipped; their slugs may refer to deleted entries and there
// is no price to apply.
func SalesValue(items []inventory.Item, totals map[string]Counters) decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		prices[item.ID] = item.UnitPrice
	}
	total := decimal.Zero
	for slug, c := range totals {
		price, ok := prices[slug]
		if !ok || c.Sold == 0 {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(c.Sold))))
	}
	return total
}

// CashByMethod splits the journal's sale totals per payment method. Sales with
// an unrecognized method are split evenly between cash and card so the shift
// total still reconciles to the sum of its parts.
func CashByMethod(activities []activity.Activity) map[enums.PaymentMethod]decimal.Decimal {
	half := decimal.New(5, -1)
	split := map[enums.PaymentMethod]decimal.Decimal{
		enums.PaymentMethodCash: decimal.Zero,
		enums.PaymentMethodCard: decimal.Zero,
	}
	for _, act := range activities {
		if act.Kind != enums.ActivityKindSale {
			continue
		}
		amount := act.SaleTotal()
		switch act.PaymentMethod {
		case enums.PaymentMethodCash, enums.PaymentMethodCard:
			split[act.PaymentMethod] = split[act.PaymentMethod].Add(amount)
		default:
			portion := amount.Mul(half)
			split[enums.PaymentMethodCash] = split[enums.PaymentMethodCash].Add(portion)
			split[enums.PaymentMethodCard] = split[enums.PaymentMethodCard].Add(portion)
		}
	}
	return split
}

// OrdersCount returns the number of sale activities in the journal.
func OrdersCount(activities []activity.Activity) int {
	count := 0
	for _, act := range activities {
		if act.Kind == enums.ActivityKindSale {
			count++
		}
	}
	return count
}
