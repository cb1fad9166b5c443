// Package shift builds the end-of-shift snapshot from the terminal journal and
// reconciles it into the backing store.
package shift

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/aggregate"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/pkg/enums"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
)

// Key is the natural key a closed shift is addressed by.
type Key struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	WorkerSlug string `json:"workerSlug" validate:"required"`
}

// String renders the key for lock names and log fields.
func (k Key) String() string {
	return k.Date + "/" + k.WorkerSlug
}

// Validate checks the key without touching the validator machinery; the
// coordinator is also driven from non-HTTP callers.
func (k Key) Validate() error {
	if _, err := time.Parse("2006-01-02", k.Date); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shift date %q", k.Date))
	}
	if strings.TrimSpace(k.WorkerSlug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "worker slug is required")
	}
	return nil
}

// ItemRow is one catalog line in the snapshot: the current stock level plus
// the movement counters accumulated over the shift.
type ItemRow struct {
	ItemID     string          `json:"itemId"`
	OnHand     int             `json:"onHand"`
	Sold       int             `json:"sold"`
	WrittenOff int             `json:"writtenOff"`
	Delivered  int             `json:"delivered"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// Snapshot is the reconciled view of one shift, ready to be upserted.
type Snapshot struct {
	Key         Key
	CashTotal   decimal.Decimal
	CashByCash  decimal.Decimal
	CashByCard  decimal.Decimal
	OrdersCount int
	Comment     string
	Items       []ItemRow
	RawLog      []activity.Activity
}

// DecodeItemRows reads stored snapshot rows back out of a record. Older
// records wrapped the rows in an {"items": [...]} object; both shapes decode
// to the same slice.
func DecodeItemRows(raw []byte) ([]ItemRow, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []ItemRow
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	var wrapped struct {
		Items []ItemRow `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding shift items")
	}
	return wrapped.Items, nil
}

// BuildParams carries the inputs to the pure snapshot builder.
type BuildParams struct {
	Key        Key
	Activities []activity.Activity
	Catalog    []inventory.Item
	// CashOverride, when set, replaces the computed cash total with the amount
	// the worker actually counted in the drawer.
	CashOverride *decimal.Decimal
	Comment      string
}

// Build folds the journal and the current catalog into a snapshot. It never
// fails on content: an empty catalog or an empty journal produce a snapshot of
// zero-valued rows, because a quiet shift still gets closed.
func Build(params BuildParams) Snapshot {
	totals := aggregate.Totals(params.Activities)
	split := aggregate.CashByMethod(params.Activities)

	cashTotal := aggregate.SalesValue(params.Catalog, totals)
	if params.CashOverride != nil {
		cashTotal = *params.CashOverride
	}

	rows := make([]ItemRow, 0, len(params.Catalog))
	for _, item := range params.Catalog {
		c := totals[item.ID]
		rows = append(rows, ItemRow{
			ItemID:     item.ID,
			OnHand:     item.OnHand,
			Sold:       c.Sold,
			WrittenOff: c.WrittenOff,
			Delivered:  c.Delivered,
			UnitPrice:  item.UnitPrice,
		})
	}

	return Snapshot{
		Key:         params.Key,
		CashTotal:   cashTotal,
		CashByCash:  split[enums.PaymentMethodCash],
		CashByCard:  split[enums.PaymentMethodCard],
		OrdersCount: aggregate.OrdersCount(params.Activities),
		Comment:     params.Comment,
		Items:       rows,
		RawLog:      params.Activities,
	}
}
