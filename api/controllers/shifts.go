package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/api/responses"
	"github.com/DesumovJP/flowerpos/api/validators"
	"github.com/DesumovJP/flowerpos/internal/shift"
	"github.com/DesumovJP/flowerpos/pkg/db/models"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

// ShiftCloser is satisfied by shift.Coordinator.
type ShiftCloser interface {
	Close(ctx context.Context, params shift.CloseParams) (*shift.Result, error)
}

// ShiftReader is satisfied by shift.Repository.
type ShiftReader interface {
	FindByNaturalKey(ctx context.Context, key shift.Key) (*models.ShiftRecord, error)
}

type CloseShiftBody struct {
	Date         string           `json:"date" validate:"required,datetime=2006-01-02"`
	WorkerSlug   string           `json:"workerSlug" validate:"required,min=1,max=64"`
	CashOverride *decimal.Decimal `json:"cashOverride,omitempty"`
	Comment      string           `json:"comment,omitempty" validate:"max=500"`
}

func CloseShift(closer ShiftCloser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CloseShiftBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := closer.Close(r.Context(), shift.CloseParams{
			Key: shift.Key{
				Date:       body.Date,
				WorkerSlug: validators.SanitizeString(body.WorkerSlug, 64),
			},
			CashOverride: body.CashOverride,
			Comment:      validators.SanitizeString(body.Comment, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"recordId":    result.RecordID,
			"mode":        result.Mode,
			"cashTotal":   result.Snapshot.CashTotal,
			"cashByCash":  result.Snapshot.CashByCash,
			"cashByCard":  result.Snapshot.CashByCard,
			"ordersCount": result.Snapshot.OrdersCount,
			"items":       result.Snapshot.Items,
		})
	}
}

// GetShift returns a previously closed shift by its natural key.
func GetShift(store ShiftReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := shift.Key{
			Date:       chi.URLParam(r, "date"),
			WorkerSlug: chi.URLParam(r, "workerSlug"),
		}
		if err := key.Validate(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := store.FindByNaturalKey(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := shift.DecodeItemRows(row.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"recordId":    row.ID,
			"date":        row.ShiftDate,
			"workerSlug":  row.WorkerSlug,
			"cashTotal":   row.CashTotal,
			"cashByCash":  row.CashByCash,
			"cashByCard":  row.CashByCard,
			"ordersCount": row.OrdersCount,
			"comment":     row.Comment,
			"items":       items,
		})
	}
}
