package controllers

import (
	"net/http"

	"github.com/DesumovJP/flowerpos/api/responses"
	"github.com/DesumovJP/flowerpos/api/validators"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

type RecordWriteOffBody struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

func RecordWriteOff(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RecordWriteOffBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.RecordWriteOff(r.Context(), pos.WriteOffInput{
			ItemID:   body.ItemID,
			Quantity: body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"activity":     receipt.Activity,
			"stockApplied": receipt.StockApplied,
		})
	}
}

type RecordDeliveryBody struct {
	ItemID        string `json:"itemId" validate:"required"`
	QuantityDelta int    `json:"quantityDelta" validate:"required"`
	IsNewItem     bool   `json:"isNewItem,omitempty"`
}

func RecordDelivery(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RecordDeliveryBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.RecordDelivery(r.Context(), pos.DeliveryInput{
			ItemID:        body.ItemID,
			QuantityDelta: body.QuantityDelta,
			IsNewItem:     body.IsNewItem,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"activity":     receipt.Activity,
			"stockApplied": receipt.StockApplied,
		})
	}
}
