package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/api/responses"
	"github.com/DesumovJP/flowerpos/api/validators"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/pkg/enums"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

type SaleLineBody struct {
	ItemID    string          `json:"itemId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"required"`
}

type RecordSaleBody struct {
	Items         []SaleLineBody   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,oneof=cash card"`
	DeliveryFee   *decimal.Decimal `json:"deliveryFee,omitempty"`
	Comment       string           `json:"comment,omitempty" validate:"max=500"`
}

func RecordSale(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RecordSaleBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]pos.SaleLineInput, 0, len(body.Items))
		for _, line := range body.Items {
			lines = append(lines, pos.SaleLineInput{
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		receipt, err := svc.RecordSale(r.Context(), pos.SaleInput{
			Lines:         lines,
			PaymentMethod: enums.PaymentMethod(body.PaymentMethod),
			DeliveryFee:   body.DeliveryFee,
			Comment:       validators.SanitizeString(body.Comment, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"activity":     receipt.Activity,
			"total":        receipt.Total,
			"stockApplied": receipt.StockApplied,
		})
	}
}
