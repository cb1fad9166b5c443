package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/api/responses"
	"github.com/DesumovJP/flowerpos/api/validators"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/pkg/enums"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

// ListItems serves the cached catalog; ?refresh=true bypasses the TTL.
func ListItems(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Query().Get("refresh"), "true") {
			items, err := svc.RefreshCatalog(r.Context())
			if err != nil {
				// Stale data beats no data at the register; report it but
				// still serve what the cache holds.
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "items.refresh_failed")
				}
				responses.WriteSuccess(w, map[string]any{"items": items, "stale": true})
				return
			}
			responses.WriteSuccess(w, map[string]any{"items": items})
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": svc.Catalog(r.Context())})
	}
}

type CreateItemBody struct {
	Slug      string          `json:"slug" validate:"required,min=2,max=64"`
	Name      string          `json:"name" validate:"required,min=1,max=128"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"required"`
	OnHandQty int             `json:"onHandQuantity" validate:"min=0"`
	Kind      string          `json:"kind" validate:"required,oneof=flower bouquet accessory"`
}

func CreateItem(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CreateItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), inventory.CreateItemInput{
			Slug:      validators.SanitizeString(body.Slug, 64),
			Name:      validators.SanitizeString(body.Name, 128),
			UnitPrice: body.UnitPrice,
			OnHand:    body.OnHandQty,
			Kind:      enums.ItemKind(body.Kind),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type UpdateItemBody struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	OnHandQty *int             `json:"onHandQuantity,omitempty" validate:"omitempty,min=0"`
	Kind      *string          `json:"kind,omitempty" validate:"omitempty,oneof=flower bouquet accessory"`
}

func UpdateItem(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if strings.TrimSpace(slug) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item slug is required"))
			return
		}

		var body UpdateItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdateItemInput{
			Name:      body.Name,
			UnitPrice: body.UnitPrice,
			OnHand:    body.OnHandQty,
		}
		if body.Kind != nil {
			kind := enums.ItemKind(*body.Kind)
			input.Kind = &kind
		}

		item, err := svc.UpdateItem(r.Context(), slug, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func DeleteItem(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if strings.TrimSpace(slug) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item slug is required"))
			return
		}

		if err := svc.DeleteItem(r.Context(), slug); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
