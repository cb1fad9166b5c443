package controllers

import (
	"net/http"

	"github.com/DesumovJP/flowerpos/api/responses"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

// ListActivities returns the terminal journal, newest first.
func ListActivities(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := svc.Activities(r.Context())
		responses.WriteSuccess(w, map[string]any{
			"activities": entries,
			"count":      len(entries),
		})
	}
}

// ClearActivities drops the journal on operator request.
func ClearActivities(svc *pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ClearActivities(r.Context())
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
