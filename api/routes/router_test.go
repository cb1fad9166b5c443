package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/internal/shift"
	"github.com/DesumovJP/flowerpos/pkg/config"
	"github.com/DesumovJP/flowerpos/pkg/db/models"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubItemStore struct{}

func (stubItemStore) ApplySale(context.Context, []inventory.SaleApplication) error {
	return nil
}

func (stubItemStore) AdjustOnHand(context.Context, string, int) error {
	return nil
}

func (stubItemStore) Create(ctx context.Context, input inventory.CreateItemInput) (inventory.Item, error) {
	return inventory.Item{ID: input.Slug, Name: input.Name, UnitPrice: input.UnitPrice, OnHand: input.OnHand, Kind: input.Kind}, nil
}

func (stubItemStore) Update(ctx context.Context, slug string, input inventory.UpdateItemInput) (inventory.Item, error) {
	return inventory.Item{ID: slug}, nil
}

func (stubItemStore) Delete(context.Context, string) error {
	return nil
}

type stubFetcher struct{}

func (stubFetcher) FetchItems(context.Context) ([]inventory.Item, error) {
	return []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 40},
	}, nil
}

type stubCloser struct {
	lastParams shift.CloseParams
}

type stubShiftReader struct{}

func (stubShiftReader) FindByNaturalKey(ctx context.Context, key shift.Key) (*models.ShiftRecord, error) {
	if key.WorkerSlug != "olena" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shift not found")
	}
	return &models.ShiftRecord{
		ShiftDate:   key.Date,
		WorkerSlug:  key.WorkerSlug,
		CashTotal:   decimal.NewFromInt(360),
		OrdersCount: 2,
		Items:       []byte(`{"items":[{"itemId":"rose-red","onHand":37,"sold":3,"writtenOff":0,"delivered":0,"unitPrice":"120"}]}`),
	}, nil
}

func (s *stubCloser) Close(ctx context.Context, params shift.CloseParams) (*shift.Result, error) {
	s.lastParams = params
	return &shift.Result{
		Snapshot: shift.Snapshot{Key: params.Key, CashTotal: decimal.NewFromInt(360)},
		RecordID: "3c7cf3a5-17f6-4a15-a2bb-5efda708d68e",
		Mode:     "created",
	}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubCloser) {
	t.Helper()
	journal, err := activity.NewLog(activity.LogParams{Persistence: activity.NewMemoryPersistence()})
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	cache, err := inventory.NewCache(inventory.CacheParams{Fetcher: stubFetcher{}})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	svc, err := pos.NewService(pos.ServiceParams{Journal: journal, Cache: cache, Store: stubItemStore{}})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	closer := &stubCloser{}
	router := NewRouter(RouterParams{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:      logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		DBPinger:    stubPinger{},
		RedisPinger: stubPinger{},
		POSService:  svc,
		ShiftCloser: closer,
		ShiftReader: stubShiftReader{},
	})
	return router, closer
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doRequest(t, router, http.MethodGet, "/health/live", ""); w.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", w.Code)
	}
	if w := doRequest(t, router, http.MethodGet, "/health/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", w.Code)
	}
}

func TestSaleFlowThroughRouter(t *testing.T) {
	router, _ := newTestRouter(t)

	sale := `{"items":[{"itemId":"rose-red","quantity":3,"unitPrice":120}],"paymentMethod":"cash"}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/pos/sales", sale)
	if w.Code != http.StatusCreated {
		t.Fatalf("sale: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/pos/activities", "")
	if w.Code != http.StatusOK {
		t.Fatalf("activities: expected 200, got %d", w.Code)
	}
	var envelope struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Count != 1 {
		t.Fatalf("expected 1 journal entry, got %d", envelope.Data.Count)
	}

	if w := doRequest(t, router, http.MethodDelete, "/api/v1/pos/activities", ""); w.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", w.Code)
	}
	w = doRequest(t, router, http.MethodGet, "/api/v1/pos/activities", "")
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode after clear: %v", err)
	}
	if envelope.Data.Count != 0 {
		t.Fatalf("expected cleared journal, got %d", envelope.Data.Count)
	}
}

func TestSaleValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty basket", `{"items":[],"paymentMethod":"cash"}`},
		{"bad method", `{"items":[{"itemId":"rose-red","quantity":1,"unitPrice":120}],"paymentMethod":"crypto"}`},
		{"zero quantity", `{"items":[{"itemId":"rose-red","quantity":0,"unitPrice":120}],"paymentMethod":"cash"}`},
		{"unknown field", `{"items":[{"itemId":"rose-red","quantity":1,"unitPrice":120}],"paymentMethod":"cash","extra":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/api/v1/pos/sales", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestItemsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/pos/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var envelope struct {
		Data struct {
			Items []inventory.Item `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].ID != "rose-red" {
		t.Fatalf("unexpected items %+v", envelope.Data.Items)
	}
}

func TestCloseShiftEndpoint(t *testing.T) {
	router, closer := newTestRouter(t)

	body := `{"date":"2026-08-30","workerSlug":"olena","comment":"end of day"}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/pos/shifts/close", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if closer.lastParams.Key.WorkerSlug != "olena" || closer.lastParams.Key.Date != "2026-08-30" {
		t.Fatalf("unexpected close params %+v", closer.lastParams)
	}

	if w := doRequest(t, router, http.MethodPost, "/api/v1/pos/shifts/close", `{"date":"bad","workerSlug":"olena"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", w.Code)
	}
}

func TestGetShiftEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/pos/shifts/2026-08-30/olena", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data struct {
			OrdersCount int `json:"ordersCount"`
			Items       []struct {
				ItemID string `json:"itemId"`
				Sold   int    `json:"sold"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.OrdersCount != 2 {
		t.Fatalf("expected 2 orders, got %d", envelope.Data.OrdersCount)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].ItemID != "rose-red" || envelope.Data.Items[0].Sold != 3 {
		t.Fatalf("wrapped item rows not decoded: %+v", envelope.Data.Items)
	}

	if w := doRequest(t, router, http.MethodGet, "/api/v1/pos/shifts/2026-08-30/nobody", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := doRequest(t, router, http.MethodGet, "/api/v1/pos/shifts/not-a-date/olena", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAdminItemCreate(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"slug":"peony","name":"Peony","unitPrice":150,"onHandQuantity":12,"kind":"flower"}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/admin/items/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}
