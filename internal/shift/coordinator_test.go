package shift

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/pkg/db/models"
	"github.com/DesumovJP/flowerpos/pkg/enums"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
)

type stubStore struct {
	records    map[string]*models.ShiftRecord
	failFind   error
	failCreate error
	failUpdate error
	creates    int
	updates    int
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]*models.ShiftRecord{}}
}

func (s *stubStore) FindByNaturalKey(ctx context.Context, key Key) (*models.ShiftRecord, error) {
	if s.failFind != nil {
		return nil, s.failFind
	}
	record, ok := s.records[key.String()]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shift not found")
	}
	return record, nil
}

func (s *stubStore) Create(ctx context.Context, snap Snapshot) (*models.ShiftRecord, error) {
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	s.creates++
	record := recordFromSnapshot(snap)
	s.records[snap.Key.String()] = record
	return record, nil
}

func (s *stubStore) Update(ctx context.Context, id string, snap Snapshot) (*models.ShiftRecord, error) {
	if s.failUpdate != nil {
		return nil, s.failUpdate
	}
	s.updates++
	record := recordFromSnapshot(snap)
	for key, existing := range s.records {
		if existing.ID.String() == id {
			record.ID = existing.ID
			s.records[key] = record
			return record, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
}

func recordFromSnapshot(snap Snapshot) *models.ShiftRecord {
	return &models.ShiftRecord{
		ID:          uuid.New(),
		ShiftDate:   snap.Key.Date,
		WorkerSlug:  snap.Key.WorkerSlug,
		CashTotal:   snap.CashTotal,
		CashByCash:  snap.CashByCash,
		CashByCard:  snap.CashByCard,
		OrdersCount: snap.OrdersCount,
	}
}

type stubLocker struct {
	denied   bool
	acquired []string
	released []string
}

func (l *stubLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.denied {
		return false, nil
	}
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *stubLocker) ReleaseLock(ctx context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

func (l *stubLocker) LockKey(scope, id string) string {
	return "fp:lock:" + scope + ":" + id
}

type fixedFetcher struct {
	items []inventory.Item
	calls int
}

func (f *fixedFetcher) FetchItems(ctx context.Context) ([]inventory.Item, error) {
	f.calls++
	return f.items, nil
}

type harness struct {
	coordinator *Coordinator
	journal     *activity.Log
	cache       *inventory.Cache
	fetcher     *fixedFetcher
	store       *stubStore
	locker      *stubLocker
}

func newHarness(t *testing.T, catalog []inventory.Item) *harness {
	t.Helper()
	journal, err := activity.NewLog(activity.LogParams{Persistence: activity.NewMemoryPersistence()})
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	fetcher := &fixedFetcher{items: catalog}
	cache, err := inventory.NewCache(inventory.CacheParams{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	// The terminal fetches the catalog during the day; the close reuses it.
	if err := cache.Fetch(context.Background(), false); err != nil {
		t.Fatalf("priming cache: %v", err)
	}
	store := newStubStore()
	locker := &stubLocker{}
	coordinator, err := NewCoordinator(CoordinatorParams{
		Journal: journal,
		Cache:   cache,
		Store:   store,
		Locker:  locker,
	})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	return &harness{coordinator: coordinator, journal: journal, cache: cache, fetcher: fetcher, store: store, locker: locker}
}

func appendSale(t *testing.T, journal *activity.Log, id string, method enums.PaymentMethod, slug string, qty int, price int64) {
	t.Helper()
	journal.Append(context.Background(), activity.Activity{
		ID:            id,
		Kind:          enums.ActivityKindSale,
		Timestamp:     time.Now(),
		Items:         []activity.SaleLine{{ItemID: slug, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}},
		PaymentMethod: method,
	})
}

func TestCloseCreatesRecordAndClearsJournal(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 37},
	}
	h := newHarness(t, catalog)
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "rose-red", 3, 120)

	result, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if result.Mode != "created" {
		t.Fatalf("expected created, got %q", result.Mode)
	}
	if !result.Snapshot.CashTotal.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("expected cash total 360, got %s", result.Snapshot.CashTotal)
	}
	if !result.Snapshot.CashByCash.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("expected cash 360, got %s", result.Snapshot.CashByCash)
	}
	if h.journal.Len(ctx) != 0 {
		t.Fatal("journal must be cleared after a confirmed write")
	}
	if got := h.coordinator.State(); got != StateDone {
		t.Fatalf("expected done state, got %s", got)
	}
	if len(h.locker.acquired) != 1 || len(h.locker.released) != 1 {
		t.Fatalf("expected lock acquired and released, got %v / %v", h.locker.acquired, h.locker.released)
	}
}

func TestCloseSplitsPaymentMethods(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "tulip", Name: "Tulip", UnitPrice: decimal.NewFromInt(100), OnHand: 20},
		{ID: "peony", Name: "Peony", UnitPrice: decimal.NewFromInt(200), OnHand: 10},
	}
	h := newHarness(t, catalog)
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "tulip", 1, 100)
	appendSale(t, h.journal, "a2", enums.PaymentMethodCard, "peony", 1, 200)

	result, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if !result.Snapshot.CashTotal.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected total 300, got %s", result.Snapshot.CashTotal)
	}
	if !result.Snapshot.CashByCash.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected cash 100, got %s", result.Snapshot.CashByCash)
	}
	if !result.Snapshot.CashByCard.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected card 200, got %s", result.Snapshot.CashByCard)
	}
	if result.Snapshot.OrdersCount != 2 {
		t.Fatalf("expected 2 orders, got %d", result.Snapshot.OrdersCount)
	}
}

func TestCloseTwiceUpdatesSameRecord(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 40},
	}
	h := newHarness(t, catalog)
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "rose-red", 2, 120)

	first, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("first close: %v", err)
	}

	appendSale(t, h.journal, "a2", enums.PaymentMethodCard, "rose-red", 1, 120)
	second, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("second close: %v", err)
	}

	if second.Mode != "updated" {
		t.Fatalf("expected updated, got %q", second.Mode)
	}
	if second.RecordID != first.RecordID {
		t.Fatal("re-closing must hit the same natural-key row")
	}
	if h.store.creates != 1 || h.store.updates != 1 {
		t.Fatalf("expected 1 create + 1 update, got %d/%d", h.store.creates, h.store.updates)
	}
	// The second close reconciles only the activity since the first one.
	if !second.Snapshot.CashTotal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected 120, got %s", second.Snapshot.CashTotal)
	}
}

func TestCloseFailedWriteKeepsJournal(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 40},
	}
	h := newHarness(t, catalog)
	h.store.failCreate = errors.New("connection refused")
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "rose-red", 3, 120)

	_, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err == nil {
		t.Fatal("expected close failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if h.journal.Len(ctx) != 1 {
		t.Fatal("journal must survive a failed write")
	}
	if got := h.coordinator.State(); got != StateFailed {
		t.Fatalf("expected failed state, got %s", got)
	}
	if len(h.locker.released) != 1 {
		t.Fatal("lock must be released even on failure")
	}
}

func TestCloseRetriesAfterFailure(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 40},
	}
	h := newHarness(t, catalog)
	h.store.failCreate = errors.New("connection refused")
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "rose-red", 3, 120)

	if _, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()}); err == nil {
		t.Fatal("expected first close to fail")
	}

	h.store.failCreate = nil
	result, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !result.Snapshot.CashTotal.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("retry must see the preserved journal, got %s", result.Snapshot.CashTotal)
	}
	if h.journal.Len(ctx) != 0 {
		t.Fatal("journal must clear once the retry succeeds")
	}
}

func TestCloseLockContention(t *testing.T) {
	h := newHarness(t, nil)
	h.locker.denied = true

	_, err := h.coordinator.Close(context.Background(), CloseParams{Key: testKey()})
	if err == nil {
		t.Fatal("expected contention error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCloseEmptyJournalStillCloses(t *testing.T) {
	h := newHarness(t, nil)

	result, err := h.coordinator.Close(context.Background(), CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if result.Mode != "created" {
		t.Fatalf("expected created, got %q", result.Mode)
	}
	if !result.Snapshot.CashTotal.IsZero() || result.Snapshot.OrdersCount != 0 {
		t.Fatalf("expected zero snapshot, got %+v", result.Snapshot)
	}
}

func TestCloseUsesStaleCacheWithoutFetching(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 37},
	}
	h := newHarness(t, catalog)
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "rose-red", 3, 120)

	// An expired cache is the normal state at end of day; the close must not
	// block on the network to freshen it.
	h.cache.Invalidate()
	before := h.fetcher.calls

	result, err := h.coordinator.Close(ctx, CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if h.fetcher.calls != before {
		t.Fatalf("close issued %d network fetch(es), want none", h.fetcher.calls-before)
	}
	if len(result.Snapshot.Items) != 1 || result.Snapshot.Items[0].OnHand != 37 {
		t.Fatalf("expected the cached catalog in the snapshot, got %+v", result.Snapshot.Items)
	}
}

func TestCloseColdCacheClosesWithEmptyCatalog(t *testing.T) {
	journal, err := activity.NewLog(activity.LogParams{Persistence: activity.NewMemoryPersistence()})
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	fetcher := &fixedFetcher{items: []inventory.Item{{ID: "tulip", UnitPrice: decimal.NewFromInt(100), OnHand: 20}}}
	cache, err := inventory.NewCache(inventory.CacheParams{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	coordinator, err := NewCoordinator(CoordinatorParams{Journal: journal, Cache: cache, Store: newStubStore()})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}

	result, err := coordinator.Close(context.Background(), CloseParams{Key: testKey()})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("close must not populate a cold cache, got %d fetch(es)", fetcher.calls)
	}
	if len(result.Snapshot.Items) != 0 {
		t.Fatalf("expected no catalog rows, got %+v", result.Snapshot.Items)
	}
}

func TestCloseCashOverride(t *testing.T) {
	catalog := []inventory.Item{
		{ID: "rose-red", Name: "Red Rose", UnitPrice: decimal.NewFromInt(120), OnHand: 40},
	}
	h := newHarness(t, catalog)
	ctx := context.Background()
	appendSale(t, h.journal, "a1", enums.PaymentMethodCash, "rose-red", 3, 120)

	counted := decimal.NewFromInt(350)
	result, err := h.coordinator.Close(ctx, CloseParams{Key: testKey(), CashOverride: &counted, Comment: "drawer short"})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !result.Snapshot.CashTotal.Equal(counted) {
		t.Fatalf("expected override 350, got %s", result.Snapshot.CashTotal)
	}
	if result.Snapshot.Comment != "drawer short" {
		t.Fatalf("unexpected comment %q", result.Snapshot.Comment)
	}
}

func TestCloseInvalidKey(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.coordinator.Close(context.Background(), CloseParams{Key: Key{Date: "not-a-date", WorkerSlug: "olena"}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := h.coordinator.State(); got != StateIdle {
		t.Fatalf("invalid input must not advance the machine, got %s", got)
	}
}
