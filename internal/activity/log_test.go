package activity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/notify"
	"github.com/DesumovJP/flowerpos/pkg/enums"
)

type failingPersistence struct {
	loadErr  error
	saveErr  error
	clearErr error
	raw      []byte
}

func (p *failingPersistence) Load(context.Context) ([]byte, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return p.raw, nil
}

func (p *failingPersistence) Save(_ context.Context, raw []byte) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.raw = raw
	return nil
}

func (p *failingPersistence) Clear(context.Context) error {
	if p.clearErr != nil {
		return p.clearErr
	}
	p.raw = nil
	return nil
}

func newTestLog(t *testing.T, params LogParams) *Log {
	t.Helper()
	if params.Persistence == nil {
		params.Persistence = NewMemoryPersistence()
	}
	log, err := NewLog(params)
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	return log
}

func saleActivity(id string) Activity {
	return Activity{
		ID: id, Kind: enums.ActivityKindSale,
		Items:         []SaleLine{{ItemID: "rose-red", Quantity: 1, UnitPrice: decimal.NewFromInt(120)}},
		PaymentMethod: enums.PaymentMethodCash,
	}
}

func TestNewLogRequiresPersistence(t *testing.T) {
	if _, err := NewLog(LogParams{}); err == nil {
		t.Fatal("expected error without persistence")
	}
}

func TestAppendKeepsNewestFirst(t *testing.T) {
	log := newTestLog(t, LogParams{})
	ctx := context.Background()

	log.Append(ctx, saleActivity("first"))
	log.Append(ctx, saleActivity("second"))
	log.Append(ctx, saleActivity("third"))

	got := log.Read(ctx)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ID != "third" || got[2].ID != "first" {
		t.Fatalf("expected newest-first order, got %s..%s", got[0].ID, got[2].ID)
	}
}

func TestAppendDiscardsMalformedSilently(t *testing.T) {
	log := newTestLog(t, LogParams{})
	ctx := context.Background()

	log.Append(ctx, Activity{Kind: enums.ActivityKindSale})
	log.Append(ctx, Activity{ID: "x", Kind: "refund"})
	log.Append(ctx, Activity{ID: "w", Kind: enums.ActivityKindWriteOff, ItemID: "rose-red"})

	if got := log.Read(ctx); len(got) != 0 {
		t.Fatalf("malformed entries must not be stored, got %d", len(got))
	}
}

func TestAppendEnforcesCap(t *testing.T) {
	log := newTestLog(t, LogParams{})
	ctx := context.Background()

	for i := 0; i < 600; i++ {
		log.Append(ctx, saleActivity(fmt.Sprintf("a-%d", i)))
	}

	got := log.Read(ctx)
	if len(got) != DefaultMaxEntries {
		t.Fatalf("expected exactly %d entries, got %d", DefaultMaxEntries, len(got))
	}
	if got[0].ID != "a-599" {
		t.Fatalf("expected newest entry a-599 first, got %s", got[0].ID)
	}
	if got[len(got)-1].ID != "a-100" {
		t.Fatalf("expected oldest survivor a-100, got %s", got[len(got)-1].ID)
	}
}

func TestAppendNormalizesLegacyWriteOff(t *testing.T) {
	log := newTestLog(t, LogParams{})
	ctx := context.Background()

	log.Append(ctx, Activity{
		ID: "w1", Kind: enums.ActivityKindWriteOff, ItemID: "rose-red", RemainingAfter: intPtr(4),
	})

	got := log.Read(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].QuantityRemoved == nil || *got[0].QuantityRemoved != 4 || got[0].RemainingAfter != nil {
		t.Fatalf("expected normalized write-off, got %+v", got[0])
	}
}

func TestLogSurvivesAcrossInstances(t *testing.T) {
	persist := NewMemoryPersistence()
	ctx := context.Background()

	first := newTestLog(t, LogParams{Persistence: persist})
	first.Append(ctx, saleActivity("s1"))
	first.Append(ctx, saleActivity("s2"))

	second := newTestLog(t, LogParams{Persistence: persist})
	got := second.Read(ctx)
	if len(got) != 2 || got[0].ID != "s2" {
		t.Fatalf("expected journal reload from persistence, got %+v", got)
	}
}

func TestUnparsableStorageReadsAsEmpty(t *testing.T) {
	persist := NewMemoryPersistence()
	if err := persist.Save(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	log := newTestLog(t, LogParams{Persistence: persist})
	if got := log.Read(context.Background()); len(got) != 0 {
		t.Fatalf("corrupt storage must read as empty, got %d entries", len(got))
	}
}

func TestStorageFailureDegradesToMemory(t *testing.T) {
	persist := &failingPersistence{
		loadErr: errors.New("quota exceeded"),
		saveErr: errors.New("quota exceeded"),
	}
	log := newTestLog(t, LogParams{Persistence: persist})
	ctx := context.Background()

	log.Append(ctx, saleActivity("s1"))
	got := log.Read(ctx)
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("expected memory-only entry to survive, got %+v", got)
	}
}

func TestClearEmptiesJournalAndNotifies(t *testing.T) {
	persist := NewMemoryPersistence()
	var notifications int
	log := newTestLog(t, LogParams{
		Persistence: persist,
		Notifier:    notify.Func(func(context.Context) { notifications++ }),
	})
	ctx := context.Background()

	log.Append(ctx, saleActivity("s1"))
	log.Clear(ctx)

	if got := log.Read(ctx); len(got) != 0 {
		t.Fatalf("expected empty journal after clear, got %d", len(got))
	}
	if raw, _ := persist.Load(ctx); len(raw) != 0 {
		t.Fatalf("expected persisted entry removed, got %s", raw)
	}
	if notifications != 2 {
		t.Fatalf("expected a notification per mutation, got %d", notifications)
	}
}

func TestClearStorageFailureStillClearsMemory(t *testing.T) {
	persist := &failingPersistence{clearErr: errors.New("broken pipe")}
	log := newTestLog(t, LogParams{Persistence: persist})
	ctx := context.Background()

	log.Append(ctx, saleActivity("s1"))
	log.Clear(ctx)

	if got := log.Read(ctx); len(got) != 0 {
		t.Fatalf("expected empty journal, got %d entries", len(got))
	}
}

func TestRedisPersistenceRequiresClientAndTerminal(t *testing.T) {
	if _, err := NewRedisPersistence(nil, "terminal-1"); err == nil {
		t.Fatal("expected error without client")
	}
}
