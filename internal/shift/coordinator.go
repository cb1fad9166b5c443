package shift

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/internal/activity"
	"github.com/DesumovJP/flowerpos/internal/inventory"
	"github.com/DesumovJP/flowerpos/pkg/db/models"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
	"github.com/DesumovJP/flowerpos/pkg/logger"
	"github.com/DesumovJP/flowerpos/pkg/metrics"
)

// State tracks where the coordinator is in a close cycle.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateBuilt     State = "built"
	StateUpserting State = "upserting"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// DefaultLockTTL bounds the close-shift mutual exclusion window.
const DefaultLockTTL = 30 * time.Second

// Locker is the mutual-exclusion surface; pkg/redis.Client satisfies it.
// Deployments without Redis run with a nil locker and rely on the
// coordinator's own in-process guard.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	LockKey(scope, id string) string
}

// Coordinator drives the close-shift reconciliation: snapshot the journal and
// the cached catalog, upsert the record by natural key, and only then clear
// the journal. A failed write leaves the journal intact so the close can be
// retried without losing the shift's activity.
type Coordinator struct {
	journal *activity.Log
	cache   *inventory.Cache
	store   Store
	locker  Locker
	logg    *logger.Logger
	metrics *metrics.POSMetrics
	lockTTL time.Duration

	mu    sync.Mutex
	state State
}

// CoordinatorParams collects the coordinator dependencies.
type CoordinatorParams struct {
	Journal *activity.Log
	Cache   *inventory.Cache
	Store   Store
	Locker  Locker
	Logger  *logger.Logger
	Metrics *metrics.POSMetrics
	LockTTL time.Duration
}

// NewCoordinator constructs the reconciliation coordinator.
func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.Journal == nil {
		return nil, fmt.Errorf("journal required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("inventory cache required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("shift store required")
	}
	if params.LockTTL <= 0 {
		params.LockTTL = DefaultLockTTL
	}
	return &Coordinator{
		journal: params.Journal,
		cache:   params.Cache,
		store:   params.Store,
		locker:  params.Locker,
		logg:    params.Logger,
		metrics: params.Metrics,
		lockTTL: params.LockTTL,
		state:   StateIdle,
	}, nil
}

// CloseParams describes one close request.
type CloseParams struct {
	Key          Key
	CashOverride *decimal.Decimal
	Comment      string
}

// Result reports a completed reconciliation.
type Result struct {
	Snapshot Snapshot
	RecordID string
	// Mode is "created" for a first close and "updated" for a re-close of the
	// same natural key.
	Mode string
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close runs one full reconciliation cycle for the given shift.
func (c *Coordinator) Close(ctx context.Context, params CloseParams) (*Result, error) {
	if err := params.Key.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state == StateLoading || c.state == StateBuilt || c.state == StateUpserting {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shift close already in progress")
	}
	c.state = StateLoading
	c.mu.Unlock()

	started := time.Now()
	result, err := c.run(ctx, params)
	if err != nil {
		c.setState(StateFailed)
		c.metrics.ObserveReconcile("failure", time.Since(started))
		return nil, err
	}
	c.setState(StateDone)
	c.metrics.ObserveReconcile("success", time.Since(started))
	c.metrics.IncReconcileSuccess(result.Mode)
	return result, nil
}

func (c *Coordinator) run(ctx context.Context, params CloseParams) (*Result, error) {
	ctx = c.withLogFields(ctx, params.Key)

	release, err := c.acquireLock(ctx, params.Key)
	if err != nil {
		c.metrics.IncReconcileFailure("lock")
		return nil, err
	}
	defer release()

	// The close reconciles what the terminal saw, so the snapshot uses the
	// journal as-is and whatever catalog the cache currently holds, stale or
	// not. A fetch here would block the close on the network and fold another
	// terminal's writes into this worker's shift.
	activities := c.journal.Read(ctx)
	catalog := c.cache.Items()

	c.setState(StateBuilt)
	snap := Build(BuildParams{
		Key:          params.Key,
		Activities:   activities,
		Catalog:      catalog,
		CashOverride: params.CashOverride,
		Comment:      params.Comment,
	})

	c.setState(StateUpserting)
	record, mode, err := c.upsert(ctx, snap)
	if err != nil {
		c.metrics.IncReconcileFailure("upsert")
		return nil, err
	}

	// Only a confirmed write may drop the journal; a lost write with a cleared
	// journal would erase the shift entirely.
	c.journal.Clear(ctx)

	if c.logg != nil {
		c.logg.Info(c.logg.WithFields(ctx, map[string]any{
			"mode":         mode,
			"orders_count": snap.OrdersCount,
			"cash_total":   snap.CashTotal.String(),
		}), "shift.close.reconciled")
	}

	return &Result{Snapshot: snap, RecordID: record.ID.String(), Mode: mode}, nil
}

// upsert looks the shift up by natural key and creates or replaces the record.
func (c *Coordinator) upsert(ctx context.Context, snap Snapshot) (*models.ShiftRecord, string, error) {
	existing, err := c.store.FindByNaturalKey(ctx, snap.Key)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			record, createErr := c.store.Create(ctx, snap)
			if createErr != nil {
				return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "persisting shift record")
			}
			return record, "created", nil
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up shift record")
	}

	record, err := c.store.Update(ctx, existing.ID.String(), snap)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replacing shift record")
	}
	return record, "updated", nil
}

func (c *Coordinator) acquireLock(ctx context.Context, key Key) (func(), error) {
	if c.locker == nil {
		return func() {}, nil
	}
	lockKey := c.locker.LockKey("shift", key.String())
	ok, err := c.locker.AcquireLock(ctx, lockKey, c.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring shift close lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("shift %s is already being closed", key))
	}
	return func() {
		if err := c.locker.ReleaseLock(ctx, lockKey); err != nil {
			c.warn(ctx, "shift.close.lock_release_failed", err)
		}
	}, nil
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) withLogFields(ctx context.Context, key Key) context.Context {
	if c.logg == nil {
		return ctx
	}
	ctx = c.logg.WithShiftDate(ctx, key.Date)
	return c.logg.WithWorkerSlug(ctx, key.WorkerSlug)
}

func (c *Coordinator) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
