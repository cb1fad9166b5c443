package notify

import (
	"context"
	"sync"

	"github.com/DesumovJP/flowerpos/pkg/logger"
	"github.com/DesumovJP/flowerpos/pkg/redis"
)

// Notifier broadcasts a payload-free change signal. Observers re-read the
// store that fired it; the signal itself carries no state.
type Notifier interface {
	Notify(ctx context.Context)
}

// Func adapts a plain function to the Notifier interface.
type Func func(ctx context.Context)

func (f Func) Notify(ctx context.Context) {
	if f != nil {
		f(ctx)
	}
}

// Noop discards every signal.
type Noop struct{}

func (Noop) Notify(context.Context) {}

// Broadcaster publishes change signals on the terminal's Redis channel so
// every observer of this terminal sees mutations, and fans out to in-process
// subscribers for same-process views.
type Broadcaster struct {
	client  *redis.Client
	channel string
	logg    *logger.Logger

	mu   sync.Mutex
	subs []chan struct{}
}

// NewBroadcaster wires a broadcaster for one terminal. The redis client may be
// nil, in which case only in-process subscribers are signalled.
func NewBroadcaster(client *redis.Client, terminalID string, logg *logger.Logger) *Broadcaster {
	b := &Broadcaster{client: client, logg: logg}
	if client != nil {
		b.channel = client.NotifyChannel(terminalID)
	}
	return b
}

// Notify fires the change signal. Publish failures are logged and swallowed;
// a flaky broker must never break the mutation that triggered the signal.
func (b *Broadcaster) Notify(ctx context.Context) {
	if b == nil {
		return
	}
	if b.client != nil {
		if err := b.client.Publish(ctx, b.channel); err != nil && b.logg != nil {
			b.logg.Warn(b.logg.WithField(ctx, "channel", b.channel), "change notification publish failed")
		}
	}

	b.mu.Lock()
	subs := make([]chan struct{}, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}

// SubscribeLocal registers an in-process observer. The returned channel gets a
// best-effort tick per mutation; slow observers may coalesce signals.
func (b *Broadcaster) SubscribeLocal() <-chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}
