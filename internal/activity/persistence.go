package activity

import (
	"context"
	"errors"
	"sync"

	"github.com/DesumovJP/flowerpos/pkg/redis"
)

// Persistence is the injected storage behind the journal: one keyed entry
// holding the serialized activity list. Load returns (nil, nil) when no entry
// exists yet.
type Persistence interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
	Clear(ctx context.Context) error
}

// RedisPersistence keeps the journal under one namespaced Redis key, so the
// list survives process restarts the same way the shop's old terminal storage
// survived page reloads.
type RedisPersistence struct {
	client *redis.Client
	key    string
}

func NewRedisPersistence(client *redis.Client, terminalID string) (*RedisPersistence, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if terminalID == "" {
		return nil, errors.New("terminal id is required")
	}
	return &RedisPersistence{client: client, key: client.JournalKey(terminalID)}, nil
}

func (p *RedisPersistence) Load(ctx context.Context) ([]byte, error) {
	raw, err := p.client.Get(ctx, p.key)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (p *RedisPersistence) Save(ctx context.Context, raw []byte) error {
	return p.client.Set(ctx, p.key, string(raw), 0)
}

func (p *RedisPersistence) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key)
}

// MemoryPersistence is the in-process fallback used in tests and when Redis is
// unavailable at boot.
type MemoryPersistence struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (p *MemoryPersistence) Load(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw == nil {
		return nil, nil
	}
	out := make([]byte, len(p.raw))
	copy(out, p.raw)
	return out, nil
}

func (p *MemoryPersistence) Save(_ context.Context, raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = make([]byte, len(raw))
	copy(p.raw, raw)
	return nil
}

func (p *MemoryPersistence) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = nil
	return nil
}
