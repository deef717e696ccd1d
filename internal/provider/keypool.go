package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("key pool closed")

// KeyPool rotates API keys through a channel. A released key becomes
// available again only after cooldown, so every caller sharing the pool
// (aggregates and reference lookups) stays within the per-key rate.
type KeyPool struct {
	keys     chan string
	cooldown time.Duration
	closed   chan struct{}
}

// NewKeyPool creates a pool holding apiKeys.
func NewKeyPool(apiKeys []string, cooldown time.Duration) (*KeyPool, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("key pool: no API keys")
	}
	keys := make(chan string, len(apiKeys))
	for _, k := range apiKeys {
		keys <- k
	}
	return &KeyPool{keys: keys, cooldown: cooldown, closed: make(chan struct{})}, nil
}

// Size returns the number of keys in the pool.
func (p *KeyPool) Size() int {
	return cap(p.keys)
}

// Acquire waits for a free key.
func (p *KeyPool) Acquire(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for API key: %w", ctx.Err())
	case <-p.closed:
		return "", ErrPoolClosed
	case key := <-p.keys:
		return key, nil
	}
}

// Release schedules key's return after the cooldown.
func (p *KeyPool) Release(key string) {
	if p.cooldown <= 0 {
		p.keys <- key
		return
	}
	time.AfterFunc(p.cooldown, func() { p.keys <- key })
}

// Close wakes every waiter with ErrPoolClosed.
func (p *KeyPool) Close() {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
}

func keyPrefix(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
