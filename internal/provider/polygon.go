package provider

import (
	"context"
	"fmt"
	"time"

	"us-breadth/internal/model"
	"us-breadth/internal/provider/polygon"
)

// PolygonProvider is a DataProvider backed by the Polygon aggregates API.
// API keys rotate through a KeyPool that other Polygon clients may share.
type PolygonProvider struct {
	*polygon.Crawler
	pool *KeyPool
}

// NewPolygonProvider creates a new Polygon-backed DataProvider.
func NewPolygonProvider(apiKeys []string, baseURL string, cooldown time.Duration, maxAttempts int) (*PolygonProvider, error) {
	pool, err := NewKeyPool(apiKeys, cooldown)
	if err != nil {
		return nil, fmt.Errorf("polygon: %w", err)
	}
	return &PolygonProvider{
		Crawler: polygon.NewCrawler(baseURL, maxAttempts),
		pool:    pool,
	}, nil
}

// GetName returns provider name
func (p *PolygonProvider) GetName() string {
	return "Polygon"
}

// Keys returns the number of API keys in the pool.
func (p *PolygonProvider) Keys() int {
	return p.pool.Size()
}

// Pool exposes the key pool so reference lookups share its cooldown.
func (p *PolygonProvider) Pool() *KeyPool {
	return p.pool
}

// SetLogFunc sets fan-in logger. When set, crawler sends logs here instead of slog.
func (p *PolygonProvider) SetLogFunc(fn LogFunc) {
	if fn == nil {
		p.Crawler.LogFunc = nil
		return
	}
	p.Crawler.LogFunc = polygon.LogFunc(fn)
}

// SessionBars takes a key from the pool (waiting for one if all are cooling
// down), fetches the session and releases the key into its cooldown.
func (p *PolygonProvider) SessionBars(ctx context.Context, ticker string, from, to time.Time, step time.Duration) ([]model.Bar, error) {
	key, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.pool.Release(key)

	bars, err := p.Crawler.SessionBars(ctx, ticker, key, from, to, step, from.Location())
	if err != nil {
		return nil, fmt.Errorf("key=%s...: %w", keyPrefix(key), err)
	}
	return bars, nil
}

// Close stops key waiters and closes idle connections.
func (p *PolygonProvider) Close() error {
	p.pool.Close()
	return p.Crawler.Close()
}
