package provider

import (
	"context"
	"time"

	"us-breadth/internal/model"
	"us-breadth/internal/provider/yahoo"
)

// YahooProvider is a keyless DataProvider backed by the Yahoo chart API.
type YahooProvider struct {
	client *yahoo.Client
}

// NewYahooProvider creates a new Yahoo-backed DataProvider.
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{client: &yahoo.Client{}}
}

// GetName returns provider name
func (p *YahooProvider) GetName() string {
	return "Yahoo"
}

func (p *YahooProvider) SetLogFunc(fn LogFunc) {
	if fn == nil {
		p.client.LogFunc = nil
		return
	}
	p.client.LogFunc = yahoo.LogFunc(fn)
}

func (p *YahooProvider) SessionBars(ctx context.Context, ticker string, from, to time.Time, step time.Duration) ([]model.Bar, error) {
	return p.client.SessionBars(ctx, ticker, from, to, step)
}

func (p *YahooProvider) Close() error {
	return nil
}
