package app

import (
	"us-breadth/internal/provider"
	"us-breadth/internal/reference"
	"us-breadth/internal/saver"
	"us-breadth/internal/session"
)

// App holds the dependencies of one run, built by Wire.
// Caller must call a.DP.Close() when done.
type App struct {
	Config   *Config
	DP       provider.DataProvider
	Sectors  reference.SectorSource
	Saver    saver.TableSaver
	Calendar *session.ExchangeCalendar
}

// ProvideConfig loads config from env and flags (for Wire).
func ProvideConfig(ov Overrides) (*Config, error) {
	return LoadConfig(ov)
}

// ProvideDataProvider creates the market data provider (for Wire).
func ProvideDataProvider(cfg *Config) (provider.DataProvider, error) {
	return CreateProvider(cfg)
}

// ProvideSectorSource creates the sector reference source (for Wire).
func ProvideSectorSource(cfg *Config, dp provider.DataProvider) (reference.SectorSource, error) {
	return CreateSectorSource(cfg, dp)
}

// ProvideTableSaver creates the TableSaver for SAVE_FORMAT (for Wire).
func ProvideTableSaver(cfg *Config) (saver.TableSaver, error) {
	return CreateTableSaver(cfg)
}

// ProvideCalendar resolves the exchange calendar (for Wire).
func ProvideCalendar(cfg *Config) *session.ExchangeCalendar {
	return session.LoadCalendar(cfg.Exchange)
}
