package app

import (
	"fmt"
	"strings"

	"us-breadth/internal/provider"
	"us-breadth/internal/reference"
	"us-breadth/internal/saver"
)

// CreateProvider creates DataProvider from config (polygon or yahoo)
func CreateProvider(cfg *Config) (provider.DataProvider, error) {
	switch strings.ToLower(cfg.DataProvider) {
	case "polygon":
		if len(cfg.PolygonAPIKeys) == 0 {
			return nil, fmt.Errorf("POLYGON_API_KEY or POLYGON_API_KEYS not set")
		}
		return provider.NewPolygonProvider(cfg.PolygonAPIKeys, cfg.PolygonBaseURL, cfg.PolygonKeyCooldown, cfg.PolygonMaxAttempts)
	case "yahoo":
		return provider.NewYahooProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported data provider: %s. Options: polygon, yahoo", cfg.DataProvider)
	}
}

// CreateSectorSource creates the sector reference source from config.
// Polygon lookups share dp's key pool when dp is the Polygon provider.
func CreateSectorSource(cfg *Config, dp provider.DataProvider) (reference.SectorSource, error) {
	switch strings.ToLower(cfg.SectorSource) {
	case "file":
		return reference.LoadFileSectors(cfg.SectorsFile)
	case "yahoo":
		return reference.NewYahooSectors(cfg.YahooBaseURL, cfg.SectorTimeout), nil
	case "polygon":
		if pp, ok := dp.(*provider.PolygonProvider); ok {
			return reference.NewPolygonSectors(cfg.PolygonBaseURL, pp.Pool(), cfg.SectorTimeout), nil
		}
		pool, err := provider.NewKeyPool(cfg.PolygonAPIKeys, cfg.PolygonKeyCooldown)
		if err != nil {
			return nil, fmt.Errorf("SECTOR_SOURCE=polygon: %w", err)
		}
		return reference.NewPolygonSectors(cfg.PolygonBaseURL, pool, cfg.SectorTimeout), nil
	case "none":
		return reference.NoSectors{}, nil
	default:
		return nil, fmt.Errorf("unsupported sector source: %s. Options: file, yahoo, polygon, none", cfg.SectorSource)
	}
}

// CreateTableSaver creates the output encoder for SAVE_FORMAT.
func CreateTableSaver(cfg *Config) (saver.TableSaver, error) {
	s := saver.NewTableSaver(cfg.SaveFormat)
	if s == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return s, nil
}
