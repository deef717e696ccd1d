package reference

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"us-breadth/internal/model"
)

const (
	YahooBaseURL   = "https://query2.finance.yahoo.com"
	PolygonBaseURL = "https://api.polygon.io"

	userAgent = "Mozilla/5.0 (compatible; us-breadth/1.0)"
)

// ErrNoSector is returned when a source has no sector for a ticker.
var ErrNoSector = errors.New("no sector")

// SectorSource looks up the sector classification of one ticker.
type SectorSource interface {
	Sector(ctx context.Context, ticker string) (string, error)
	Name() string
}

// KeyPool hands out API keys shared with other callers of the same API.
// Release must be called once per successful Acquire.
type KeyPool interface {
	Acquire(ctx context.Context) (string, error)
	Release(key string)
}

// SectorOrUnknown asks src for the ticker's sector under its own timeout.
// Any failure or empty answer yields model.UnknownSector; it never fails the run.
// Warnings go to logger, or to slog's default logger when nil.
func SectorOrUnknown(ctx context.Context, src SectorSource, ticker string, timeout time.Duration, logger *slog.Logger) string {
	if src == nil {
		return model.UnknownSector
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	sector, err := src.Sector(ctx, ticker)
	if err != nil {
		logger.Warn("sector lookup failed", "ticker", ticker, "source", src.Name(), "err", err)
		return model.UnknownSector
	}
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return model.UnknownSector
	}
	return sector
}

// NoSectors classifies every ticker as Unknown.
type NoSectors struct{}

func (NoSectors) Name() string { return "none" }

func (NoSectors) Sector(context.Context, string) (string, error) {
	return model.UnknownSector, nil
}

// FileSectors serves sectors from a static mapping file.
type FileSectors struct {
	path    string
	sectors map[string]string
}

// LoadFileSectors reads a CSV (ticker,sector; header optional) or a JSON
// object {"TICKER": "Sector"}.
func LoadFileSectors(path string) (*FileSectors, error) {
	m := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sectors file: %w", err)
		}
		var raw map[string]string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse sectors JSON: %w", err)
		}
		for t, s := range raw {
			m[NormalizeTicker(t)] = strings.TrimSpace(s)
		}
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sectors file: %w", err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		records, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse sectors CSV: %w", err)
		}
		for i, rec := range records {
			if len(rec) < 2 {
				continue
			}
			if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "ticker") {
				continue
			}
			m[NormalizeTicker(rec[0])] = strings.TrimSpace(rec[1])
		}
	default:
		return nil, fmt.Errorf("unsupported sectors file extension %q (use .csv or .json)", filepath.Ext(path))
	}
	slog.Info("loaded sectors", "count", len(m), "path", path)
	return &FileSectors{path: path, sectors: m}, nil
}

func (f *FileSectors) Name() string { return "file" }

func (f *FileSectors) Sector(_ context.Context, ticker string) (string, error) {
	s, ok := f.sectors[NormalizeTicker(ticker)]
	if !ok || s == "" {
		return "", fmt.Errorf("%s in %s: %w", ticker, f.path, ErrNoSector)
	}
	return s, nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// YahooSectors reads assetProfile.sector from Yahoo's quoteSummary endpoint.
type YahooSectors struct {
	client *resty.Client
}

func NewYahooSectors(baseURL string, timeout time.Duration) *YahooSectors {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return &YahooSectors{client: c}
}

func (y *YahooSectors) Name() string { return "yahoo" }

func (y *YahooSectors) Sector(ctx context.Context, ticker string) (string, error) {
	var out quoteSummaryResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParam("modules", "assetProfile").
		SetResult(&out).
		Get("/v10/finance/quoteSummary/{symbol}")
	if err != nil {
		return "", fmt.Errorf("quoteSummary %s: %w", ticker, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("quoteSummary %s: status %d", ticker, resp.StatusCode())
	}
	if e := out.QuoteSummary.Error; e != nil {
		return "", fmt.Errorf("quoteSummary %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(out.QuoteSummary.Result) == 0 || out.QuoteSummary.Result[0].AssetProfile.Sector == "" {
		return "", fmt.Errorf("quoteSummary %s: %w", ticker, ErrNoSector)
	}
	return out.QuoteSummary.Result[0].AssetProfile.Sector, nil
}

type tickerDetailsResponse struct {
	Status  string `json:"status"`
	Results struct {
		Ticker         string `json:"ticker"`
		SICDescription string `json:"sic_description"`
	} `json:"results"`
}

// PolygonSectors reads sic_description from Polygon's ticker details endpoint.
// Every lookup takes a key from keys, the same pool the aggregates requests
// use, so both stay within the per-key rate.
type PolygonSectors struct {
	client *resty.Client
	keys   KeyPool
}

func NewPolygonSectors(baseURL string, keys KeyPool, timeout time.Duration) *PolygonSectors {
	if baseURL == "" {
		baseURL = PolygonBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &PolygonSectors{client: c, keys: keys}
}

func (p *PolygonSectors) Name() string { return "polygon" }

func (p *PolygonSectors) Sector(ctx context.Context, ticker string) (string, error) {
	key, err := p.keys.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("ticker details %s: %w", ticker, err)
	}
	defer p.keys.Release(key)

	var out tickerDetailsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("apiKey", key).
		SetPathParam("ticker", ticker).
		SetResult(&out).
		Get("/v3/reference/tickers/{ticker}")
	if err != nil {
		return "", fmt.Errorf("ticker details %s: %w", ticker, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ticker details %s: status %d", ticker, resp.StatusCode())
	}
	if out.Results.SICDescription == "" {
		return "", fmt.Errorf("ticker details %s: %w", ticker, ErrNoSector)
	}
	return out.Results.SICDescription, nil
}
