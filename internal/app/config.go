package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration from env
type Config struct {
	DataProvider       string        `envconfig:"DATA_PROVIDER" default:"polygon" validate:"oneof=polygon yahoo"`
	PolygonAPIKeys     []string      `envconfig:"POLYGON_API_KEYS"`
	PolygonAPIKey      string        `envconfig:"POLYGON_API_KEY"`
	PolygonBaseURL     string        `envconfig:"POLYGON_BASE_URL" validate:"omitempty,url"`
	PolygonKeyCooldown time.Duration `envconfig:"POLYGON_KEY_COOLDOWN" default:"12s" validate:"gte=0"`
	PolygonMaxAttempts int           `envconfig:"POLYGON_MAX_ATTEMPTS" default:"1" validate:"gte=1,lte=10"`

	SectorSource  string        `envconfig:"SECTOR_SOURCE" default:"yahoo" validate:"oneof=file yahoo polygon none"`
	SectorsFile   string        `envconfig:"SECTORS_FILE" validate:"required_if=SectorSource file"`
	SectorTimeout time.Duration `envconfig:"SECTOR_TIMEOUT" default:"10s" validate:"gt=0"`
	YahooBaseURL  string        `envconfig:"YAHOO_BASE_URL" validate:"omitempty,url"`
	UniverseFile  string        `envconfig:"UNIVERSE_FILE"`

	Exchange      string        `envconfig:"EXCHANGE" default:"xnys" validate:"required"`
	SessionDate   string        `envconfig:"SESSION_DATE" validate:"omitempty,datetime=2006-01-02"`
	SessionOpen   string        `envconfig:"SESSION_OPEN" default:"09:30" validate:"datetime=15:04"`
	SessionLength time.Duration `envconfig:"SESSION_LENGTH" default:"3h" validate:"gt=0"`
	Granularity   time.Duration `envconfig:"GRANULARITY" default:"1m" validate:"gt=0"`

	Workers      int           `envconfig:"WORKERS" default:"4" validate:"gte=1,lte=64"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s" validate:"gt=0"`
	Heartbeat    time.Duration `envconfig:"HEARTBEAT" default:"30s" validate:"gt=0"`

	OutputDir    string `envconfig:"OUTPUT_DIR" default:"data" validate:"required"`
	OutputPrefix string `envconfig:"OUTPUT_PREFIX" default:"spx" validate:"required"`
	SaveFormat   string `envconfig:"SAVE_FORMAT" default:"csv" validate:"oneof=csv parquet json"`
	WriteReport  bool   `envconfig:"WRITE_REPORT" default:"false"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"` // debug | info | warn | error
}

// Overrides are command-line values that take precedence over env.
type Overrides struct {
	SessionDate string
}

var validate = validator.New()

// LoadConfig reads .env (when present) and the environment, applies
// overrides and validates the result.
func LoadConfig(ov Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.DataProvider = strings.ToLower(strings.TrimSpace(cfg.DataProvider))
	cfg.SectorSource = strings.ToLower(strings.TrimSpace(cfg.SectorSource))
	cfg.SaveFormat = strings.ToLower(strings.TrimSpace(cfg.SaveFormat))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.PolygonAPIKeys = parsePolygonAPIKeys(cfg.PolygonAPIKeys, cfg.PolygonAPIKey)
	if ov.SessionDate != "" {
		cfg.SessionDate = ov.SessionDate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parsePolygonAPIKeys prefers POLYGON_API_KEYS and falls back to
// POLYGON_API_KEY; either may be comma-separated.
func parsePolygonAPIKeys(keys []string, single string) []string {
	if len(keys) == 0 && single != "" {
		keys = strings.Split(single, ",")
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Validate checks field rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Granularity%time.Minute != 0 {
		return fmt.Errorf("invalid config: GRANULARITY %s is not a whole number of minutes", c.Granularity)
	}
	if c.SessionLength < c.Granularity {
		return fmt.Errorf("invalid config: SESSION_LENGTH %s shorter than GRANULARITY %s", c.SessionLength, c.Granularity)
	}
	if c.DataProvider == "polygon" && len(c.PolygonAPIKeys) == 0 {
		return errors.New("invalid config: POLYGON_API_KEY or POLYGON_API_KEYS not set")
	}
	if c.SectorSource == "polygon" && len(c.PolygonAPIKeys) == 0 {
		return errors.New("invalid config: SECTOR_SOURCE=polygon needs POLYGON_API_KEY")
	}
	return nil
}
