package reference

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"us-breadth/internal/model"
	"us-breadth/internal/provider"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadUniverseFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr bool
	}{
		{"txt", "u.txt", "# spx\naapl\n\n$MSFT \nAAPL\n", []string{"AAPL", "MSFT"}, false},
		{"json", "u.json", `["brk.b", "nvda", "NVDA"]`, []string{"BRK.B", "NVDA"}, false},
		{"bad ext", "u.yaml", "- AAPL", nil, true},
		{"empty", "e.txt", "# nothing\n", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, dir, tt.file, tt.content)
			got, err := LoadUniverseFile(p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadUniverseBuiltInDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, path := range []string{"", "nope.txt"} {
		got, err := LoadUniverse(path)
		if err != nil {
			t.Fatalf("LoadUniverse(%q): %v", path, err)
		}
		if len(got) < 490 {
			t.Fatalf("built-in universe has %d tickers", len(got))
		}
		seen := map[string]bool{}
		for _, tk := range got {
			if seen[tk] || tk != NormalizeTicker(tk) {
				t.Fatalf("ticker %q duplicated or not normalized", tk)
			}
			seen[tk] = true
		}
		if !seen["AAPL"] || !seen["BRK-B"] {
			t.Errorf("expected AAPL and BRK-B in built-in list")
		}
	}
}

func TestLoadUniverseFallback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.Mkdir("indices", 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "indices"), "sp500.txt", "AAPL\nMSFT\n")
	got, err := LoadUniverse("")
	if err != nil {
		t.Fatalf("LoadUniverse: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %v", got)
	}
}

func TestFileSectors(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "s.csv", "ticker,sector\naapl,Technology\nXOM, Energy\nEMPTY,\n")
	src, err := LoadFileSectors(csvPath)
	if err != nil {
		t.Fatalf("LoadFileSectors: %v", err)
	}
	if s, err := src.Sector(context.Background(), "AAPL"); err != nil || s != "Technology" {
		t.Errorf("AAPL = %q, %v", s, err)
	}
	if s, _ := src.Sector(context.Background(), "XOM"); s != "Energy" {
		t.Errorf("XOM = %q", s)
	}
	if _, err := src.Sector(context.Background(), "EMPTY"); !errors.Is(err, ErrNoSector) {
		t.Errorf("EMPTY err = %v", err)
	}

	jsonPath := writeFile(t, dir, "s.json", `{"msft": "Technology"}`)
	js, err := LoadFileSectors(jsonPath)
	if err != nil {
		t.Fatalf("LoadFileSectors json: %v", err)
	}
	if got := SectorOrUnknown(context.Background(), js, "MSFT", time.Second, nil); got != "Technology" {
		t.Errorf("MSFT = %q", got)
	}
	if got := SectorOrUnknown(context.Background(), js, "ZZZ", time.Second, nil); got != model.UnknownSector {
		t.Errorf("ZZZ = %q", got)
	}
}

func TestYahooSectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("modules") != "assetProfile" {
			t.Errorf("modules = %q", r.URL.Query().Get("modules"))
		}
		switch r.URL.Path {
		case "/v10/finance/quoteSummary/AAPL":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"quoteSummary":{"result":[{"assetProfile":{"sector":"Technology"}}],"error":null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewYahooSectors(srv.URL, 5*time.Second)
	if got := SectorOrUnknown(context.Background(), src, "AAPL", time.Second, nil); got != "Technology" {
		t.Errorf("AAPL = %q", got)
	}
	if got := SectorOrUnknown(context.Background(), src, "NOPE", time.Second, nil); got != model.UnknownSector {
		t.Errorf("NOPE = %q", got)
	}
}

func TestPolygonSectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","results":{"ticker":"XOM","sic_description":"PETROLEUM REFINING"}}`))
	}))
	defer srv.Close()

	good, err := provider.NewKeyPool([]string{"k1"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewPolygonSectors(srv.URL, good, 5*time.Second).Sector(context.Background(), "XOM")
	if err != nil || s != "PETROLEUM REFINING" {
		t.Errorf("XOM = %q, %v", s, err)
	}
	bad, err := provider.NewKeyPool([]string{"bad"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewPolygonSectors(srv.URL, bad, 5*time.Second).Sector(context.Background(), "XOM"); err == nil {
		t.Error("expected error on 401")
	}
}

func TestPolygonSectorsShareKeyCooldown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","results":{"sic_description":"SERVICES"}}`))
	}))
	defer srv.Close()

	cooldown := 150 * time.Millisecond
	pool, err := provider.NewKeyPool([]string{"only"}, cooldown)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	src := NewPolygonSectors(srv.URL, pool, 5*time.Second)

	if _, err := src.Sector(context.Background(), "A"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, err := src.Sector(context.Background(), "B"); err != nil {
		t.Fatal(err)
	}
	if waited := time.Since(start); waited < cooldown/2 {
		t.Errorf("second lookup did not wait for the key cooldown (waited %s)", waited)
	}

	// A key held by an aggregates request blocks the lookup until its deadline.
	key, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release(key)
	got := SectorOrUnknown(context.Background(), src, "C", 20*time.Millisecond, nil)
	if got != model.UnknownSector {
		t.Errorf("C = %q, want Unknown while the only key is busy", got)
	}
}

func TestSectorOrUnknownLogsToGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	got := SectorOrUnknown(context.Background(), mapSource{}, "ZZZ", time.Second, logger)
	if got != model.UnknownSector {
		t.Errorf("ZZZ = %q", got)
	}
	if !strings.Contains(buf.String(), "sector lookup failed") || !strings.Contains(buf.String(), "ticker=ZZZ") {
		t.Errorf("warning not routed to logger: %q", buf.String())
	}
}

type mapSource map[string]string

func (m mapSource) Name() string { return "map" }

func (m mapSource) Sector(_ context.Context, t string) (string, error) {
	if s, ok := m[t]; ok {
		return s, nil
	}
	return "", ErrNoSector
}

func TestSectorOrUnknownTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	got := SectorOrUnknown(context.Background(), NewYahooSectors(srv.URL, 0), "SLOW", 50*time.Millisecond, nil)
	if got != model.UnknownSector {
		t.Errorf("SLOW = %q", got)
	}
	if got := SectorOrUnknown(context.Background(), NoSectors{}, "X", 0, nil); got != model.UnknownSector {
		t.Errorf("NoSectors = %q", got)
	}
}
