package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[exchange]
default = "Gate"

[symbols]
list = ["btc", "ETH", "btc", " sol "]

[connection]
max_retries = 3
base_delay_ms = 500
max_delay_ms = 10000

[redis]
addr = "localhost:6379"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Exchange.Default != "Gate" {
		t.Errorf("exchange = %q", cfg.Exchange.Default)
	}
	// 符号去空白、去重、统一大写
	want := []string{"BTC", "ETH", "SOL"}
	if !reflect.DeepEqual(cfg.Symbols.List, want) {
		t.Errorf("symbols = %v, want %v", cfg.Symbols.List, want)
	}

	cc := cfg.ConnConfig()
	if cc.MaxRetries != 3 || cc.BaseDelay != 500*time.Millisecond || cc.MaxDelay != 10*time.Second {
		t.Errorf("conn config = %+v", cc)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Prefix != "tickerfeed" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Exchange.Default != "OKX" {
		t.Errorf("default exchange = %q, want OKX", cfg.Exchange.Default)
	}
	want := []string{"BTC", "ETH", "BNB", "SOL"}
	if !reflect.DeepEqual(cfg.Symbols.List, want) {
		t.Errorf("default symbols = %v, want %v", cfg.Symbols.List, want)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis enabled by default: %q", cfg.Redis.Addr)
	}
}

func TestLoadRejectsUnknownExchange(t *testing.T) {
	path := writeConfig(t, `
[exchange]
default = "FTX"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("unknown exchange accepted")
	}
}

func TestLoadRejectsBlankSymbols(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = ["", "  "]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("blank symbol list accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestWatchlist(t *testing.T) {
	cfg := Default()
	ex, syms, err := cfg.Watchlist(context.Background())
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if ex != "OKX" || len(syms) != 4 {
		t.Errorf("watchlist = %s %v", ex, syms)
	}
}
