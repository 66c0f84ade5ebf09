package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tickerfeed/internal/infrastructure/exchange"
	"tickerfeed/internal/infrastructure/wsconn"
)

type Config struct {
	Exchange struct {
		Default string `toml:"default"`
	} `toml:"exchange"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Connection struct {
		MaxRetries         int `toml:"max_retries"`
		BaseDelayMs        int `toml:"base_delay_ms"`
		MaxDelayMs         int `toml:"max_delay_ms"`
		WatchdogIntervalMs int `toml:"watchdog_interval_ms"`
		HeartbeatTimeoutMs int `toml:"heartbeat_timeout_ms"`
		CooldownIntervalMs int `toml:"cooldown_interval_ms"`
		PrefetchTimeoutMs  int `toml:"prefetch_timeout_ms"`
	} `toml:"connection"`

	Redis struct {
		Addr     string `toml:"addr"` // 为空则用进程内存储
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Prefix   string `toml:"prefix"`
	} `toml:"redis"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Exchange.Default) == "" {
		cfg.Exchange.Default = exchange.OKX
	}
	if len(cfg.Symbols.List) == 0 {
		cfg.Symbols.List = []string{"BTC", "ETH", "BNB", "SOL"}
	}
	if strings.TrimSpace(cfg.Redis.Prefix) == "" {
		cfg.Redis.Prefix = "tickerfeed"
	}
	// connection 区段的零值交给 wsconn 的默认值处理
}

func validate(cfg *Config) error {
	if _, ok := exchange.Lookup(cfg.Exchange.Default); !ok {
		return fmt.Errorf("exchange.default %q not supported (known: %s)",
			cfg.Exchange.Default, strings.Join(exchange.Names(), ", "))
	}
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ConnConfig 把毫秒配置换算成 wsconn.Config，零值由 wsconn 兜底
func (c *Config) ConnConfig() wsconn.Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return wsconn.Config{
		MaxRetries:       c.Connection.MaxRetries,
		BaseDelay:        ms(c.Connection.BaseDelayMs),
		MaxDelay:         ms(c.Connection.MaxDelayMs),
		WatchdogInterval: ms(c.Connection.WatchdogIntervalMs),
		HeartbeatTimeout: ms(c.Connection.HeartbeatTimeoutMs),
		CooldownInterval: ms(c.Connection.CooldownIntervalMs),
		PrefetchTimeout:  ms(c.Connection.PrefetchTimeoutMs),
	}
}

// Watchlist 让配置文件充当最简单的"用户选择"存储，
// 满足 port.WatchlistStore
func (c *Config) Watchlist(_ context.Context) (string, []string, error) {
	return c.Exchange.Default, c.Symbols.List, nil
}
