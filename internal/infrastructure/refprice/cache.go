package refprice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"

	"tickerfeed/internal/application/port"
	"tickerfeed/internal/domain"
	"tickerfeed/internal/infrastructure/exchange"
)

// 参考价按 UTC+8 日历日有效。Gate 和 Binance 的推送里没有当日
// 开盘价，订阅前先从日线接口预取；拿不到的符号降级用首个最新价
// 顶替，保证同一天内涨跌幅基准一致

var zoneUTC8 = time.FixedZone("UTC+8", 8*3600)

func dayUTC8(now time.Time) string {
	return now.In(zoneUTC8).Format("2006-01-02")
}

// Cache 当日参考价缓存。日切在任何一次访问时惰性检测，
// 一旦跨天整个存储清空，参考价不会泄漏到下一个交易日
type Cache struct {
	store port.RefPriceStore
	clk   clock.Clock
	http  *http.Client
	rl    ratelimit.Limiter

	mu  sync.Mutex
	day string
}

type Option func(*Cache)

// WithClock 注入可控时钟（测试用）
func WithClock(c clock.Clock) Option {
	return func(cc *Cache) { cc.clk = c }
}

func WithHTTPClient(h *http.Client) Option {
	return func(cc *Cache) { cc.http = h }
}

func New(store port.RefPriceStore, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		clk:   clock.New(),
		http:  &http.Client{Timeout: 10 * time.Second},
		// 预取对交易所 REST 接口限速，避免大币种列表瞬间打满
		rl: ratelimit.New(10),
	}
	for _, o := range opts {
		o(c)
	}
	c.day = dayUTC8(c.clk.Now())
	return c
}

// ensureDay 惰性日切：发现跨天就整体清空
func (c *Cache) ensureDay(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	today := dayUTC8(c.clk.Now())
	if today != c.day {
		log.Info().Str("from", c.day).Str("to", today).Msg("refprice day rollover, cache cleared")
		c.store.Clear(ctx)
		c.day = today
	}
}

// FillReference 补齐一条行情的参考价：
//   - 来源自带参考价 → 缓存它（当天后续行情复用）
//   - 缓存命中 → 直接取用
//   - 都没有 → 用最新价降级顶替并缓存，保证当天口径稳定
func (c *Cache) FillReference(ctx context.Context, t *domain.Ticker) {
	c.ensureDay(ctx)

	if t.HasReference() {
		c.store.Set(ctx, t.Exchange, t.Symbol, t.ReferencePrice)
		return
	}

	if v, ok := c.store.Get(ctx, t.Exchange, t.Symbol); ok {
		t.ReferencePrice = v
		return
	}

	c.store.Set(ctx, t.Exchange, t.Symbol, t.Last)
	t.ReferencePrice = t.Last
}

// Prefetch 为流里不带参考价的交易所预取当日开盘价。
// 每个币种一个独立请求，并发执行，单个失败不影响其他币种，
// 也不会让订阅流程失败
func (c *Cache) Prefetch(ctx context.Context, p *exchange.Profile, coins []string) {
	if p == nil || !p.NeedsPrefetch {
		return
	}
	c.ensureDay(ctx)

	var wg sync.WaitGroup
	for _, coin := range coins {
		sym := exchange.Canonical(coin)
		if _, ok := c.store.Get(ctx, p.Name, sym); ok {
			continue
		}
		wg.Add(1)
		go func(coin, sym string) {
			defer wg.Done()
			c.rl.Take()
			open, err := c.fetchDailyOpen(ctx, p, coin)
			if err != nil {
				log.Warn().Err(err).
					Str("exchange", p.Name).
					Str("symbol", sym).
					Msg("refprice prefetch failed, will fall back to last price")
				return
			}
			c.store.Set(ctx, p.Name, sym, open)
		}(coin, sym)
	}
	wg.Wait()
}

func (c *Cache) fetchDailyOpen(ctx context.Context, p *exchange.Profile, coin string) (float64, error) {
	var open float64
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.DailyCandleURL(coin), nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daily candle: http %d", resp.StatusCode)
			}
			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return err
			}
			v, err := p.ParseDailyOpen(body)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			open = v
			return nil
		},
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	return open, err
}
