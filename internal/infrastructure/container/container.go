package container

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tickerfeed/internal/application/port"
	"tickerfeed/internal/application/usecase/monitor"
	"tickerfeed/internal/domain"
	"tickerfeed/internal/infrastructure/config"
	"tickerfeed/internal/infrastructure/exchange"
	"tickerfeed/internal/infrastructure/refprice"
	"tickerfeed/internal/infrastructure/transport"
	"tickerfeed/internal/infrastructure/wsconn"
	"tickerfeed/internal/interfaces/console"
)

// Container 按需组装全部依赖。Redis 不可达时降级到进程内存储，
// 不阻止启动
type Container struct {
	cfg *config.Config

	mu          sync.Mutex
	redisClient *redis.Client
	refStore    port.RefPriceStore
	refCache    *refprice.Cache
	sink        *console.Sink
	manager     *wsconn.Manager
	monitor     *monitor.Service

	closeOnce   sync.Once
	closerChain []func() error
}

func New(cfg *config.Config) *Container {
	return &Container{cfg: cfg}
}

func (c *Container) Config() *config.Config { return c.cfg }

// RefStore 参考价存储：配了 Redis 就跨进程共享，否则进程内存
func (c *Container) RefStore() port.RefPriceStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refStoreLocked()
}

func (c *Container) refStoreLocked() port.RefPriceStore {
	if c.refStore != nil {
		return c.refStore
	}
	if c.cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.cfg.Redis.Addr,
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", c.cfg.Redis.Addr).
				Msg("redis unreachable, falling back to in-memory refprice store")
			_ = rdb.Close()
		} else {
			c.redisClient = rdb
			c.closerChain = append(c.closerChain, func() error {
				log.Info().Msg("closing redis connection")
				return rdb.Close()
			})
			c.refStore = refprice.NewRedisStore(rdb, c.cfg.Redis.Prefix)
			log.Info().Str("addr", c.cfg.Redis.Addr).Int("db", c.cfg.Redis.DB).
				Msg("redis refprice store initialized")
			return c.refStore
		}
	}
	c.refStore = refprice.NewMemoryStore()
	return c.refStore
}

func (c *Container) RefCache() *refprice.Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refCache == nil {
		c.refCache = refprice.New(c.refStoreLocked())
	}
	return c.refCache
}

func (c *Container) Sink() *console.Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sink == nil {
		c.sink = console.NewSink()
	}
	return c.sink
}

// Manager 行情连接管理器，行情经控制台发布，同时进监控统计
func (c *Container) Manager() *wsconn.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manager == nil {
		cache := c.refCache
		if cache == nil {
			cache = refprice.New(c.refStoreLocked())
			c.refCache = cache
		}
		if c.sink == nil {
			c.sink = console.NewSink()
		}
		sink := c.sink
		c.manager = wsconn.New(wsconn.Deps{
			Config:   c.cfg.ConnConfig(),
			Dialer:   transport.NewWSDialer(),
			RefCache: cache,
			Callbacks: wsconn.Callbacks{
				OnMessage: func(t domain.Ticker) {
					_ = sink.Publish(context.Background(), []domain.Ticker{t})
					if mon := c.monitorIfBuilt(); mon != nil {
						mon.Apply(t)
					}
				},
			},
		})
	}
	return c.manager
}

func (c *Container) monitorIfBuilt() *monitor.Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monitor
}

// Monitor 周期汇总与假死巡检
func (c *Container) Monitor() *monitor.Service {
	mgr := c.Manager()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monitor == nil {
		c.monitor = monitor.NewService(monitor.ServiceDeps{
			Symbols: pairList(c.cfg.Symbols.List),
			Health:  mgr,
		})
	}
	return c.monitor
}

func pairList(coins []string) []string {
	out := make([]string, 0, len(coins))
	for _, coin := range coins {
		out = append(out, exchange.Canonical(coin))
	}
	return out
}

// Close 断开连接并按后进先出释放资源
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		mgr := c.manager
		chain := c.closerChain
		c.mu.Unlock()

		if mgr != nil {
			mgr.Disconnect()
		}
		for i := len(chain) - 1; i >= 0; i-- {
			if e := chain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
