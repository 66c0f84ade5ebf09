package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"tickerfeed/internal/application/port"
	"tickerfeed/internal/infrastructure/config"
	"tickerfeed/internal/infrastructure/container"
	"tickerfeed/internal/infrastructure/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := container.New(cfg)
	defer c.Close()

	var watchlist port.WatchlistStore = cfg
	exch, coins, err := watchlist.Watchlist(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load watchlist failed")
	}
	if err := c.Manager().Connect(exch, coins); err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}

	// 周期汇总 + 假死巡检，补偿系统睡眠期间停摆的定时器
	go func() {
		if err := c.Monitor().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("monitor stopped")
		}
	}()

	// SIGHUP 重读配置并切换数据源，对应"关注列表变更即重连"
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				next, err := config.Load(*configPath)
				if err != nil {
					log.Error().Err(err).Msg("config reload failed, keeping current watchlist")
					continue
				}
				ex, cs, err := next.Watchlist(ctx)
				if err != nil {
					log.Error().Err(err).Msg("reloaded watchlist unreadable")
					continue
				}
				if err := c.Manager().Connect(ex, cs); err != nil {
					log.Error().Err(err).Msg("reconnect with reloaded watchlist failed")
					continue
				}
				log.Info().Str("exchange", ex).Strs("coins", cs).Msg("watchlist reloaded")
			}
		}
	}()

	log.Info().
		Str("exchange", exch).
		Strs("coins", coins).
		Str("config", *configPath).
		Msg("tickerfeed started")

	<-ctx.Done()
}
