package port

import (
	"context"

	"tickerfeed/internal/domain"
)

// WatchlistStore 提供用户选择的交易所和币种列表。
// 真实实现（浏览器 KV 存储等）在引擎边界之外，这里只定义接口
type WatchlistStore interface {
	Watchlist(ctx context.Context) (exchange string, symbols []string, err error)
}

// TickPublisher 把补齐参考价后的行情推给展示层。
// 进程间通道同样在边界之外；控制台实现见 interfaces/console
type TickPublisher interface {
	Publish(ctx context.Context, ticks []domain.Ticker) error
}
