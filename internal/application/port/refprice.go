package port

import "context"

// RefPriceStore 按 (exchange, symbol) 存取当日开盘参考价。
// 实现是尽力而为的：后端不可用时 Get 返回未命中，Set/Clear 静默失败，
// 上层会用最新价降级兜底，所以这里不暴露错误
type RefPriceStore interface {
	Get(ctx context.Context, exchange, symbol string) (float64, bool)
	Set(ctx context.Context, exchange, symbol string, price float64)
	// Clear wipes the whole store. Called on UTC+8 day rollover.
	Clear(ctx context.Context)
}
