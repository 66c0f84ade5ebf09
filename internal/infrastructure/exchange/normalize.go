package exchange

import "tickerfeed/internal/domain"

// Normalize 按固定顺序（Gate → OKX → Binance → Hyperliquid）尝试
// 每个交易所的识别器，第一个认领该帧的解析器胜出。无人认领返回
// false：订阅确认、心跳等帧直接丢弃，不算错误
func Normalize(raw []byte) (domain.Ticker, bool) {
	for _, p := range profiles {
		if t, ok := p.Parse(raw); ok {
			return t, true
		}
	}
	return domain.Ticker{}, false
}
