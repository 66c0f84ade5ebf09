package exchange

import (
	"encoding/json"

	"tickerfeed/internal/domain"
)

// Hyperliquid 没有现货 ticker 频道，用日线 candle 流降级：
// close 当作最新价和买卖价，candle 的 open 兼作当日参考价。
// 订阅必须每个币种单独一帧；interval 是该频道特有的参数，
// 这里固定为日线，不向通用的 (exchange, symbols) 调用面透出

const hlCandleInterval = "1d"

type hlSubReq struct {
	Method       string    `json:"method"`
	Subscription hlSubArgs `json:"subscription"`
}

type hlSubArgs struct {
	Type     string `json:"type"`
	Coin     string `json:"coin"`
	Interval string `json:"interval"`
}

type hlCandleMsg struct {
	Channel string       `json:"channel"`
	Data    hlCandleData `json:"data"`
}

type hlCandleData struct {
	Symbol string `json:"s"`
	Open   string `json:"o"`
	Close  string `json:"c"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Volume string `json:"v"`
}

var hyperliquidProfile = &Profile{
	Name:  Hyperliquid,
	WsURL: "wss://api.hyperliquid.xyz/ws",

	BuildSubscribe: func(coins []string) []any {
		frames := make([]any, 0, len(coins))
		for _, c := range coins {
			frames = append(frames, hlSubReq{
				Method: "subscribe",
				Subscription: hlSubArgs{
					Type:     "candle",
					Coin:     c,
					Interval: hlCandleInterval,
				},
			})
		}
		return frames
	},

	Parse: parseHyperliquid,
}

func parseHyperliquid(raw []byte) (domain.Ticker, bool) {
	var msg hlCandleMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Ticker{}, false
	}
	if msg.Channel != "candle" || msg.Data.Symbol == "" {
		return domain.Ticker{}, false
	}

	d := msg.Data
	closePx, ok := num(d.Close)
	if !ok {
		return domain.Ticker{}, false
	}
	open := numOr(d.Open)

	return domain.Ticker{
		Symbol: Canonical(d.Symbol),
		Last:   closePx,
		// candle 流没有盘口，用 close 降级
		Bid:            closePx,
		Ask:            closePx,
		High24h:        numOr(d.High),
		Low24h:         numOr(d.Low),
		Volume24h:      numOr(d.Volume),
		ChangePercent:  changeFrom(closePx, open),
		Exchange:       Hyperliquid,
		ReferencePrice: open,
	}, true
}
