package exchange

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"tickerfeed/internal/domain"
)

// Binance 现货 24hrTicker 流。帧顶层的 "e" 字段标识事件类型，
// 数值全部是字符串。当日开盘价走 klines 接口预取；日线行是
// [openTime, open, high, low, close, ...]，开盘价在下标 1（字符串）

const binanceRestBase = "https://api.binance.com"

type binanceSubReq struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type binanceTickerMsg struct {
	Event       string `json:"e"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Bid         string `json:"b"`
	Ask         string `json:"a"`
	High        string `json:"h"`
	Low         string `json:"l"`
	QuoteVolume string `json:"q"`
	ChangePct   string `json:"P"`
}

var binanceProfile = &Profile{
	Name:  Binance,
	WsURL: "wss://stream.binance.com:9443/ws",

	BuildSubscribe: func(coins []string) []any {
		params := make([]string, 0, len(coins))
		for _, c := range coins {
			params = append(params, strings.ToLower(c)+strings.ToLower(defaultQuote)+"@ticker")
		}
		return []any{binanceSubReq{
			Method: "SUBSCRIBE",
			Params: params,
			ID:     time.Now().UnixMilli(),
		}}
	},

	Parse: parseBinance,

	NeedsPrefetch: true,
	DailyCandleURL: func(coin string) string {
		return fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&limit=1",
			binanceRestBase, url.QueryEscape(coin+defaultQuote))
	},
	ParseDailyOpen: func(body []byte) (float64, error) {
		var rows [][]any
		if err := json.Unmarshal(body, &rows); err != nil {
			return 0, err
		}
		if len(rows) == 0 || len(rows[0]) < 2 {
			return 0, fmt.Errorf("binance kline row too short")
		}
		s, ok := rows[0][1].(string)
		if !ok {
			return 0, fmt.Errorf("binance kline open not a string")
		}
		open, ok := num(s)
		if !ok || open <= 0 {
			return 0, fmt.Errorf("binance kline open invalid: %q", s)
		}
		return open, nil
	},
}

func parseBinance(raw []byte) (domain.Ticker, bool) {
	var msg binanceTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Ticker{}, false
	}
	if msg.Event != "24hrTicker" {
		return domain.Ticker{}, false
	}

	last, ok := num(msg.Close)
	if !ok || msg.Symbol == "" {
		return domain.Ticker{}, false
	}

	return domain.Ticker{
		Symbol:        Canonical(msg.Symbol),
		Last:          last,
		Bid:           numOr(msg.Bid),
		Ask:           numOr(msg.Ask),
		High24h:       numOr(msg.High),
		Low24h:        numOr(msg.Low),
		Volume24h:     numOr(msg.QuoteVolume),
		ChangePercent: numOr(msg.ChangePct),
		Exchange:      Binance,
	}, true
}
