package exchange

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"tickerfeed/internal/domain"
)

// Gate spot 行情。流里只有 24h 涨跌数据，没有当日开盘价，
// 参考价走日线接口预取；日线行是
// [t, quote_volume, close, high, low, open, base_volume, ...]，
// 开盘价在下标 5

const gateRestBase = "https://api.gateio.ws"

type gateSubReq struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

type gateTickerMsg struct {
	Channel string         `json:"channel"`
	Event   string         `json:"event"`
	Result  gateTickerData `json:"result"`
}

type gateTickerData struct {
	CurrencyPair     string `json:"currency_pair"`
	Last             string `json:"last"`
	HighestBid       string `json:"highest_bid"`
	LowestAsk        string `json:"lowest_ask"`
	High24h          string `json:"high_24h"`
	Low24h           string `json:"low_24h"`
	QuoteVolume      string `json:"quote_volume"`
	ChangePercentage string `json:"change_percentage"`
}

var gateProfile = &Profile{
	Name:  Gate,
	WsURL: "wss://api.gateio.ws/ws/v4/spot",

	BuildSubscribe: func(coins []string) []any {
		pairs := make([]string, 0, len(coins))
		for _, c := range coins {
			pairs = append(pairs, c+"_"+defaultQuote)
		}
		return []any{gateSubReq{
			Time:    time.Now().Unix(),
			Channel: "spot.tickers",
			Event:   "subscribe",
			Payload: pairs,
		}}
	},

	Parse: parseGate,

	NeedsPrefetch: true,
	DailyCandleURL: func(coin string) string {
		return fmt.Sprintf("%s/api/v4/spot/candlesticks?currency_pair=%s&interval=1d&limit=1",
			gateRestBase, url.QueryEscape(coin+"_"+defaultQuote))
	},
	ParseDailyOpen: func(body []byte) (float64, error) {
		var rows [][]string
		if err := json.Unmarshal(body, &rows); err != nil {
			return 0, err
		}
		if len(rows) == 0 || len(rows[0]) < 6 {
			return 0, fmt.Errorf("gate candlestick row too short")
		}
		open, ok := num(rows[0][5])
		if !ok || open <= 0 {
			return 0, fmt.Errorf("gate candlestick open invalid: %q", rows[0][5])
		}
		return open, nil
	},
}

func parseGate(raw []byte) (domain.Ticker, bool) {
	var msg gateTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Ticker{}, false
	}
	if msg.Channel != "spot.tickers" || msg.Event != "update" {
		return domain.Ticker{}, false
	}

	r := msg.Result
	last, ok := num(r.Last)
	if !ok || r.CurrencyPair == "" {
		return domain.Ticker{}, false
	}

	return domain.Ticker{
		Symbol:        Canonical(r.CurrencyPair),
		Last:          last,
		Bid:           numOr(r.HighestBid),
		Ask:           numOr(r.LowestAsk),
		High24h:       numOr(r.High24h),
		Low24h:        numOr(r.Low24h),
		Volume24h:     numOr(r.QuoteVolume),
		ChangePercent: numOr(r.ChangePercentage),
		Exchange:      Gate,
	}, true
}
