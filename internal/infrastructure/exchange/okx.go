package exchange

import (
	"encoding/json"

	"tickerfeed/internal/domain"
)

// OKX 公共行情，一条订阅帧带全部 instId，ticker 推送自带 sodUtc8
// （北京时间开盘价），无需 REST 预取

type okxSubReq struct {
	Op   string      `json:"op"`
	Args []okxSubArg `json:"args"`
}

type okxSubArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxTickerMsg struct {
	Arg  okxSubArg       `json:"arg"`
	Data []okxTickerData `json:"data"`
}

type okxTickerData struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	BidPx     string `json:"bidPx"`
	AskPx     string `json:"askPx"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	VolCcy24h string `json:"volCcy24h"`
	Open24h   string `json:"open24h"`
	SodUtc8   string `json:"sodUtc8"`
}

var okxProfile = &Profile{
	Name:  OKX,
	WsURL: "wss://wspri.okx.com:8443/ws/v5/ipublic",

	BuildSubscribe: func(coins []string) []any {
		args := make([]okxSubArg, 0, len(coins))
		for _, c := range coins {
			args = append(args, okxSubArg{Channel: "tickers", InstID: c + "-" + defaultQuote})
		}
		return []any{okxSubReq{Op: "subscribe", Args: args}}
	},

	Parse: parseOKX,
}

func parseOKX(raw []byte) (domain.Ticker, bool) {
	var msg okxTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Ticker{}, false
	}
	if msg.Arg.Channel != "tickers" || len(msg.Data) == 0 {
		return domain.Ticker{}, false
	}

	d := msg.Data[0]
	last, ok := num(d.Last)
	if !ok || d.InstID == "" {
		return domain.Ticker{}, false
	}

	return domain.Ticker{
		Symbol:         Canonical(d.InstID),
		Last:           last,
		Bid:            numOr(d.BidPx),
		Ask:            numOr(d.AskPx),
		High24h:        numOr(d.High24h),
		Low24h:         numOr(d.Low24h),
		Volume24h:      numOr(d.VolCcy24h),
		ChangePercent:  changeFrom(last, numOr(d.Open24h)),
		Exchange:       OKX,
		ReferencePrice: numOr(d.SodUtc8),
	}, true
}
