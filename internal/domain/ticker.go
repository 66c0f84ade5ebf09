package domain

// Ticker 规范化后的行情快照（与交易所无关）
// Symbol 统一为 BASE-QUOTE 形式，例如 "BTC-USDT"
type Ticker struct {
	Symbol        string  `json:"symbol"`
	Last          float64 `json:"last"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	High24h       float64 `json:"high24h"`
	Low24h        float64 `json:"low24h"`
	Volume24h     float64 `json:"volume24h"` // 以计价货币计
	ChangePercent float64 `json:"changePercent"`

	Exchange string `json:"exchange"`

	// ReferencePrice 当日（UTC+8）开盘参考价，0 表示来源未提供，
	// 由 refprice.Cache 在转发前补齐
	ReferencePrice float64 `json:"referencePrice,omitempty"`
}

// HasReference reports whether the source carried a usable reference price.
func (t Ticker) HasReference() bool { return t.ReferencePrice > 0 }
