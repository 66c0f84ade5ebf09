package exchange

import (
	"math"
	"strconv"
	"strings"

	"tickerfeed/internal/domain"
)

// 交易所标识，沿用各自行情协议里的习惯叫法
const (
	OKX         = "OKX"
	Gate        = "Gate"
	Binance     = "BN"
	Hyperliquid = "HL"
)

// Profile 描述一个交易所的接入方式：行情推送地址、订阅帧的构造、
// 行情帧的识别与解析，以及流里不带开盘价时的 REST 兜底
type Profile struct {
	Name  string
	WsURL string

	// BuildSubscribe 把币种列表变成一条或多条订阅帧
	// （Hyperliquid 要求每个币种单独一条）
	BuildSubscribe func(coins []string) []any

	// Parse 尝试把一条原始帧解析为规范 Ticker，不匹配返回 false
	Parse func(raw []byte) (domain.Ticker, bool)

	// NeedsPrefetch 为 true 时流里不携带当日开盘价，
	// 需要先通过日线接口预取
	NeedsPrefetch bool
	// DailyCandleURL 返回某个币种的日线 REST 地址
	DailyCandleURL func(coin string) string
	// ParseDailyOpen 从日线响应中取出开盘价
	ParseDailyOpen func(body []byte) (float64, error)
}

// profiles 按识别顺序排列，Normalize 依次尝试，先匹配者胜出
var profiles = []*Profile{gateProfile, okxProfile, binanceProfile, hyperliquidProfile}

// Profiles returns the recognizer order used by Normalize.
func Profiles() []*Profile { return profiles }

// Lookup 按名字查找交易所配置（大小写不敏感）
func Lookup(name string) (*Profile, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for _, p := range profiles {
		if strings.ToUpper(p.Name) == n {
			return p, true
		}
	}
	return nil, false
}

// Names lists the supported exchange identifiers.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Name)
	}
	return out
}

// num 防御性数值转换：空串、非数字、NaN、Inf 都视为无效
func num(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numOr 同 num，无效时退回 0（用于缺了也不致命的字段）
func numOr(s string) float64 {
	f, _ := num(s)
	return f
}

// changeFrom 用 24h 开盘价推算涨跌幅（来源不直接给百分比时）
func changeFrom(last, open float64) float64 {
	if open <= 0 {
		return 0
	}
	return (last - open) / open * 100
}
