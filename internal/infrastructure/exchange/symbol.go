package exchange

import "strings"

// 各交易所的符号写法不一：OKX 用 BTC-USDT，Gate 用 BTC_USDT，
// Binance 用 BTCUSDT，Hyperliquid 只给币种名。这里统一转成
// 规范形式 BASE-QUOTE（大写、连字符分隔）

var knownQuotes = []string{"USDT", "USDC", "USD"}

const defaultQuote = "USDT"

// Canonical 将任意来源格式的交易对转换为规范形式
// 例: BTC_USDT -> BTC-USDT, btcusdt -> BTC-USDT, BTC -> BTC-USDT
func Canonical(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return ""
	}
	sym = strings.ReplaceAll(sym, "_", "-")
	sym = strings.ReplaceAll(sym, "/", "-")
	if strings.Contains(sym, "-") {
		return sym
	}

	// 无分隔符：按已知计价货币后缀切分
	for _, q := range knownQuotes {
		if strings.HasSuffix(sym, q) && len(sym) > len(q) {
			return sym[:len(sym)-len(q)] + "-" + q
		}
	}

	// 裸币种名
	return sym + "-" + defaultQuote
}

// Base 取规范符号的币种部分
// 例: BTC-USDT -> BTC, btc_usdt -> BTC, ETH -> ETH
func Base(symbol string) string {
	c := Canonical(symbol)
	if i := strings.IndexByte(c, '-'); i > 0 {
		return c[:i]
	}
	return c
}

// BaseList 将一组任意格式的符号去重转换为币种列表，保持顺序
func BaseList(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := map[string]struct{}{}
	for _, s := range symbols {
		b := Base(s)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}
