package exchange

import (
	"reflect"
	"testing"
)

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC_USDT", "BTC-USDT"},
		{"btcusdt", "BTC-USDT"},
		{"BTC-USDT", "BTC-USDT"},
		{"BTC/USDT", "BTC-USDT"},
		{"BTC", "BTC-USDT"},
		{"ethusdc", "ETH-USDC"},
		{" sol ", "SOL-USDT"},
		{"PEPEUSDT", "PEPE-USDT"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Canonical(c.in); got != c.want {
			t.Errorf("Canonical(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC-USDT", "BTC"},
		{"btc_usdt", "BTC"},
		{"ETHUSDT", "ETH"},
		{"SOL", "SOL"},
	}
	for _, c := range cases {
		if got := Base(c.in); got != c.want {
			t.Errorf("Base(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBaseListDedupes(t *testing.T) {
	got := BaseList([]string{"BTC", "btc_usdt", "ETH", "", "BTCUSDT", "SOL"})
	want := []string{"BTC", "ETH", "SOL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BaseList = %v, want %v", got, want)
	}
}
