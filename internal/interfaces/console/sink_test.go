package console

import (
	"context"
	"strings"
	"testing"

	"tickerfeed/internal/domain"
)

func TestSinkPrintsChangedPricesOnly(t *testing.T) {
	var buf strings.Builder
	s := NewSinkTo(&buf)
	ctx := context.Background()

	tk := domain.Ticker{
		Exchange: "OKX", Symbol: "BTC-USDT",
		Last: 50000, ChangePercent: 2.5, ReferencePrice: 49000,
	}
	if err := s.Publish(ctx, []domain.Ticker{tk}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	// 同价重复推送不重复输出
	if err := s.Publish(ctx, []domain.Ticker{tk}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out := buf.String()
	if got := strings.Count(out, "BTC-USDT"); got != 1 {
		t.Fatalf("printed %d lines, want 1: %q", got, out)
	}
	for _, want := range []string{"OKX", "50000.00", "+2.50%", "ref=49000.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}

	tk.Last = 50100
	_ = s.Publish(ctx, []domain.Ticker{tk})
	if !strings.Contains(buf.String(), "↑") {
		t.Errorf("up move missing arrow: %q", buf.String())
	}
}

func TestSinkTracksPerExchange(t *testing.T) {
	var buf strings.Builder
	s := NewSinkTo(&buf)
	ctx := context.Background()

	_ = s.Publish(ctx, []domain.Ticker{
		{Exchange: "OKX", Symbol: "BTC-USDT", Last: 50000},
		{Exchange: "Gate", Symbol: "BTC-USDT", Last: 50000},
	})
	if got := strings.Count(buf.String(), "BTC-USDT"); got != 2 {
		t.Errorf("printed %d lines, want 2 (one per exchange)", got)
	}
}

func TestSinkFormatsSmallPrices(t *testing.T) {
	var buf strings.Builder
	s := NewSinkTo(&buf)
	_ = s.Publish(context.Background(), []domain.Ticker{
		{Exchange: "Gate", Symbol: "PEPE-USDT", Last: 0.0000125},
	})
	if !strings.Contains(buf.String(), "1.25e-05") {
		t.Errorf("small price formatting: %q", buf.String())
	}
}
