package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"tickerfeed/internal/application/port"
	"tickerfeed/internal/domain"
)

// Sink 把行情打到标准输出，是 TickPublisher 的控制台实现。
// 按 (exchange, symbol) 记住上一次价格，价格没变化就不重复输出
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	states map[string]*domain.PriceState
}

func NewSink() *Sink {
	return NewSinkTo(os.Stdout)
}

func NewSinkTo(w io.Writer) *Sink {
	return &Sink{out: w, states: make(map[string]*domain.PriceState)}
}

func (s *Sink) Publish(_ context.Context, ticks []domain.Ticker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range ticks {
		key := t.Exchange + ":" + t.Symbol
		st, ok := s.states[key]
		if !ok {
			st = &domain.PriceState{}
			s.states[key] = st
		}
		if !st.Update(t.Last) {
			continue
		}
		fmt.Fprintf(s.out, "%-4s %-10s %s %s  %+.2f%%  ref=%s\n",
			t.Exchange, t.Symbol, arrow(st.Direction),
			formatPrice(t.Last), t.ChangePercent, formatPrice(t.ReferencePrice))
	}
	return nil
}

func arrow(d domain.Direction) string {
	switch d {
	case domain.DirectionUp:
		return "↑"
	case domain.DirectionDown:
		return "↓"
	default:
		return " "
	}
}

// formatPrice 大额保留两位小数，小币种多留几位有效数字
func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return strconv.FormatFloat(p, 'f', 2, 64)
	case p > 0:
		return strconv.FormatFloat(p, 'g', 6, 64)
	default:
		return "-"
	}
}

var _ port.TickPublisher = (*Sink)(nil)
