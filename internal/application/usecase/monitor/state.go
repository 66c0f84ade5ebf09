package monitor

import (
	"sync"
	"time"

	"tickerfeed/internal/domain"
)

// symStat 单个交易对的接收统计
type symStat struct {
	last      domain.Ticker
	dir       domain.Direction
	ticks     uint64
	updatedAt time.Time
	seen      bool
}

// State 聚合所有关注交易对的最新行情与接收速率，供汇总输出用。
// 没在初始列表里的交易对第一次出现时自动登记，保持出现顺序
type State struct {
	mu    sync.Mutex
	order []string
	syms  map[string]*symStat
}

func NewState(symbols []string) *State {
	s := &State{syms: make(map[string]*symStat, len(symbols))}
	for _, sym := range symbols {
		s.registerLocked(sym)
	}
	return s
}

func (s *State) registerLocked(sym string) *symStat {
	if sym == "" {
		return nil
	}
	st, ok := s.syms[sym]
	if !ok {
		st = &symStat{}
		s.syms[sym] = st
		s.order = append(s.order, sym)
	}
	return st
}

// Apply 记录一条行情，返回最新价相对上一条是否变化
func (s *State) Apply(t domain.Ticker, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.registerLocked(t.Symbol)
	if st == nil {
		return false
	}
	st.ticks++
	st.updatedAt = now

	changed := !st.seen || st.last.Last != t.Last
	switch {
	case !st.seen:
		st.dir = domain.DirectionSame
	case t.Last > st.last.Last:
		st.dir = domain.DirectionUp
	case t.Last < st.last.Last:
		st.dir = domain.DirectionDown
	default:
		st.dir = domain.DirectionSame
	}
	st.last = t
	st.seen = true
	return changed
}

// Snapshot 按登记顺序导出各交易对的统计副本
func (s *State) Snapshot() []SymbolStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SymbolStat, 0, len(s.order))
	for _, sym := range s.order {
		st := s.syms[sym]
		out = append(out, SymbolStat{
			Symbol:    sym,
			Last:      st.last,
			Dir:       st.dir,
			Ticks:     st.ticks,
			UpdatedAt: st.updatedAt,
			Seen:      st.seen,
		})
	}
	return out
}

// SymbolStat 是 Snapshot 导出的只读统计
type SymbolStat struct {
	Symbol    string
	Last      domain.Ticker
	Dir       domain.Direction
	Ticks     uint64
	UpdatedAt time.Time
	Seen      bool
}
