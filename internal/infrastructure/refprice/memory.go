package refprice

import (
	"context"
	"sync"

	"tickerfeed/internal/application/port"
)

// MemoryStore 进程内参考价存储，默认实现
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]float64)}
}

func memKey(exchange, symbol string) string { return exchange + ":" + symbol }

func (s *MemoryStore) Get(_ context.Context, exchange, symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[memKey(exchange, symbol)]
	return v, ok
}

func (s *MemoryStore) Set(_ context.Context, exchange, symbol string, price float64) {
	if price <= 0 {
		return
	}
	s.mu.Lock()
	s.m[memKey(exchange, symbol)] = price
	s.mu.Unlock()
}

func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	s.m = make(map[string]float64)
	s.mu.Unlock()
}

var _ port.RefPriceStore = (*MemoryStore)(nil)
