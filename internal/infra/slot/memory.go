// Package slot はカートの保存先（cart.Slot）の実装をまとめる。
package slot

import (
	"sync"

	"cakedelight/internal/cart"
)

var (
	_ cart.Slot = (*MemorySlot)(nil)
	_ cart.Slot = (*FileSlot)(nil)
	_ cart.Slot = (*BoltSlot)(nil)
	_ cart.Slot = (*RedisSlot)(nil)
	_ cart.Slot = (*GormSlot)(nil)
)

// プロセス内だけのスロット
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: map[string][]byte{}}
}

func (s *MemorySlot) Read(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemorySlot) Write(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
