package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps slots in process memory. It backs tests and local runs
// without redis; contents do not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{slots: map[string][]byte{}}
}

func (s *MemoryStore) Save(_ context.Context, slot string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = payload
	return nil
}

func (s *MemoryStore) Load(_ context.Context, slot string, dest any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.slots[slot]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// PutRaw writes bytes to a slot verbatim, bypassing serialization. Tests use
// it to simulate corrupted storage.
func (s *MemoryStore) PutRaw(slot string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = append([]byte(nil), raw...)
}
