package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process backend: a map guarded by an RWMutex
// with a background sweep that drops sessions idle past the TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*State),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	s.mu.RLock()
	state, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return NewState(), nil
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, id string, state *State) error {
	stored := state.Clone()
	stored.UpdatedAt = time.Now()

	s.mu.Lock()
	s.sessions[id] = stored
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) sweep() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			for id, state := range s.sessions {
				if state.UpdatedAt.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}
