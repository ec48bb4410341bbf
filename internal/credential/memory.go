package credential

import "sync"

// MemoryBackend is an in-process token slot shared by several attached
// stores, each standing for one independent context.
type MemoryBackend struct {
	mu       sync.Mutex
	token    string
	present  bool
	contexts map[*MemoryStore]struct{}
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{contexts: make(map[*MemoryStore]struct{})}
}

// Attach returns a new context bound to the backend.
func (b *MemoryBackend) Attach() *MemoryStore {
	s := &MemoryStore{backend: b}
	b.mu.Lock()
	b.contexts[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// NewMemoryStore returns a single context over a private backend.
func NewMemoryStore() *MemoryStore {
	return NewMemoryBackend().Attach()
}

func (b *MemoryBackend) store(from *MemoryStore, token string, present bool) {
	b.mu.Lock()
	b.token = token
	b.present = present
	var handlers []func()
	for ctx := range b.contexts {
		if ctx == from {
			continue
		}
		handlers = append(handlers, ctx.snapshot()...)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// MemoryStore is one context over a MemoryBackend. Change handlers of the
// other attached contexts run synchronously inside Set and Clear.
type MemoryStore struct {
	backend *MemoryBackend

	mu       sync.Mutex
	handlers handlerSet
}

// Get returns the stored token.
func (s *MemoryStore) Get() (string, bool) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !s.backend.present {
		return "", false
	}
	return s.backend.token, true
}

// Set stores token.
func (s *MemoryStore) Set(token string) error {
	s.backend.store(s, token, true)
	return nil
}

// Clear removes the token.
func (s *MemoryStore) Clear() error {
	s.backend.store(s, "", false)
	return nil
}

// OnChange registers handler for mutations made by other contexts.
func (s *MemoryStore) OnChange(handler func()) func() {
	s.mu.Lock()
	id := s.handlers.add(handler)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.handlers.remove(id)
		s.mu.Unlock()
	}
}

// Detach removes the context from its backend.
func (s *MemoryStore) Detach() {
	s.backend.mu.Lock()
	delete(s.backend.contexts, s)
	s.backend.mu.Unlock()
}

func (s *MemoryStore) snapshot() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers.snapshot()
}
