package secret

import "sync"

// Credential is what a store keeps for one SMB share.
type Credential struct {
	Domain   string
	User     string
	Password string
}

// Empty reports whether no field is set.
func (c Credential) Empty() bool {
	return c.Domain == "" && c.User == "" && c.Password == ""
}

// Store abstracts a secure credentials store (e.g., OS keyring).
// Implementations should be safe to call from multiple goroutines.
type Store interface {
	Get(host, share string) (Credential, bool, error)
	Set(host, share string, c Credential) error
	Delete(host, share string) error
}

func makeKey(host, share string) string { return host + "|" + share }

// MemoryStore keeps credentials for the lifetime of the process. It is the
// fallback when no OS keyring can be opened.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Credential
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Credential)}
}

func (s *MemoryStore) Get(host, share string) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[makeKey(host, share)]
	return c, ok, nil
}

func (s *MemoryStore) Set(host, share string, c Credential) error {
	s.mu.Lock()
	s.items[makeKey(host, share)] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(host, share string) error {
	s.mu.Lock()
	delete(s.items, makeKey(host, share))
	s.mu.Unlock()
	return nil
}

// Open returns the OS keyring store, or a MemoryStore when the keyring is
// unavailable (headless hosts, missing D-Bus session, ...).
func Open() Store {
	s, err := NewKeyringStore()
	if err != nil {
		log.Infof("keyring unavailable, keeping credentials in memory: %v", err)
		return NewMemoryStore()
	}
	return s
}
