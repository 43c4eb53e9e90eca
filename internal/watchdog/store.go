package watchdog

import "sync"

// StorageKeyLoginTime holds the login instant the page stored at sign-in.
const StorageKeyLoginTime = "loginTime"

// SessionStorageKeys is every local key tied to a session. Both the primary
// logout and the fallback clear exactly this list.
var SessionStorageKeys = []string{
	StorageKeyLoginTime,
	"user",
	"favorites-cache",
}

// Store is the page's local key/value storage.
type Store interface {
	Get(key string) (string, bool)
	Remove(keys ...string)
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	data := make(map[string]string, len(initial))
	for k, v := range initial {
		data[k] = v
	}
	return &MemoryStore{data: data}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Reset replaces every stored key with a fresh snapshot.
func (s *MemoryStore) Reset(snapshot map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		s.data[k] = v
	}
}

func (s *MemoryStore) Remove(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
}
