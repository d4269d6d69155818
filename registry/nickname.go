package registry

import (
	"sync"

	"parley-signaling-server/domain"
)

// NicknameRegistry binds live connections to claimed nicknames.
// Matching is exact: no trimming, no case folding.
type NicknameRegistry struct {
	mu     sync.RWMutex
	names  map[domain.ConnID]string
	owners map[string]domain.ConnID
}

func NewNicknameRegistry() *NicknameRegistry {
	return &NicknameRegistry{
		names:  make(map[domain.ConnID]string),
		owners: make(map[string]domain.ConnID),
	}
}

// Claim fails if any live connection holds name, including conn itself
// re-claiming it. A successful claim replaces conn's previous nickname.
func (r *NicknameRegistry) Claim(conn domain.ConnID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.owners[name]; taken {
		return domain.ErrNicknameTaken
	}
	if old, ok := r.names[conn]; ok {
		delete(r.owners, old)
	}
	r.names[conn] = name
	r.owners[name] = conn
	return nil
}

// Release is idempotent.
func (r *NicknameRegistry) Release(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[conn]; ok {
		delete(r.owners, name)
		delete(r.names, conn)
	}
}

func (r *NicknameRegistry) Lookup(conn domain.ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[conn]
	return name, ok
}
