package directory

import (
	"context"
	"sync"
)

// MemoryDirectory holds user claims in memory
type MemoryDirectory struct {
	claims map[string]map[string]string
	mu     sync.RWMutex
}

// NewMemoryDirectory creates an empty directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		claims: make(map[string]map[string]string),
	}
}

// SetClaim assigns a claim value to a user
func (d *MemoryDirectory) SetClaim(username, claimURI, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.claims[username] == nil {
		d.claims[username] = make(map[string]string)
	}
	d.claims[username][claimURI] = value
}

// GetClaim implements ports.Directory
func (d *MemoryDirectory) GetClaim(ctx context.Context, username, claimURI string) (string, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	value, ok := d.claims[username][claimURI]
	return value, ok, nil
}
