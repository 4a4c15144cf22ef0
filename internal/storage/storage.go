// Package storage uploads user media (avatars and covers) to object storage and
// hands back the URL recorded on the user.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Object is one file to upload.
type Object struct {
	Key         string
	ContentType string
	Body        io.Reader
}

// MediaStorage persists uploaded media and returns a public URL for it.
type MediaStorage interface {
	Save(ctx context.Context, obj Object) (string, error)
}

// NewKey builds a collision-free object key such as "avatars/<owner>/<uuid>.png".
func NewKey(kind, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", kind, owner, uuid.NewString(), ext)
}

// MemoryStorage keeps uploads in memory. It backs local development when no bucket
// is configured, and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage whose URLs start with baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// Save stores the object body.
func (m *MemoryStorage) Save(_ context.Context, obj Object) (string, error) {
	key := strings.TrimLeft(obj.Key, "/")
	if key == "" {
		return "", fmt.Errorf("memory storage: empty key")
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", fmt.Errorf("memory storage read %s: %w", key, err)
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return m.baseURL + "/" + key, nil
}

// Has reports whether an object was stored under key. Useful for tests.
func (m *MemoryStorage) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ MediaStorage = (*MemoryStorage)(nil)
