// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/anyproto/any-sync/app"

	"github.com/anyproto/ar-campaign-server/domain"
	"github.com/anyproto/ar-campaign-server/store"
)

func New(publicUrlPrefix string) *MemStore {
	return &MemStore{
		PublicUrlPrefix: publicUrlPrefix,
		objects:         map[string][]byte{},
	}
}

type MemStore struct {
	PublicUrlPrefix string
	// PutHook is called before an object is stored; a non-nil error fails the put
	PutHook func(ctx context.Context, key string) error

	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
}

func (m *MemStore) Init(a *app.App) (err error) { return }
func (m *MemStore) Name() string                { return store.CName }

func (m *MemStore) Put(ctx context.Context, key string, file store.File) error {
	m.mu.Lock()
	m.puts = append(m.puts, key)
	hook := m.PutHook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return domain.ErrDuplicateKey
	}
	m.objects[key] = data
	return nil
}

func (m *MemStore) PublicUrl(key string) string {
	if m.PublicUrlPrefix == "" {
		return ""
	}
	return strings.TrimSuffix(m.PublicUrlPrefix, "/") + "/" + key
}

func (m *MemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemStore) DeletePath(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.objects {
		if strings.HasPrefix(key, path) {
			delete(m.objects, key)
		}
	}
	return nil
}

// Keys returns keys of the stored objects
func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}

// PutCalls returns every key Put was called with, including failed ones
func (m *MemStore) PutCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.puts...)
}
