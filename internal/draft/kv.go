// Package draft holds the device-local, per-day scratch state that the UI
// shows before the authoritative store confirms a write.
package draft

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

var ErrKeyNotFound = errors.New("draft: key not found")

// KV is the synchronous string store offered by the device.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) []string
}

// DiskKV persists keys as files under a base directory. Keys are split on
// ":" into nested directories.
type DiskKV struct {
	d *diskv.Diskv
}

func NewDiskKV(basePath string) *DiskKV {
	return &DiskKV{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      256 * 1024,
	})}
}

func (k *DiskKV) Get(key string) (string, error) {
	if !k.d.Has(key) {
		return "", ErrKeyNotFound
	}
	val, err := k.d.Read(key)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (k *DiskKV) Set(key, value string) error {
	return k.d.Write(key, []byte(value))
}

func (k *DiskKV) Delete(key string) error {
	if !k.d.Has(key) {
		return nil
	}
	return k.d.Erase(key)
}

func (k *DiskKV) Keys(prefix string) []string {
	out := make([]string, 0)
	for key := range k.d.KeysPrefix(prefix, context.Background().Done()) {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, ":")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return strings.Join(pathKey.Path, ":") + ":" + pathKey.FileName
}

// MemoryKV is an in-process KV for tests and ephemeral sessions.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
