package store

import (
	"strconv"
	"sync"
)

// MemoryPrefs is a concurrency-safe in-memory Prefs namespace.
type MemoryPrefs struct {
	mu   sync.RWMutex
	data map[string]value

	// commits counts successful Commit calls.
	commits int
}

// NewMemoryPrefs creates an empty namespace.
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{data: make(map[string]value)}
}

func (p *MemoryPrefs) String(key, def string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok || v.IsInt {
		return def
	}
	return v.Str
}

func (p *MemoryPrefs) Int(key string, def int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok || !v.IsInt {
		return def
	}
	return v.Int
}

// Lookup returns the raw value for key.
func (p *MemoryPrefs) Lookup(key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok {
		return "", ErrNotFound
	}
	if v.IsInt {
		return strconv.Itoa(v.Int), nil
	}
	return v.Str, nil
}

// Commits reports how many edits have been applied.
func (p *MemoryPrefs) Commits() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.commits
}

func (p *MemoryPrefs) Edit() Editor {
	return newEdit(func(values map[string]value) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		for k, v := range values {
			p.data[k] = v
		}
		p.commits++
		return nil
	})
}
