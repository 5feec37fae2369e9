package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// FilePrefs persists a namespace as a TOML document. Every commit rewrites
// the whole file through a temp file and rename, so readers only ever see a
// complete previous or complete next version.
type FilePrefs struct {
	path string

	mu   sync.RWMutex
	data map[string]value
}

type prefsDocument struct {
	Strings map[string]string `toml:"strings"`
	Ints    map[string]int    `toml:"ints"`
}

// OpenFilePrefs loads the namespace stored in dir/<namespace>.toml. A missing
// file yields an empty namespace; the file is created on first commit. A file
// that does not parse is renamed to <namespace>.toml.corrupt and the
// namespace starts empty.
func OpenFilePrefs(dir, namespace string) (*FilePrefs, error) {
	p := &FilePrefs{
		path: filepath.Join(dir, namespace+".toml"),
		data: make(map[string]value),
	}

	raw, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs %s: %w", p.path, err)
	}

	var doc prefsDocument
	if err := toml.Unmarshal(raw, &doc); err != nil {
		// An unreadable namespace loads as empty; the bad file is kept aside.
		log.Printf("store: ERROR: parse prefs %s: %v; starting empty", p.path, err)
		if err := os.Rename(p.path, p.path+".corrupt"); err != nil {
			log.Printf("store: ERROR: move aside %s: %v", p.path, err)
		}
		return p, nil
	}
	for k, v := range doc.Strings {
		p.data[k] = value{Str: v}
	}
	for k, v := range doc.Ints {
		p.data[k] = value{Int: v, IsInt: true}
	}
	return p, nil
}

// Path returns the backing file.
func (p *FilePrefs) Path() string { return p.path }

func (p *FilePrefs) String(key, def string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok || v.IsInt {
		return def
	}
	return v.Str
}

func (p *FilePrefs) Int(key string, def int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok || !v.IsInt {
		return def
	}
	return v.Int
}

func (p *FilePrefs) Edit() Editor {
	return newEdit(p.commit)
}

func (p *FilePrefs) commit(values map[string]value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := make(map[string]value, len(p.data)+len(values))
	for k, v := range p.data {
		next[k] = v
	}
	for k, v := range values {
		next[k] = v
	}

	if err := p.write(next); err != nil {
		return err
	}
	p.data = next
	return nil
}

func (p *FilePrefs) write(data map[string]value) error {
	doc := prefsDocument{
		Strings: make(map[string]string),
		Ints:    make(map[string]int),
	}
	for k, v := range data {
		if v.IsInt {
			doc.Ints[k] = v.Int
		} else {
			doc.Strings[k] = v.Str
		}
	}

	raw, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp prefs: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp prefs: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
