// Package store persists the watch face's small key-value state: a
// SharedPreferences-like namespace of string and integer values, and the
// weather state kept on top of it.
package store

import "errors"

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("no value for key")
)

// Prefs is a namespace of persisted string and integer values.
type Prefs interface {
	// String returns the value for key, or def when missing.
	String(key, def string) string
	// Int returns the value for key, or def when missing or not an integer.
	Int(key string, def int) int
	// Edit starts a batch of writes that become visible together on Commit.
	Edit() Editor
}

// Editor batches writes to a Prefs namespace.
type Editor interface {
	PutString(key, value string) Editor
	PutInt(key string, value int) Editor
	Commit() error
}

// value is one persisted entry. Exactly one of the fields is meaningful,
// chosen by IsInt.
type value struct {
	Str   string
	Int   int
	IsInt bool
}

type pendingEdit struct {
	values map[string]value
	commit func(map[string]value) error
}

func newEdit(commit func(map[string]value) error) *pendingEdit {
	return &pendingEdit{values: make(map[string]value), commit: commit}
}

func (e *pendingEdit) PutString(key, v string) Editor {
	e.values[key] = value{Str: v}
	return e
}

func (e *pendingEdit) PutInt(key string, v int) Editor {
	e.values[key] = value{Int: v, IsInt: true}
	return e
}

func (e *pendingEdit) Commit() error {
	return e.commit(e.values)
}
