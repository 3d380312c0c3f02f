// Package memory is the daemon's persistent recall of fixes that worked.
//
// It maps a stable problem key (e.g. "nas_down") to the one command that last
// resolved it. The mapping lives in a flat JSON file that is loaded fully at
// startup and rewritten fully on every learn. Entries are only ever written
// on a fresh AI-derived success; the engine never deletes them (purging is a
// manual, external operation).
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PersistenceError means the cache file could not be written. Non-fatal: the
// in-memory entry is kept, so remediation still benefits within this process
// lifetime.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("fix cache persist failed (%s): %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FixMemory is a durable mapping from problem key to a previously successful
// remediation command.
type FixMemory struct {
	mu    sync.Mutex
	path  string
	fixes map[string]string
}

// Load opens the fix cache at path. An absent, unreadable, or malformed file
// is treated as an empty mapping rather than a startup failure; losing the
// memory degrades to asking the AI again, which is always safe.
func Load(path string) *FixMemory {
	m := &FixMemory{
		path:  path,
		fixes: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("FixMemory: cache unreadable, starting empty: %v\n", err)
		}
		return m
	}
	if err := json.Unmarshal(data, &m.fixes); err != nil {
		fmt.Printf("FixMemory: cache malformed, starting empty: %v\n", err)
		m.fixes = make(map[string]string)
	}
	return m
}

// Get is a pure lookup with no side effects.
func (m *FixMemory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd, ok := m.fixes[key]
	return cmd, ok
}

// Learn records that command fixed the problem identified by key, replacing
// any previous entry, and persists the whole mapping. The in-memory update
// always succeeds; a persistence failure is returned as *PersistenceError and
// the entry is kept.
func (m *FixMemory) Learn(key, command string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fixes[key] = command
	return m.persistLocked()
}

// Forget removes the entry for key and persists. This is the external purge
// path; the remediation engine itself never forgets.
func (m *FixMemory) Forget(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.fixes[key]; !ok {
		return nil
	}
	delete(m.fixes, key)
	return m.persistLocked()
}

// Entries returns a copy of the mapping.
func (m *FixMemory) Entries() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.fixes))
	for k, v := range m.fixes {
		out[k] = v
	}
	return out
}

// Len returns the number of learned fixes.
func (m *FixMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fixes)
}

// persistLocked rewrites the cache file atomically via a temp file and
// rename. Must be called with m.mu held.
func (m *FixMemory) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return &PersistenceError{Path: m.path, Err: err}
	}

	data, err := json.MarshalIndent(m.fixes, "", "  ")
	if err != nil {
		return &PersistenceError{Path: m.path, Err: err}
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &PersistenceError{Path: m.path, Err: err}
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return &PersistenceError{Path: m.path, Err: err}
	}
	return nil
}
