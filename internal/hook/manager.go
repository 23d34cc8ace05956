package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ManifestFile is the name of the manifest inside each hook directory.
const ManifestFile = "hook.json"

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manager manages hook discovery and access.
type Manager struct {
	hookDir string
	hooks   map[string]*Hook
	mu      sync.RWMutex
}

// NewManager creates a new hook Manager rooted at hookDir.
func NewManager(hookDir string) *Manager {
	return &Manager{
		hookDir: hookDir,
		hooks:   make(map[string]*Hook),
	}
}

// Discover scans the hook directory. Each subdirectory holding a hook.json
// manifest with a name and executable becomes a hook; everything else is skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	if m.hookDir == "" {
		return nil
	}
	info, err := os.Stat(m.hookDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat hook dir: %w", err)
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.hookDir)
	if err != nil {
		return fmt.Errorf("read hook dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		hookPath := filepath.Join(m.hookDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(hookPath, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			continue
		}

		m.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		}
	}

	return nil
}

// Get returns a hook by name.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns the discovered hooks sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Manifest.Name < hooks[j].Manifest.Name
	})
	return hooks
}

// Subscribers returns the hooks that want the given event type.
func (m *Manager) Subscribers(eventType string) []*Hook {
	var out []*Hook
	for _, h := range m.List() {
		if h.Wants(eventType) {
			out = append(out, h)
		}
	}
	return out
}

// HookDir returns the hook directory path.
func (m *Manager) HookDir() string {
	return m.hookDir
}
