package engine

import (
	"os"
	"strings"
	"sync"
)

// FileLoader is the pluggable capability used to read raw template bytes.
type FileLoader interface {
	Load(path string) ([]byte, error)
}

// ExistsLoader is an optional capability reporting whether a path exists
// without reading it. Loaders that do not implement it are probed with Load.
type ExistsLoader interface {
	Exists(path string) bool
}

// OSLoader reads templates from the real filesystem.
type OSLoader struct{}

// Load reads the file at path.
func (OSLoader) Load(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists reports whether path exists on the filesystem.
func (OSLoader) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MapLoader serves templates from an in-memory map, keyed by path. It is
// used by tests and embedded deployments that carry their templates with
// the binary.
type MapLoader struct {
	templates map[string]string
	mu        sync.RWMutex
}

// NewMapLoader creates a loader over the given path-to-text map.
func NewMapLoader(templates map[string]string) *MapLoader {
	copied := make(map[string]string, len(templates))
	for path, text := range templates {
		copied[path] = text
	}
	return &MapLoader{templates: copied}
}

// Load returns the template text stored under path.
func (l *MapLoader) Load(path string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	text, ok := l.templates[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(text), nil
}

// Exists reports whether path is present in the map.
func (l *MapLoader) Exists(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.templates[path]
	return ok
}

// Set stores template text under path.
func (l *MapLoader) Set(path, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[path] = text
}

// decodeTemplate interprets raw loader bytes as UTF-8 text with a leading
// byte-order mark stripped.
func decodeTemplate(raw []byte) string {
	return strings.TrimPrefix(string(raw), "\ufeff")
}
