// Package engine implements the template compilation pipeline: delimiter
// scanning, directive classification, code generation into an executable
// renderer, plus the cache and include-resolution logic that make repeated
// and nested compilation efficient.
//
// A template is compiled by translating its directive stream into Go
// text/template source, which is then loaded into a callable. Control
// directives splice text/template actions verbatim, so loops and
// conditionals use the action language of the generated renderer:
//
//	<ul>
//	<% range .items %>  <li><%= . %></li>
//	<% end %></ul>
package engine

import (
	"log/slog"
	"sync"
)

// Engine wires the compiler to its collaborators: the file loader, the
// template cache and the logger. The zero collaborators of New serve the
// common case; each is injectable.
type Engine struct {
	loader FileLoader
	cache  Cache
	logger *slog.Logger
}

// New creates an engine reading from the real filesystem, caching into an
// unbounded in-memory cache and logging through slog.Default.
func New() *Engine {
	return &Engine{
		loader: OSLoader{},
		cache:  NewMemoryCache(),
		logger: slog.Default(),
	}
}

// SetLoader replaces the file loader capability.
func (e *Engine) SetLoader(loader FileLoader) {
	if loader != nil {
		e.loader = loader
	}
}

// SetCache replaces the template cache capability.
func (e *Engine) SetCache(cache Cache) {
	if cache != nil {
		e.cache = cache
	}
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// CacheStore returns the engine's cache capability.
func (e *Engine) CacheStore() Cache {
	return e.cache
}

// ResetCache discards all cached renderers when the configured cache
// supports clearing. Intended for test isolation.
func (e *Engine) ResetCache() {
	type clearable interface{ Clear() }
	if c, ok := e.cache.(clearable); ok {
		c.Clear()
	}
}

var scopeDeprecationOnce sync.Once

// normalize fills defaults into a caller-supplied option record, returning a
// copy so the caller's record stays untouched.
func (e *Engine) normalize(opts *Options) *Options {
	if opts == nil {
		return DefaultOptions()
	}
	c := opts.clone()
	if c.Delimiter == "" {
		c.Delimiter = "%"
	}
	if c.OpenDelimiter == "" {
		c.OpenDelimiter = "<"
	}
	if c.CloseDelimiter == "" {
		c.CloseDelimiter = ">"
	}
	if c.LocalsName == "" {
		c.LocalsName = DefaultLocalsName
	}
	if c.Scope != nil {
		scopeDeprecationOnce.Do(func() {
			e.logger.Warn("option Scope is deprecated", "use", "Context")
		})
		if c.Context == nil {
			c.Context = c.Scope
		}
	}
	return c
}

func (e *Engine) pathExists(path string) bool {
	if el, ok := e.loader.(ExistsLoader); ok {
		return el.Exists(path)
	}
	_, err := e.loader.Load(path)
	return err == nil
}
