// Package prosmarty is an embedded template engine: templates mix literal
// text with delimited directives that escape, splice or evaluate values, and
// compile into callable renderers.
package prosmarty

import (
	"text/template"

	"github.com/williampany/pro-smarty/engine"
)

// Version of the prosmarty library
const Version = "1.0.0"

// Engine drives compilation, caching and include resolution.
type Engine = engine.Engine

// Template represents a compiled renderer.
type Template = engine.Template

// Options is the per-call compilation configuration.
type Options = engine.Options

// Cache is the pluggable template cache capability.
type Cache = engine.Cache

// MemoryCache is the default unbounded in-memory cache.
type MemoryCache = engine.MemoryCache

// LRUCache is a bounded cache evicting least recently used renderers.
type LRUCache = engine.LRUCache

// FileLoader is the pluggable template storage capability.
type FileLoader = engine.FileLoader

// OSLoader reads templates from the real filesystem.
type OSLoader = engine.OSLoader

// MapLoader serves templates from an in-memory map, for tests and embedding.
type MapLoader = engine.MapLoader

// IncludeRecord is the compilation artifact of a single include target.
type IncludeRecord = engine.IncludeRecord

// RenderCallback receives the outcome of RenderFile.
type RenderCallback = engine.RenderCallback

// Error types

// Error represents an engine error.
type Error = engine.Error

// Kind represents the class of an engine error.
type Kind = engine.Kind

const (
	KindSyntax        = engine.KindSyntax
	KindCompile       = engine.KindCompile
	KindResolution    = engine.KindResolution
	KindConfiguration = engine.KindConfiguration
	KindRender        = engine.KindRender
)

// IsSyntaxError checks whether err is a scanning or classification failure.
func IsSyntaxError(err error) bool { return engine.IsSyntaxError(err) }

// IsCompileError checks whether err is a code generation or load failure.
func IsCompileError(err error) bool { return engine.IsCompileError(err) }

// IsResolutionError checks whether err is an include resolution failure.
func IsResolutionError(err error) bool { return engine.IsResolutionError(err) }

// IsConfigurationError checks whether err is an invalid option combination.
func IsConfigurationError(err error) bool { return engine.IsConfigurationError(err) }

// IsRenderError checks whether err is a runtime failure of a compiled renderer.
func IsRenderError(err error) bool { return engine.IsRenderError(err) }

var defaultEngine = engine.New()

// Default returns the package-level engine behind the top-level functions.
func Default() *Engine {
	return defaultEngine
}

// NewEngine creates an independent engine with its own loader and cache.
func NewEngine() *Engine {
	return engine.New()
}

// DefaultOptions returns the option record used when none is supplied.
func DefaultOptions() *Options {
	return engine.DefaultOptions()
}

// BaseFuncs returns the func set generated renderer source depends on, for
// loading client-mode source elsewhere.
func BaseFuncs() template.FuncMap {
	return engine.BaseFuncs()
}

// Compile turns template text into a callable renderer.
func Compile(text string, opts *Options) (*Template, error) {
	return defaultEngine.Compile(text, opts)
}

// CompileSource generates renderer source without loading it.
func CompileSource(text string, opts *Options) (string, error) {
	return defaultEngine.CompileSource(text, opts)
}

// Render compiles text under opts and renders it against data.
func Render(text string, data map[string]any, opts *Options) (string, error) {
	return defaultEngine.Render(text, data, opts)
}

// RenderFile loads, compiles and renders the template stored at filename,
// delivering the outcome through cb exactly once.
func RenderFile(filename string, data map[string]any, opts *Options, cb RenderCallback) {
	defaultEngine.RenderFile(filename, data, opts, cb)
}

// ResolveInclude resolves an include target against the current file.
func ResolveInclude(name, filename string, isDir bool) string {
	return engine.ResolveInclude(name, filename, isDir)
}

// IncludeSource resolves an include target and returns its generated
// renderer source without loading it.
func IncludeSource(name string, opts *Options) (*IncludeRecord, error) {
	return defaultEngine.IncludeSource(name, opts)
}

// ClearDefaultCache discards every renderer cached by the package-level
// engine. Intended for test isolation.
func ClearDefaultCache() {
	defaultEngine.ResetCache()
}
