package engine

import (
	"text/template"
)

// DefaultExtension is appended to include targets that carry no extension.
const DefaultExtension = ".html"

// DefaultLocalsName is the identifier under which the data context is exposed.
const DefaultLocalsName = "locals"

// maxIncludeDepth bounds nested include compilation, guarding include cycles.
const maxIncludeDepth = 64

// Options is the per-call compilation configuration. It is treated as
// immutable once a compile or render call starts; derived configurations
// (such as those for nested includes) are built from copies.
type Options struct {
	// Delimiter is the directive character, "%" by default.
	Delimiter string
	// OpenDelimiter is the character opening a directive, "<" by default.
	OpenDelimiter string
	// CloseDelimiter is the character closing a directive, ">" by default.
	CloseDelimiter string

	// Context is the value exposed to directives through the context func.
	Context any
	// Scope is a deprecated alias for Context.
	//
	// Deprecated: use Context.
	Scope any

	// LocalsName is the identifier binding the data context, "locals" by
	// default.
	LocalsName string

	// Debug logs the generated renderer source through the engine logger.
	Debug bool
	// CompileDebug retains source-position annotations so that compile and
	// render failures report template-relative lines with a source snippet.
	// DefaultOptions enables it.
	CompileDebug bool

	// Client emits the generated renderer source instead of loading it into
	// a callable.
	Client bool

	// RmWhitespace strips safe-to-remove whitespace from the template text
	// before scanning: newline runs collapse and every line loses leading
	// and trailing whitespace.
	RmWhitespace bool

	// Strict disallows implicit bindings: the data context must be
	// referenced through LocalsName, and undefined names fail the render.
	Strict bool

	// Filename is the originating path of the template text, used for cache
	// keying and relative include resolution.
	Filename string
	// IsDirectory marks Filename as a directory for include resolution.
	IsDirectory bool

	// Views lists the include search roots, tried in order after the
	// current file's directory.
	Views []string

	// Root is the resolution base for absolute-style include paths,
	// the filesystem root by default.
	Root string

	// Cache enables the template cache; requires Filename.
	Cache bool

	// Funcs are user functions merged over the base func set.
	Funcs template.FuncMap

	includeDepth int
}

// DefaultOptions returns the option record used when none is supplied.
func DefaultOptions() *Options {
	return &Options{
		Delimiter:      "%",
		OpenDelimiter:  "<",
		CloseDelimiter: ">",
		LocalsName:     DefaultLocalsName,
		CompileDebug:   true,
	}
}

// clone returns a copy of o. Slices and maps are copied shallowly so the
// copy can be adjusted without mutating the original record.
func (o *Options) clone() *Options {
	c := *o
	if o.Views != nil {
		c.Views = append([]string(nil), o.Views...)
	}
	if o.Funcs != nil {
		c.Funcs = make(template.FuncMap, len(o.Funcs))
		for name, fn := range o.Funcs {
			c.Funcs[name] = fn
		}
	}
	return &c
}

// forInclude derives the option record for a nested include resolved to path.
func (o *Options) forInclude(path string) *Options {
	c := o.clone()
	c.Filename = path
	c.IsDirectory = false
	c.Client = false
	c.includeDepth = o.includeDepth + 1
	return c
}

func (o *Options) validate() error {
	if len(o.Delimiter) != 1 {
		return NewError(KindConfiguration, "delimiter must be a single character")
	}
	if len(o.OpenDelimiter) != 1 || len(o.CloseDelimiter) != 1 {
		return NewError(KindConfiguration, "open and close delimiters must be single characters")
	}
	return nil
}

func (o *Options) templateName() string {
	if o.Filename != "" {
		return o.Filename
	}
	return "template"
}
