package engine

import (
	"fmt"
)

// RenderCallback receives the outcome of RenderFile. Exactly one of the
// arguments is meaningful: a nil error with the rendered output, or a
// non-nil error with an empty output.
type RenderCallback func(err error, output string)

// Render compiles text under opts and renders it against data. With caching
// enabled the compiled renderer is reused across calls keyed by the resolved
// filename. Empty text falls back to loading opts.Filename.
func (e *Engine) Render(text string, data map[string]any, opts *Options) (string, error) {
	opts = e.normalize(opts)
	if opts.Cache && opts.Filename == "" {
		return "", NewError(KindConfiguration, "caching requires the filename option")
	}

	if text == "" {
		if opts.Filename == "" {
			return "", NewError(KindConfiguration, "neither template text nor a filename was supplied")
		}
		t, err := e.compileFile(opts.Filename, opts)
		if err != nil {
			return "", err
		}
		return t.Render(data)
	}

	if opts.Cache {
		key := cacheKey(opts.Filename)
		if t, ok := e.cache.Get(key); ok {
			return t.Render(data)
		}
		t, err := e.Compile(text, opts)
		if err != nil {
			return "", err
		}
		e.cache.Set(key, t)
		return t.Render(data)
	}

	t, err := e.Compile(text, opts)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// RenderFile loads, compiles and renders the template stored at filename and
// delivers the outcome through cb. The callback is invoked exactly once; no
// failure, including a panic in a user func, escapes synchronously.
func (e *Engine) RenderFile(filename string, data map[string]any, opts *Options, cb RenderCallback) {
	if cb == nil {
		cb = func(error, string) {}
	}

	var out string
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = NewError(KindRender, fmt.Sprintf("panic rendering %q: %v", filename, r))
			}
		}()
		o := e.normalize(opts)
		o.Filename = filename
		o.IsDirectory = false
		out, err = e.Render("", data, o)
	}()

	if err != nil {
		cb(err, "")
		return
	}
	cb(nil, out)
}

// IncludeRecord is the compilation artifact of a single include target.
type IncludeRecord struct {
	// Source is the generated renderer source, a client-mode artifact.
	Source string
	// Filename is the resolved path of the include target.
	Filename string
	// Template is the raw template text the source was generated from.
	Template string
}

// IncludeSource resolves an include target under opts and returns its
// generated renderer source without loading it, for embedding elsewhere.
func (e *Engine) IncludeSource(name string, opts *Options) (*IncludeRecord, error) {
	opts = e.normalize(opts)
	path, err := e.findInclude(name, opts)
	if err != nil {
		return nil, err
	}
	raw, err := e.loader.Load(path)
	if err != nil {
		return nil, newErrorAt(KindResolution,
			fmt.Sprintf("could not read the include file %q", path),
			path, 0, "", err)
	}

	sub := opts.forInclude(path)
	sub.Client = true
	t, err := e.Compile(decodeTemplate(raw), sub)
	if err != nil {
		return nil, err
	}
	return &IncludeRecord{Source: t.Source(), Filename: path, Template: t.Text()}, nil
}

// includeFile resolves, compiles and renders a nested include against the
// merged data of the including render. depth is the nesting depth of the
// including render; it bounds cycles even when the compiled include comes
// out of the cache.
func (e *Engine) includeFile(name string, parent *Options, data map[string]any, depth int) (string, error) {
	if depth >= maxIncludeDepth {
		return "", NewError(KindRender,
			fmt.Sprintf("include depth exceeded rendering %q, include cycle?", name))
	}
	path, err := e.findInclude(name, parent)
	if err != nil {
		return "", err
	}
	t, err := e.compileFile(path, parent.forInclude(path))
	if err != nil {
		return "", err
	}
	return t.render(data, depth+1)
}
