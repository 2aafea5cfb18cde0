package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"text/template"
)

// Template is a compiled renderer together with the source it was generated
// from. A Template is immutable after compilation and safe for concurrent
// renders; each render executes a clone carrying its own data-bound func set.
type Template struct {
	name   string
	text   string
	gen    generated
	opts   *Options
	engine *Engine
	tmpl   *template.Template
}

// Name returns the template name, the originating filename when there is one.
func (t *Template) Name() string {
	return t.name
}

// Text returns the template text the renderer was compiled from, after
// whitespace stripping when that option was set.
func (t *Template) Text() string {
	return t.text
}

// Source returns the generated renderer source. For a client-mode template
// this is the compilation artifact; parse it with BaseFuncs to obtain a
// callable.
func (t *Template) Source() string {
	return t.gen.source
}

// Render executes the renderer against data and returns the accumulated
// output. Output produced before a mid-render failure is discarded.
func (t *Template) Render(data map[string]any) (string, error) {
	return t.render(data, 0)
}

// RenderTo executes the renderer against data, writing the output to w in a
// single write once the render has fully succeeded.
func (t *Template) RenderTo(w io.Writer, data map[string]any) error {
	return t.renderTo(w, data, 0)
}

func (t *Template) render(data map[string]any, depth int) (string, error) {
	var buf bytes.Buffer
	if err := t.renderTo(&buf, data, depth); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderTo carries the nesting depth of the render: it starts at zero for a
// caller-initiated render and grows by one per nested include, independent
// of any depth the template was originally compiled at. A cached renderer
// keeps its compile-time options, so the render-time depth must travel with
// the call, not with the template.
func (t *Template) renderTo(w io.Writer, data map[string]any, depth int) (err error) {
	if t.tmpl == nil {
		return NewError(KindConfiguration, "client-mode template has no callable renderer")
	}
	defer func() {
		if r := recover(); r != nil {
			err = newErrorAt(KindRender,
				fmt.Sprintf("panic during render: %v", r),
				t.name, 0, "", nil)
		}
	}()

	tmpl, cloneErr := t.tmpl.Clone()
	if cloneErr != nil {
		return newErrorAt(KindRender, cloneErr.Error(), t.name, 0, "", cloneErr)
	}
	// Clone drops neither funcs nor options, but the include func must close
	// over this render's data, and Option is re-applied for clarity.
	tmpl = tmpl.Option(missingKeyOption(t.opts.Strict)).Funcs(t.renderFuncs(data, depth))

	var buf bytes.Buffer
	if execErr := tmpl.Execute(&buf, t.bind(data)); execErr != nil {
		return t.wrapExecError(execErr)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// bind builds the render dot. Non-strict renders expose every data key as an
// implicit binding alongside the locals name; strict renders expose the
// locals name only.
func (t *Template) bind(data map[string]any) map[string]any {
	dot := make(map[string]any, len(data)+1)
	if !t.opts.Strict {
		for k, v := range data {
			dot[k] = v
		}
	}
	dot[t.opts.LocalsName] = data
	return dot
}

// compileFuncs is the func set the renderer source is parsed with: the base
// set with the configuration context bound, plus the user funcs, which win
// on collision. The base include placeholder is rebound per render.
func (t *Template) compileFuncs() template.FuncMap {
	funcs := BaseFuncs()
	funcs["context"] = func() any { return t.opts.Context }
	for name, fn := range t.opts.Funcs {
		funcs[name] = fn
	}
	return funcs
}

// renderFuncs rebinds include for one render: the included template sees the
// parent's data, overlaid with an optional dict argument, and inherits the
// render's nesting depth.
func (t *Template) renderFuncs(data map[string]any, depth int) template.FuncMap {
	return template.FuncMap{
		"include": func(name string, extra ...any) (string, error) {
			merged := make(map[string]any, len(data)+1)
			for k, v := range data {
				merged[k] = v
			}
			if len(extra) > 0 {
				m, ok := extra[0].(map[string]any)
				if !ok {
					return "", NewError(KindRender,
						fmt.Sprintf("include %q: data argument must be a map, use dict", name))
				}
				for k, v := range m {
					merged[k] = v
				}
			}
			return t.engine.includeFile(name, t.opts, merged, depth)
		},
	}
}

// wrapExecError converts a text/template execution failure into a render
// error positioned on the template line. Failures that are already engine
// errors, such as a failed nested include, pass through unwrapped.
func (t *Template) wrapExecError(err error) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}

	line := t.gen.templateLine(templateErrorLine(err))
	var snippet string
	if t.opts.CompileDebug {
		snippet = formatSnippet(t.text, line)
	}
	return newErrorAt(KindRender, templateErrorMessage(err), t.name, line, snippet, err)
}
