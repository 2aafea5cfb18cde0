package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"text/template"

	"github.com/williampany/pro-smarty/lexer"
)

// Compile turns template text into a callable renderer: the text is scanned
// into a directive stream, the stream is translated into renderer source and
// the source is loaded. In client mode the returned template carries the
// generated source only and cannot render.
//
// Include targets referenced with a string literal are resolved and compiled
// eagerly, so a missing include surfaces here rather than mid-render.
func (e *Engine) Compile(text string, opts *Options) (*Template, error) {
	opts = e.normalize(opts)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.RmWhitespace {
		text = stripWhitespace(text)
	}

	scanner := lexer.NewScanner(lexer.Config{
		Delimiter:      opts.Delimiter,
		OpenDelimiter:  opts.OpenDelimiter,
		CloseDelimiter: opts.CloseDelimiter,
	})
	segments, err := scanner.Scan(text)
	if err != nil {
		return nil, e.wrapScanError(err, text, opts)
	}

	gen := generate(segments, opts.CompileDebug)
	if opts.Debug {
		e.logger.Debug("generated renderer source",
			"template", opts.templateName(),
			"source", gen.source)
	}

	t := &Template{
		name:   opts.templateName(),
		text:   text,
		gen:    gen,
		opts:   opts,
		engine: e,
	}
	if opts.Client {
		return t, nil
	}

	tmpl, err := template.New(t.name).
		Option(missingKeyOption(opts.Strict)).
		Funcs(t.compileFuncs()).
		Parse(gen.source)
	if err != nil {
		line := gen.templateLine(templateErrorLine(err))
		var snippet string
		if opts.CompileDebug {
			snippet = formatSnippet(text, line)
		}
		return nil, newErrorAt(KindCompile, templateErrorMessage(err), t.name, line, snippet, err)
	}
	t.tmpl = tmpl

	for _, name := range gen.includes {
		if err := e.precompileInclude(name, opts); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CompileSource generates renderer source without loading it, the client-mode
// shortcut. Parse the result with BaseFuncs to obtain a callable.
func (e *Engine) CompileSource(text string, opts *Options) (string, error) {
	opts = e.normalize(opts)
	opts.Client = true
	t, err := e.Compile(text, opts)
	if err != nil {
		return "", err
	}
	return t.Source(), nil
}

// compileFile compiles the template stored at path, consulting the cache
// under the resolved absolute filename when caching is enabled.
func (e *Engine) compileFile(path string, opts *Options) (*Template, error) {
	key := cacheKey(path)
	if opts.Cache {
		if t, ok := e.cache.Get(key); ok {
			return t, nil
		}
	}

	raw, err := e.loader.Load(path)
	if err != nil {
		return nil, newErrorAt(KindResolution,
			fmt.Sprintf("could not read the template file %q", path),
			path, 0, "", err)
	}

	t, err := e.Compile(decodeTemplate(raw), opts)
	if err != nil {
		return nil, err
	}
	if opts.Cache {
		e.cache.Set(key, t)
	}
	return t, nil
}

// precompileInclude resolves and compiles a statically referenced include so
// resolution and syntax failures surface at compile time and the cache is
// warm before the first render.
func (e *Engine) precompileInclude(name string, parent *Options) error {
	if parent.includeDepth >= maxIncludeDepth {
		return NewError(KindCompile,
			fmt.Sprintf("include depth exceeded compiling %q, include cycle?", name))
	}
	path, err := e.findInclude(name, parent)
	if err != nil {
		return err
	}
	_, err = e.compileFile(path, parent.forInclude(path))
	return err
}

func (e *Engine) wrapScanError(err error, text string, opts *Options) error {
	var serr *lexer.ScanError
	if !errors.As(err, &serr) {
		return newErrorAt(KindSyntax, err.Error(), opts.templateName(), 0, "", err)
	}
	var snippet string
	if opts.CompileDebug {
		snippet = formatSnippet(text, serr.Line)
	}
	return newErrorAt(KindSyntax, serr.Message, opts.templateName(), serr.Line, snippet, err)
}

// missingKeyOption maps the strict flag onto the renderer's missing-key
// behavior: strict renders fail on undefined names, non-strict renders treat
// them as absent.
func missingKeyOption(strict bool) string {
	if strict {
		return "missingkey=error"
	}
	return "missingkey=zero"
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// templateErrorLine extracts the generated-source line from a text/template
// error message, whose position is rendered as ":line:" or ":line:col:".
var templateLinePattern = regexp.MustCompile(`:(\d+):`)

func templateErrorLine(err error) int {
	matches := templateLinePattern.FindAllStringSubmatch(err.Error(), -1)
	if len(matches) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(matches[0][1])
	return n
}

// templateErrorMessage strips the "template: name:line:" prefix so the
// message is not duplicated next to the remapped position.
var templateMsgPattern = regexp.MustCompile(`(?s)^template: .*?:\d+(?::\d+)?: (.*)$`)

func templateErrorMessage(err error) string {
	if m := templateMsgPattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return err.Error()
}
