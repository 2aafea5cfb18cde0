package engine

import (
	"strings"
	"sync"
	"testing"
)

func testEngine(templates map[string]string) *Engine {
	e := New()
	e.SetLoader(NewMapLoader(templates))
	return e
}

func mustRender(t *testing.T, e *Engine, text string, data map[string]any, opts *Options) string {
	t.Helper()
	out, err := e.Render(text, data, opts)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	return out
}

func TestRenderBasics(t *testing.T) {
	e := testEngine(nil)

	tests := []struct {
		name string
		src  string
		data map[string]any
		opts *Options
		want string
	}{
		{
			name: "literal text is identity",
			src:  "plain text, no directives",
			want: "plain text, no directives",
		},
		{
			name: "escaped output",
			src:  "Hello <%= .name %>!",
			data: map[string]any{"name": "<b>Go</b>"},
			want: "Hello &lt;b&gt;Go&lt;/b&gt;!",
		},
		{
			name: "raw output",
			src:  "Hello <%- .name %>!",
			data: map[string]any{"name": "<b>Go</b>"},
			want: "Hello <b>Go</b>!",
		},
		{
			name: "absent value renders empty",
			src:  "a<%= .missing %>b",
			want: "ab",
		},
		{
			name: "comment leaves no trace",
			src:  "a<%# internal note %>b",
			want: "ab",
		},
		{
			name: "locals binding",
			src:  "<%= .locals.name %>",
			data: map[string]any{"name": "Go"},
			want: "Go",
		},
		{
			name: "range over items",
			src:  "<ul><% range .items %><li><%= . %></li><% end %></ul>",
			data: map[string]any{"items": []any{"a", "b"}},
			want: "<ul><li>a</li><li>b</li></ul>",
		},
		{
			name: "conditional",
			src:  "<% if .ok %>yes<% else %>no<% end %>",
			data: map[string]any{"ok": true},
			want: "yes",
		},
		{
			name: "newline trim marker",
			src:  "<%= .v -%>\nnext",
			data: map[string]any{"v": "X"},
			want: "Xnext",
		},
		{
			name: "plain close keeps the newline",
			src:  "<%= .v %>\nnext",
			data: map[string]any{"v": "X"},
			want: "X\nnext",
		},
		{
			name: "slurp markers trim surrounding whitespace",
			src:  "a \n<%_ .locals.v _%>\n b",
			data: map[string]any{"v": "X"},
			want: "aXb",
		},
		{
			name: "literal marker escapes",
			src:  "<%% .v %%>",
			want: "<% .v %>",
		},
		{
			name: "action delimiters in text stay text",
			src:  "use {{ braces }}",
			want: "use {{ braces }}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRender(t, e, tt.src, tt.data, tt.opts)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderCustomDelimiters(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Delimiter = "$"
	opts.OpenDelimiter = "["
	opts.CloseDelimiter = "]"

	got := mustRender(t, e, "Hello [$= .name $]!", map[string]any{"name": "Go"}, opts)
	if got != "Hello Go!" {
		t.Errorf("got %q, want %q", got, "Hello Go!")
	}
}

func TestRenderCustomLocalsName(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.LocalsName = "it"

	got := mustRender(t, e, "<%= .it.name %>", map[string]any{"name": "Go"}, opts)
	if got != "Go" {
		t.Errorf("got %q, want %q", got, "Go")
	}
}

func TestRenderStrict(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Strict = true

	got := mustRender(t, e, "<%= .locals.name %>", map[string]any{"name": "Go"}, opts)
	if got != "Go" {
		t.Errorf("locals reference: got %q, want %q", got, "Go")
	}

	if _, err := e.Render("<%= .name %>", map[string]any{"name": "Go"}, opts); !IsRenderError(err) {
		t.Errorf("implicit binding under strict: got %v, want render error", err)
	}
	if _, err := e.Render("<%= .locals.missing %>", map[string]any{}, opts); !IsRenderError(err) {
		t.Errorf("undefined name under strict: got %v, want render error", err)
	}
}

func TestRenderErrorPosition(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Strict = true

	_, err := e.Render("line1\n<%= .locals.missing %>\nline3", map[string]any{}, opts)
	if err == nil {
		t.Fatal("Render succeeded, want error")
	}
	engineErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error is %T, want *Error", err)
	}
	if engineErr.Kind != KindRender {
		t.Errorf("kind: got %v, want %v", engineErr.Kind, KindRender)
	}
	if engineErr.Line != 2 {
		t.Errorf("line: got %d, want 2", engineErr.Line)
	}
	if !strings.Contains(engineErr.Snippet, ">>") {
		t.Errorf("snippet missing failing-line marker: %q", engineErr.Snippet)
	}
}

func TestRenderContextFunc(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Context = "request-77"

	got := mustRender(t, e, "<%= context %>", nil, opts)
	if got != "request-77" {
		t.Errorf("got %q, want %q", got, "request-77")
	}
}

func TestRenderUserFuncs(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Funcs = map[string]any{"upper": strings.ToUpper}

	got := mustRender(t, e, "<%= upper .locals.name %>", map[string]any{"name": "go"}, opts)
	if got != "GO" {
		t.Errorf("got %q, want %q", got, "GO")
	}
}

func TestRenderUserFuncPanicBecomesRenderError(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Funcs = map[string]any{"boom": func() string { panic("kaboom") }}

	_, err := e.Render("<%= boom %>", nil, opts)
	if !IsRenderError(err) {
		t.Errorf("got %v, want render error", err)
	}
}

func TestRenderRmWhitespace(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.RmWhitespace = true

	got := mustRender(t, e, "  a  \n\n\n  <%= .v %>  ", map[string]any{"v": "X"}, opts)
	if got != "a\nX" {
		t.Errorf("got %q, want %q", got, "a\nX")
	}
}

func TestRenderConfigurationErrors(t *testing.T) {
	e := testEngine(nil)

	if _, err := e.Render("x", nil, &Options{Cache: true}); !IsConfigurationError(err) {
		t.Errorf("cache without filename: got %v, want configuration error", err)
	}
	if _, err := e.Render("", nil, nil); !IsConfigurationError(err) {
		t.Errorf("no text, no filename: got %v, want configuration error", err)
	}
	if _, err := e.Render("x", nil, &Options{Delimiter: "%%"}); !IsConfigurationError(err) {
		t.Errorf("multi-character delimiter: got %v, want configuration error", err)
	}
}

func TestCompileSyntaxError(t *testing.T) {
	e := testEngine(nil)

	_, err := e.Compile("ok\n<%= .v", nil)
	if !IsSyntaxError(err) {
		t.Fatalf("got %v, want syntax error", err)
	}
	if engineErr := err.(*Error); engineErr.Line != 2 {
		t.Errorf("line: got %d, want 2", engineErr.Line)
	}
}

func TestCompileError(t *testing.T) {
	e := testEngine(nil)

	_, err := e.Compile("<% end %>", nil)
	if !IsCompileError(err) {
		t.Errorf("got %v, want compile error", err)
	}
}

func TestClientMode(t *testing.T) {
	e := testEngine(nil)

	src, err := e.CompileSource("Hi <%= .name %>", nil)
	if err != nil {
		t.Fatalf("CompileSource error: %v", err)
	}
	if !strings.Contains(src, "{{escape (") {
		t.Errorf("generated source: got %q", src)
	}

	opts := DefaultOptions()
	opts.Client = true
	tpl, err := e.Compile("Hi <%= .name %>", opts)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if _, err := tpl.Render(nil); !IsConfigurationError(err) {
		t.Errorf("rendering a client-mode template: got %v, want configuration error", err)
	}
}

func TestRenderInclude(t *testing.T) {
	e := testEngine(map[string]string{
		"/site/index.html":   `Hello <% include "partial" %>!`,
		"/site/partial.html": `<%= .name %>`,
	})

	var got string
	e.RenderFile("/site/index.html", map[string]any{"name": "Go"}, nil, func(err error, output string) {
		if err != nil {
			t.Fatalf("RenderFile error: %v", err)
		}
		got = output
	})
	if got != "Hello Go!" {
		t.Errorf("got %q, want %q", got, "Hello Go!")
	}
}

func TestRenderIncludeDataOverlay(t *testing.T) {
	e := testEngine(map[string]string{
		"/site/index.html":   `<% include "partial" (dict "title" "Hi") %>`,
		"/site/partial.html": `<%= .title %>-<%= .name %>`,
	})

	var got string
	e.RenderFile("/site/index.html", map[string]any{"name": "Go"}, nil, func(err error, output string) {
		if err != nil {
			t.Fatalf("RenderFile error: %v", err)
		}
		got = output
	})
	if got != "Hi-Go" {
		t.Errorf("got %q, want %q", got, "Hi-Go")
	}
}

func TestCompileMissingIncludeFails(t *testing.T) {
	e := testEngine(map[string]string{
		"/site/index.html": "unused",
	})

	opts := DefaultOptions()
	opts.Filename = "/site/index.html"

	_, err := e.Compile(`<% include "nope" %>`, opts)
	if !IsResolutionError(err) {
		t.Errorf("got %v, want resolution error", err)
	}
}

func TestRenderDynamicIncludeMiss(t *testing.T) {
	e := testEngine(nil)
	opts := DefaultOptions()
	opts.Filename = "/site/index.html"

	_, err := e.Render(`<% include .locals.p %>`, map[string]any{"p": "nope"}, opts)
	if !IsResolutionError(err) {
		t.Errorf("got %v, want resolution error", err)
	}
}

func TestRenderIncludeCycleFails(t *testing.T) {
	e := testEngine(map[string]string{
		"/site/a.html": `<% include "b" %>`,
		"/site/b.html": `<% include "a" %>`,
	})

	var got error
	e.RenderFile("/site/a.html", nil, nil, func(err error, output string) {
		got = err
	})
	if got == nil {
		t.Fatal("include cycle rendered successfully")
	}
	if !strings.Contains(got.Error(), "include depth exceeded") {
		t.Errorf("got %q", got.Error())
	}
}

func TestRenderDynamicIncludeCycleWithCache(t *testing.T) {
	// A template including itself through a data-driven name comes out of
	// the cache on every nesting level; the depth bound must still hold and
	// the failure must reach the callback.
	e := testEngine(map[string]string{
		"/site/loop.html": `<% include .locals.next %>`,
	})

	opts := DefaultOptions()
	opts.Cache = true

	var got error
	calls := 0
	e.RenderFile("/site/loop.html", map[string]any{"next": "loop"}, opts, func(err error, output string) {
		calls++
		got = err
	})
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
	if got == nil {
		t.Fatal("include cycle rendered successfully")
	}
	if !strings.Contains(got.Error(), "include depth exceeded") {
		t.Errorf("got %q", got.Error())
	}
}

func TestRenderMutualIncludeCycleWithCache(t *testing.T) {
	e := testEngine(map[string]string{
		"/site/a.html": `<% include .locals.toB %>`,
		"/site/b.html": `<% include .locals.toA %>`,
	})

	opts := DefaultOptions()
	opts.Cache = true
	data := map[string]any{"toA": "a", "toB": "b"}

	var got error
	e.RenderFile("/site/a.html", data, opts, func(err error, output string) {
		got = err
	})
	if got == nil {
		t.Fatal("include cycle rendered successfully")
	}
	if !strings.Contains(got.Error(), "include depth exceeded") {
		t.Errorf("got %q", got.Error())
	}
}

func TestRenderFileMissing(t *testing.T) {
	e := testEngine(nil)

	calls := 0
	e.RenderFile("/site/nope.html", nil, nil, func(err error, output string) {
		calls++
		if !IsResolutionError(err) {
			t.Errorf("got %v, want resolution error", err)
		}
		if output != "" {
			t.Errorf("output alongside error: %q", output)
		}
	})
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
}

func TestRenderFileBOM(t *testing.T) {
	e := testEngine(map[string]string{
		"/site/bom.html": "\ufefftext",
	})

	e.RenderFile("/site/bom.html", nil, nil, func(err error, output string) {
		if err != nil {
			t.Fatalf("RenderFile error: %v", err)
		}
		if output != "text" {
			t.Errorf("got %q, want %q", output, "text")
		}
	})
}

func TestRenderTo(t *testing.T) {
	e := testEngine(nil)

	tpl, err := e.Compile("Hi <%= .name %>", nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	var sb strings.Builder
	if err := tpl.RenderTo(&sb, map[string]any{"name": "Go"}); err != nil {
		t.Fatalf("RenderTo error: %v", err)
	}
	if sb.String() != "Hi Go" {
		t.Errorf("got %q, want %q", sb.String(), "Hi Go")
	}
}

func TestRenderConcurrent(t *testing.T) {
	e := testEngine(nil)

	tpl, err := e.Compile("v=<%= .locals.v %>", nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			out, err := tpl.Render(map[string]any{"v": v})
			if err != nil {
				t.Errorf("Render error: %v", err)
				return
			}
			if out != "v="+v {
				t.Errorf("got %q, want %q", out, "v="+v)
			}
		}(strings.Repeat("x", i+1))
	}
	wg.Wait()
}

func TestRenderDeterministic(t *testing.T) {
	e := testEngine(nil)

	tpl, err := e.Compile("<% range .items %><%= . %>,<% end %>", nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	data := map[string]any{"items": []any{1, 2, 3}}
	first, err := tpl.Render(data)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := tpl.Render(data)
		if err != nil {
			t.Fatalf("Render error: %v", err)
		}
		if again != first {
			t.Errorf("render %d diverged: %q vs %q", i, again, first)
		}
	}
}

func TestIncludeSource(t *testing.T) {
	e := testEngine(map[string]string{
		"/views/partial.html": "Hi <%= .name %>",
	})

	opts := DefaultOptions()
	opts.Views = []string{"/views"}

	rec, err := e.IncludeSource("partial", opts)
	if err != nil {
		t.Fatalf("IncludeSource error: %v", err)
	}
	if rec.Filename != "/views/partial.html" {
		t.Errorf("filename: got %q", rec.Filename)
	}
	if rec.Template != "Hi <%= .name %>" {
		t.Errorf("template text: got %q", rec.Template)
	}
	if !strings.Contains(rec.Source, "{{escape (") {
		t.Errorf("generated source: got %q", rec.Source)
	}
}
