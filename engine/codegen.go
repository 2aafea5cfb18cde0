package engine

import (
	"regexp"
	"strings"

	"github.com/williampany/pro-smarty/lexer"
)

// generated is the code generator's output: the renderer source, the
// generated-line to template-line map (when compile diagnostics are on) and
// the include targets referenced with a string literal.
type generated struct {
	source   string
	lineMap  []int
	includes []string
}

// templateLine maps a line of the generated source back to the template
// line it was produced from.
func (g generated) templateLine(line int) int {
	if len(g.lineMap) == 0 || line <= 0 {
		return line
	}
	if line > len(g.lineMap) {
		line = len(g.lineMap)
	}
	return g.lineMap[line-1]
}

var includeRefPattern = regexp.MustCompile(`\binclude\s+"((?:[^"\\]|\\.)*)"`)

type generator struct {
	sb       strings.Builder
	lineMap  []int
	tmplLine int
	withMap  bool

	trimNextNewline bool

	includes []string
	seen     map[string]struct{}
}

// generate folds the classified segment sequence into a single text/template
// source that accumulates output in source order. Escaped output wraps the
// expression in the escape func, raw output in the raw func, and control
// directives splice their statement text verbatim into an action. Literal
// text passes through with the action delimiter neutralized, preserving the
// template's line structure so positions map back cleanly.
func generate(segments []lexer.Segment, compileDebug bool) generated {
	g := &generator{tmplLine: 1, withMap: compileDebug}
	if compileDebug {
		g.lineMap = append(g.lineMap, 1)
	}

	for _, seg := range segments {
		g.tmplLine = seg.Line

		if seg.Kind != lexer.KindLiteral {
			g.trimNextNewline = false
		}

		switch seg.Kind {
		case lexer.KindLiteral:
			g.literal(seg.Text)
		case lexer.KindEscaped:
			g.output("escape", seg)
		case lexer.KindRaw:
			g.output("raw", seg)
		case lexer.KindCode:
			g.collectIncludes(seg.Text)
			if strings.TrimSpace(seg.Text) == "" {
				g.trimOnly(seg)
			} else {
				g.action(seg.TrimBefore, seg.Text, seg.TrimAfter)
			}
			g.trimNextNewline = seg.TrimNewline
		case lexer.KindComment:
			g.trimOnly(seg)
			g.trimNextNewline = seg.TrimNewline
		}
	}

	return generated{source: g.sb.String(), lineMap: g.lineMap, includes: g.includes}
}

// write appends text, recording the template line each new generated line
// starts on.
func (g *generator) write(text string) {
	if !g.withMap {
		g.sb.WriteString(text)
		return
	}
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			g.sb.WriteString(text)
			return
		}
		g.sb.WriteString(text[:i+1])
		g.tmplLine++
		g.lineMap = append(g.lineMap, g.tmplLine)
		text = text[i+1:]
	}
}

func (g *generator) literal(text string) {
	if g.trimNextNewline {
		switch {
		case strings.HasPrefix(text, "\r\n"):
			text = text[2:]
			g.tmplLine++
		case strings.HasPrefix(text, "\n"):
			text = text[1:]
			g.tmplLine++
		}
		g.trimNextNewline = false
	}
	// Neutralize action delimiters occurring in literal text: the sequence
	// renders as "{{" without opening an action in the generated source.
	g.write(strings.ReplaceAll(text, "{{", `{{"{{"}}`))
}

func (g *generator) output(fn string, seg lexer.Segment) {
	g.collectIncludes(seg.Text)
	if strings.TrimSpace(seg.Text) == "" {
		g.trimOnly(seg)
	} else {
		g.action(seg.TrimBefore, fn+" ("+seg.Text+")", seg.TrimAfter)
	}
	g.trimNextNewline = seg.TrimNewline
}

func (g *generator) action(trimBefore bool, body string, trimAfter bool) {
	if trimBefore {
		g.write("{{- ")
	} else {
		g.write("{{")
	}
	g.write(body)
	if trimAfter {
		g.write(" -}}")
	} else {
		g.write("}}")
	}
}

// trimOnly emits an output-free action carrying the segment's whitespace
// trim markers, used for comments and empty directives.
func (g *generator) trimOnly(seg lexer.Segment) {
	if !seg.TrimBefore && !seg.TrimAfter {
		return
	}
	g.action(seg.TrimBefore, "/* */", seg.TrimAfter)
}

func (g *generator) collectIncludes(body string) {
	for _, match := range includeRefPattern.FindAllStringSubmatch(body, -1) {
		name := match[1]
		if name == "" {
			continue
		}
		if g.seen == nil {
			g.seen = make(map[string]struct{})
		}
		if _, dup := g.seen[name]; dup {
			continue
		}
		g.seen[name] = struct{}{}
		g.includes = append(g.includes, name)
	}
}

// stripWhitespace implements the rmWhitespace option: newline runs collapse
// to a single newline and every line loses its leading and trailing
// whitespace.
var newlineRunPattern = regexp.MustCompile(`[\r\n]+`)

func stripWhitespace(src string) string {
	src = newlineRunPattern.ReplaceAllString(src, "\n")
	lines := strings.Split(src, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
