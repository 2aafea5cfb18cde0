package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind represents the class of an engine error.
type Kind string

const (
	KindSyntax        Kind = "syntax_error"
	KindCompile       Kind = "compile_error"
	KindResolution    Kind = "resolution_error"
	KindConfiguration Kind = "configuration_error"
	KindRender        Kind = "render_error"
)

// Error is an engine error with an optional template-relative position and
// source snippet.
type Error struct {
	Kind    Kind
	Message string
	Name    string
	Line    int
	Snippet string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Name != "" {
		fmt.Fprintf(&sb, " in %s", e.Name)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Snippet != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Snippet)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new engine error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func newErrorAt(kind Kind, message, name string, line int, snippet string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Name:    name,
		Line:    line,
		Snippet: snippet,
		Cause:   cause,
	}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// IsSyntaxError checks whether err is a scanning or classification failure.
func IsSyntaxError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindSyntax
}

// IsCompileError checks whether err is a code generation or load failure.
func IsCompileError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindCompile
}

// IsResolutionError checks whether err is an include resolution failure.
func IsResolutionError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindResolution
}

// IsConfigurationError checks whether err is an invalid option combination.
func IsConfigurationError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConfiguration
}

// IsRenderError checks whether err is a runtime failure of a compiled renderer.
func IsRenderError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindRender
}

// formatSnippet renders the template lines surrounding line with a ">> "
// marker on the failing line, for readable diagnostics.
func formatSnippet(src string, line int) string {
	if line <= 0 || src == "" {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		marker := "   "
		if i == line-1 {
			marker = ">> "
		}
		fmt.Fprintf(&sb, "%s%3d| %s", marker, i+1, lines[i])
		if i != end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
