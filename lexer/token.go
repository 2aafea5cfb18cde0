package lexer

import "fmt"

// Kind classifies a scanned template segment.
type Kind int

const (
	// KindLiteral is plain template text emitted verbatim.
	KindLiteral Kind = iota
	// KindEscaped is an output directive whose value is escaped before emission.
	KindEscaped
	// KindRaw is an output directive whose value is emitted verbatim.
	KindRaw
	// KindCode is a control directive spliced into the generated renderer body.
	KindCode
	// KindComment is a comment directive, discarded during generation.
	KindComment
)

var kindNames = map[Kind]string{
	KindLiteral: "LITERAL",
	KindEscaped: "ESCAPED",
	KindRaw:     "RAW",
	KindCode:    "CODE",
	KindComment: "COMMENT",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Segment is one classified span of a template: either literal text or the
// body of a single directive. Line is the 1-based template line on which the
// segment starts. The trim flags record whitespace-control markers attached
// to the directive.
type Segment struct {
	Kind Kind
	Text string
	Line int

	// TrimBefore slurps all whitespace preceding the directive (<%_).
	TrimBefore bool
	// TrimAfter slurps all whitespace following the directive (_%>).
	TrimAfter bool
	// TrimNewline strips a single newline following the directive (-%>).
	TrimNewline bool
}

func (s Segment) String() string {
	return fmt.Sprintf("%s(%q) at line %d", s.Kind, s.Text, s.Line)
}

// ScanError represents a scanning failure with a template-relative position.
type ScanError struct {
	Message string
	Line    int
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s at line %d", e.Message, e.Line)
}
