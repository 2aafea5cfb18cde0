package lexer

import (
	"fmt"
	"regexp"
	"strings"
)

// Config holds the delimiter characters used to build the marker grammar.
type Config struct {
	// Delimiter is the directive character, "%" by default.
	Delimiter string
	// OpenDelimiter is the character opening a directive, "<" by default.
	OpenDelimiter string
	// CloseDelimiter is the character closing a directive, ">" by default.
	CloseDelimiter string
}

// DefaultConfig returns the default delimiter configuration.
func DefaultConfig() Config {
	return Config{
		Delimiter:      "%",
		OpenDelimiter:  "<",
		CloseDelimiter: ">",
	}
}

// marker identifiers, used to dispatch on a regex match.
const (
	markerOpenLiteral  = iota // <%%  emits a literal "<%"
	markerCloseLiteral        // %%>  emits a literal "%>"
	markerOpenEscaped         // <%=
	markerOpenRaw             // <%-
	markerOpenSlurp           // <%_
	markerOpenComment         // <%#
	markerOpen                // <%
	markerCloseNewline        // -%>
	markerCloseSlurp          // _%>
	markerClose               // %>
)

// Scanner splits template text into literal and directive segments using a
// fixed marker grammar built from the configured delimiter characters.
type Scanner struct {
	config  Config
	markers *regexp.Regexp
	// marker spellings in alternation order, indexed by the marker constants
	spellings []string
}

// NewScanner creates a scanner for the given delimiter configuration.
// The marker alternation is ordered longest-first so that markers such as
// "<%=" are never shadowed by the bare "<%".
func NewScanner(config Config) *Scanner {
	if config.Delimiter == "" {
		config.Delimiter = "%"
	}
	if config.OpenDelimiter == "" {
		config.OpenDelimiter = "<"
	}
	if config.CloseDelimiter == "" {
		config.CloseDelimiter = ">"
	}

	o := config.OpenDelimiter
	d := config.Delimiter
	c := config.CloseDelimiter

	spellings := []string{
		markerOpenLiteral:  o + d + d,
		markerCloseLiteral: d + d + c,
		markerOpenEscaped:  o + d + "=",
		markerOpenRaw:      o + d + "-",
		markerOpenSlurp:    o + d + "_",
		markerOpenComment:  o + d + "#",
		markerOpen:         o + d,
		markerCloseNewline: "-" + d + c,
		markerCloseSlurp:   "_" + d + c,
		markerClose:        d + c,
	}

	quoted := make([]string, len(spellings))
	for i, s := range spellings {
		quoted[i] = regexp.QuoteMeta(s)
	}

	return &Scanner{
		config:    config,
		markers:   regexp.MustCompile(strings.Join(quoted, "|")),
		spellings: spellings,
	}
}

// Config returns the scanner's delimiter configuration.
func (s *Scanner) Config() Config {
	return s.config
}

func (s *Scanner) markerID(text string) int {
	for id, spelling := range s.spellings {
		if text == spelling {
			return id
		}
	}
	return -1
}

func isOpenMarker(id int) bool {
	switch id {
	case markerOpenEscaped, markerOpenRaw, markerOpenSlurp, markerOpenComment, markerOpen:
		return true
	}
	return false
}

func openKind(id int) Kind {
	switch id {
	case markerOpenEscaped:
		return KindEscaped
	case markerOpenRaw:
		return KindRaw
	case markerOpenComment:
		return KindComment
	default:
		return KindCode
	}
}

// Scan splits src into an ordered, finite segment sequence. Unmatched close
// markers and stray delimiter characters are literal text; an open marker
// inside a directive or an unterminated directive is a *ScanError.
func (s *Scanner) Scan(src string) ([]Segment, error) {
	var (
		segments []Segment
		lit      strings.Builder
		litLine  = 1
		line     = 1
		open     *Segment
		body     strings.Builder
	)

	flushLiteral := func() {
		if lit.Len() > 0 {
			segments = append(segments, Segment{Kind: KindLiteral, Text: lit.String(), Line: litLine})
			lit.Reset()
		}
		litLine = line
	}

	pos := 0
	for _, loc := range s.markers.FindAllStringIndex(src, -1) {
		text := src[pos:loc[0]]
		marker := src[loc[0]:loc[1]]
		id := s.markerID(marker)

		if open == nil {
			if lit.Len() == 0 {
				litLine = line
			}
			lit.WriteString(text)
			line += strings.Count(text, "\n")

			switch {
			case id == markerOpenLiteral:
				lit.WriteString(s.config.OpenDelimiter + s.config.Delimiter)
			case id == markerCloseLiteral:
				lit.WriteString(s.config.Delimiter + s.config.CloseDelimiter)
			case isOpenMarker(id):
				flushLiteral()
				open = &Segment{
					Kind:       openKind(id),
					Line:       line,
					TrimBefore: id == markerOpenSlurp,
				}
				body.Reset()
			default:
				// Close marker with no matching open: literal text.
				lit.WriteString(marker)
			}
		} else {
			body.WriteString(text)
			line += strings.Count(text, "\n")

			switch {
			case id == markerClose, id == markerCloseNewline, id == markerCloseSlurp:
				open.Text = body.String()
				open.TrimNewline = id == markerCloseNewline
				open.TrimAfter = id == markerCloseSlurp
				segments = append(segments, *open)
				open = nil
				litLine = line
			case id == markerCloseLiteral:
				// Literal close escape inside a directive splices the raw
				// delimiter sequence into the directive body.
				body.WriteString(s.config.Delimiter + s.config.CloseDelimiter)
			default:
				return nil, &ScanError{
					Message: fmt.Sprintf("unexpected %q inside directive", marker),
					Line:    open.Line,
				}
			}
		}
		pos = loc[1]
	}

	tail := src[pos:]
	if open != nil {
		return nil, &ScanError{
			Message: fmt.Sprintf("unterminated %s directive", strings.ToLower(open.Kind.String())),
			Line:    open.Line,
		}
	}
	if lit.Len() == 0 {
		litLine = line
	}
	lit.WriteString(tail)
	line += strings.Count(tail, "\n")
	flushLiteral()

	return segments, nil
}
