package engine

import (
	"fmt"
	"html"
	"text/template"
)

// stringify renders a directive value as output text. Absent values render
// empty rather than as a placeholder.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprint(x)
	}
}

// BaseFuncs returns the func set every generated renderer source depends on.
// Client-mode source embedded elsewhere must be parsed with these funcs.
// The include and context entries are placeholders so any generated source
// parses; an engine render rebinds them, and an embedder loading client
// source can do the same through Funcs before parsing.
func BaseFuncs() template.FuncMap {
	return template.FuncMap{
		"escape": func(v any) string { return html.EscapeString(stringify(v)) },
		"raw":    func(v any) string { return stringify(v) },
		"dict":   dictFunc,
		"context": func() any {
			return nil
		},
		"include": func(name string, extra ...any) (string, error) {
			return "", NewError(KindRender,
				fmt.Sprintf("include %q is not bound outside an engine render", name))
		},
	}
}

func dictFunc(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, NewError(KindRender, "dict requires an even number of key/value arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, NewError(KindRender, fmt.Sprintf("dict key %v is not a string", pairs[i]))
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
