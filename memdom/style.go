package memdom

import (
	"strings"
)

type declaration struct {
	name, value string
}

// declarations is an inline style in source order.
type declarations []declaration

func (ds declarations) get(name string) string {
	name = strings.ToLower(name)
	for _, d := range ds {
		if d.name == name {
			return d.value
		}
	}
	return ""
}

func (ds declarations) set(name, value string) declarations {
	name = strings.ToLower(name)
	for i, d := range ds {
		if d.name == name {
			out := append(declarations(nil), ds...)
			out[i].value = value
			return out
		}
	}
	return append(append(declarations(nil), ds...), declaration{name: name, value: value})
}

func (ds declarations) remove(name string) (declarations, bool) {
	name = strings.ToLower(name)
	for i, d := range ds {
		if d.name == name {
			out := append(declarations(nil), ds[:i]...)
			return append(out, ds[i+1:]...), true
		}
	}
	return ds, false
}

// String renders the declarations as cssText.
func (ds declarations) String() string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, d.name+": "+d.value+";")
	}
	return strings.Join(parts, " ")
}

// parseDeclarations splits a cssText on semicolons outside quotes and
// parentheses, so data URLs inside url(...) survive.
func parseDeclarations(css string) declarations {
	var (
		out   declarations
		depth int
		quote rune
		start int
	)

	flush := func(end int) {
		name, value, ok := strings.Cut(css[start:end], ":")
		name = strings.ToLower(strings.TrimSpace(name))
		if ok && name != "" {
			out = out.set(name, strings.TrimSpace(value))
		}
	}

	for i, r := range css {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			flush(i)
			start = i + 1
		}
	}
	flush(len(css))

	return out
}
