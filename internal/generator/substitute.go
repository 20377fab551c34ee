package generator

import "strings"

// Lookup resolves token keys for a named replacement set.
type Lookup interface {
	Lookup(key string) (string, bool)
}

// Template is a template body and the identifier used in errors.
type Template struct {
	Name string
	Body string
}

// Substitute replaces every token in tmpl.Body with its value from set. Text
// outside tokens is copied verbatim and inserted values are not scanned again.
// Resolution runs in document order and stops at the first unresolved key,
// returning a *TokenError and no output.
func Substitute(tmpl Template, p *Pattern, setName string, set Lookup) (string, error) {
	matches := p.Matches(tmpl.Body)
	if len(matches) == 0 {
		return tmpl.Body, nil
	}

	var (
		sb   strings.Builder
		tail int
	)
	sb.Grow(len(tmpl.Body))

	for _, m := range matches {
		val, ok := set.Lookup(m.Key)
		if !ok {
			return "", NewTokenError(tmpl, setName, m)
		}

		sb.WriteString(tmpl.Body[tail:m.Start])
		sb.WriteString(val)
		tail = m.End
	}

	sb.WriteString(tmpl.Body[tail:])

	return sb.String(), nil
}
