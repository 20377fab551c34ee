package generator

import (
	"fmt"
	"regexp"
)

// Pattern matches delimiter-wrapped tokens. The delimiters are matched
// literally and the key between them is captured lazily, so `{{a}} x {{b}}`
// yields the two tokens `a` and `b`. Tokens do not span lines.
type Pattern struct {
	before string
	after  string
	re     *regexp.Regexp
}

// Match is one token occurrence: Body[Start:End] is the full token and Key is
// the text between the delimiters.
type Match struct {
	Start int
	End   int
	Key   string
}

// Compile builds the token pattern for a delimiter pair. Since both delimiters
// are quoted, an error here is an internal failure rather than a user one.
func Compile(before, after string) (*Pattern, error) {
	expr := regexp.QuoteMeta(before) + `(.*?)` + regexp.QuoteMeta(after)

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile token pattern %q: %w", expr, err)
	}

	return &Pattern{before: before, after: after, re: re}, nil
}

// Delimiters returns the literal before and after delimiters.
func (p *Pattern) Delimiters() (before, after string) {
	return p.before, p.after
}

func (p *Pattern) String() string {
	return p.re.String()
}

// Matches returns every non-overlapping token in body, left to right.
func (p *Pattern) Matches(body string) []Match {
	idx := p.re.FindAllStringSubmatchIndex(body, -1)
	if len(idx) == 0 {
		return nil
	}

	out := make([]Match, len(idx))
	for i, m := range idx {
		out[i] = Match{Start: m[0], End: m[1], Key: body[m[2]:m[3]]}
	}

	return out
}

// Keys returns the distinct token keys of body in order of first appearance.
func (p *Pattern) Keys(body string) []string {
	var (
		keys []string
		seen = map[string]bool{}
	)

	for _, m := range p.Matches(body) {
		if seen[m.Key] {
			continue
		}
		seen[m.Key] = true
		keys = append(keys, m.Key)
	}

	return keys
}
