package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/stencil/internal/core"
)

type mapSet map[string]string

func (m mapSet) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func mustCompile(t *testing.T, before, after string) *Pattern {
	t.Helper()
	p, err := Compile(before, after)
	require.NoError(t, err)
	return p
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		body   string
		set    mapSet
		want   string
	}{
		{
			name:   "two tokens",
			before: "{{", after: "}}",
			body: "Hello {{name}}, you are {{age}}.",
			set:  mapSet{"name": "Ada", "age": "36"},
			want: "Hello Ada, you are 36.",
		},
		{
			name:   "adjacent tokens",
			before: "{{", after: "}}",
			body: "{{a}}{{b}}",
			set:  mapSet{"a": "X", "b": "Y"},
			want: "XY",
		},
		{
			name:   "no tokens",
			before: "{{", after: "}}",
			body: "no tokens here",
			set:  mapSet{},
			want: "no tokens here",
		},
		{
			name:   "empty template",
			before: "{{", after: "}}",
			body: "",
			set:  mapSet{"a": "X"},
			want: "",
		},
		{
			name:   "empty key",
			before: "{{", after: "}}",
			body: "[{{}}]",
			set:  mapSet{"": "nothing"},
			want: "[nothing]",
		},
		{
			name:   "non greedy capture",
			before: "{{", after: "}}",
			body: "{{a}} text {{b}}",
			set:  mapSet{"a": "1", "b": "2"},
			want: "1 text 2",
		},
		{
			name:   "inserted values are not rescanned",
			before: "{{", after: "}}",
			body: "{{a}}",
			set:  mapSet{"a": "{{b}}"},
			want: "{{b}}",
		},
		{
			name:   "regex metacharacters in delimiters",
			before: "$(", after: ")",
			body: "path=$(home)/bin and (untouched)",
			set:  mapSet{"home": "/home/ada"},
			want: "path=/home/ada/bin and (untouched)",
		},
		{
			name:   "keys are case sensitive",
			before: "<%", after: "%>",
			body: "<%Name%> <%name%>",
			set:  mapSet{"Name": "A", "name": "b"},
			want: "A b",
		},
		{
			name:   "unterminated token is verbatim",
			before: "{{", after: "}}",
			body: "{{a}} and {{b",
			set:  mapSet{"a": "X"},
			want: "X and {{b",
		},
		{
			name:   "tokens do not span lines",
			before: "{{", after: "}}",
			body: "{{a\n}}",
			set:  mapSet{},
			want: "{{a\n}}",
		},
		{
			name:   "multibyte text is preserved",
			before: "«", after: "»",
			body: "héllo «who» ✓",
			set:  mapSet{"who": "wörld"},
			want: "héllo wörld ✓",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.before, tt.after)
			got, err := Substitute(Template{Name: "t", Body: tt.body}, p, "s", tt.set)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_MissingKey(t *testing.T) {
	p := mustCompile(t, "{{", "}}")

	body := "line one\nhello {{known}} {{missing}} {{other}}\nline three"
	_, err := Substitute(Template{Name: "templates/greet", Body: body}, p, "home", mapSet{"known": "k"})
	require.Error(t, err)

	var te *TokenError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "missing", te.Key, "first failure in document order")
	assert.Equal(t, "home", te.Set)
	assert.Equal(t, "templates/greet", te.Template)
	assert.Equal(t, "{{missing}}", te.Token)
	assert.Equal(t, 2, te.Line)
	assert.Equal(t, 17, te.Column)
	assert.Equal(t, []string{"line one", "hello {{known}} {{missing}} {{other}}", "line three"}, te.Context)

	assert.True(t, core.IsKind(err, core.KindKeyUnresolved))
	assert.False(t, core.KindKeyUnresolved.Fatal())
	assert.Contains(t, err.Error(), "`missing`")
	assert.Contains(t, te.Pretty(), "templates/greet:2:17")
}

func TestSubstitute_OnlyMissing(t *testing.T) {
	p := mustCompile(t, "{{", "}}")

	out, err := Substitute(Template{Name: "t", Body: "{{missing}}"}, p, "home", mapSet{})
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestSubstitute_LengthLaw(t *testing.T) {
	p := mustCompile(t, "{{", "}}")
	set := mapSet{"a": "alpha", "bb": "", "c": "γ"}

	bodies := []string{
		"{{a}}",
		"x{{bb}}y{{c}}z",
		"{{a}}{{a}}{{bb}}{{c}} tail",
		"prefix only",
	}

	for _, body := range bodies {
		got, err := Substitute(Template{Name: "t", Body: body}, p, "s", set)
		require.NoError(t, err)

		want := len(body)
		for _, m := range p.Matches(body) {
			want += len(set[m.Key]) - (m.End - m.Start)
		}
		assert.Len(t, got, want, body)
	}
}

func TestSubstitute_Deterministic(t *testing.T) {
	p := mustCompile(t, "{{", "}}")
	tmpl := Template{Name: "t", Body: "{{a}}-{{b}}-{{a}}"}
	set := mapSet{"a": "1", "b": "2"}

	first, err := Substitute(tmpl, p, "s", set)
	require.NoError(t, err)
	second, err := Substitute(tmpl, p, "s", set)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPattern_Keys(t *testing.T) {
	p := mustCompile(t, "{{", "}}")

	assert.Equal(t, []string{"b", "a"}, p.Keys("{{b}} {{a}} {{b}}"))
	assert.Nil(t, p.Keys("none"))
}

func TestPattern_Matches(t *testing.T) {
	p := mustCompile(t, "[", "]")

	got := p.Matches("x[a]y[]")
	assert.Equal(t, []Match{
		{Start: 1, End: 4, Key: "a"},
		{Start: 5, End: 7, Key: ""},
	}, got)
}

func TestPattern_Literal(t *testing.T) {
	p := mustCompile(t, "$(", ")*")

	before, after := p.Delimiters()
	assert.Equal(t, "$(", before)
	assert.Equal(t, ")*", after)
	assert.Equal(t, []string{"a.b"}, p.Keys("x $(a.b)* y $(a.b)"))
}
