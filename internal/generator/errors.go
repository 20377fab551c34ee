package generator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/stencil/internal/core"
)

// TokenError reports a token whose key is missing from the active set.
type TokenError struct {
	Template string
	Set      string
	Key      string
	Token    string

	// Offset is the byte offset of the token; Line and Column are 1-based.
	Offset  int
	Line    int
	Column  int
	Context []string
}

var _ core.Kinded = (*TokenError)(nil)

func NewTokenError(tmpl Template, set string, m Match) *TokenError {
	te := &TokenError{
		Template: tmpl.Name,
		Set:      set,
		Key:      m.Key,
		Token:    tmpl.Body[m.Start:m.End],
		Offset:   m.Start,
	}

	te.locate(tmpl.Body)

	return te
}

func (te *TokenError) ErrorKind() core.Kind { return core.KindKeyUnresolved }

// locate derives the line and column of the token and keeps up to two lines of
// context on either side.
func (te *TokenError) locate(body string) {
	before := body[:te.Offset]
	te.Line = strings.Count(before, "\n") + 1

	lineStart := strings.LastIndexByte(before, '\n') + 1
	te.Column = utf8.RuneCountInString(before[lineStart:]) + 1

	lines := strings.Split(body, "\n")
	first := max(te.Line-3, 0)
	last := min(te.Line+2, len(lines))
	te.Context = lines[first:last]
}

func (te *TokenError) Error() string {
	return fmt.Sprintf("in file `%s`: could not find key `%s` in set `%s`", te.Template, te.Key, te.Set)
}

// Pretty renders the error with the surrounding template lines and a pointer
// at the offending token.
func (te *TokenError) Pretty() string {
	var (
		errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		fileStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
		lineNumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		errorLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		contextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		pointerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	)

	var sb strings.Builder

	sb.WriteString(errorStyle.Render("Unresolved Key") + "\n\n")
	sb.WriteString(fileStyle.Render(fmt.Sprintf("%s:%d:%d", te.Template, te.Line, te.Column)) + "\n\n")

	startLine := max(te.Line-2, 1)
	for i, line := range te.Context {
		current := startLine + i
		num := fmt.Sprintf("%4d │ ", current)

		if current != te.Line {
			sb.WriteString(lineNumStyle.Render(num) + contextStyle.Render(line) + "\n")
			continue
		}

		sb.WriteString(errorLineStyle.Render(num) + errorLineStyle.Render(line) + "\n")
		width := max(utf8.RuneCountInString(te.Token), 1)
		sb.WriteString(strings.Repeat(" ", 6+te.Column) + pointerStyle.Render(strings.Repeat("^", width)) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(errorStyle.Render("Error: ") + fmt.Sprintf("key `%s` is not defined in set `%s`", te.Key, te.Set) + "\n")

	return sb.String()
}
