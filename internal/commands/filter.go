package commands

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hay-kot/stencil/internal/core"
	"github.com/hay-kot/stencil/internal/generator"
)

// expandShortcuts pulls `+set` and `!set` words out of input and turns them
// into whitelist expressions. Everything else, including quoted literals, is
// returned untouched as the base expression.
func expandShortcuts(input string) (string, []string) {
	var (
		rest    strings.Builder
		exprs   []string
		quote   byte
		escaped bool
	)

	for i := 0; i < len(input); {
		ch := input[i]

		if quote != 0 {
			rest.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\' && quote != '`':
				escaped = true
			case ch == quote:
				quote = 0
			}
			i++
			continue
		}

		if ch == '"' || ch == '\'' || ch == '`' {
			quote = ch
			rest.WriteByte(ch)
			i++
			continue
		}

		if (ch == '+' || ch == '!') && (i == 0 || isSpace(input[i-1])) {
			end := i + 1
			for end < len(input) && !isSpace(input[end]) {
				end++
			}

			if name := input[i+1 : end]; isSetName(name) {
				if ch == '+' {
					exprs = append(exprs, fmt.Sprintf("%q in whitelist", name))
				} else {
					exprs = append(exprs, fmt.Sprintf("not (%q in whitelist)", name))
				}

				for end < len(input) && isSpace(input[end]) {
					end++
				}
				i = end
				continue
			}
		}

		rest.WriteByte(ch)
		i++
	}

	return strings.TrimSpace(rest.String()), exprs
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isSetName accepts the characters a shortcut may name. Anything else, such
// as `!=` or `!(expr)`, is left to the expression parser.
func isSetName(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}

	return true
}

// compileExpr compiles a filter expression once for reuse. An empty
// expression matches every file.
func compileExpr(code string) (*vm.Program, error) {
	base, shortcuts := expandShortcuts(code)

	parts := shortcuts
	if base != "" {
		parts = append(parts, "("+base+")")
	}

	full := "true"
	if len(parts) > 0 {
		full = strings.Join(parts, " && ")
	}

	return expr.Compile(full, expr.AsBool())
}

// evalCompiledExpr evaluates a pre-compiled expression with given env
func evalCompiledExpr(program *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got %T", output)
	}

	return result, nil
}

// fileEnv exposes a templated file to filter expressions.
func fileEnv(file core.TemplatedFile, index int) map[string]any {
	whitelist := file.Whitelist
	if whitelist == nil {
		whitelist = []string{}
	}

	return map[string]any{
		"path":      file.Output,
		"template":  file.Template,
		"whitelist": whitelist,
		"index":     index,
	}
}

// newFilter compiles code into a generator filter. An empty expression
// returns a nil filter.
func newFilter(code string) (generator.FilterFunc, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}

	program, err := compileExpr(code)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	return func(file core.TemplatedFile, index int) (bool, error) {
		ok, err := evalCompiledExpr(program, fileEnv(file, index))
		if err != nil {
			return false, fmt.Errorf("filter evaluation failed for %s: %w", file.Output, err)
		}
		return ok, nil
	}, nil
}
