package generator

import (
	"os"

	"github.com/hay-kot/stencil/internal/core"
)

// Issue is a problem found by Check in one templated file.
type Issue struct {
	File     core.TemplatedFile
	Template string
	Missing  []string // keys used by the template but absent from the set
	Err      error    // template read error
}

// Check reads every template the set may render and reports all keys the set
// cannot resolve. Unlike Run it does not stop at the first missing key.
func (g *Generator) Check() []Issue {
	var issues []Issue

	for _, file := range g.cfg.Files {
		if ok, _ := file.Eligible(g.set); !ok {
			continue
		}

		path := g.paths.Template(file.Template)

		body, err := os.ReadFile(path)
		if err != nil {
			issues = append(issues, Issue{
				File:     file,
				Template: path,
				Err:      &core.Error{Kind: core.KindTemplateRead, Path: path, Err: err},
			})
			continue
		}

		var missing []string
		for _, key := range g.pattern.Keys(string(body)) {
			if _, ok := g.set.Lookup(key); !ok {
				missing = append(missing, key)
			}
		}

		if len(missing) > 0 {
			issues = append(issues, Issue{File: file, Template: path, Missing: missing})
		}
	}

	return issues
}
