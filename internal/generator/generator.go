package generator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/hay-kot/stencil/internal/core"
)

// Status is the outcome of one templated file.
type Status string

const (
	StatusRendered Status = "rendered"
	StatusPlanned  Status = "planned" // dry run: rendered in memory only
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Result describes what happened to a single templated file.
type Result struct {
	File     core.TemplatedFile
	Template string // resolved template path
	Output   string // resolved output path
	Status   Status
	Reason   string // why the file was skipped
	Err      error
}

// FilterFunc decides whether a file that the set may render is rendered in
// this run. index is the file's position in the config.
type FilterFunc func(file core.TemplatedFile, index int) (bool, error)

type Options struct {
	// Jobs bounds the number of files rendered at once. Values below 2 render
	// sequentially in declaration order.
	Jobs   int
	DryRun bool
	Filter FilterFunc
}

// Generator renders the templated files of a config with one replacement set.
type Generator struct {
	cfg     *core.ConfigFile
	set     core.ReplacementSet
	pattern *Pattern
	paths   core.PathResolver
	log     zerolog.Logger
	opts    Options
}

func New(cfg *core.ConfigFile, set core.ReplacementSet, l zerolog.Logger, opts Options) (*Generator, error) {
	p, err := Compile(cfg.Before, cfg.After)
	if err != nil {
		return nil, err
	}

	return &Generator{
		cfg:     cfg,
		set:     set,
		pattern: p,
		paths:   cfg.Resolver(),
		log:     l.With().Str("set", set.Name).Logger(),
		opts:    opts,
	}, nil
}

// Run processes every declared file and returns one result per file in
// declaration order. Failures are local to their file.
func (g *Generator) Run(ctx context.Context) []Result {
	files := g.cfg.Files
	results := make([]Result, len(files))

	if g.opts.Jobs < 2 {
		for i, f := range files {
			results[i] = g.process(ctx, i, f)
		}
		return results
	}

	p := pool.New().WithMaxGoroutines(g.opts.Jobs)
	for i, f := range files {
		p.Go(func() {
			results[i] = g.process(ctx, i, f)
		})
	}
	p.Wait()

	return results
}

func (g *Generator) process(ctx context.Context, index int, file core.TemplatedFile) Result {
	res := Result{
		File:     file,
		Template: g.paths.Template(file.Template),
		Output:   file.Output,
	}

	if err := ctx.Err(); err != nil {
		return g.fail(res, err)
	}

	if ok, reason := file.Eligible(g.set); !ok {
		res.Status = StatusSkipped
		res.Reason = reason
		g.log.Trace().Str("output", file.Output).Msg(reason + ", skipping")
		return res
	}

	if g.opts.Filter != nil {
		ok, err := g.opts.Filter(file, index)
		if err != nil {
			return g.fail(res, err)
		}
		if !ok {
			res.Status = StatusSkipped
			res.Reason = "excluded by filter"
			g.log.Trace().Str("output", file.Output).Msg("excluded by filter, skipping")
			return res
		}
	}

	out, err := g.paths.Output(file.Output)
	if err != nil {
		return g.fail(res, &core.Error{Kind: core.KindOutputWrite, Path: file.Output, Err: err})
	}
	res.Output = out

	g.log.Trace().
		Str("output", res.Output).
		Str("template", res.Template).
		Msg("building file from template")

	rendered, err := g.Render(file)
	if err != nil {
		return g.fail(res, err)
	}

	if g.opts.DryRun {
		res.Status = StatusPlanned
		return res
	}

	if err := WriteOutput(res.Output, rendered); err != nil {
		return g.fail(res, err)
	}

	res.Status = StatusRendered
	g.log.Debug().Str("output", res.Output).Msg("rendered file")

	return res
}

func (g *Generator) fail(res Result, err error) Result {
	res.Status = StatusFailed
	res.Err = err
	g.log.Warn().Err(err).Str("output", res.File.Output).Msg("aborting for this file")
	return res
}

// Render reads the file's template and substitutes it with the active set.
// Nothing is written.
func (g *Generator) Render(file core.TemplatedFile) (string, error) {
	path := g.paths.Template(file.Template)

	body, err := os.ReadFile(path)
	if err != nil {
		return "", &core.Error{Kind: core.KindTemplateRead, Path: path, Err: err}
	}

	return Substitute(Template{Name: path, Body: string(body)}, g.pattern, g.set.Name, g.set)
}

// WriteOutput truncates and overwrites path with content, creating missing
// parent directories. An existing file keeps its permissions.
func WriteOutput(path, content string) error {
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &core.Error{Kind: core.KindOutputWrite, Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &core.Error{Kind: core.KindOutputWrite, Path: path, Err: err}
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return &core.Error{Kind: core.KindOutputWrite, Path: path, Err: err}
	}

	return nil
}

// Pattern returns the compiled token pattern.
func (g *Generator) Pattern() *Pattern {
	return g.pattern
}
