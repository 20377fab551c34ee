// Package printer writes styled, human oriented output to the terminal.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hay-kot/stencil/pkgs/styles"
)

// Prettier is implemented by errors that have a richer terminal rendering.
type Prettier interface {
	Pretty() string
}

type Printer struct {
	writer io.Writer
	base   styles.RenderFunc
	light  styles.RenderFunc
}

func New(w io.Writer) *Printer {
	return &Printer{
		writer: w,
		base:   styles.Bold,
		light:  styles.Subtle,
	}
}

// Ctx returns a copy of the printer that writes to the context writer, if one
// was set with WithWriter.
func (p *Printer) Ctx(ctx context.Context) *Printer {
	w, ok := GetWriter(ctx)
	if !ok {
		return p
	}

	cp := *p
	cp.writer = w
	return &cp
}

func (p *Printer) WithBase(style styles.RenderFunc) *Printer {
	cp := *p
	cp.base = style
	return &cp
}

func (p *Printer) WithLight(style styles.RenderFunc) *Printer {
	cp := *p
	cp.light = style
	return &cp
}

func (p *Printer) write(s string) {
	_, _ = io.WriteString(p.writer, s)
}

func (p *Printer) FatalError(err error) {
	var pe Prettier
	if errors.As(err, &pe) {
		p.write(pe.Pretty())
		return
	}

	title, msg, found := strings.Cut(err.Error(), "\n")
	if !found {
		title, msg = "Error", title
	}

	p.write(styles.ErrorBox(title, msg) + "\n")
}

// ErrorLine writes err as a single unstyled line, for output that is piped or
// logged. Multi-line messages are joined with "; ".
func (p *Printer) ErrorLine(err error) {
	parts := strings.FieldsFunc(err.Error(), func(r rune) bool { return r == '\n' })
	p.write("error: " + strings.Join(parts, "; ") + "\n")
}

// Report renders a fatal err. At a terminal, or when err has its own
// rendering, it goes through FatalError; otherwise it is written to piped as
// a single ErrorLine.
func (p *Printer) Report(err error, tty bool, piped io.Writer) {
	var pe Prettier
	if tty || errors.As(err, &pe) {
		p.FatalError(err)
		return
	}

	cp := *p
	cp.writer = piped
	cp.ErrorLine(err)
}

func (p *Printer) Title(title string) {
	p.write(p.base(title) + "\n")
}

func (p *Printer) LineBreak() {
	p.write("\n")
}

// Lines writes each item on its own line with no styling, for output that is
// meant to be piped.
func (p *Printer) Lines(items []string) {
	for _, item := range items {
		p.write(item + "\n")
	}
}

func (p *Printer) List(title string, items []string) {
	p.Title(title)
	for _, item := range items {
		p.write(fmt.Sprintf("  %s %s\n", p.light(styles.Dot), item))
	}
}

type StatusListItem struct {
	Ok     bool
	Status string
	Detail string
}

func (p *Printer) StatusList(title string, items []StatusListItem) {
	p.Title(title)
	for _, item := range items {
		icon := styles.Success(styles.Check)
		if !item.Ok {
			icon = styles.Error(" " + styles.Cross)
		}

		line := fmt.Sprintf(" %s %s", icon, item.Status)
		if item.Detail != "" {
			line += p.light(item.Detail)
		}
		p.write(line + "\n")
	}
}

type KeyValue struct {
	Key   string
	Value string
}

// KeyValues prints aligned key/value pairs under a title.
func (p *Printer) KeyValues(title string, items []KeyValue) {
	p.Title(title)

	width := 0
	for _, kv := range items {
		width = max(width, len(kv.Key))
	}

	for _, kv := range items {
		p.write(fmt.Sprintf("  %-*s %s\n", width, kv.Key, p.light(kv.Value)))
	}
}
