package printer

import (
	"context"
	"io"
)

type ctxkey string

const writerKey = ctxkey("writerKey")

// WithWriter attaches the writer that Ctx printers write to. main uses it to
// route command output through a DeferredWriter; tests pass a buffer.
func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	return context.WithValue(ctx, writerKey, writer)
}

// GetWriter returns the writer attached with WithWriter, if any.
func GetWriter(ctx context.Context) (io.Writer, bool) {
	w, ok := ctx.Value(writerKey).(io.Writer)
	return w, ok
}
