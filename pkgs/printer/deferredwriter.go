package printer

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter holds everything written to it until Flush, so command
// output is not interleaved with log lines or interactive prompts.
type DeferredWriter struct {
	mu     sync.Mutex
	buff   bytes.Buffer
	writer io.Writer
}

func NewDeferredWriter(w io.Writer) *DeferredWriter {
	return &DeferredWriter{writer: w}
}

func (dw *DeferredWriter) Write(p []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.buff.Write(p)
}

func (dw *DeferredWriter) Flush() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	_, err := dw.buff.WriteTo(dw.writer)
	return err
}
