package ui

import (
	"bytes"
	"io"
	"sync"
)

// HoldWriter passes writes through to W unless held, in which case they
// are buffered until Release.
type HoldWriter struct {
	W io.Writer

	mu   sync.Mutex
	held bool
	buf  bytes.Buffer
}

func NewHoldWriter(w io.Writer) *HoldWriter {
	return &HoldWriter{W: w}
}

func (h *HoldWriter) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.held {
		return h.buf.Write(p)
	}
	return h.W.Write(p)
}

func (h *HoldWriter) Hold() {
	h.mu.Lock()
	h.held = true
	h.mu.Unlock()
}

// Release flushes buffered output and resumes pass-through.
func (h *HoldWriter) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = false
	if h.buf.Len() == 0 {
		return nil
	}
	_, err := h.buf.WriteTo(h.W)
	return err
}
