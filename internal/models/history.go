package models

import "github.com/san-kum/pidsim/internal/dynamo"

// history is a fixed-length shift register of samples, most recent first.
// Pushing overwrites the oldest slot and rotates the cursor; nothing is moved.
type history[T dynamo.Float] struct {
	buf  []T
	head int
}

func newHistory[T dynamo.Float](n int) *history[T] {
	return &history[T]{buf: make([]T, n)}
}

func (h *history[T]) Len() int { return len(h.buf) }

// Push records v as the newest sample and drops the oldest one.
func (h *history[T]) Push(v T) {
	n := len(h.buf)
	if n == 0 {
		return
	}
	h.head = (h.head + 1) % n
	h.buf[h.head] = v
}

// At returns the sample pushed i steps ago; At(0) is the newest.
func (h *history[T]) At(i int) T {
	n := len(h.buf)
	return h.buf[(h.head-i+n)%n]
}

func (h *history[T]) Reset() {
	clear(h.buf)
	h.head = 0
}

// Snapshot copies the samples out, newest first.
func (h *history[T]) Snapshot() []T {
	out := make([]T, len(h.buf))
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}
