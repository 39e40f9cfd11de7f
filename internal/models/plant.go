package models

import (
	"fmt"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// Plant is a discrete-time SISO system given by the rational transfer function
//
//	H(z) = (b0 + b1 z^-1 + ... + bm z^-m) / (a0 + a1 z^-1 + ... + an z^-n)
//
// Coefficients are stored normalized so that a0 == 1.
type Plant[T dynamo.Float] struct {
	num     []T
	den     []T
	order   int
	inputs  *history[T]
	outputs *history[T]
}

// NewPlant validates and normalizes the coefficients. The slices are copied.
func NewPlant[T dynamo.Float](num, den []T) (*Plant[T], error) {
	if len(den) == 0 || den[0] == 0 {
		return nil, fmt.Errorf("denominator coefficients must be provided and a0 must be non-zero: %w", dynamo.ErrInvalidArgument)
	}
	if len(num) == 0 {
		return nil, fmt.Errorf("numerator coefficients must be provided: %w", dynamo.ErrInvalidArgument)
	}

	a0 := den[0]
	p := &Plant[T]{
		num:   make([]T, len(num)),
		den:   make([]T, len(den)),
		order: len(den) - 1,
	}
	for i, b := range num {
		p.num[i] = b / a0
	}
	for i, a := range den {
		p.den[i] = a / a0
	}
	p.inputs = newHistory[T](p.order)
	p.outputs = newHistory[T](p.order)
	return p, nil
}

// Process advances the plant by one sample:
//
//	y[t] = sum(b[i] x[t-i], i=0..m) - sum(a[i] y[t-i], i=1..n)
//
// Numerator terms reaching past the input history are skipped. The current
// input is always available, so a zero-order plant acts as the gain b0.
func (p *Plant[T]) Process(input T) T {
	p.inputs.Push(input)

	var y T
	for i, b := range p.num {
		switch {
		case i == 0:
			y += b * input
		case i < p.inputs.Len():
			y += b * p.inputs.At(i)
		}
	}
	for i := 1; i < len(p.den); i++ {
		y -= p.den[i] * p.outputs.At(i-1)
	}

	p.outputs.Push(y)
	return y
}

// Reset zeroes the input and output histories.
func (p *Plant[T]) Reset() {
	p.inputs.Reset()
	p.outputs.Reset()
}

func (p *Plant[T]) Order() int { return p.order }

// Numerator returns a copy of the normalized numerator coefficients.
func (p *Plant[T]) Numerator() []T {
	return append([]T(nil), p.num...)
}

// Denominator returns a copy of the normalized denominator coefficients.
func (p *Plant[T]) Denominator() []T {
	return append([]T(nil), p.den...)
}

// InputHistory returns the stored inputs, newest first.
func (p *Plant[T]) InputHistory() []T { return p.inputs.Snapshot() }

// OutputHistory returns the stored outputs, newest first.
func (p *Plant[T]) OutputHistory() []T { return p.outputs.Snapshot() }
