package models

import (
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// DCGain returns H(1), the steady-state gain for a constant input.
func (p *Plant[T]) DCGain() (float64, error) {
	den := floats.Sum(toFloat64(p.den))
	if den == 0 {
		return 0, dynamo.ErrNoDCGain
	}
	return floats.Sum(toFloat64(p.num)) / den, nil
}

// Poles returns the roots of z^n + a1 z^(n-1) + ... + an, computed as the
// eigenvalues of the companion matrix.
func (p *Plant[T]) Poles() []complex128 {
	n := p.order
	if n == 0 {
		return nil
	}

	c := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		c.Set(0, j, -float64(p.den[j+1]))
	}
	for i := 1; i < n; i++ {
		c.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}

// IsStable reports whether every pole lies strictly inside the unit circle.
func (p *Plant[T]) IsStable() bool {
	poles := p.Poles()
	if poles == nil && p.order > 0 {
		return false
	}
	for _, z := range poles {
		if cmplx.Abs(z) >= 1 {
			return false
		}
	}
	return true
}

func toFloat64[T dynamo.Float](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
