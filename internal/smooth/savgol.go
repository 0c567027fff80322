package smooth

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SavitzkyGolay smooths with a least-squares polynomial fitted over a sliding window.
// The first and last half-windows are evaluated on the polynomial fitted to the
// first and last full window, so edge samples are extrapolated instead of dropped.
type SavitzkyGolay struct {
	window int
	order  int
	coef   *mat.Dense // (order+1) x window, maps window samples to polynomial coefficients
}

func NewSavitzkyGolay(window, order int) (*SavitzkyGolay, error) {
	if window < 3 || window%2 == 0 {
		return nil, fmt.Errorf("savgol: window must be odd and at least 3: %d", window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("savgol: order must be in [0, %d): %d", window, order)
	}

	half := window / 2
	vander := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		for j := 0; j <= order; j++ {
			vander.Set(i, j, math.Pow(float64(i-half), float64(j)))
		}
	}

	var normal mat.Dense
	normal.Mul(vander.T(), vander)

	var coef mat.Dense
	if err := coef.Solve(&normal, vander.T()); err != nil {
		return nil, fmt.Errorf("savgol: solving normal equations: %w", err)
	}

	return &SavitzkyGolay{window: window, order: order, coef: &coef}, nil
}

func (s *SavitzkyGolay) Smooth(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)

	sg := s
	if n < s.window {
		w := n
		if w%2 == 0 {
			w--
		}
		if w < 3 {
			copy(out, values)
			return out
		}
		var err error
		if sg, err = NewSavitzkyGolay(w, min(s.order, w-1)); err != nil {
			copy(out, values)
			return out
		}
	}

	half := sg.window / 2
	center := sg.coef.RawRowView(0)
	for i := half; i < n-half; i++ {
		var acc float64
		for k, c := range center {
			acc += c * values[i-half+k]
		}
		out[i] = acc
	}

	left := sg.fit(values[:sg.window])
	for i := 0; i < half; i++ {
		out[i] = evalPoly(left, float64(i-half))
	}

	right := sg.fit(values[n-sg.window:])
	for i := n - half; i < n; i++ {
		out[i] = evalPoly(right, float64(i-(n-1-half)))
	}

	return out
}

func (s *SavitzkyGolay) fit(window []float64) []float64 {
	var c mat.VecDense
	c.MulVec(s.coef, mat.NewVecDense(len(window), window))
	return c.RawVector().Data
}

func evalPoly(coef []float64, x float64) float64 {
	var y float64
	for j := len(coef) - 1; j >= 0; j-- {
		y = y*x + coef[j]
	}
	return y
}
