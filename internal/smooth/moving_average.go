package smooth

// MovingAverage is a centered moving average over Window samples. An even window
// reaches one sample further forward than back. Near the edges the window is cut
// off on the short side only, so every output is the mean of the samples available.
type MovingAverage struct {
	Window int // samples
}

func (m MovingAverage) Smooth(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	window := max(m.Window, 1)
	back, ahead := (window-1)/2, window/2

	prefix := make([]float64, len(values)+1)
	for i, v := range values {
		prefix[i+1] = prefix[i] + v
	}

	last := len(values) - 1
	for i := range values {
		lo, hi := max(i-back, 0), min(i+ahead, last)
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}
	return out
}
