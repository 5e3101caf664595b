package series

// -----------------------------------------------------------------------------
// Trailing window operations over float series.
// Partial windows at the head of the series use however many points exist.
// -----------------------------------------------------------------------------

// RollingMax returns the trailing maximum over the given window.
func RollingMax(data []float64, window int) []float64 {
	return rollingApply(data, window, func(w []float64) float64 {
		max := w[0]
		for _, v := range w[1:] {
			if v > max {
				max = v
			}
		}
		return max
	})
}

// -----------------------------------------------------------------------------

// RollingMin returns the trailing minimum over the given window.
func RollingMin(data []float64, window int) []float64 {
	return rollingApply(data, window, func(w []float64) float64 {
		min := w[0]
		for _, v := range w[1:] {
			if v < min {
				min = v
			}
		}
		return min
	})
}

// -----------------------------------------------------------------------------

// RollingMean returns the trailing mean over the given window.
func RollingMean(data []float64, window int) []float64 {
	return rollingApply(data, window, func(w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum / float64(len(w))
	})
}

// -----------------------------------------------------------------------------

func rollingApply(data []float64, window int, fn func([]float64) float64) []float64 {
	if window <= 0 {
		window = 1
	}

	result := make([]float64, len(data))
	for i := range data {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		result[i] = fn(data[start : i+1])
	}
	return result
}
