package series

import "math"

// -----------------------------------------------------------------------------

// ComputeOHLCV calculates OHLCV and AvgPrice from price/volume arrays.
func ComputeOHLCV(prices []float64, volumes []float64) map[string]float64 {
	if len(prices) == 0 {
		return map[string]float64{
			"open": 0, "high": 0, "low": 0, "close": 0, "volume": 0, "avg_price": 0,
		}
	}

	open := prices[0]
	closePrice := prices[len(prices)-1]
	high := -math.MaxFloat64
	low := math.MaxFloat64
	totalVol := 0.0
	sumPrice := 0.0

	for i, p := range prices {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
		totalVol += volumes[i]
		sumPrice += p
	}

	return map[string]float64{
		"open":      open,
		"high":      high,
		"low":       low,
		"close":     closePrice,
		"volume":    totalVol,
		"avg_price": sumPrice / float64(len(prices)),
	}
}

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates percentage change.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}

// -----------------------------------------------------------------------------

// ZScores normalizes data points against the series mean and standard
// deviation. A flat series yields all zeros.
func ZScores(data []float64) []float64 {
	mean, std := CalculateMeanStd(data)

	scores := make([]float64, len(data))
	if std == 0 {
		return scores
	}
	for i, v := range data {
		scores[i] = (v - mean) / std
	}
	return scores
}

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and standard deviation (population).
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(varianceSum / float64(len(data)))
}
