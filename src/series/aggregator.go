package series

import (
	"sort"
	"time"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"
)

// Aggregator resamples raw ticks into epoch-aligned candles for the
// configured timeframe windows.
type Aggregator struct {
	TimeframeSeconds map[string]int64
	Logger           *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAggregator(timeframes []string, log *logger.Logger) *Aggregator {
	tfMap := make(map[string]int64)
	for _, tf := range timeframes {
		if dur, err := time.ParseDuration(tf); err == nil {
			tfMap[tf] = int64(dur.Seconds())
		}
	}

	return &Aggregator{
		TimeframeSeconds: tfMap,
		Logger:           log,
	}
}

// -----------------------------------------------------------------------------

// AggregateRealTime builds the candle for the current aligned window of each
// symbol, comparing against the previous aligned window when available.
func (a *Aggregator) AggregateRealTime(
	data map[string][]models.MTick,
	timeframe string,
) map[string]map[string]models.MCandle {

	results := make(map[string]map[string]models.MCandle)

	windowSeconds, ok := a.TimeframeSeconds[timeframe]
	if !ok {
		a.Logger.Error("Invalid timeframe %s", timeframe)
		return results
	}

	for symbol, ticks := range data {
		if len(ticks) == 0 {
			continue
		}

		sort.Slice(ticks, func(i, j int) bool {
			return ticks[i].Timestamp < ticks[j].Timestamp
		})

		// 1. Identify the current aligned window based on the LATEST tick
		lastPt := ticks[len(ticks)-1]
		currentWStart := lastPt.Timestamp - (lastPt.Timestamp % windowSeconds)
		currentWEnd := currentWStart + windowSeconds
		prevWStart := currentWStart - windowSeconds

		// 2. Partition ticks into current and previous windows
		var currentSubset []models.MTick
		var prevSubset []models.MTick

		for _, t := range ticks {
			if t.Timestamp >= currentWStart && t.Timestamp < currentWEnd {
				currentSubset = append(currentSubset, t)
			} else if t.Timestamp >= prevWStart && t.Timestamp < currentWStart {
				prevSubset = append(prevSubset, t)
			}
		}

		if len(currentSubset) == 0 {
			continue
		}

		// 3. Process current window
		pricesArr := make([]float64, len(currentSubset))
		volsArr := make([]float64, len(currentSubset))
		for i, t := range currentSubset {
			pricesArr[i] = t.Price
			volsArr[i] = t.Volume
		}

		ohlcv := ComputeOHLCV(pricesArr, volsArr)

		// 4. Changes vs previous window
		pctChange := 0.0
		volPct := 0.0

		if len(prevSubset) > 0 {
			prevClose := prevSubset[len(prevSubset)-1].Price
			prevVolTotal := 0.0
			for _, t := range prevSubset {
				prevVolTotal += t.Volume
			}

			pctChange = CalculateChangePercent(ohlcv["close"], prevClose)
			volPct = CalculateChangePercent(ohlcv["volume"], prevVolTotal)
		} else {
			// No previous window in memory (start of session/buffer)
			pctChange = CalculateChangePercent(ohlcv["close"], ohlcv["open"])
		}

		results[symbol] = map[string]models.MCandle{
			timeframe: {
				Symbol:              symbol,
				Timeframe:           timeframe,
				Open:                ohlcv["open"],
				High:                ohlcv["high"],
				Low:                 ohlcv["low"],
				Close:               ohlcv["close"],
				Volume:              ohlcv["volume"],
				AvgPrice:            ohlcv["avg_price"],
				PricePercentChange:  pctChange,
				VolumePercentChange: volPct,
				StartTime:           currentWStart,
				EndTime:             currentWEnd,
				DataPoints:          len(currentSubset),
			},
		}
	}

	return results
}

// -----------------------------------------------------------------------------

// AggregateHistorical resamples the full tick history of each symbol into
// a candle per aligned window.
func (a *Aggregator) AggregateHistorical(
	data map[string][]models.MTick,
	timeframe string,
) map[string]map[string][]models.MCandle {

	results := make(map[string]map[string][]models.MCandle)

	windowSeconds, ok := a.TimeframeSeconds[timeframe]
	if !ok {
		return results
	}

	for symbol, ticks := range data {
		if len(ticks) == 0 {
			continue
		}

		sort.Slice(ticks, func(i, j int) bool {
			return ticks[i].Timestamp < ticks[j].Timestamp
		})

		// Resample into windows
		windows := make(map[int64][]models.MTick)
		for _, t := range ticks {
			wStart := t.Timestamp - (t.Timestamp % windowSeconds)
			windows[wStart] = append(windows[wStart], t)
		}

		var windowStarts []int64
		for wStart := range windows {
			windowStarts = append(windowStarts, wStart)
		}
		sort.Slice(windowStarts, func(i, j int) bool {
			return windowStarts[i] < windowStarts[j]
		})

		var candles []models.MCandle
		var prevClose, prevVolume float64
		prevCloseSet := false

		for _, wStart := range windowStarts {
			subset := windows[wStart]
			if len(subset) == 0 {
				continue
			}

			pricesArr := make([]float64, len(subset))
			volsArr := make([]float64, len(subset))
			for i, t := range subset {
				pricesArr[i] = t.Price
				volsArr[i] = t.Volume
			}

			ohlcv := ComputeOHLCV(pricesArr, volsArr)

			pctChange := 0.0
			volChange := 0.0
			if prevCloseSet {
				pctChange = CalculateChangePercent(ohlcv["close"], prevClose)
				volChange = CalculateChangePercent(ohlcv["volume"], prevVolume)
			}

			candles = append(candles, models.MCandle{
				Symbol:              symbol,
				Timeframe:           timeframe,
				Open:                ohlcv["open"],
				High:                ohlcv["high"],
				Low:                 ohlcv["low"],
				Close:               ohlcv["close"],
				Volume:              ohlcv["volume"],
				AvgPrice:            ohlcv["avg_price"],
				PricePercentChange:  pctChange,
				VolumePercentChange: volChange,
				StartTime:           wStart,
				EndTime:             wStart + windowSeconds,
				DataPoints:          len(subset),
			})

			prevClose = ohlcv["close"]
			prevVolume = ohlcv["volume"]
			prevCloseSet = true
		}

		if len(candles) > 0 {
			results[symbol] = map[string][]models.MCandle{
				timeframe: candles,
			}
		}
	}

	return results
}
