package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"smc-analysis/src/datasource"
	"smc-analysis/src/logger"
	"smc-analysis/src/models"
	"smc-analysis/src/series"
	"smc-analysis/src/utils"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// SimSource produces a random-walk price feed. Each tick-interval window
// moves the price by up to ±2%, the high/low excursion is 1.2 to 2.0 times
// the open-close move, candle volume is uniform in [1000, 10000], and all
// prices are rounded to the symbol's pip digits. A window is emitted as
// four ticks (open, high, low, close) so the aggregator reconstructs the
// full candle shape.
// -----------------------------------------------------------------------------

const ticksPerWindow = 4

type SimSource struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Scheduler *utils.MarketScheduler

	symbols []string
	prices  map[string]float64 // last close per symbol
	volumes map[string]float64 // last window volume per symbol
	rng     *rand.Rand
	mu      sync.Mutex
	cancel  context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewSimSource(cfg *models.MConfig, sched *utils.MarketScheduler, log *logger.Logger) *SimSource {
	s := &SimSource{
		Config:    cfg,
		Logger:    log,
		Scheduler: sched,
		symbols:   append([]string(nil), cfg.Feed.Symbols...),
		prices:    make(map[string]float64),
		volumes:   make(map[string]float64),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, sym := range s.symbols {
		s.prices[sym] = datasource.SymbolFor(sym).BasePrice
	}

	return s
}

// -----------------------------------------------------------------------------

func (s *SimSource) Name() string { return "sim" }

func (s *SimSource) IsRealTime() bool { return false }

// -----------------------------------------------------------------------------

// roundPip rounds a price to the symbol's pip precision.
func roundPip(price float64, digits int32) float64 {
	f, _ := decimal.NewFromFloat(price).Round(digits).Float64()
	return f
}

// -----------------------------------------------------------------------------

// stepWindow advances the random walk by one window and returns its four
// ticks (open, high, low, close) spread across the window.
// Caller must hold s.mu.
func (s *SimSource) stepWindow(symbol string, wStart int64, windowSeconds int64) []models.MTick {
	meta := datasource.SymbolFor(symbol)

	open, ok := s.prices[symbol]
	if !ok || open == 0 {
		open = meta.BasePrice
	}

	// ±2% move per window
	changePercent := (s.rng.Float64() * 0.04) - 0.02
	move := open * changePercent
	closePrice := roundPip(open+move, meta.PipDigits)

	// Excursion beyond the open/close range
	volatility := math.Abs(move) * (1.2 + s.rng.Float64()*0.8)

	high := roundPip(max(open, closePrice)+volatility, meta.PipDigits)
	low := roundPip(min(open, closePrice)-volatility, meta.PipDigits)
	if low <= 0 {
		low = roundPip(min(open, closePrice)*0.98, meta.PipDigits)
	}

	totalVolume := float64(1000 + s.rng.Intn(9001))
	tickVolume := totalVolume / ticksPerWindow
	prevVolume := s.volumes[symbol]

	quarter := windowSeconds / ticksPerWindow
	if quarter < 1 {
		quarter = 1
	}

	prices := [ticksPerWindow]float64{open, high, low, closePrice}
	fetchedAt := time.Now().UTC().Unix()

	ticks := make([]models.MTick, 0, ticksPerWindow)
	prevPrice := open
	for i, p := range prices {
		ticks = append(ticks, models.MTick{
			Symbol:              symbol,
			Price:               p,
			Volume:              tickVolume,
			PricePercentChange:  series.CalculateChangePercent(p, prevPrice),
			VolumePercentChange: series.CalculateChangePercent(totalVolume, prevVolume),
			Timestamp:           wStart + int64(i)*quarter,
			FetchedAt:           fetchedAt,
		})
		prevPrice = p
	}

	s.prices[symbol] = closePrice
	s.volumes[symbol] = totalVolume
	return ticks
}

// -----------------------------------------------------------------------------

// FetchInitialData generates seed history for every configured symbol:
// one window per tick interval, ending at the current time.
func (s *SimSource) FetchInitialData() (map[string][]models.MTick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.Config.Feed.HistoryCandles
	interval := int64(s.Config.Feed.TickIntervalSeconds)
	now := time.Now().UTC().Unix()
	start := now - int64(count)*interval

	result := make(map[string][]models.MTick, len(s.symbols))

	for _, sym := range s.symbols {
		ticks := make([]models.MTick, 0, count*ticksPerWindow)
		for i := 0; i < count; i++ {
			ticks = append(ticks, s.stepWindow(sym, start+int64(i)*interval, interval)...)
		}
		result[sym] = ticks
	}

	s.Logger.Info("Generated %d seed windows for %d symbols", count, len(s.symbols))
	return result, nil
}

// -----------------------------------------------------------------------------

func (s *SimSource) UpdateSymbols(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols = append([]string(nil), symbols...)
	for _, sym := range s.symbols {
		if _, ok := s.prices[sym]; !ok {
			s.prices[sym] = datasource.SymbolFor(sym).BasePrice
		}
	}

	if s.Scheduler != nil {
		s.Scheduler.UpdateSymbols(symbols)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *SimSource) Start(ctx context.Context, outputChan chan<- map[string][]models.MTick, wg *sync.WaitGroup) error {
	ctx, s.cancel = context.WithCancel(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(time.Duration(s.Config.Feed.TickIntervalSeconds) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.Logger.Info("SimSource stopped")
				return

			case <-ticker.C:
				batch := s.generateBatch()
				if len(batch) == 0 {
					continue
				}

				select {
				case outputChan <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// -----------------------------------------------------------------------------

func (s *SimSource) generateBatch() map[string][]models.MTick {
	s.mu.Lock()
	defer s.mu.Unlock()

	interval := int64(s.Config.Feed.TickIntervalSeconds)
	now := time.Now().UTC().Unix()
	wStart := now - interval

	batch := make(map[string][]models.MTick)

	for _, sym := range s.symbols {
		// Closed market produces no ticks
		if s.Scheduler != nil && !s.Scheduler.IsSymbolOpen(sym) {
			continue
		}
		batch[sym] = s.stepWindow(sym, wStart, interval)
	}

	return batch
}

// -----------------------------------------------------------------------------

func (s *SimSource) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
