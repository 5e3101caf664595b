package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"smc-analysis/src/interfaces"
	"smc-analysis/src/logger"
	"smc-analysis/src/models"
	"smc-analysis/src/series"
)

// -----------------------------------------------------------------------------
// RemoteSource pulls quotes from an upstream HTTP feed. The endpoint must
// expose two routes:
//
//	GET {endpoint}/quotes?symbols=A,B     -> {"quotes": [wireQuote, ...]}
//	GET {endpoint}/history?symbols=A,B&limit=N
//	                                      -> {"history": {"A": [wireQuote, ...]}}
// -----------------------------------------------------------------------------

type wireQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

type quotesResponse struct {
	Quotes []wireQuote `json:"quotes"`
}

type historyResponse struct {
	History map[string][]wireQuote `json:"history"`
}

// -----------------------------------------------------------------------------

type RemoteSource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger

	symbols    []string
	lastPrices map[string]float64
	lastVols   map[string]float64
	mu         sync.Mutex
	cancel     context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewRemoteSource(cfg *models.MConfig, nm interfaces.INetworkManager, log *logger.Logger) *RemoteSource {
	return &RemoteSource{
		Config:     cfg,
		Network:    nm,
		Logger:     log,
		symbols:    append([]string(nil), cfg.Feed.Symbols...),
		lastPrices: make(map[string]float64),
		lastVols:   make(map[string]float64),
	}
}

// -----------------------------------------------------------------------------

func (r *RemoteSource) Name() string { return "remote" }

func (r *RemoteSource) IsRealTime() bool { return true }

// -----------------------------------------------------------------------------

// toTick converts a wire quote, filling percent changes from the previous
// observation. Caller must hold r.mu.
func (r *RemoteSource) toTick(q wireQuote) models.MTick {
	tick := models.MTick{
		Symbol:              q.Symbol,
		Price:               q.Price,
		Volume:              q.Volume,
		PricePercentChange:  series.CalculateChangePercent(q.Price, r.lastPrices[q.Symbol]),
		VolumePercentChange: series.CalculateChangePercent(q.Volume, r.lastVols[q.Symbol]),
		Timestamp:           q.Timestamp,
		FetchedAt:           time.Now().UTC().Unix(),
	}

	r.lastPrices[q.Symbol] = q.Price
	r.lastVols[q.Symbol] = q.Volume
	return tick
}

// -----------------------------------------------------------------------------

func (r *RemoteSource) FetchInitialData() (map[string][]models.MTick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body, err := r.Network.Get(r.Config.Feed.Endpoint+"/history", map[string]string{
		"symbols": strings.Join(r.symbols, ","),
		"limit":   strconv.Itoa(r.Config.Feed.HistoryCandles),
	})
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}

	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	result := make(map[string][]models.MTick, len(resp.History))
	for sym, quotes := range resp.History {
		ticks := make([]models.MTick, 0, len(quotes))
		for _, q := range quotes {
			if q.Symbol == "" {
				q.Symbol = sym
			}
			ticks = append(ticks, r.toTick(q))
		}
		result[sym] = ticks
	}

	r.Logger.Info("Fetched history for %d symbols from %s", len(result), r.Config.Feed.Endpoint)
	return result, nil
}

// -----------------------------------------------------------------------------

func (r *RemoteSource) fetchQuotes() (map[string][]models.MTick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body, err := r.Network.Get(r.Config.Feed.Endpoint+"/quotes", map[string]string{
		"symbols": strings.Join(r.symbols, ","),
	})
	if err != nil {
		return nil, err
	}

	var resp quotesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode quotes response: %w", err)
	}

	batch := make(map[string][]models.MTick, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		batch[q.Symbol] = append(batch[q.Symbol], r.toTick(q))
	}
	return batch, nil
}

// -----------------------------------------------------------------------------

func (r *RemoteSource) UpdateSymbols(symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.symbols = append([]string(nil), symbols...)
	return nil
}

// -----------------------------------------------------------------------------

func (r *RemoteSource) Start(ctx context.Context, outputChan chan<- map[string][]models.MTick, wg *sync.WaitGroup) error {
	ctx, r.cancel = context.WithCancel(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(time.Duration(r.Config.Feed.TickIntervalSeconds) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.Logger.Info("RemoteSource stopped")
				return

			case <-ticker.C:
				batch, err := r.fetchQuotes()
				if err != nil {
					r.Logger.Error("Quote fetch failed: %v", err)
					continue
				}
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

func (r *RemoteSource) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}
