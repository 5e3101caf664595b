package utils

import (
	"sync"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"
)

// -----------------------------------------------------------------------------
// MemoryManager manages in-memory tick buffers per symbol.
// -----------------------------------------------------------------------------

type MemoryManager struct {
	DataStreams   map[string]*RingBuffer
	MaxDataPoints int
	Logger        *logger.Logger
	mu            sync.RWMutex
}

// -----------------------------------------------------------------------------

// CalculateMaxDataPoints sizes the per-symbol buffer from the retention
// policy and the feed tick interval.
func CalculateMaxDataPoints(retentionDays int, tickIntervalSeconds int) int {
	if retentionDays <= 0 || tickIntervalSeconds <= 0 {
		return 1000
	}
	return retentionDays * 24 * 3600 / tickIntervalSeconds
}

// -----------------------------------------------------------------------------

func NewMemoryManager(maxDataPoints int, log *logger.Logger) *MemoryManager {
	return &MemoryManager{
		DataStreams:   make(map[string]*RingBuffer),
		MaxDataPoints: maxDataPoints,
		Logger:        log,
	}
}

// -----------------------------------------------------------------------------

// AddDataPoint adds a tick to the buffer for a symbol.
func (mm *MemoryManager) AddDataPoint(symbol string, data models.MTick) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, ok := mm.DataStreams[symbol]; !ok {
		mm.DataStreams[symbol] = NewRingBuffer(mm.MaxDataPoints)
	}

	mm.DataStreams[symbol].Append(data)
}

// -----------------------------------------------------------------------------

// GetHistory returns the full buffered history for a symbol.
func (mm *MemoryManager) GetHistory(symbol string) []models.MTick {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	buffer, ok := mm.DataStreams[symbol]
	if !ok {
		return []models.MTick{}
	}
	return buffer.GetAll(symbol)
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent ticks for a symbol.
func (mm *MemoryManager) GetLatest(symbol string, n int) []models.MTick {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	buffer, ok := mm.DataStreams[symbol]
	if !ok {
		return []models.MTick{}
	}
	return buffer.GetLatest(symbol, n)
}

// -----------------------------------------------------------------------------

// GetAllHistories returns the buffered history for every symbol.
func (mm *MemoryManager) GetAllHistories() map[string][]models.MTick {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	result := make(map[string][]models.MTick)
	for sym, buffer := range mm.DataStreams {
		if buffer.Size() == 0 {
			continue
		}
		result[sym] = buffer.GetAll(sym)
	}
	return result
}

// -----------------------------------------------------------------------------

// Symbols returns the symbols currently buffered.
func (mm *MemoryManager) Symbols() []string {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	symbols := make([]string, 0, len(mm.DataStreams))
	for sym := range mm.DataStreams {
		symbols = append(symbols, sym)
	}
	return symbols
}
