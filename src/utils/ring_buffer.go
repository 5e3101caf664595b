package utils

import (
	"smc-analysis/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of tick features.
// True ring buffer - no resizing on append.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     [][models.RB_NUM_FEATURES]float64
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000 // Default reasonable size
	}

	return &RingBuffer{
		data:     make([][models.RB_NUM_FEATURES]float64, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a tick to the buffer
func (rb *RingBuffer) Append(point models.MTick) {
	rb.data[rb.index] = [models.RB_NUM_FEATURES]float64{
		float64(point.Timestamp),
		point.Price,
		point.Volume,
		point.PricePercentChange,
		point.VolumePercentChange,
	}

	rb.index = (rb.index + 1) % rb.capacity

	// Size never exceeds capacity
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

func (rb *RingBuffer) rowToTick(symbol string, row [models.RB_NUM_FEATURES]float64) models.MTick {
	return models.MTick{
		Symbol:              symbol,
		Timestamp:           int64(row[models.RB_IDX_TIMESTAMP]),
		Price:               row[models.RB_IDX_PRICE],
		Volume:              row[models.RB_IDX_VOLUME],
		PricePercentChange:  row[models.RB_IDX_PRICE_PCT],
		VolumePercentChange: row[models.RB_IDX_VOL_PCT],
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent ticks, oldest first.
func (rb *RingBuffer) GetLatest(symbol string, n int) []models.MTick {
	if rb.size == 0 || n <= 0 {
		return []models.MTick{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MTick, count)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.rowToTick(symbol, rb.data[idx])
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all ticks in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll(symbol string) []models.MTick {
	if rb.size == 0 {
		return []models.MTick{}
	}

	result := make([]models.MTick, rb.size)

	// Oldest element position depends on whether we have wrapped
	var startIdx int
	if rb.size == rb.capacity {
		startIdx = rb.index
	} else {
		startIdx = 0
	}

	for i := 0; i < rb.size; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.rowToTick(symbol, rb.data[idx])
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Resize changes the capacity of the buffer.
// If newCapacity < size, oldest data is dropped.
func (rb *RingBuffer) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	newData := make([][models.RB_NUM_FEATURES]float64, newCapacity)

	count := rb.size
	if count > newCapacity {
		count = newCapacity
	}

	// Keep the newest 'count' rows
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		newData[i] = rb.data[idx]
	}

	rb.data = newData
	rb.capacity = newCapacity
	rb.size = count
	rb.index = count % newCapacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
