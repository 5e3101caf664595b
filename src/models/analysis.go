package models

import "time"

// Allowed values for MAnalysis.Direction.
const (
	DirectionBuy     = "buy"
	DirectionSell    = "sell"
	DirectionNeutral = "neutral"
)

// MAnalysis is a stored chart-analysis record. The service persists and
// serves these rows; the content itself is produced by clients.
type MAnalysis struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Direction  string    `json:"direction"` // buy / sell / neutral
	Confidence float64   `json:"confidence"`
	Summary    string    `json:"summary"`
	ChartPath  string    `json:"chart_path,omitempty"` // media-relative path
	CreatedAt  time.Time `json:"created_at"`
}
