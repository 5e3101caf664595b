package models

// MProcessingMetrics represents performance metrics for the candle pipeline.
type MProcessingMetrics struct {
	AggregationTimeSeconds float64 `json:"aggregation_time_seconds"`
	ValidSymbols           int     `json:"valid_symbols"`
	WindowsProcessed       int     `json:"windows_processed"`
}
