package models

// -----------------------------------------------------------------------------
// Server State Structure (pushed to WebSocket clients)
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type              string                          `json:"type"` // "INITIAL" or "UPDATE"
	Ticks             map[string]MTick                `json:"ticks"`
	Candles           map[string]map[string][]MCandle `json:"candles"`
	Timestamp         int64                           `json:"timestamp"`
	ProcessingMetrics MProcessingMetrics              `json:"processing_metrics"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command    string   `json:"command"`
	ClientType string   `json:"clientType"`
	Symbols    []string `json:"symbols"`
	Timeframe  string   `json:"timeframe"`
}
