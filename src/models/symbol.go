package models

// MSymbol holds static metadata for a tracked instrument.
type MSymbol struct {
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price"`
	PipDigits int32   `json:"pip_digits"` // decimal places prices are rounded to
	Market    string  `json:"market"`     // MIC code or "forex"
}

// MSymbolStatus is the API view of a symbol including live market state.
type MSymbolStatus struct {
	MSymbol
	MarketOpen bool `json:"market_open"`
}
