package datasource

import "smc-analysis/src/models"

// -----------------------------------------------------------------------------
// Symbol catalog. Base prices seed the simulated feed; pip digits drive
// price rounding everywhere.
// -----------------------------------------------------------------------------

var knownSymbols = map[string]models.MSymbol{
	"EURUSD": {Name: "EURUSD", BasePrice: 1.1000, PipDigits: 5, Market: "forex"},
	"GBPUSD": {Name: "GBPUSD", BasePrice: 1.2500, PipDigits: 5, Market: "forex"},
	"USDJPY": {Name: "USDJPY", BasePrice: 110.00, PipDigits: 5, Market: "forex"},
	"AUDUSD": {Name: "AUDUSD", BasePrice: 0.7500, PipDigits: 5, Market: "forex"},
	"USDCAD": {Name: "USDCAD", BasePrice: 1.2500, PipDigits: 5, Market: "forex"},
	"NZDUSD": {Name: "NZDUSD", BasePrice: 0.7000, PipDigits: 5, Market: "forex"},
	"USDCHF": {Name: "USDCHF", BasePrice: 0.9200, PipDigits: 5, Market: "forex"},
}

// -----------------------------------------------------------------------------

// SymbolFor returns metadata for a symbol, falling back to a generic
// instrument with base price 1.0 for unknown names.
func SymbolFor(name string) models.MSymbol {
	if s, ok := knownSymbols[name]; ok {
		return s
	}
	return models.MSymbol{Name: name, BasePrice: 1.0000, PipDigits: 5, Market: "forex"}
}

// -----------------------------------------------------------------------------

// Catalog returns metadata for a list of symbol names.
func Catalog(names []string) []models.MSymbol {
	result := make([]models.MSymbol, 0, len(names))
	for _, n := range names {
		result = append(result, SymbolFor(n))
	}
	return result
}
