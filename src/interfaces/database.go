package interfaces

import "smc-analysis/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Connect opens the database connection without touching the schema.
	// Maintenance commands run against tables a previous run created.
	Connect() error

	// -----------------------------------------------------------------------------

	// Initialize connects and sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveTicksBulk inserts a batch of raw price ticks.
	SaveTicksBulk(ticks []models.MTick) error

	// -----------------------------------------------------------------------------
	// SaveCandles upserts aggregated candles keyed by symbol and timeframe.
	SaveCandles(candles map[string]map[string][]models.MCandle) error

	// -----------------------------------------------------------------------------
	// GetCandles returns the most recent candles for a symbol and timeframe,
	// ordered oldest to newest.
	GetCandles(symbol string, timeframe string, limit int) ([]models.MCandle, error)

	// -----------------------------------------------------------------------------
	// Analysis records (client-produced, stored as rows)

	InsertAnalysis(a *models.MAnalysis) error
	GetAnalysis(id int64) (*models.MAnalysis, error)
	ListAnalyses(symbol string, limit int) ([]models.MAnalysis, error)
	DeleteAnalysis(id int64) error

	// -----------------------------------------------------------------------------
	// Upload metadata

	InsertUpload(u *models.MUpload) error
	ListUploads(limit int) ([]models.MUpload, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes rows older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
