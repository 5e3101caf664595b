package interfaces

import (
	"context"
	"sync"

	"smc-analysis/src/models"
)

// -----------------------------------------------------------------------------
// IDataSource interface for producing price ticks.
// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchInitialData retrieves seed history for all configured symbols.
	FetchInitialData() (map[string][]models.MTick, error)

	// -----------------------------------------------------------------------------

	// IsRealTime returns true if the source provides real-time data
	IsRealTime() bool

	// -----------------------------------------------------------------------------

	// UpdateSymbols updates the list of symbols being produced
	UpdateSymbols(symbols []string) error

	// -----------------------------------------------------------------------------

	// Start begins the production loop.
	// ctx: controls the lifecycle (cancellation stops the source)
	// outputChan: channel to push tick batches to
	// wg: WaitGroup to signal when the source has fully stopped
	Start(ctx context.Context, outputChan chan<- map[string][]models.MTick, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the production loop (manual stop; cancelling the
	// context passed to Start is the preferred path).
	Stop() error
}
